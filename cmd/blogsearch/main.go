// Package main provides the entry point for the blogsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/blogsearch/cmd/blogsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
