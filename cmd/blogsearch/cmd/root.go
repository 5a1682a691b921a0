// Package cmd provides the CLI commands for blogsearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/config"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/logging"
	"github.com/Aman-CERP/blogsearch/internal/profiling"
	"github.com/Aman-CERP/blogsearch/pkg/version"
)

// Global flags
var (
	debugMode      bool
	projectDir     string
	loggingCleanup func()

	profileOpts profiling.Options
	profile     *profiling.Session
)

// NewRootCmd creates the root command for the blogsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogsearch",
		Short: "Full-text search for a Chinese and English blog",
		Long: `blogsearch indexes the articles under the posts directory and answers
ranked free-text and tag queries over them.

Chinese text is segmented into words, English text is stemmed, and
matches are returned with highlighted snippets.

Run 'blogsearch index' once, then 'blogsearch search <query>'.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { teardown() },
	}

	cmd.SetVersionTemplate("blogsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to stderr and ~/.blogsearch/logs/")
	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Blog root holding .blogsearch.yaml, posts/ and search/")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup installs the logger and starts any requested profiles.
func setup(cmd *cobra.Command, args []string) error {
	if err := startLogging(cmd, args); err != nil {
		return err
	}
	p, err := profiling.Start(profileOpts)
	if err != nil {
		return err
	}
	profile = p
	return nil
}

// teardown writes profiles and closes the log file.
func teardown() {
	if err := profile.Stop(); err != nil {
		slog.Warn("profile_write_failed", slog.String("error", err.Error()))
	}
	profile = nil
	stopLogging()
}

// startLogging installs the process logger. serve logs to file only:
// stdout carries JSON-RPC and stderr is often captured by the client.
func startLogging(cmd *cobra.Command, _ []string) error {
	var cfg logging.Config
	switch {
	case cmd.Name() == "serve":
		cfg = logging.ServeConfig("info")
		if debugMode {
			cfg.Level = "debug"
		}
	case debugMode:
		cfg = logging.DebugConfig()
	default:
		cfg = logging.DefaultConfig()
		cfg.Level = "warn"
		cfg.WriteToStderr = false
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

func stopLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig loads configuration for the --dir blog root and loads the
// segmenter with the configured user dictionary.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}
	if _, err := analysis.LoadSegmenter(cfg.Analysis.UserDict); err != nil {
		return nil, apperrors.ConfigError("failed to load segmentation dictionary", err).
			WithSuggestion("Check analysis.user_dict in .blogsearch.yaml")
	}
	return cfg, nil
}

// Execute runs the root command and prints any error for the terminal.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		slog.Debug("command_failed", apperrors.LogAttrs(err)...)
		teardown()
		_, _ = fmt.Fprint(os.Stderr, apperrors.FormatForCLI(err))
	}
	return err
}
