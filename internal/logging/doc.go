// Package logging configures structured JSON logging for blogsearch.
//
// Logs go to a size-rotated file under ~/.blogsearch/logs/ and, unless the
// process is serving MCP over stdio, to stderr as well. With --debug the
// level drops to debug so query plans and per-stage timings are visible.
package logging
