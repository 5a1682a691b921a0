package watcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change under the posts directory.
type FileEvent struct {
	// Path is relative to the posts directory.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// IsDir indicates if the event is for a directory.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 500ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 100
	EventBufferSize int

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// OptionsFrom converts the watch section of the configuration.
func OptionsFrom(cfg config.WatchConfig) (Options, error) {
	var opts Options
	if cfg.Debounce != "" {
		d, err := time.ParseDuration(cfg.Debounce)
		if err != nil {
			return Options{}, apperrors.ConfigError("invalid watch.debounce", err).
				WithDetail("value", cfg.Debounce)
		}
		opts.DebounceWindow = d
	}
	if cfg.PollInterval != "" {
		d, err := time.ParseDuration(cfg.PollInterval)
		if err != nil {
			return Options{}, apperrors.ConfigError("invalid watch.poll_interval", err).
				WithDetail("value", cfg.PollInterval)
		}
		opts.PollInterval = d
	}
	return opts.WithDefaults(), nil
}

// relevant reports whether a change at relPath can alter the registry:
// an article directory directly under the root, or a front-matter file.
// Hidden files and directories never are.
func relevant(relPath string, isDir bool) bool {
	if relPath == "" || relPath == "." {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	if isDir {
		return !strings.Contains(relPath, "/")
	}
	return filepath.Base(relPath) == content.FrontMatterFile
}

// depth returns the number of path elements in relPath.
func depth(relPath string) int {
	if relPath == "." || relPath == "" {
		return 0
	}
	return strings.Count(filepath.ToSlash(relPath), "/") + 1
}
