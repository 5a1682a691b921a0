package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// SyncMode controls when a log file is flushed to disk.
type SyncMode int

const (
	// SyncEachWrite flushes after every record, so a tail of the file
	// shows the server's latest events.
	SyncEachWrite SyncMode = iota
	// SyncOnClose flushes once when the writer closes. The build job logs
	// a record per article and only needs the file complete at exit.
	SyncOnClose
)

// WriterOptions configures a RotatingWriter.
type WriterOptions struct {
	// MaxSize is the size in bytes at which the file is rotated.
	// Zero rotates before every write that follows a non-empty file.
	MaxSize int64
	// Keep is the number of rotated copies kept as path.1 .. path.Keep.
	Keep int
	// Sync selects the flush policy.
	Sync SyncMode
	// FreshStart rotates a non-empty existing file on open, so each run
	// starts its own log and the previous Keep runs stay readable.
	FreshStart bool
}

// RotatingWriter is an io.Writer over a size-rotated log file.
type RotatingWriter struct {
	path string
	opts WriterOptions

	mu      sync.Mutex
	file    *os.File
	written int64
}

// NewRotatingWriter opens (or creates) the log file at path.
func NewRotatingWriter(path string, opts WriterOptions) (*RotatingWriter, error) {
	if opts.Keep < 1 {
		opts.Keep = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{path: path, opts: opts}
	if opts.FreshStart {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			if err := w.shift(); err != nil {
				return nil, err
			}
		}
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rotating first when p would push the file past MaxSize.
// A failed rotation is reported on stderr and the record still goes to
// the current file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.written > 0 && w.written+int64(len(p)) > w.opts.MaxSize {
		if err := w.rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	if err == nil && w.opts.Sync == SyncEachWrite {
		_ = w.file.Sync()
	}
	return n, err
}

// Sync flushes the file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close flushes and closes the file. Later writes fail with os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return err
	}
	return syncErr
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	w.file = nil
	if err := w.shift(); err != nil {
		// keep logging to the unrotated file
		_ = w.open()
		return err
	}
	return w.open()
}

// shift moves path.N to path.N+1 for every kept copy, dropping the
// oldest, then moves the live file to path.1.
func (w *RotatingWriter) shift() error {
	_ = os.Remove(w.backup(w.opts.Keep))
	for i := w.opts.Keep - 1; i >= 1; i-- {
		if err := os.Rename(w.backup(i), w.backup(i+1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate %s: %w", w.backup(i), err)
		}
	}
	if err := os.Rename(w.path, w.backup(1)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}

func (w *RotatingWriter) backup(n int) string {
	return w.path + "." + strconv.Itoa(n)
}
