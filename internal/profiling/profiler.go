// Package profiling writes pprof profiles for one CLI invocation.
package profiling

import (
	"errors"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Heap != "" || o.Trace != ""
}

// Session is a set of running profiles. The heap profile is written when
// the session stops.
type Session struct {
	opts  Options
	stops []func()
	done  bool
}

// Start begins CPU profiling and tracing as requested by opts. If either
// fails to start, anything already running is stopped.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}

	if opts.CPU != "" {
		f, err := create(opts.CPU, "CPU profile")
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, apperrors.InternalError("failed to start CPU profile", err)
		}
		s.stops = append(s.stops, func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}

	if opts.Trace != "" {
		f, err := create(opts.Trace, "trace")
		if err != nil {
			s.stopRunning()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopRunning()
			return nil, apperrors.InternalError("failed to start trace", err)
		}
		s.stops = append(s.stops, func() {
			trace.Stop()
			_ = f.Close()
		})
	}

	if opts.Enabled() {
		slog.Debug("profiling_started",
			slog.String("cpu", opts.CPU),
			slog.String("heap", opts.Heap),
			slog.String("trace", opts.Trace))
	}
	return s, nil
}

// Stop ends the running profiles and writes the heap profile. Calling it
// again does nothing.
func (s *Session) Stop() error {
	if s == nil || s.done {
		return nil
	}
	s.done = true
	s.stopRunning()

	if s.opts.Heap == "" {
		return nil
	}
	f, err := create(s.opts.Heap, "heap profile")
	if err != nil {
		return err
	}
	runtime.GC()
	err = pprof.WriteHeapProfile(f)
	return errors.Join(err, f.Close())
}

func (s *Session) stopRunning() {
	for i := len(s.stops) - 1; i >= 0; i-- {
		s.stops[i]()
	}
	s.stops = nil
}

func create(path, what string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, apperrors.WriteError("failed to create "+what+" file", err).WithDetail("path", path)
	}
	return f, nil
}
