package logging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if dir == "" {
		t.Error("DefaultLogDir returned empty string")
	}

	if !strings.Contains(dir, ".blogsearch") || !strings.Contains(dir, "logs") {
		t.Errorf("DefaultLogDir should contain .blogsearch/logs, got: %s", dir)
	}
}

func TestDefaultLogPaths(t *testing.T) {
	if filepath.Base(DefaultLogPath()) != "server.log" {
		t.Errorf("DefaultLogPath should end with server.log, got: %s", DefaultLogPath())
	}
	if filepath.Base(BuildLogPath()) != "build.log" {
		t.Errorf("BuildLogPath should end with build.log, got: %s", BuildLogPath())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB 10, got: %d", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if !cfg.WriteToStderr {
		t.Error("expected WriteToStderr to be true")
	}
}

func TestDebugConfig(t *testing.T) {
	if cfg := DebugConfig(); cfg.Level != "debug" {
		t.Errorf("expected level 'debug', got: %s", cfg.Level)
	}
}

func TestServeConfig_NeverWritesToStderr(t *testing.T) {
	cfg := ServeConfig("warn")

	if cfg.WriteToStderr {
		t.Error("serve logging must not write to stderr")
	}
	if cfg.Level != "warn" {
		t.Errorf("expected level 'warn', got: %s", cfg.Level)
	}
}

func TestSetup(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	cfg := Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("search_completed", "query", "machine learning", "count", 2)
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
	if !bytes.Contains(data, []byte(`"msg":"search_completed"`)) {
		t.Errorf("expected JSON entry, got: %s", data)
	}
	if !bytes.Contains(data, []byte(`"query":"machine learning"`)) {
		t.Errorf("expected query attribute, got: %s", data)
	}
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "info.log")

	logger, cleanup, err := Setup(Config{Level: "info", FilePath: logPath})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Debug("query_plan")
	logger.Info("index_opened")
	cleanup()

	data, _ := os.ReadFile(logPath)
	if bytes.Contains(data, []byte("query_plan")) {
		t.Error("debug entry should be filtered at info level")
	}
	if !bytes.Contains(data, []byte("index_opened")) {
		t.Error("info entry should be written")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
	}

	for _, tc := range tests {
		level := LevelFromString(tc.input)
		if level.String() != tc.expected {
			t.Errorf("LevelFromString(%q) = %s, want %s", tc.input, level.String(), tc.expected)
		}
	}
}

// ============================================================================
// Writer Rotation Tests
// ============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	// 0 bytes rotates before any write to a non-empty file
	w, err := NewRotatingWriter(logPath, WriterOptions{Keep: 3})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	largeData := bytes.Repeat([]byte{'x'}, 2048)

	if _, err := w.Write(largeData); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := w.Write(largeData); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("main log file should exist")
	}
	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("rotated file .1 should exist")
	}
}

func TestRotatingWriter_KeepLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "keep.log")

	w, err := NewRotatingWriter(logPath, WriterOptions{Keep: 2})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		_, _ = fmt.Fprintf(w, "write %d\n", i)
	}

	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("rotated file .3 should not exist (beyond Keep)")
	}
	// newest record live, the two before it kept in order
	for path, want := range map[string]string{
		logPath:        "write 4\n",
		logPath + ".1": "write 3\n",
		logPath + ".2": "write 2\n",
	} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", filepath.Base(path), got, want)
		}
	}
}

func TestRotatingWriter_FreshStartRotatesPreviousRun(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "build.log")
	if err := os.WriteFile(logPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(logPath, WriterOptions{MaxSize: 1 << 20, Keep: 3, FreshStart: true})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if _, err := w.Write([]byte("this run\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	current, _ := os.ReadFile(logPath)
	previous, _ := os.ReadFile(logPath + ".1")
	if string(current) != "this run\n" {
		t.Errorf("current log = %q", current)
	}
	if string(previous) != "previous run\n" {
		t.Errorf("previous log = %q", previous)
	}
}

func TestRotatingWriter_FreshStartKeepsEmptyFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "build.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(logPath, WriterOptions{MaxSize: 1 << 20, FreshStart: true})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("an empty log should not be rotated")
	}
}

func TestRotatingWriter_SyncOnClose(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sync.log")

	w, err := NewRotatingWriter(logPath, WriterOptions{MaxSize: 1 << 20, Keep: 3, Sync: SyncOnClose})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if _, err := w.Write([]byte("test data to sync\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(content), "test data to sync") {
		t.Error("closed log should hold the data")
	}
	if _, err := w.Write([]byte("late")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("write after close = %v, want os.ErrClosed", err)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := BuildConfig()

	if filepath.Base(cfg.FilePath) != "build.log" {
		t.Errorf("FilePath = %s, want build.log", cfg.FilePath)
	}
	if cfg.Sync != SyncOnClose || !cfg.FreshStart {
		t.Errorf("build logs should sync on close and start fresh, got %+v", cfg)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := NewRotatingWriter(logPath, WriterOptions{MaxSize: 10 << 20, Keep: 3})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				msg := fmt.Sprintf(`{"id":%d,"iter":%d,"msg":"test"}`, id, j) + "\n"
				_, _ = w.Write([]byte(msg))
			}
		}(i)
	}
	wg.Wait()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file should have content")
	}
}
