// Package index builds the article index. A build writes a complete index
// into a staging directory and swaps it into place only when every step
// succeeded, so readers never see a partial index.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/normalize"
	"github.com/Aman-CERP/blogsearch/internal/store"
	"github.com/Aman-CERP/blogsearch/internal/ui"
)

// ProcessedTextDir holds the normalized text of every article, one
// <path>.txt per article, for inspecting what was indexed.
const ProcessedTextDir = "processed_text"

// Options configures a build.
type Options struct {
	// IndexDir is where the finished index ends up.
	IndexDir string
	// StopwordsPath is the newline-delimited stopword list.
	StopwordsPath string
	// MaxTokenLength drops longer tokens. Zero uses the default.
	MaxTokenLength int
}

// StagingDir returns the directory a build of indexDir writes into.
func StagingDir(indexDir string) string {
	return filepath.Clean(indexDir) + ".building"
}

// Builder builds the index from a content source.
type Builder struct {
	source   content.Source
	opts     Options
	renderer ui.Renderer
}

// NewBuilder creates a Builder reading articles from source.
func NewBuilder(source content.Source, opts Options) *Builder {
	return &Builder{source: source, opts: opts}
}

// WithRenderer reports progress to r. The caller starts and stops r.
func (b *Builder) WithRenderer(r ui.Renderer) *Builder {
	b.renderer = r
	return b
}

// stageTiming tracks duration for each build stage.
type stageTiming struct {
	read      time.Duration
	normalize time.Duration
	index     time.Duration
	commit    time.Duration
}

// Build builds the index and replaces the previous one. Any error aborts
// the build and leaves the previous index untouched.
func (b *Builder) Build(ctx context.Context) (_ *Manifest, err error) {
	startTime := time.Now()
	var timing stageTiming

	indexDir := b.opts.IndexDir
	if indexDir == "" {
		return nil, apperrors.ConfigError("index directory is not configured", nil)
	}

	lock := NewFileLock(indexDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, apperrors.IOError("failed to acquire build lock", err).WithDetail("path", lock.Path())
	}
	if !acquired {
		return nil, apperrors.New(apperrors.ErrCodeLockHeld, "another index build is running", nil).
			WithDetail("path", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	slog.Info("index_build_started",
		slog.String("index_dir", indexDir),
		slog.String("stopwords", b.opts.StopwordsPath))

	stopwords, err := analysis.LoadStopwords(b.opts.StopwordsPath)
	if err != nil {
		return nil, err
	}
	m, err := store.NewMapping(analysis.Options{
		Stopwords:      stopwords,
		MaxTokenLength: b.opts.MaxTokenLength,
	})
	if err != nil {
		return nil, apperrors.InternalError("failed to build index mapping", err)
	}

	// Stage 1: read front matter
	readStart := time.Now()
	b.progress(ui.ProgressEvent{Stage: ui.StageReading, Message: "reading front matter"})
	fms, err := b.source.FrontMatters(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(fms, func(i, j int) bool { return fms[i].FileName < fms[j].FileName })
	timing.read = time.Since(readStart)

	staging := StagingDir(indexDir)
	if err := os.RemoveAll(staging); err != nil {
		return nil, apperrors.WriteError("failed to clear staging directory", err).WithDetail("path", staging)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				slog.Warn("staging_cleanup_failed",
					slog.String("path", staging),
					slog.String("error", rmErr.Error()))
			}
			slog.Error("index_build_failed", apperrors.LogAttrs(err)...)
		}
	}()

	idx, err := store.Create(staging, m)
	if err != nil {
		return nil, err
	}
	indexOpen := true
	defer func() {
		if indexOpen {
			_ = idx.Close()
		}
	}()

	processed := filepath.Join(staging, ProcessedTextDir)
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return nil, apperrors.WriteError("failed to create processed text directory", err).
			WithDetail("path", processed)
	}

	// Stage 2: normalize article text
	normalizeStart := time.Now()
	docs := make([]store.Document, 0, len(fms))
	entries := make([]fingerprintEntry, 0, len(fms))
	for i, fm := range fms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.progress(ui.ProgressEvent{
			Stage:       ui.StageNormalizing,
			Current:     i + 1,
			Total:       len(fms),
			CurrentFile: fm.FileName,
		})

		body, err := b.source.Body(fm.FileName)
		if err != nil {
			return nil, err
		}
		text := normalize.Document(fm.Description, string(body))

		sidecar := filepath.Join(processed, fm.FileName+".txt")
		if err := os.WriteFile(sidecar, []byte(text), 0o644); err != nil {
			return nil, apperrors.WriteError("failed to write processed text", err).WithDetail("path", sidecar)
		}

		docs = append(docs, store.NewDocument(fm.FileName, fm.Title, text, fm.Tags))
		entries = append(entries, fingerprintEntry{
			path:  fm.FileName,
			title: fm.Title,
			tags:  content.NormalizeTags(fm.Tags),
			text:  text,
		})
	}
	timing.normalize = time.Since(normalizeStart)

	// Stage 3: index in a single batch
	indexStart := time.Now()
	b.progress(ui.ProgressEvent{Stage: ui.StageIndexing, Current: len(docs), Total: len(docs)})
	if err := idx.Add(ctx, docs); err != nil {
		return nil, err
	}
	timing.index = time.Since(indexStart)

	// Stage 4: commit
	commitStart := time.Now()
	b.progress(ui.ProgressEvent{Stage: ui.StageCommitting, Message: "writing index"})
	indexOpen = false
	if err := idx.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexFailed, fmt.Errorf("failed to close index: %w", err))
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		Documents:   len(docs),
		Fingerprint: computeFingerprint(entries, stopwords),
		Stopwords:   len(stopwords),
		BuiltAt:     time.Now().UTC(),
		DurationMs:  time.Since(startTime).Milliseconds(),
	}
	if err := writeManifest(staging, manifest); err != nil {
		return nil, err
	}

	if err := swapIntoPlace(staging, indexDir); err != nil {
		return nil, err
	}
	timing.commit = time.Since(commitStart)

	duration := time.Since(startTime)
	slog.Info("index_built",
		slog.String("location", indexDir),
		slog.Int("documents", manifest.Documents),
		slog.String("fingerprint", manifest.Fingerprint),
		slog.Duration("read", timing.read),
		slog.Duration("normalize", timing.normalize),
		slog.Duration("index", timing.index),
		slog.Duration("commit", timing.commit),
		slog.Duration("total", duration))

	if b.renderer != nil {
		b.renderer.Complete(ui.CompletionStats{
			Articles:    manifest.Documents,
			Duration:    duration,
			IndexDir:    indexDir,
			Fingerprint: manifest.Fingerprint,
			Stages: ui.StageTimings{
				Read:      timing.read,
				Normalize: timing.normalize,
				Index:     timing.index,
				Commit:    timing.commit,
			},
		})
	}
	return manifest, nil
}

// swapIntoPlace replaces indexDir with staging. The previous index is
// moved aside first and restored if the rename fails.
func swapIntoPlace(staging, indexDir string) error {
	previous := filepath.Clean(indexDir) + ".previous"
	if err := os.RemoveAll(previous); err != nil {
		return apperrors.WriteError("failed to clear previous index backup", err).WithDetail("path", previous)
	}

	hadPrevious := true
	if err := os.Rename(indexDir, previous); err != nil {
		if !os.IsNotExist(err) {
			return apperrors.WriteError("failed to move previous index aside", err).WithDetail("path", indexDir)
		}
		hadPrevious = false
	}

	if err := os.Rename(staging, indexDir); err != nil {
		if hadPrevious {
			_ = os.Rename(previous, indexDir)
		}
		return apperrors.WriteError("failed to move index into place", err).WithDetail("path", indexDir)
	}

	if hadPrevious {
		if err := os.RemoveAll(previous); err != nil {
			slog.Warn("previous_index_cleanup_failed",
				slog.String("path", previous),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (b *Builder) progress(event ui.ProgressEvent) {
	if b.renderer != nil {
		b.renderer.UpdateProgress(event)
	}
}
