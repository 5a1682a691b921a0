package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainRenderer_UpdateProgress_OutputFormat(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating progress
	r.UpdateProgress(ProgressEvent{
		Stage:       StageNormalizing,
		Current:     3,
		Total:       12,
		CurrentFile: "ml-primer",
	})

	// Then: output is correctly formatted
	assert.Equal(t, "[NORM] 3/12 - ml-primer\n", buf.String())
}

func TestPlainRenderer_UpdateProgress_NoANSICodes(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: rendering progress through all stages
	for _, stage := range []Stage{StageReading, StageNormalizing, StageIndexing, StageCommitting, StageComplete} {
		r.UpdateProgress(ProgressEvent{Stage: stage, Current: 1, Total: 2, Message: "working"})
	}

	// Then: output contains no ANSI escape codes
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_UpdateProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Stage: StageCommitting, Message: "swapping index"})
	r.UpdateProgress(ProgressEvent{Stage: StageCommitting})

	assert.Equal(t, "[COMMIT] swapping index\n", buf.String())
}

func TestPlainRenderer_AddError(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.AddError(ErrorEvent{File: "broken", Err: errors.New("no body")})
	r.AddError(ErrorEvent{Err: errors.New("renamed"), IsWarn: true})

	assert.Contains(t, buf.String(), "ERROR: broken: no body\n")
	assert.Contains(t, buf.String(), "WARN: renamed\n")
}

func TestPlainRenderer_Complete(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing a build
	r.Complete(CompletionStats{
		Articles:    42,
		Duration:    1500 * time.Millisecond,
		IndexDir:    "search/data",
		Fingerprint: "abc123",
		Stages: StageTimings{
			Read:      10 * time.Millisecond,
			Normalize: 200 * time.Millisecond,
			Index:     1200 * time.Millisecond,
			Commit:    90 * time.Millisecond,
		},
	})

	// Then: the summary names the article count, location and stages
	output := buf.String()
	assert.Contains(t, output, "Complete: 42 articles indexed in 1.5s")
	assert.Contains(t, output, "Index built at 'search/data'")
	assert.Contains(t, output, "Fingerprint: abc123")
	assert.Contains(t, output, "Normalize: 200ms")
	assert.NotContains(t, output, "errors")
}
