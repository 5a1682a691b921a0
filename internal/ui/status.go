package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo contains index health information.
type StatusInfo struct {
	// Index stats
	IndexDir    string    `json:"index_dir"`
	Documents   int       `json:"documents"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	BuiltAt     time.Time `json:"built_at"`
	IndexSize   int64     `json:"index_size"`

	// Registry
	PostsDir string `json:"posts_dir"`
	Articles int    `json:"articles"`
	Tags     int    `json:"tags"`

	// Query counters, from the telemetry database when it is enabled.
	Queries       int64   `json:"queries"`
	ZeroResults   int64   `json:"zero_results"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	WatcherStatus string  `json:"watcher_status"` // "running", "stopped", "n/a"
}

// InSync reports whether the index and the registry describe the same
// number of articles.
func (s StatusInfo) InSync() bool {
	return s.Documents == s.Articles
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.IndexDir))

	_, _ = fmt.Fprintf(r.out, "  Documents:   %d\n", info.Documents)
	if !info.BuiltAt.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Built:       %s\n", formatTime(info.BuiltAt))
	}
	if info.Fingerprint != "" {
		_, _ = fmt.Fprintf(r.out, "  Fingerprint: %s\n", shortHash(info.Fingerprint))
	}
	_, _ = fmt.Fprintf(r.out, "  Size:        %s\n", FormatBytes(info.IndexSize))
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintf(r.out, "  Posts: %s\n", info.PostsDir)
	_, _ = fmt.Fprintf(r.out, "    Articles: %d\n", info.Articles)
	_, _ = fmt.Fprintf(r.out, "    Tags:     %d\n", info.Tags)
	if !info.InSync() {
		_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Warning.Render("index is stale, run 'blogsearch index'"))
	}
	_, _ = fmt.Fprintln(r.out)

	if info.Queries > 0 {
		_, _ = fmt.Fprintln(r.out, "  Queries:")
		_, _ = fmt.Fprintf(r.out, "    Served:       %d\n", info.Queries)
		_, _ = fmt.Fprintf(r.out, "    Zero results: %d\n", info.ZeroResults)
		_, _ = fmt.Fprintf(r.out, "    Avg latency:  %.1f ms\n", info.AvgLatencyMs)
		_, _ = fmt.Fprintln(r.out)
	}

	if info.WatcherStatus != "" && info.WatcherStatus != "n/a" {
		_, _ = fmt.Fprintf(r.out, "  Watcher: %s\n", r.renderStatus(info.WatcherStatus))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running":
		return r.styles.Success.Render(status)
	case "offline", "stopped":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
