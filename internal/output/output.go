// Package output provides consistent CLI output formatting for status lines and search hits.
package output

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	highlightOpen  = "<b>"
	highlightClose = "</b>"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("154"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	markStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{
		out:      out,
		useColor: false, // Default to no color for simplicity
	}
}

// NewAuto creates a Writer that colours output only when out is a terminal
// and NO_COLOR is unset.
func NewAuto(out io.Writer) *Writer {
	w := New(out)
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		_, noColor := os.LookupEnv("NO_COLOR")
		w.useColor = !noColor
	}
	return w
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Status(icon, msg)
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Hit is one search result line as shown by the CLI.
type Hit struct {
	Rank    int
	Title   string
	Path    string
	Score   float64
	Tags    []string
	Snippet string
}

// Hit prints a ranked search hit: title and path on the first line, the
// snippet indented below it. A zero score is left out.
func (w *Writer) Hit(h Hit) {
	title := h.Title
	meta := h.Path
	if h.Score > 0 {
		meta = fmt.Sprintf("%s  %.3f", h.Path, h.Score)
	}
	if len(h.Tags) > 0 {
		meta += "  [" + strings.Join(h.Tags, ", ") + "]"
	}
	if w.useColor {
		title = titleStyle.Render(title)
		meta = dimStyle.Render(meta)
	}

	_, _ = fmt.Fprintf(w.out, "%2d. %s\n", h.Rank, title)
	_, _ = fmt.Fprintf(w.out, "    %s\n", meta)
	if snippet := w.Highlight(h.Snippet); snippet != "" {
		_, _ = fmt.Fprintf(w.out, "    %s\n", snippet)
	}
}

// Highlight turns an HTML snippet with <b> marks into terminal text.
// Marked spans are bold and underlined with colour on; otherwise the marks
// are dropped. HTML entities are unescaped either way.
func (w *Writer) Highlight(snippet string) string {
	var sb strings.Builder
	rest := snippet
	for {
		open := strings.Index(rest, highlightOpen)
		if open < 0 {
			sb.WriteString(html.UnescapeString(rest))
			break
		}
		sb.WriteString(html.UnescapeString(rest[:open]))
		rest = rest[open+len(highlightOpen):]

		end := strings.Index(rest, highlightClose)
		if end < 0 {
			end = len(rest)
		}
		marked := html.UnescapeString(rest[:end])
		if w.useColor {
			marked = markStyle.Render(marked)
		}
		sb.WriteString(marked)
		if end == len(rest) {
			break
		}
		rest = rest[end+len(highlightClose):]
	}
	return sb.String()
}

// Summary prints the result count line beneath a page of hits.
func (w *Writer) Summary(shown int, total uint64, page, pages int, elapsedMs float64) {
	line := fmt.Sprintf("%d of %d results (page %d/%d, %.1f ms)", shown, total, page, pages, elapsedMs)
	if w.useColor {
		line = dimStyle.Render(line)
	}
	_, _ = fmt.Fprintln(w.out, line)
}
