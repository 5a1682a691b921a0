// Package content reads articles from the posts directory and keeps the
// front matter of every article in a sorted in-memory registry.
package content

import (
	"strings"
	"time"
)

// FrontMatter is the metadata of one article, read from
// post_frontmatter.toml next to its markdown.
type FrontMatter struct {
	Title string `toml:"title" json:"title"`
	// FileName is the article id: its directory name under the posts
	// directory and the document id in the index.
	FileName             string    `toml:"file_name" json:"file_name"`
	Description          string    `toml:"description" json:"description"`
	Posted               time.Time `toml:"posted" json:"posted"`
	Updated              time.Time `toml:"updated" json:"updated,omitempty"`
	Tags                 []string  `toml:"tags" json:"tags"`
	Author               string    `toml:"author" json:"author"`
	EstimatedReadingTime uint32    `toml:"estimated_reading_time" json:"estimated_reading_time"`
	Order                uint32    `toml:"order" json:"order"`
}

// LastModified returns Updated, or Posted for articles never updated.
func (fm *FrontMatter) LastModified() time.Time {
	if fm.Updated.IsZero() {
		return fm.Posted
	}
	return fm.Updated
}

// HasTags reports whether the article carries every tag in want. Tags
// compare case-insensitively; want must already be lowercase.
func (fm *FrontMatter) HasTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(fm.Tags))
	for _, t := range fm.Tags {
		have[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// NormalizeTags lowercases tags, drops blanks and duplicates, and keeps
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
