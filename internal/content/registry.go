package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// SortOrder selects the listing order of articles.
type SortOrder int

const (
	// ByPosted lists the most recently posted articles first.
	ByPosted SortOrder = iota
	// ByUpdated lists the most recently updated articles first.
	ByUpdated
)

// String returns the name of the order.
func (o SortOrder) String() string {
	if o == ByUpdated {
		return "updated"
	}
	return "posted"
}

// ParseSortOrder parses "posted" or "updated". Empty means ByPosted.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "posted":
		return ByPosted, nil
	case "updated":
		return ByUpdated, nil
	default:
		return ByPosted, fmt.Errorf("unknown sort order %q", s)
	}
}

// TagCount is a tag with the number of articles carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is an immutable view of every article's front matter.
type Snapshot struct {
	byPath    map[string]*FrontMatter
	byPosted  []*FrontMatter
	byUpdated []*FrontMatter
	tags      []TagCount
	loadedAt  time.Time
}

func newSnapshot(fms []*FrontMatter) *Snapshot {
	s := &Snapshot{
		byPath:    make(map[string]*FrontMatter, len(fms)),
		byPosted:  make([]*FrontMatter, 0, len(fms)),
		byUpdated: make([]*FrontMatter, 0, len(fms)),
		loadedAt:  time.Now(),
	}
	for _, fm := range fms {
		if _, dup := s.byPath[fm.FileName]; dup {
			slog.Warn("duplicate_article_ignored", slog.String("path", fm.FileName))
			continue
		}
		s.byPath[fm.FileName] = fm
		s.byPosted = append(s.byPosted, fm)
		s.byUpdated = append(s.byUpdated, fm)
	}

	sort.SliceStable(s.byPosted, func(i, j int) bool {
		return newerFirst(s.byPosted[i].Posted, s.byPosted[j].Posted, s.byPosted[i], s.byPosted[j])
	})
	sort.SliceStable(s.byUpdated, func(i, j int) bool {
		a, b := s.byUpdated[i], s.byUpdated[j]
		return newerFirst(a.LastModified(), b.LastModified(), a, b)
	})
	s.tags = catalogue(s.byPosted)
	return s
}

func newerFirst(ta, tb time.Time, a, b *FrontMatter) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.FileName < b.FileName
}

// catalogue counts articles per tag. Tags group case-insensitively under
// the spelling of the most recent article and are sorted by lowercase name.
func catalogue(fms []*FrontMatter) []TagCount {
	index := make(map[string]int)
	var out []TagCount
	for _, fm := range fms {
		seen := make(map[string]struct{}, len(fm.Tags))
		for _, t := range fm.Tags {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if i, ok := index[key]; ok {
				out[i].Count++
				continue
			}
			index[key] = len(out)
			out = append(out, TagCount{Name: strings.TrimSpace(t), Count: 1})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Get returns the front matter of the article with path id path.
func (s *Snapshot) Get(path string) (*FrontMatter, bool) {
	fm, ok := s.byPath[path]
	return fm, ok
}

// Len returns the number of articles.
func (s *Snapshot) Len() int {
	return len(s.byPath)
}

// Sorted returns every article in order. The slice must not be modified.
func (s *Snapshot) Sorted(order SortOrder) []*FrontMatter {
	if order == ByUpdated {
		return s.byUpdated
	}
	return s.byPosted
}

// WithTags returns the articles, in order, that carry every tag in tags.
// Tags compare case-insensitively; an empty set matches every article.
func (s *Snapshot) WithTags(tags []string, order SortOrder) []*FrontMatter {
	all := s.Sorted(order)
	want := NormalizeTags(tags)
	if len(want) == 0 {
		return all
	}
	out := make([]*FrontMatter, 0, len(all))
	for _, fm := range all {
		if fm.HasTags(want) {
			out = append(out, fm)
		}
	}
	return out
}

// Tags returns the tag catalogue.
func (s *Snapshot) Tags() []TagCount {
	return s.tags
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Registry holds the current snapshot. Reload swaps in a new snapshot
// atomically, so a reader holding the old one keeps a consistent view.
type Registry struct {
	source  Source
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry over source and loads it.
func NewRegistry(ctx context.Context, source Source) (*Registry, error) {
	r := &Registry{source: source}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStaticRegistry creates a registry over a fixed set of articles.
// Reload keeps the same set.
func NewStaticRegistry(fms []*FrontMatter) *Registry {
	r := &Registry{source: staticSource(fms)}
	r.current.Store(newSnapshot(fms))
	return r
}

// Reload reads every front matter from the source and swaps the snapshot.
// On error the previous snapshot stays current.
func (r *Registry) Reload(ctx context.Context) error {
	start := time.Now()
	fms, err := r.source.FrontMatters(ctx)
	if err != nil {
		slog.Warn("registry_reload_failed", slog.String("error", err.Error()))
		return err
	}
	snap := newSnapshot(fms)
	r.current.Store(snap)
	slog.Info("registry_reloaded",
		slog.Int("articles", snap.Len()),
		slog.Int("tags", len(snap.tags)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Get looks up path in the current snapshot.
func (r *Registry) Get(path string) (*FrontMatter, bool) {
	return r.Snapshot().Get(path)
}

type staticSource []*FrontMatter

func (s staticSource) FrontMatters(context.Context) ([]*FrontMatter, error) {
	return s, nil
}

func (s staticSource) Body(path string) ([]byte, error) {
	return nil, fmt.Errorf("no body for %q", path)
}
