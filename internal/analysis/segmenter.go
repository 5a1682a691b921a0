package analysis

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ego/gse"
)

// Segmenter splits text into words. *gse.Segmenter satisfies it.
//
// Implementations must return every character of the input across the
// words of Cut, including whitespace and punctuation, and must be safe for
// concurrent use once loaded.
type Segmenter interface {
	Cut(text string, hmm ...bool) []string
	CutAll(text string) []string
	CutSearch(text string, hmm ...bool) []string
}

var (
	segmenterOnce sync.Once
	segmenter     *gse.Segmenter
	segmenterErr  error
)

// LoadSegmenter loads the process-wide segmenter on first use: the
// embedded dictionary, then userDict when it is non-empty. Later calls
// return the same instance and ignore userDict.
func LoadSegmenter(userDict string) (Segmenter, error) {
	segmenterOnce.Do(func() {
		seg := new(gse.Segmenter)
		if err := seg.LoadDictEmbed(); err != nil {
			segmenterErr = fmt.Errorf("load embedded dictionary: %w", err)
			return
		}
		if userDict != "" {
			if err := seg.LoadDict(userDict); err != nil {
				segmenterErr = fmt.Errorf("load user dictionary %s: %w", userDict, err)
				return
			}
		}
		slog.Debug("segmenter_loaded", slog.String("user_dict", userDict))
		segmenter = seg
	})
	if segmenterErr != nil {
		return nil, segmenterErr
	}
	return segmenter, nil
}

// DefaultSegmenter returns the process-wide segmenter, loading the
// embedded dictionary if nothing loaded it yet.
func DefaultSegmenter() (Segmenter, error) {
	return LoadSegmenter("")
}
