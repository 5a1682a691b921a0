package analysis

import (
	"bufio"
	"os"
	"strings"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// LoadStopwords reads a newline-delimited UTF-8 stopword list. Blank
// lines are skipped and surrounding whitespace trimmed.
func LoadStopwords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.IOError("open stopword file", err).WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	var words []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.IOError("read stopword file", err).WithDetail("path", path)
	}
	return words, nil
}
