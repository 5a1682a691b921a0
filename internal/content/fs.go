package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// File names inside an article directory.
const (
	BodyFile        = "post.md"
	FrontMatterFile = "post_frontmatter.toml"
)

// Source provides articles to the index builder and the registry.
type Source interface {
	// FrontMatters returns the front matter of every article.
	FrontMatters(ctx context.Context) ([]*FrontMatter, error)
	// Body returns the markdown of the article with the given path id.
	Body(path string) ([]byte, error)
}

// FS reads articles laid out as <dir>/<name>/post.md with
// <dir>/<name>/post_frontmatter.toml beside it.
type FS struct {
	dir string
}

// NewFS creates a Source over the posts directory dir.
func NewFS(dir string) *FS {
	return &FS{dir: dir}
}

// Dir returns the posts directory.
func (f *FS) Dir() string {
	return f.dir
}

// FrontMatters reads every article's front matter. Directories without a
// front matter file are skipped. The result is ordered by directory name.
func (f *FS) FrontMatters(ctx context.Context) ([]*FrontMatter, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, apperrors.IOError("failed to read posts directory", err).
			WithDetail("path", f.dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]*FrontMatter, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		fm, err := f.readFrontMatter(e.Name())
		if apperrors.GetCode(err) == apperrors.ErrCodeFileNotFound {
			slog.Debug("article_skipped",
				slog.String("dir", e.Name()),
				slog.String("reason", "no front matter"))
			continue
		}
		if err != nil {
			return nil, err
		}

		out = append(out, fm)
	}
	return out, nil
}

func (f *FS) readFrontMatter(name string) (*FrontMatter, error) {
	path := filepath.Join(f.dir, name, FrontMatterFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IOError("failed to read front matter", err).WithDetail("path", path)
	}

	var fm FrontMatter
	if err := toml.Unmarshal(data, &fm); err != nil {
		return nil, apperrors.IOError("invalid front matter", err).WithDetail("path", path)
	}
	if fm.FileName != name {
		if fm.FileName != "" {
			slog.Warn("front_matter_file_name_ignored",
				slog.String("dir", name),
				slog.String("file_name", fm.FileName))
		}
		fm.FileName = name
	}
	return &fm, nil
}

// Body reads the markdown of the article with path id path.
func (f *FS) Body(path string) ([]byte, error) {
	if path == "" || path != filepath.Base(path) {
		return nil, apperrors.ValidationError(fmt.Sprintf("invalid article path %q", path), nil)
	}
	file := filepath.Join(f.dir, path, BodyFile)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, apperrors.IOError("failed to read article", err).WithDetail("path", file)
	}
	return data, nil
}

var _ Source = (*FS)(nil)
