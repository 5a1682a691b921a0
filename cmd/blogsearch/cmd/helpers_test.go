package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/content"
)

// newBlog creates a blog root with three articles and a stopword list,
// and points HOME away from the real user's configuration and logs.
func newBlog(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	stopwords := filepath.Join(root, "search", "cn_stopwords.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stopwords), 0o755))
	require.NoError(t, os.WriteFile(stopwords, []byte("的\n了\n"), 0o644))

	addArticle(t, root, "ml-primer", "Machine Learning Primer", "2024-01-01", []string{"AI"},
		"# Basics\n\nMachine learning is **fun**.")
	addArticle(t, root, "go-notes", "Go Notes", "2024-02-01", []string{"Go", "Backend"},
		"Goroutines and channels.")
	addArticle(t, root, "cn-ml", "机器学习入门", "2024-03-01", []string{"AI", "中文"},
		"机器学习是人工智能的一个分支。")
	return root
}

func addArticle(t *testing.T, root, name, title, posted string, tags []string, body string) {
	t.Helper()
	dir := filepath.Join(root, "posts", name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = fmt.Sprintf("%q", tag)
	}
	fm := fmt.Sprintf("title = %q\ndescription = %q\nposted = %sT00:00:00Z\ntags = [%s]\n",
		title, "About "+name, posted, strings.Join(quoted, ", "))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.FrontMatterFile), []byte(fm), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.BodyFile), []byte(body), 0o644))
}

// run executes the root command against the blog at root and returns
// everything written to stdout and stderr.
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(teardown)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", root}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

// indexedBlog returns a blog root whose index is already built.
func indexedBlog(t *testing.T) string {
	t.Helper()
	root := newBlog(t)
	_, err := run(t, root, "index", "--no-tui")
	require.NoError(t, err)
	return root
}
