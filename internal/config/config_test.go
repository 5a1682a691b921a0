package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// isolate points the user config at an empty directory so a developer's
// own ~/.config/blogsearch does not leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeUserConfig(t *testing.T, xdg, content string) {
	t.Helper()
	dir := filepath.Join(xdg, "blogsearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "posts", cfg.Paths.PostsDir)
	assert.Equal(t, filepath.Join("search", "data"), cfg.Paths.IndexDir)
	assert.Equal(t, filepath.Join("search", "cn_stopwords.txt"), cfg.Paths.StopwordsPath)
	assert.Equal(t, 40, cfg.Analysis.MaxTokenLength)
	assert.Equal(t, 200, cfg.Search.SnippetMaxChars)
	assert.Equal(t, 10, cfg.Search.PhraseSlop)
	assert.Equal(t, 5.0, cfg.Search.PhraseBoost)
	assert.Equal(t, 1.5, cfg.Search.CJKContentBoost)
	assert.Equal(t, 2.0, cfg.Search.TitleBoost)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoad_NoConfigFile_ResolvesDefaultsAgainstDir(t *testing.T) {
	// Given: a directory with no .blogsearch.yaml
	isolate(t)
	dir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: default paths are rooted at dir
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "posts"), cfg.Paths.PostsDir)
	assert.Equal(t, filepath.Join(dir, "search", "data"), cfg.Paths.IndexDir)
	assert.Equal(t, "", cfg.Analysis.UserDict)
}

func TestLoad_ProjectFile_OverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	content := `
version: 1
paths:
  posts_dir: /srv/blog/posts
search:
  default_limit: 25
  snippet_workers: 4
  title_boost: 3.0
watch:
  debounce: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte(content), 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "/srv/blog/posts", cfg.Paths.PostsDir)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)
	assert.Equal(t, 4, cfg.Search.SnippetWorkers)
	assert.Equal(t, 3.0, cfg.Search.TitleBoost)
	// untouched values keep their defaults
	assert.Equal(t, 1.5, cfg.Search.CJKContentBoost)

	d, err := cfg.Watch.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestLoad_InvalidYaml_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("search: [oops"), 0o644))

	cfg, err := Load(dir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))
}

func TestLoad_InvalidValue_FailsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"negative workers", "search:\n  snippet_workers: -1\n", "snippet_workers"},
		{"negative slop", "search:\n  phrase_slop: -2\n", "phrase_slop"},
		{"bad debounce", "watch:\n  debounce: soon\n", "watch.debounce"},
		{"bad level", "server:\n  log_level: loud\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte(tt.content), 0o644))

			_, err := Load(dir)

			require.Error(t, err)
			assert.True(t, apperrors.IsFatal(err))
			assert.Contains(t, errorChain(err), tt.wantMsg)
		})
	}
}

func errorChain(err error) string {
	e, ok := apperrors.As(err)
	if !ok || e.Cause == nil {
		return err.Error()
	}
	return e.Error() + ": " + e.Cause.Error()
}

// =============================================================================
// Layering
// =============================================================================

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	xdg := isolate(t)

	assert.Equal(t, filepath.Join(xdg, "blogsearch", "config.yaml"), GetUserConfigPath())
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both user and project configs exist
	xdg := isolate(t)
	dir := t.TempDir()
	writeUserConfig(t, xdg, "search:\n  default_limit: 7\n  plan_cache_size: 64\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("search:\n  default_limit: 12\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: project wins, user values it does not set survive
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Search.DefaultLimit)
	assert.Equal(t, 64, cfg.Search.PlanCacheSize)
}

func TestLoad_EnvVarOverridesEverything(t *testing.T) {
	xdg := isolate(t)
	dir := t.TempDir()
	writeUserConfig(t, xdg, "paths:\n  index_dir: user-index\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("paths:\n  index_dir: project-index\n"), 0o644))
	t.Setenv("BLOGSEARCH_INDEX_DIR", "/var/lib/blogsearch")
	t.Setenv("BLOGSEARCH_WATCH", "false")
	t.Setenv("BLOGSEARCH_SNIPPET_WORKERS", "3")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/blogsearch", cfg.Paths.IndexDir)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 3, cfg.Search.SnippetWorkers)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := isolate(t)
	writeUserConfig(t, xdg, "paths: [invalid yaml\n")

	cfg, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Search.DefaultLimit = 33

	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigName)))
	loaded, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 33, loaded.Search.DefaultLimit)
}
