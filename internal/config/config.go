package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// ProjectConfigName is the per-project configuration file name.
const ProjectConfigName = ".blogsearch.yaml"

// Config represents the complete blogsearch configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Analysis  AnalysisConfig  `yaml:"analysis" json:"analysis"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// PathsConfig locates the articles, the index and its inputs.
// Relative paths are resolved against the directory passed to Load.
type PathsConfig struct {
	PostsDir      string `yaml:"posts_dir" json:"posts_dir"`
	IndexDir      string `yaml:"index_dir" json:"index_dir"`
	StopwordsPath string `yaml:"stopwords_path" json:"stopwords_path"`
	TelemetryDB   string `yaml:"telemetry_db" json:"telemetry_db"`
}

// AnalysisConfig configures tokenization.
type AnalysisConfig struct {
	// MaxTokenLength drops longer tokens, counted in characters.
	MaxTokenLength int `yaml:"max_token_length" json:"max_token_length"`

	// UserDict is an optional extra segmentation dictionary.
	UserDict string `yaml:"user_dict" json:"user_dict"`
}

// SearchConfig configures query construction and result assembly.
type SearchConfig struct {
	DefaultLimit    int     `yaml:"default_limit" json:"default_limit"`
	SnippetMaxChars int     `yaml:"snippet_max_chars" json:"snippet_max_chars"`
	SnippetWorkers  int     `yaml:"snippet_workers" json:"snippet_workers"`
	PlanCacheSize   int     `yaml:"plan_cache_size" json:"plan_cache_size"`
	PhraseSlop      int     `yaml:"phrase_slop" json:"phrase_slop"`
	PhraseBoost     float64 `yaml:"phrase_boost" json:"phrase_boost"`
	CJKContentBoost float64 `yaml:"cjk_content_boost" json:"cjk_content_boost"`
	TitleBoost      float64 `yaml:"title_boost" json:"title_boost"`
}

// WatchConfig configures front-matter hot reload.
type WatchConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
}

// TelemetryConfig configures local query telemetry.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config with the defaults the engine was tuned with.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			PostsDir:      "posts",
			IndexDir:      filepath.Join("search", "data"),
			StopwordsPath: filepath.Join("search", "cn_stopwords.txt"),
			TelemetryDB:   filepath.Join("search", "telemetry.db"),
		},
		Analysis: AnalysisConfig{
			MaxTokenLength: 40,
		},
		Search: SearchConfig{
			DefaultLimit:    10,
			SnippetMaxChars: 200,
			SnippetWorkers:  0,
			PlanCacheSize:   256,
			PhraseSlop:      10,
			PhraseBoost:     5.0,
			CJKContentBoost: 1.5,
			TitleBoost:      2.0,
		},
		Watch: WatchConfig{
			Enabled:      true,
			Debounce:     "500ms",
			PollInterval: "5s",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/blogsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/blogsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blogsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "blogsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "blogsearch", "config.yaml")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := &Config{}
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/blogsearch/config.yaml)
//  3. Project config (.blogsearch.yaml in dir)
//  4. Environment variables (BLOGSEARCH_*)
//
// Relative paths are then resolved against dir and the result validated.
// Any failure is a configuration error.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, apperrors.ConfigError("failed to load user config", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	projectPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(projectPath) {
		var project Config
		if err := project.loadYAML(projectPath); err != nil {
			return nil, apperrors.ConfigError("failed to load project config", err)
		}
		cfg.mergeWith(&project)
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.ConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// loadYAML parses path into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Paths
	if other.Paths.PostsDir != "" {
		c.Paths.PostsDir = other.Paths.PostsDir
	}
	if other.Paths.IndexDir != "" {
		c.Paths.IndexDir = other.Paths.IndexDir
	}
	if other.Paths.StopwordsPath != "" {
		c.Paths.StopwordsPath = other.Paths.StopwordsPath
	}
	if other.Paths.TelemetryDB != "" {
		c.Paths.TelemetryDB = other.Paths.TelemetryDB
	}

	// Analysis
	if other.Analysis.MaxTokenLength != 0 {
		c.Analysis.MaxTokenLength = other.Analysis.MaxTokenLength
	}
	if other.Analysis.UserDict != "" {
		c.Analysis.UserDict = other.Analysis.UserDict
	}

	// Search
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.SnippetMaxChars != 0 {
		c.Search.SnippetMaxChars = other.Search.SnippetMaxChars
	}
	if other.Search.SnippetWorkers != 0 {
		c.Search.SnippetWorkers = other.Search.SnippetWorkers
	}
	if other.Search.PlanCacheSize != 0 {
		c.Search.PlanCacheSize = other.Search.PlanCacheSize
	}
	if other.Search.PhraseSlop != 0 {
		c.Search.PhraseSlop = other.Search.PhraseSlop
	}
	if other.Search.PhraseBoost != 0 {
		c.Search.PhraseBoost = other.Search.PhraseBoost
	}
	if other.Search.CJKContentBoost != 0 {
		c.Search.CJKContentBoost = other.Search.CJKContentBoost
	}
	if other.Search.TitleBoost != 0 {
		c.Search.TitleBoost = other.Search.TitleBoost
	}

	// Watch. Enabled is a bool, so a file can only switch it on;
	// BLOGSEARCH_WATCH=false switches it off.
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies BLOGSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BLOGSEARCH_POSTS_DIR"); v != "" {
		c.Paths.PostsDir = v
	}
	if v := os.Getenv("BLOGSEARCH_INDEX_DIR"); v != "" {
		c.Paths.IndexDir = v
	}
	if v := os.Getenv("BLOGSEARCH_STOPWORDS"); v != "" {
		c.Paths.StopwordsPath = v
	}
	if v := os.Getenv("BLOGSEARCH_USER_DICT"); v != "" {
		c.Analysis.UserDict = v
	}
	if v := os.Getenv("BLOGSEARCH_SNIPPET_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.SnippetWorkers = n
		}
	}
	if v := os.Getenv("BLOGSEARCH_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("BLOGSEARCH_WATCH"); v != "" {
		c.Watch.Enabled = parseBool(v)
	}
	if v := os.Getenv("BLOGSEARCH_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("BLOGSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Paths.PostsDir = resolve(c.Paths.PostsDir)
	c.Paths.IndexDir = resolve(c.Paths.IndexDir)
	c.Paths.StopwordsPath = resolve(c.Paths.StopwordsPath)
	c.Paths.TelemetryDB = resolve(c.Paths.TelemetryDB)
	c.Analysis.UserDict = resolve(c.Analysis.UserDict)
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Paths.IndexDir == "" {
		return fmt.Errorf("paths.index_dir must be set")
	}
	if c.Paths.PostsDir == "" {
		return fmt.Errorf("paths.posts_dir must be set")
	}
	if c.Analysis.MaxTokenLength <= 0 {
		return fmt.Errorf("analysis.max_token_length must be positive, got %d", c.Analysis.MaxTokenLength)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.SnippetMaxChars <= 0 {
		return fmt.Errorf("search.snippet_max_chars must be positive, got %d", c.Search.SnippetMaxChars)
	}
	if c.Search.SnippetWorkers < 0 {
		return fmt.Errorf("search.snippet_workers must be non-negative, got %d", c.Search.SnippetWorkers)
	}
	if c.Search.PhraseSlop < 0 {
		return fmt.Errorf("search.phrase_slop must be non-negative, got %d", c.Search.PhraseSlop)
	}
	for name, boost := range map[string]float64{
		"phrase_boost":      c.Search.PhraseBoost,
		"cjk_content_boost": c.Search.CJKContentBoost,
		"title_boost":       c.Search.TitleBoost,
	} {
		if boost <= 0 {
			return fmt.Errorf("search.%s must be positive, got %f", name, boost)
		}
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if _, err := c.Watch.PollDuration(); err != nil {
		return fmt.Errorf("watch.poll_interval: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// DebounceDuration parses Debounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(w.Debounce)
}

// PollDuration parses PollInterval.
func (w WatchConfig) PollDuration() (time.Duration, error) {
	return time.ParseDuration(w.PollInterval)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
