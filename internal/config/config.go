package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file.
const ProjectConfigName = ".palicanon.yaml"

// Config represents the complete palicanon configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Corpus   CorpusConfig   `yaml:"corpus" json:"corpus"`
	Remote   RemoteConfig   `yaml:"remote" json:"remote"`
	Sync     SyncConfig     `yaml:"sync" json:"sync"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// PathsConfig locates the corpus working tree and the derived data directory.
// Relative paths are resolved against the project root by Load.
type PathsConfig struct {
	CorpusDir string `yaml:"corpus_dir" json:"corpus_dir"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
}

// CorpusConfig describes the facet tree layout and author policy.
type CorpusConfig struct {
	RootTree        string `yaml:"root_tree" json:"root_tree"`
	TranslationTree string `yaml:"translation_tree" json:"translation_tree"`
	HTMLTree        string `yaml:"html_tree" json:"html_tree"`
	CommentTree     string `yaml:"comment_tree" json:"comment_tree"`
	VariantTree     string `yaml:"variant_tree" json:"variant_tree"`
	ReferenceTree   string `yaml:"reference_tree" json:"reference_tree"`

	// Language is the served translation language; it scopes the translation
	// and comment trees (translation/<language>/<author>).
	Language string `yaml:"language" json:"language"`

	AuthorTable      string `yaml:"author_table" json:"author_table"`
	PublicationTable string `yaml:"publication_table" json:"publication_table"`

	PrimaryAuthor   string `yaml:"primary_author" json:"primary_author"`
	SecondaryAuthor string `yaml:"secondary_author" json:"secondary_author"`

	// SampleID is logged after each index build as a quick sanity check.
	SampleID string `yaml:"sample_id" json:"sample_id"`

	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// RemoteConfig configures the navigation-tree and document service.
type RemoteConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	Timeout     string `yaml:"timeout" json:"timeout"`
	PoliteDelay string `yaml:"polite_delay" json:"polite_delay"`
	MaxRetries  int    `yaml:"max_retries" json:"max_retries"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	// MenuDepth bounds how many levels of branch nodes are fetched individually.
	MenuDepth   int    `yaml:"menu_depth" json:"menu_depth"`
}

// SyncConfig configures the corpus repository.
type SyncConfig struct {
	RepoURL string `yaml:"repo_url" json:"repo_url"`
	Branch  string `yaml:"branch" json:"branch"`
}

// PipelineConfig configures pruning and bundling.
type PipelineConfig struct {
	// ServedLocales are kept under translation/ and comment/.
	ServedLocales []string `yaml:"served_locales" json:"served_locales"`
	// RootLanguages are kept under root/, html/, variant/ and reference/.
	RootLanguages []string `yaml:"root_languages" json:"root_languages"`
	// RemovePaths are corpus-relative files or directories deleted outright.
	RemovePaths   []string `yaml:"remove_paths" json:"remove_paths"`

	BundleName    string   `yaml:"bundle_name" json:"bundle_name"`
	BundleExclude []string `yaml:"bundle_exclude" json:"bundle_exclude"`
}

// ServerConfig configures the MCP server and background watcher.
type ServerConfig struct {
	LogLevel      string `yaml:"log_level" json:"log_level"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// NewConfig creates a new Config with defaults for the bilara-style corpus.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			CorpusDir: "corpus",
			DataDir:   "data",
		},
		Corpus: CorpusConfig{
			RootTree:         "root/pli/ms",
			TranslationTree:  "translation",
			HTMLTree:         "html/pli/ms",
			CommentTree:      "comment",
			VariantTree:      "variant/pli/ms",
			ReferenceTree:    "reference/pli/ms",
			Language:         "en",
			AuthorTable:      "_author.json",
			PublicationTable: "_publication.json",
			PrimaryAuthor:    "sujato",
			SecondaryAuthor:  "brahmali",
			SampleID:         "dn1",
			CacheSize:        512,
		},
		Remote: RemoteConfig{
			BaseURL:     "https://suttacentral.net/api",
			Timeout:     "30s",
			PoliteDelay: "1s",
			MaxRetries:  3,
			UserAgent:   "palicanon",
			MenuDepth:   2,
		},
		Sync: SyncConfig{
			RepoURL: "https://github.com/suttacentral/bilara-data.git",
			Branch:  "published",
		},
		Pipeline: PipelineConfig{
			ServedLocales: []string{"en"},
			RootLanguages: []string{"pli"},
			RemovePaths:   []string{".github", "_project.json", "_project-v2.json", "_publication-v2.json"},
			BundleName:    "palicanon-data.tar.zst",
			BundleExclude: []string{".git"},
		},
		Server: ServerConfig{
			LogLevel:      "info",
			WatchDebounce: "500ms",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory layout:
//   - $XDG_CONFIG_HOME/palicanon/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/palicanon/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "palicanon", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "palicanon", "config.yaml")
	}
	return filepath.Join(home, ".config", "palicanon", "config.yaml")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &cfg, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/palicanon/config.yaml)
//  3. Project config (.palicanon.yaml in project root)
//  4. .env in the project root (never overrides variables already set)
//  5. Environment variables (PALICANON_*)
//
// Relative corpus and data paths are made absolute against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	envPath := filepath.Join(dir, ".env")
	if fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}
	cfg.applyEnvOverrides()

	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .palicanon.yaml or .palicanon.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectConfigName, ".palicanon.yml"} {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}
		var parsed Config
		if err := readYAML(path, &parsed); err != nil {
			return err
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	mergeString(&c.Paths.CorpusDir, other.Paths.CorpusDir)
	mergeString(&c.Paths.DataDir, other.Paths.DataDir)

	mergeString(&c.Corpus.RootTree, other.Corpus.RootTree)
	mergeString(&c.Corpus.TranslationTree, other.Corpus.TranslationTree)
	mergeString(&c.Corpus.HTMLTree, other.Corpus.HTMLTree)
	mergeString(&c.Corpus.CommentTree, other.Corpus.CommentTree)
	mergeString(&c.Corpus.VariantTree, other.Corpus.VariantTree)
	mergeString(&c.Corpus.ReferenceTree, other.Corpus.ReferenceTree)
	mergeString(&c.Corpus.Language, other.Corpus.Language)
	mergeString(&c.Corpus.AuthorTable, other.Corpus.AuthorTable)
	mergeString(&c.Corpus.PublicationTable, other.Corpus.PublicationTable)
	mergeString(&c.Corpus.PrimaryAuthor, other.Corpus.PrimaryAuthor)
	mergeString(&c.Corpus.SecondaryAuthor, other.Corpus.SecondaryAuthor)
	mergeString(&c.Corpus.SampleID, other.Corpus.SampleID)
	if other.Corpus.CacheSize > 0 {
		c.Corpus.CacheSize = other.Corpus.CacheSize
	}

	mergeString(&c.Remote.BaseURL, other.Remote.BaseURL)
	mergeString(&c.Remote.Timeout, other.Remote.Timeout)
	mergeString(&c.Remote.PoliteDelay, other.Remote.PoliteDelay)
	mergeString(&c.Remote.UserAgent, other.Remote.UserAgent)
	if other.Remote.MaxRetries > 0 {
		c.Remote.MaxRetries = other.Remote.MaxRetries
	}
	if other.Remote.MenuDepth > 0 {
		c.Remote.MenuDepth = other.Remote.MenuDepth
	}

	mergeString(&c.Sync.RepoURL, other.Sync.RepoURL)
	mergeString(&c.Sync.Branch, other.Sync.Branch)

	if len(other.Pipeline.ServedLocales) > 0 {
		c.Pipeline.ServedLocales = other.Pipeline.ServedLocales
	}
	if len(other.Pipeline.RootLanguages) > 0 {
		c.Pipeline.RootLanguages = other.Pipeline.RootLanguages
	}
	if len(other.Pipeline.RemovePaths) > 0 {
		c.Pipeline.RemovePaths = other.Pipeline.RemovePaths
	}
	mergeString(&c.Pipeline.BundleName, other.Pipeline.BundleName)
	if len(other.Pipeline.BundleExclude) > 0 {
		// Merge with defaults rather than replace
		c.Pipeline.BundleExclude = appendUnique(c.Pipeline.BundleExclude, other.Pipeline.BundleExclude...)
	}

	mergeString(&c.Server.LogLevel, other.Server.LogLevel)
	mergeString(&c.Server.WatchDebounce, other.Server.WatchDebounce)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func appendUnique(dst []string, vals ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range vals {
		if !seen[v] {
			dst = append(dst, v)
			seen[v] = true
		}
	}
	return dst
}

// applyEnvOverrides applies PALICANON_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PALICANON_CORPUS_DIR"); v != "" {
		c.Paths.CorpusDir = v
	}
	if v := os.Getenv("PALICANON_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("PALICANON_REMOTE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("PALICANON_POLITE_DELAY"); v != "" {
		c.Remote.PoliteDelay = v
	}
	if v := os.Getenv("PALICANON_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Remote.MaxRetries = n
		}
	}
	if v := os.Getenv("PALICANON_REPO_URL"); v != "" {
		c.Sync.RepoURL = v
	}
	if v := os.Getenv("PALICANON_BRANCH"); v != "" {
		c.Sync.Branch = v
	}
	if v := os.Getenv("PALICANON_SERVED_LOCALES"); v != "" {
		c.Pipeline.ServedLocales = splitList(v)
	}
	if v := os.Getenv("PALICANON_PRIMARY_AUTHOR"); v != "" {
		c.Corpus.PrimaryAuthor = v
	}
	if v := os.Getenv("PALICANON_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) resolvePaths(dir string) {
	if !filepath.IsAbs(c.Paths.CorpusDir) {
		c.Paths.CorpusDir = filepath.Join(dir, c.Paths.CorpusDir)
	}
	if !filepath.IsAbs(c.Paths.DataDir) {
		c.Paths.DataDir = filepath.Join(dir, c.Paths.DataDir)
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Paths.CorpusDir == "" || c.Paths.DataDir == "" {
		return fmt.Errorf("paths.corpus_dir and paths.data_dir are required")
	}
	if c.Corpus.RootTree == "" || c.Corpus.TranslationTree == "" {
		return fmt.Errorf("corpus.root_tree and corpus.translation_tree are required")
	}
	if c.Corpus.Language == "" {
		return fmt.Errorf("corpus.language is required")
	}
	if c.Corpus.CacheSize <= 0 {
		return fmt.Errorf("corpus.cache_size must be positive, got %d", c.Corpus.CacheSize)
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("remote.max_retries must be non-negative, got %d", c.Remote.MaxRetries)
	}

	for name, v := range map[string]string{
		"remote.timeout":        c.Remote.Timeout,
		"remote.polite_delay":   c.Remote.PoliteDelay,
		"server.watch_debounce": c.Server.WatchDebounce,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s must be a duration, got %q", name, v)
		}
	}

	if len(c.Pipeline.ServedLocales) == 0 {
		return fmt.Errorf("pipeline.served_locales must not be empty")
	}
	if c.Pipeline.BundleName == "" {
		return fmt.Errorf("pipeline.bundle_name is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// RemoteTimeout returns the parsed request timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return mustDuration(c.Remote.Timeout)
}

// PoliteDelay returns the parsed delay between backfill network calls.
func (c *Config) PoliteDelay() time.Duration {
	return mustDuration(c.Remote.PoliteDelay)
}

// WatchDebounce returns the parsed watcher debounce window.
func (c *Config) WatchDebounce() time.Duration {
	return mustDuration(c.Server.WatchDebounce)
}

// mustDuration parses a duration already checked by Validate.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// IndexPath returns the location of the built index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.DataDir, "index.json")
}

// LegacyMapPath returns the location of the legacy map.
func (c *Config) LegacyMapPath() string {
	return filepath.Join(c.Paths.DataDir, "legacy_map.json")
}

// LegacyDir returns the root of the per-author legacy documents.
func (c *Config) LegacyDir() string {
	return filepath.Join(c.Paths.DataDir, "legacy")
}

// MenusDir returns the flat navigation-menu directory.
func (c *Config) MenusDir() string {
	return filepath.Join(c.Paths.DataDir, "menus")
}

// VersionPath returns the location of the version stamp.
func (c *Config) VersionPath() string {
	return filepath.Join(c.Paths.DataDir, "version.json")
}

// BundlePath returns the location of the produced archive.
func (c *Config) BundlePath() string {
	return filepath.Join(c.Paths.DataDir, c.Pipeline.BundleName)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot walks up from startDir looking for .palicanon.yaml or a .git directory.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, ProjectConfigName)) ||
			dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
