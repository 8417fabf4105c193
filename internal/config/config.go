// Package config provides configuration loading and pack path resolution for packcheck.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables shared with the pack-building pipeline.
const (
	EnvPackPath = "FLUORITE_PACK_PATH"
	EnvRootDir  = "FLUORITE_ROOT_DIR"
	EnvPackDir  = "FLUORITE_PACK_DIR"
	EnvPackName = "FLUORITE_PACK_NAME"

	// EnvConfigPath points at a packcheck YAML config file.
	EnvConfigPath = "PACKCHECK_CONFIG"
	// EnvEmbeddingProvider overrides embedding.provider.
	EnvEmbeddingProvider = "PACKCHECK_EMBEDDING_PROVIDER"
)

// LocalConfigFile is picked up from the working directory when no config is given.
const LocalConfigFile = "packcheck.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Pack      PackConfig      `yaml:"pack"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`
}

// PackConfig locates the pack file. See ResolvePackPath for precedence.
type PackConfig struct {
	Path string `yaml:"path"`
	Root string `yaml:"root"`
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// SearchConfig holds the ranking constants and result presentation settings.
type SearchConfig struct {
	DefaultTop      int     `yaml:"default_top"`
	RRFConstant     float64 `yaml:"rrf_k"`
	Overfetch       int     `yaml:"overfetch"`
	SnippetLength   int     `yaml:"snippet_length"`
	CacheSize       int     `yaml:"cache_size"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// EmbeddingConfig selects and configures the query embedding model.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // none, local, jina, openai, onnx
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"`
	ModelPath      string `yaml:"model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ServerConfig holds HTTP server settings for serve --http.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Pack.Path = expandPath(cfg.Pack.Path, configDir)
	cfg.Pack.Root = expandPath(cfg.Pack.Root, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// LoadOrDefault loads path when set, then PACKCHECK_CONFIG, then ./packcheck.yaml.
// With none of them present it returns the defaults. Environment overlays are applied
// in every case.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		if _, err := os.Stat(LocalConfigFile); err == nil {
			path = LocalConfigFile
		}
	}

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// ApplyEnv overlays environment settings that are not part of pack path resolution.
func ApplyEnv(cfg *Config) {
	if provider := os.Getenv(EnvEmbeddingProvider); provider != "" {
		cfg.Embedding.Provider = strings.ToLower(provider)
	}
}

// Validate checks the ranking constants.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.RRFConstant <= 0 {
		errs = append(errs, fmt.Errorf("search.rrf_k must be positive, got %v", c.Search.RRFConstant))
	}
	if c.Search.Overfetch < 1 {
		errs = append(errs, fmt.Errorf("search.overfetch must be >= 1, got %d", c.Search.Overfetch))
	}
	if c.Search.DefaultTop < 1 {
		errs = append(errs, fmt.Errorf("search.default_top must be >= 1, got %d", c.Search.DefaultTop))
	}
	if c.Search.SnippetLength < 1 {
		errs = append(errs, fmt.Errorf("search.snippet_length must be >= 1, got %d", c.Search.SnippetLength))
	}
	return errors.Join(errs...)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(configDir, path)
}
