package config

// Ranking and presentation defaults.
const (
	DefaultPackDir       = "packs"
	DefaultPackName      = "fluorite-pack.sqlite3"
	DefaultTop           = 5
	DefaultRRFConstant   = 60.0
	DefaultOverfetch     = 8
	DefaultSnippetLength = 200
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Pack.Dir == "" {
		cfg.Pack.Dir = DefaultPackDir
	}
	if cfg.Pack.Name == "" {
		cfg.Pack.Name = DefaultPackName
	}
	if cfg.Search.DefaultTop == 0 {
		cfg.Search.DefaultTop = DefaultTop
	}
	if cfg.Search.RRFConstant == 0 {
		cfg.Search.RRFConstant = DefaultRRFConstant
	}
	if cfg.Search.Overfetch == 0 {
		cfg.Search.Overfetch = DefaultOverfetch
	}
	if cfg.Search.SnippetLength == 0 {
		cfg.Search.SnippetLength = DefaultSnippetLength
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 256
	}
	if cfg.Search.CacheTTLSeconds == 0 {
		cfg.Search.CacheTTLSeconds = 300
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8737
	}
}
