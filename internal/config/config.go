// Package config provides configuration loading and structs for the helpsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Docs      DocsConfig      `yaml:"docs"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the content store location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
// Provider is one of "mock", "http" or "onnx".
type EmbeddingConfig struct {
	Provider          string   `yaml:"provider"`
	Endpoint          string   `yaml:"endpoint"`
	APIKey            string   `yaml:"api_key"`
	Model             string   `yaml:"model"`
	Dimensions        int      `yaml:"dimensions"`
	Timeout           Duration `yaml:"timeout"`
	MaxRetries        int      `yaml:"max_retries"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	ModelPath         string   `yaml:"model_path"`
	MaxTokens         int      `yaml:"max_tokens"`
	CacheSize         int      `yaml:"cache_size"`
}

// SearchConfig holds query defaults for the similarity engine.
type SearchConfig struct {
	DefaultK        int      `yaml:"default_k"`
	MaxK            int      `yaml:"max_k"`
	EmbedTimeout    Duration `yaml:"embed_timeout"`
	NormalizeCorpus bool     `yaml:"normalize_corpus"`
}

// DocsConfig points at the help documentation sources.
type DocsConfig struct {
	Directory string   `yaml:"directory"`
	Patterns  []string `yaml:"patterns"`
	Watch     *bool    `yaml:"watch"`
}

// WatchOrDefault returns whether to watch the docs directory; defaults to true when unset.
func (d *DocsConfig) WatchOrDefault() bool {
	if d.Watch != nil {
		return *d.Watch
	}
	return true
}

// TracingConfig configures OpenTelemetry export. An empty endpoint disables export.
type TracingConfig struct {
	OTLPEndpoint string   `yaml:"otlp_endpoint"`
	ServiceName  string   `yaml:"service_name"`
	SampleRate   *float64 `yaml:"sample_rate"`
}

// SampleRateOrDefault returns the trace sampling ratio; defaults to 1.0 when unset.
// An explicit 0 disables sampling.
func (t *TracingConfig) SampleRateOrDefault() float64 {
	if t.SampleRate != nil {
		return *t.SampleRate
	}
	return 1.0
}

// Duration is a time.Duration that reads and writes as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
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
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Docs.Directory = expandPath(cfg.Docs.Directory, configDir)

	return &cfg, nil
}

// Validate rejects settings that cannot work together.
func Validate(cfg *Config) error {
	switch cfg.Embedding.Provider {
	case ProviderMock, ProviderONNX:
	case ProviderHTTP:
		if cfg.Embedding.Endpoint == "" {
			return fmt.Errorf("embedding.endpoint is required for provider %q", ProviderHTTP)
		}
	default:
		return fmt.Errorf("unknown embedding provider: %s (supported: mock, http, onnx)", cfg.Embedding.Provider)
	}
	if cfg.Search.DefaultK > cfg.Search.MaxK {
		return fmt.Errorf("search.default_k (%d) exceeds search.max_k (%d)", cfg.Search.DefaultK, cfg.Search.MaxK)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" is kept as is.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
