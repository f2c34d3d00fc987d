// Package config loads the frozen-duckdb tool configuration: YAML file
// when present, environment overrides on top, defaults underneath.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/seanchatmangpt/frozen-duckdb/internal/platform"
)

// Config is the full tool configuration.
type Config struct {
	Log    Log    `yaml:"log"`
	Engine Engine `yaml:"engine"`
	Mirror Mirror `yaml:"mirror"`
	Ollama Ollama `yaml:"ollama"`
}

// Log selects logging level and format.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Engine pins which prebuilt engine build to fetch and where to keep it.
type Engine struct {
	Version   string `yaml:"version"`
	CacheRoot string `yaml:"cache_root"`
	// GitHub release coordinates the binaries are published under.
	ReleaseOwner string `yaml:"release_owner"`
	ReleaseRepo  string `yaml:"release_repo"`
	// SHA256 is the expected digest of the library file, empty to skip
	// verification.
	SHA256 string `yaml:"sha256"`
}

// Mirror configures an optional S3-compatible mirror tried before the
// GitHub release. Disabled unless an endpoint is set.
type Mirror struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// Enabled reports whether the mirror is configured at all.
func (m Mirror) Enabled() bool {
	return m.Endpoint != ""
}

// Ollama locates the model server the Flock extension talks to.
type Ollama struct {
	URL            string `yaml:"url"`
	TextModel      string `yaml:"text_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// Environment variables honored on top of the file.
const (
	EnvOllamaURL     = "OLLAMA_URL"
	EnvEngineVersion = "DUCKDB_VERSION"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Engine: Engine{
			Version:      platform.EngineVersion,
			ReleaseOwner: "seanchatmangpt",
			ReleaseRepo:  "frozen-duckdb",
		},
		Ollama: Ollama{
			URL:            "http://localhost:11434",
			TextModel:      "qwen3-coder:30b",
			EmbeddingModel: "qwen3-embedding:8b",
		},
	}
}

// Load reads the configuration at path and applies environment
// overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// applyEnv lets the environment override file values, matching the
// variables the rest of the module already honors.
func (c *Config) applyEnv() {
	if v := os.Getenv(platform.EnvCacheRoot); v != "" {
		c.Engine.CacheRoot = v
	}
	if v := os.Getenv(EnvEngineVersion); v != "" {
		c.Engine.Version = v
	}
	if v := os.Getenv(EnvOllamaURL); v != "" {
		c.Ollama.URL = v
	}
}

// fillDefaults backfills anything a sparse file left empty.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Engine.Version == "" {
		c.Engine.Version = d.Engine.Version
	}
	if c.Engine.ReleaseOwner == "" {
		c.Engine.ReleaseOwner = d.Engine.ReleaseOwner
	}
	if c.Engine.ReleaseRepo == "" {
		c.Engine.ReleaseRepo = d.Engine.ReleaseRepo
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = d.Ollama.URL
	}
	if c.Ollama.TextModel == "" {
		c.Ollama.TextModel = d.Ollama.TextModel
	}
	if c.Ollama.EmbeddingModel == "" {
		c.Ollama.EmbeddingModel = d.Ollama.EmbeddingModel
	}
}
