package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration, stored in ~/.serenity/config.yaml.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Inference InferenceConfig `yaml:"inference"`
	Server    ServerConfig    `yaml:"server"`
}

// StoreConfig selects and locates the entry database.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the Postgres connection string, used when Driver is "postgres".
	DSN string `yaml:"dsn"`
}

// InferenceConfig picks the backend for each model collaborator.
type InferenceConfig struct {
	// Sentiment is one of lexicon, anthropic, openai, none.
	Sentiment string `yaml:"sentiment"`
	// Themes is one of lexicon, anthropic, openai, voyage, none.
	Themes string `yaml:"themes"`
	// Tokenizer is a tiktoken encoding name, or "none".
	Tokenizer      string `yaml:"tokenizer"`
	AnthropicModel string `yaml:"anthropic_model"`
	OpenAIModel    string `yaml:"openai_model"`
	VoyageModel    string `yaml:"voyage_model"`
}

// ServerConfig holds REST API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

const (
	DefaultDriver         = "sqlite"
	DefaultBackend        = "lexicon"
	DefaultTokenizer      = "cl100k_base"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultVoyageModel    = "voyage-3-lite"
	DefaultAddr           = ":8080"
)

// DataDir returns ~/.serenity.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".serenity"
	}
	return filepath.Join(home, ".serenity")
}

// FilePath returns the default config file location.
func FilePath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: DefaultDriver,
			Path:   filepath.Join(DataDir(), "journal.db"),
		},
		Inference: InferenceConfig{
			Sentiment:      DefaultBackend,
			Themes:         DefaultBackend,
			Tokenizer:      DefaultTokenizer,
			AnthropicModel: DefaultAnthropicModel,
			OpenAIModel:    DefaultOpenAIModel,
			VoyageModel:    DefaultVoyageModel,
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# serenity configuration
#
# All settings are optional; the defaults below work offline out of the box.

store:
  # sqlite (default) or postgres
  driver: sqlite
  # SQLite database file. Empty means ~/.serenity/journal.db
  path: ""
  # Postgres connection string, e.g. "host=localhost user=me dbname=journal sslmode=disable"
  dsn: ""

inference:
  # Sentiment backend: lexicon | anthropic | openai | none
  sentiment: lexicon
  # Theme backend: lexicon | anthropic | openai | voyage | none
  themes: lexicon
  # tiktoken encoding used for token counts, or none
  tokenizer: cl100k_base
  # API keys are read from ANTHROPIC_API_KEY, OPENAI_API_KEY and VOYAGE_API_KEY.
  anthropic_model: claude-sonnet-4-20250514
  openai_model: gpt-4o-mini
  voyage_model: voyage-3-lite

server:
  addr: ":8080"
`

// Load reads the config at path, creating it with annotated defaults when it
// does not exist. An empty path means FilePath().
func Load(path string) (Config, error) {
	if path == "" {
		path = FilePath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			log.Warn().Err(writeErr).Str("path", path).Msg("Could not create config file")
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults so that a partially
// filled file still yields a usable Config.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Inference.Sentiment == "" {
		c.Inference.Sentiment = def.Inference.Sentiment
	}
	if c.Inference.Themes == "" {
		c.Inference.Themes = def.Inference.Themes
	}
	if c.Inference.Tokenizer == "" {
		c.Inference.Tokenizer = def.Inference.Tokenizer
	}
	if c.Inference.AnthropicModel == "" {
		c.Inference.AnthropicModel = def.Inference.AnthropicModel
	}
	if c.Inference.OpenAIModel == "" {
		c.Inference.OpenAIModel = def.Inference.OpenAIModel
	}
	if c.Inference.VoyageModel == "" {
		c.Inference.VoyageModel = def.Inference.VoyageModel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
