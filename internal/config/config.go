// Package config provides application configuration with multi-source priority.
//
// Sources, highest priority first:
//  1. Environment variables (VOCAB_ prefix, plus a few explicit secrets)
//  2. Config file (~/.vocabvoyage/config.yaml or ./config.yaml)
//  3. Defaults
//
// Sensitive values (API keys, blob tokens, database passwords) are only read
// from the environment and are never logged.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidModelName indicates the generation model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidStoreMode indicates an unknown store mode.
	ErrInvalidStoreMode = errors.New("invalid store mode")

	// ErrMissingRemoteEndpoint indicates remote mode without a blob endpoint.
	ErrMissingRemoteEndpoint = errors.New("missing remote endpoint")

	// ErrInvalidTopK indicates the retrieval topK is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
)

// Store modes selected once at process start.
const (
	// StoreModeLocal operates directly on a local SQLite file.
	StoreModeLocal = "local"

	// StoreModeRemote keeps a local working copy mirrored to remote blob
	// storage with push-after-write. Single writer only; see store.Mirror.
	StoreModeRemote = "remote"
)

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultModelName     = "gemini-2.5-flash"
	DefaultEmbedderModel = "gemini-embedding-001"
	DefaultTopK          = 1
	DefaultPushRetryWait = 2 * time.Second
)

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	// Mode is "local" or "remote", fixed for the process lifetime.
	Mode string `mapstructure:"mode"`

	// Path is the SQLite file path in local mode. Defaults to
	// ~/.vocabvoyage/vocab.db.
	Path string `mapstructure:"path"`

	// RemoteEndpoint is the blob URL holding the database copy in remote
	// mode (GET to download, PUT to upload).
	RemoteEndpoint string `mapstructure:"remote_endpoint"`

	// RemoteToken is the bearer token for the blob endpoint.
	// Environment only (VOCAB_BLOB_TOKEN).
	RemoteToken string `mapstructure:"-"`

	// PushOnRead also pushes the working copy after read-only calls.
	// Costs extra uploads; correctness never depends on it.
	PushOnRead bool `mapstructure:"push_on_read"`

	// PushRetryWait is the fixed delay before the single rate-limit retry.
	PushRetryWait time.Duration `mapstructure:"push_retry_wait"`
}

// RetrievalConfig configures the topic-document vector store.
type RetrievalConfig struct {
	// Enabled wires the PostgreSQL vector store into topic listing and
	// quiz generation. When false those capabilities rely on the model's
	// own vocabulary.
	Enabled bool `mapstructure:"enabled"`

	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"-"` // environment only (VOCAB_POSTGRES_PASSWORD)
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// TopK is the number of topic documents fetched per retrieval call.
	TopK int `mapstructure:"top_k"`

	// EmbeddingDim must match the embedder model's output dimensionality;
	// the vector column is created with it.
	EmbeddingDim int `mapstructure:"embedding_dim"`
}

// Config stores application configuration.
type Config struct {
	// Generation model configuration.
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`

	Store     StoreConfig     `mapstructure:"store"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// Server address for vocabvoyage serve.
	ServerAddr string `mapstructure:"server_addr"`
}

// Load loads configuration from file, environment, and defaults, and
// validates it (fail-fast).
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".vocabvoyage")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)

	v.SetEnvPrefix("VOCAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("config file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Secrets come from the environment only.
	cfg.Store.RemoteToken = os.Getenv("VOCAB_BLOB_TOKEN")
	if pw := os.Getenv("VOCAB_POSTGRES_PASSWORD"); pw != "" {
		cfg.Retrieval.PostgresPassword = pw
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("server_addr", "127.0.0.1:3500")

	v.SetDefault("store.mode", StoreModeLocal)
	v.SetDefault("store.path", filepath.Join(configDir, "vocab.db"))
	v.SetDefault("store.push_on_read", false)
	v.SetDefault("store.push_retry_wait", DefaultPushRetryWait)

	v.SetDefault("retrieval.enabled", false)
	v.SetDefault("retrieval.postgres_host", "localhost")
	v.SetDefault("retrieval.postgres_port", 5432)
	v.SetDefault("retrieval.postgres_user", "vocab")
	v.SetDefault("retrieval.postgres_db_name", "vocab")
	v.SetDefault("retrieval.postgres_ssl_mode", "disable")
	v.SetDefault("retrieval.top_k", DefaultTopK)
	v.SetDefault("retrieval.embedding_dim", 768)
}

// Validate checks configuration ranges and required combinations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelName) == "" {
		return ErrInvalidModelName
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return ErrInvalidEmbedderModel
	}

	switch c.Store.Mode {
	case StoreModeLocal:
	case StoreModeRemote:
		if strings.TrimSpace(c.Store.RemoteEndpoint) == "" {
			return ErrMissingRemoteEndpoint
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreMode, c.Store.Mode)
	}

	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > 10 {
		return fmt.Errorf("%w: %d (must be 1-10)", ErrInvalidTopK, c.Retrieval.TopK)
	}
	if c.Retrieval.PostgresPort < 1 || c.Retrieval.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.Retrieval.PostgresPort)
	}

	return nil
}

// PostgresDSN returns the keyword/value connection string for pgx.
func (c *Config) PostgresDSN() string {
	parts := []string{
		"host=" + c.Retrieval.PostgresHost,
		fmt.Sprintf("port=%d", c.Retrieval.PostgresPort),
		"user=" + c.Retrieval.PostgresUser,
		"dbname=" + c.Retrieval.PostgresDBName,
		"sslmode=" + c.Retrieval.PostgresSSLMode,
	}
	if c.Retrieval.PostgresPassword != "" {
		parts = append(parts, "password="+c.Retrieval.PostgresPassword)
	}
	return strings.Join(parts, " ")
}
