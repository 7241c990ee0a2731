package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ModelName:     DefaultModelName,
		EmbedderModel: DefaultEmbedderModel,
		ServerAddr:    "127.0.0.1:3500",
		Store: StoreConfig{
			Mode:          StoreModeLocal,
			Path:          "/tmp/vocab.db",
			PushRetryWait: DefaultPushRetryWait,
		},
		Retrieval: RetrievalConfig{
			PostgresHost:    "localhost",
			PostgresPort:    5432,
			PostgresUser:    "vocab",
			PostgresDBName:  "vocab",
			PostgresSSLMode: "disable",
			TopK:            1,
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = " " },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "unknown store mode",
			mutate:  func(c *Config) { c.Store.Mode = "cloud" },
			wantErr: ErrInvalidStoreMode,
		},
		{
			name: "remote mode without endpoint",
			mutate: func(c *Config) {
				c.Store.Mode = StoreModeRemote
				c.Store.RemoteEndpoint = ""
			},
			wantErr: ErrMissingRemoteEndpoint,
		},
		{
			name:    "topK too small",
			mutate:  func(c *Config) { c.Retrieval.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "topK too large",
			mutate:  func(c *Config) { c.Retrieval.TopK = 11 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.Retrieval.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoteModeWithEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Mode = StoreModeRemote
	cfg.Store.RemoteEndpoint = "https://blobs.example.com/vocab.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.PostgresPassword = "s3cret"

	dsn := cfg.PostgresDSN()
	for _, want := range []string{"host=localhost", "port=5432", "dbname=vocab", "password=s3cret", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestPostgresDSNOmitsEmptyPassword(t *testing.T) {
	dsn := validConfig().PostgresDSN()
	if strings.Contains(dsn, "password=") {
		t.Errorf("DSN %q should not contain empty password", dsn)
	}
}

func TestDefaultPushRetryWait(t *testing.T) {
	if DefaultPushRetryWait != 2*time.Second {
		t.Errorf("DefaultPushRetryWait = %v, want 2s", DefaultPushRetryWait)
	}
}
