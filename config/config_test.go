package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tasklist/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg config.Config)
	}{
		{
			name: "Defaults should apply with only a database url",
			env:  map[string]string{"DATABASE_URL": "postgres://u:p@localhost:5432/tasks"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.HTTP.Addr != ":8080" {
					t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
				}
				if cfg.DB.QueryTimeout != 10*time.Second {
					t.Errorf("DB.QueryTimeout = %v, want 10s", cfg.DB.QueryTimeout)
				}
				if cfg.Redis.URL != "" {
					t.Errorf("Redis.URL = %q, want empty", cfg.Redis.URL)
				}
			},
		},
		{
			name:    "Missing database url should fail for postgres",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "Memory driver should not need a database url",
			env:  map[string]string{"STORE_DRIVER": "memory", "HTTP_READ_TIMEOUT": "3s"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.HTTP.ReadTimeout != 3*time.Second {
					t.Errorf("HTTP.ReadTimeout = %v, want 3s", cfg.HTTP.ReadTimeout)
				}
			},
		},
		{
			name:    "Unknown driver should fail",
			env:     map[string]string{"STORE_DRIVER": "sqlite"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			for _, k := range []string{"DATABASE_URL", "STORE_DRIVER", "REDIS_URL", "HTTP_READ_TIMEOUT"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load("")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DATABASE_URL=postgres://file@localhost/tasks\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.URL != "postgres://file@localhost/tasks" {
		t.Errorf("DB.URL = %q, want value from env file", cfg.DB.URL)
	}
}

func TestLogConfigLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		debug bool
	}{
		{name: "Debug level should enable debug", cfg: config.LogConfig{Level: "debug"}, debug: true},
		{name: "Info level should disable debug", cfg: config.LogConfig{Level: "info", Format: "json"}, debug: false},
		{name: "Bad level should fall back to info", cfg: config.LogConfig{Level: "loud"}, debug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := tt.cfg.Logger()
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}
