package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "cinepos.db", c.DatabaseDSN)
	assert.False(t, c.InMemory)
	assert.True(t, c.InitGrid)
	assert.Equal(t, "data", c.DataDir)
	assert.Equal(t, 10*time.Second, c.LockTTL)
	assert.Empty(t, c.RedisAddr)
	assert.Empty(t, c.S3Bucket)
}

func TestLoadConfig_NoArgsGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), *cfg))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "database and memory switch",
			args: []string{"-d", "other.db", "-m"},
			mutate: func(c *Config) {
				c.DatabaseDSN = "other.db"
				c.InMemory = true
			},
		},
		{
			name: "feeds, data dir and ttl",
			args: []string{"-seats", "s.csv", "-products=p.csv", "-data", "out", "-lock-ttl", "3s"},
			mutate: func(c *Config) {
				c.SeatsFile = "s.csv"
				c.ProductsFile = "p.csv"
				c.DataDir = "out"
				c.LockTTL = 3 * time.Second
			},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"-x", "1", "-c", "cfg.json", "-grid=false"},
			mutate: func(c *Config) {
				c.InitGrid = false
			},
		},
		{
			name:    "bad duration",
			args:    []string{"-lock-ttl", "soon"},
			wantErr: true,
		},
		{
			name:    "unsupported driver",
			args:    []string{"-driver", "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(&cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.mutate(&want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"database_driver": "pgx",
		"database_dsn":    "postgres://localhost/cinepos",
		"lock_ttl":        "30s",
		"s3_bucket":       "receipts",
		"init_grid":       false,
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(&cfg, []string{"-config", path}))

		assert.Equal(t, "pgx", cfg.DatabaseDriver)
		assert.Equal(t, "postgres://localhost/cinepos", cfg.DatabaseDSN)
		assert.Equal(t, 30*time.Second, cfg.LockTTL)
		assert.Equal(t, "receipts", cfg.S3Bucket)
		assert.False(t, cfg.InitGrid)
		// absent keys keep their value
		assert.Equal(t, "data", cfg.DataDir)
	})

	t.Run("no flag leaves config untouched", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(&cfg, []string{"-d", "x.db"}))
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("flags override JSON", func(t *testing.T) {
		cfg, err := LoadConfig([]string{"-c", path, "-driver", "sqlite", "-d", "local.db"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, "local.db", cfg.DatabaseDSN)
		assert.Equal(t, "receipts", cfg.S3Bucket)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := defaults()
		require.Error(t, parseJson(&cfg, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := defaults()
		require.Error(t, parseJson(&cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}
