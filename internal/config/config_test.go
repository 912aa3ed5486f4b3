package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bondregress.yaml")

	cfg := Default()
	cfg.Harness.Parallelism = 8
	cfg.Baselines.Backend = BackendPostgres
	cfg.Baselines.DSN = "postgres://localhost/bondregress?sslmode=disable"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Harness.Parallelism)
	assert.Equal(t, BackendPostgres, loaded.Baselines.Backend)
	assert.Equal(t, cfg.Baselines.DSN, loaded.Baselines.DSN)
	assert.Empty(t, loaded.Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateCatchesProblems(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*Config)
		problem string
	}{
		"unknown_baselines_backend": {
			mutate:  func(c *Config) { c.Baselines.Backend = "s3" },
			problem: "baselines.backend",
		},
		"postgres_without_dsn": {
			mutate: func(c *Config) {
				c.Baselines.Backend = BackendPostgres
				c.Baselines.DSN = ""
			},
			problem: "baselines.dsn",
		},
		"redis_without_addr": {
			mutate: func(c *Config) {
				c.Source.Backend = BackendRedis
				c.Source.Redis.Addr = ""
			},
			problem: "source.redis.addr",
		},
		"empty_filter_tag": {
			mutate:  func(c *Config) { c.Source.FilterTag = "" },
			problem: "source.filter_tag",
		},
		"zero_parallelism": {
			mutate:  func(c *Config) { c.Harness.Parallelism = 0 },
			problem: "harness.parallelism",
		},
		"excessive_parallelism": {
			mutate:  func(c *Config) { c.Harness.Parallelism = 128 },
			problem: "harness.parallelism",
		},
		"zero_max_cases": {
			mutate:  func(c *Config) { c.Curation.MaxCases = 0 },
			problem: "curation.max_cases",
		},
		"bad_monitor_port": {
			mutate:  func(c *Config) { c.Monitor.Port = 70000 },
			problem: "monitor.port",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			problems := cfg.Validate()
			require.NotEmpty(t, problems)

			found := false
			for _, p := range problems {
				if strings.Contains(p, tt.problem) {
					found = true
				}
			}
			assert.True(t, found, "expected a problem mentioning %q, got %v", tt.problem, problems)
		})
	}
}
