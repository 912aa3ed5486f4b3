// Package config holds the YAML configuration for the regression pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Backend names accepted in the baselines and source sections.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the root configuration structure.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Baselines BaselinesConfig `yaml:"baselines"`
	Source    SourceConfig    `yaml:"source"`
	Harness   HarnessConfig   `yaml:"harness"`
	Curation  CurationConfig  `yaml:"curation"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// DatasetConfig locates the golden dataset files.
type DatasetConfig struct {
	Dir string `yaml:"dir"`
}

// BaselinesConfig selects and configures the baseline store.
type BaselinesConfig struct {
	Backend string `yaml:"backend"` // file | postgres
	Dir     string `yaml:"dir"`     // file backend
	DSN     string `yaml:"dsn"`     // postgres backend
}

// SourceConfig selects and configures the capture record source.
type SourceConfig struct {
	Backend   string      `yaml:"backend"` // file | redis
	Path      string      `yaml:"path"`    // file backend: JSONL capture file
	FilterTag string      `yaml:"filter_tag"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis record source.
type RedisConfig struct {
	Addr              string  `yaml:"addr"`
	Password          string  `yaml:"password"`
	DB                int     `yaml:"db"`
	Key               string  `yaml:"key"`
	FetchLimit        int64   `yaml:"fetch_limit"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HarnessConfig tunes regression runs.
type HarnessConfig struct {
	Parallelism int `yaml:"parallelism"`
}

// CurationConfig tunes dataset curation.
type CurationConfig struct {
	MaxCases int `yaml:"max_cases"`
}

// MonitorConfig configures the HTTP monitoring endpoint.
type MonitorConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to a YAML file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Default returns a configuration suitable for local development: file
// backends everywhere, golden data under data/.
func Default() *Config {
	return &Config{
		Dataset:   DatasetConfig{Dir: filepath.Join("data", "golden")},
		Baselines: BaselinesConfig{Backend: BackendFile, Dir: filepath.Join("data", "baselines")},
		Source: SourceConfig{
			Backend:   BackendFile,
			Path:      filepath.Join("data", "capture", "records.jsonl"),
			FilterTag: "bond_analytics_calculation",
			Redis: RedisConfig{
				Addr:              "localhost:6379",
				Key:               "bondregress:records",
				FetchLimit:        10000,
				RequestsPerSecond: 5,
				Burst:             2,
			},
		},
		Harness:  HarnessConfig{Parallelism: 4},
		Curation: CurationConfig{MaxCases: 100},
		Monitor:  MonitorConfig{Host: "0.0.0.0", Port: 8090},
	}
}

// Validate checks the configuration for consistency and returns a list of
// problems, empty when the configuration is usable.
func (c *Config) Validate() []string {
	var problems []string

	if c.Dataset.Dir == "" {
		problems = append(problems, "dataset.dir must be set")
	}

	switch c.Baselines.Backend {
	case BackendFile:
		if c.Baselines.Dir == "" {
			problems = append(problems, "baselines.dir must be set for the file backend")
		}
	case BackendPostgres:
		if c.Baselines.DSN == "" {
			problems = append(problems, "baselines.dsn must be set for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("baselines.backend '%s' is not one of [file, postgres]", c.Baselines.Backend))
	}

	switch c.Source.Backend {
	case BackendFile:
		if c.Source.Path == "" {
			problems = append(problems, "source.path must be set for the file backend")
		}
	case BackendRedis:
		if c.Source.Redis.Addr == "" {
			problems = append(problems, "source.redis.addr must be set for the redis backend")
		}
		if c.Source.Redis.FetchLimit < 1 {
			problems = append(problems, "source.redis.fetch_limit must be at least 1")
		}
	default:
		problems = append(problems, fmt.Sprintf("source.backend '%s' is not one of [file, redis]", c.Source.Backend))
	}

	if c.Source.FilterTag == "" {
		problems = append(problems, "source.filter_tag must be set")
	}

	if c.Harness.Parallelism < 1 || c.Harness.Parallelism > 64 {
		problems = append(problems, fmt.Sprintf("harness.parallelism %d outside [1, 64] range", c.Harness.Parallelism))
	}

	if c.Curation.MaxCases < 1 {
		problems = append(problems, "curation.max_cases must be at least 1")
	}

	if c.Monitor.Port < 1 || c.Monitor.Port > 65535 {
		problems = append(problems, fmt.Sprintf("monitor.port %d outside [1, 65535] range", c.Monitor.Port))
	}

	return problems
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join("config", "bondregress.yaml")
}
