package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantfix/bondregress/internal/config"
	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/recorder"
	"github.com/quantfix/bondregress/internal/records"
	"github.com/quantfix/bondregress/internal/snapshot"
	"github.com/quantfix/bondregress/internal/snapshot/postgres"
)

// buildStore constructs the configured baseline store.
func buildStore(cfg *config.Config) (snapshot.BaselineStore, func(), error) {
	switch cfg.Baselines.Backend {
	case config.BackendFile:
		store, err := snapshot.NewFileStore(cfg.Baselines.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.BackendPostgres:
		store, err := postgres.New(cfg.Baselines.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown baselines backend %q", cfg.Baselines.Backend)
	}
}

// buildRecorder wires the engine through the capture recorder, the same path
// production traffic takes, so every harness invocation emits a calculation
// record. Regression records land in a dedicated file next to the production
// capture; curate reads only the configured source path and never re-ingests
// golden-dataset replays.
func buildRecorder(cfg *config.Config) (*recorder.Recorder, func(), error) {
	dir := filepath.Join("data", "capture")
	if cfg.Source.Path != "" {
		dir = filepath.Dir(cfg.Source.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create capture dir: %w", err)
	}

	sink, err := recorder.NewFileSink(filepath.Join(dir, "regression_records.jsonl"))
	if err != nil {
		return nil, nil, fmt.Errorf("open regression capture file: %w", err)
	}
	return recorder.New(engine.New(), sink), func() { sink.Close() }, nil
}

// buildSource constructs the configured calculation record source.
func buildSource(cfg *config.Config) (records.Source, error) {
	switch cfg.Source.Backend {
	case config.BackendFile:
		return records.NewFileSource(cfg.Source.Path), nil
	case config.BackendRedis:
		rc := records.RedisSourceConfig{
			Addr:              cfg.Source.Redis.Addr,
			Password:          cfg.Source.Redis.Password,
			DB:                cfg.Source.Redis.DB,
			Key:               cfg.Source.Redis.Key,
			FetchLimit:        cfg.Source.Redis.FetchLimit,
			RequestsPerSecond: cfg.Source.Redis.RequestsPerSecond,
			Burst:             cfg.Source.Redis.Burst,
		}
		return records.NewRedisSource(rc), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.Source.Backend)
	}
}
