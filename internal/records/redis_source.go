package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// RedisSourceConfig configures the Redis-backed record source. The log
// shipper pushes each captured record onto a list; FetchRecords drains up to
// FetchLimit entries from the head.
type RedisSourceConfig struct {
	Addr              string
	Password          string
	DB                int
	Key               string
	FetchLimit        int64
	RequestsPerSecond float64
	Burst             int
}

// DefaultRedisSourceConfig returns conservative source settings.
func DefaultRedisSourceConfig() RedisSourceConfig {
	return RedisSourceConfig{
		Addr:              "localhost:6379",
		Key:               "bondregress:records",
		FetchLimit:        10000,
		RequestsPerSecond: 5,
		Burst:             2,
	}
}

// RedisSource fetches captured records from a Redis list. Calls to the
// backend are rate limited and guarded by a circuit breaker so a degraded
// capture store cannot stall or hammer the curation pipeline.
type RedisSource struct {
	client  *redis.Client
	key     string
	limit   int64
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewRedisSource creates a Redis-backed record source.
func NewRedisSource(cfg RedisSourceConfig) *RedisSource {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisSource(client, cfg)
}

// NewRedisSourceWithClient wires an existing client (used by tests).
func NewRedisSourceWithClient(client *redis.Client, cfg RedisSourceConfig) *RedisSource {
	return newRedisSource(client, cfg)
}

func newRedisSource(client *redis.Client, cfg RedisSourceConfig) *RedisSource {
	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = DefaultRedisSourceConfig().FetchLimit
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRedisSourceConfig().RequestsPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultRedisSourceConfig().Burst
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "record-source-redis",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Record source circuit breaker state change")
		},
	})

	return &RedisSource{
		client:  client,
		key:     cfg.Key,
		limit:   limit,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
	}
}

// FetchRecords returns the records tagged with filterTag, in list order.
func (s *RedisSource) FetchRecords(ctx context.Context, filterTag string) ([]CalculationRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("record fetch rate limit: %w", err)
	}

	raw, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.LRange(ctx, s.key, 0, s.limit-1).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records from redis: %w", err)
	}

	entries := raw.([]string)
	recs := make([]CalculationRecord, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		var rec CalculationRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			skipped++
			continue
		}
		if rec.Event != filterTag {
			continue
		}
		recs = append(recs, rec)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("key", s.key).Msg("Skipped malformed record entries")
	}
	log.Info().Int("records", len(recs)).Str("key", s.key).Str("filter", filterTag).
		Msg("Fetched calculation records from redis")
	return recs, nil
}
