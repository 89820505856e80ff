package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	"github.com/yanqian/travel-advisor/internal/infra/advisorycache"
	"github.com/yanqian/travel-advisor/internal/infra/config"
	"github.com/yanqian/travel-advisor/internal/infra/statedept"
	"github.com/yanqian/travel-advisor/pkg/metrics"
)

func provideAdvisoryConfig(cfg *config.Config) advisory.Config {
	return advisory.Config{
		CacheTTL: cfg.Advisory.CacheTTL,
		Source:   cfg.Advisory.Source,
	}
}

func provideBulletinClient(cfg *config.Config) *statedept.Client {
	return statedept.NewClient(cfg.Advisory.UpstreamBaseURL, cfg.Advisory.RequestTimeout)
}

func provideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideAdvisoryMetrics(reg prometheus.Registerer) *metrics.AdvisoryMetrics {
	return metrics.NewAdvisoryMetrics(reg)
}

// provideAdvisoryCache selects the configured backend and falls back to the
// in-process store when the backend cannot be reached at startup.
func provideAdvisoryCache(cfg *config.Config, logger *slog.Logger) (advisory.Cache, func()) {
	key := cfg.Advisory.CacheKey
	fallback := func(reason string, err error) (advisory.Cache, func()) {
		logger.Error(reason+", using memory cache", "backend", cfg.Cache.Backend, "error", err)
		return advisorycache.NewMemoryStore(key), func() {}
	}

	switch cfg.Cache.Backend {
	case config.BackendValkey:
		opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
		if err != nil {
			return fallback("invalid valkey configuration", err)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			return fallback("failed to create valkey client", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			client.Close()
			return fallback("valkey ping failed", err)
		}
		logger.Info("advisory valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
		return advisorycache.NewValkeyStore(client, key), client.Close

	case config.BackendPostgres:
		pool, err := openPostgresPool(cfg.Cache.Postgres)
		if err != nil {
			return fallback("postgres unavailable", err)
		}
		store := advisorycache.NewPostgresStore(pool, key)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return fallback("failed to prepare advisory cache table", err)
		}
		logger.Info("advisory postgres cache enabled")
		return store, pool.Close

	case config.BackendObjectStore:
		oc := cfg.Cache.ObjectStore
		store, err := advisorycache.NewObjectStore(advisorycache.ObjectStoreOptions{
			Endpoint:  oc.Endpoint,
			AccessKey: oc.AccessKey,
			SecretKey: oc.SecretKey,
			Bucket:    oc.Bucket,
			Region:    oc.Region,
		}, key, logger)
		if err != nil {
			return fallback("invalid object store configuration", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return fallback("object store bucket unavailable", err)
		}
		logger.Info("advisory object store cache enabled", "bucket", oc.Bucket)
		return store, func() {}
	}

	logger.Info("advisory memory cache enabled")
	return advisorycache.NewMemoryStore(key), func() {}
}

func openPostgresPool(pc config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(pc.DSN))
	if err != nil {
		return nil, err
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		poolConfig.MinConns = pc.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
