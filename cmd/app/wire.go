//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/travel-advisor/internal/bootstrap"
	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	"github.com/yanqian/travel-advisor/internal/infra/config"
	"github.com/yanqian/travel-advisor/internal/infra/statedept"
	httpiface "github.com/yanqian/travel-advisor/internal/interface/http"
	"github.com/yanqian/travel-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdvisoryConfig,
		provideBulletinClient,
		provideMetricsRegistry,
		provideAdvisoryMetrics,
		provideAdvisoryCache,
		advisory.NewService,
		wire.Bind(new(advisory.BulletinSource), new(*statedept.Client)),
		wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
