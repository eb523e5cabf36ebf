// Package main is the entry point for the xFEY rate tracker, the backend serving
// staking conversion rates and related market data to the dashboard.
package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/config"
	"github.com/yourorg/xfey-rate-tracker/internal/fetch"
	"github.com/yourorg/xfey-rate-tracker/internal/metric"
	"github.com/yourorg/xfey-rate-tracker/internal/model"
	"github.com/yourorg/xfey-rate-tracker/internal/otel"
	"github.com/yourorg/xfey-rate-tracker/internal/server"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// main is the entry point for the application
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Failed to load .env: %v", err)
	}

	cfg := config.Load()
	setupLogging(cfg)

	shutdownTracer := otel.InitTracer(cfg)
	defer shutdownTracer()

	ctx := context.Background()

	backends, err := openBackends(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer backends.Close()

	httpClient := fetch.NewHTTPClient(cfg.RequestTimeout)

	caller, err := fetch.NewChainCaller(ctx, types.BaseChain(), httpClient)
	if err != nil {
		logrus.Fatalf("Failed to create chain client: %v", err)
	}
	defer caller.Close()

	if cfg.DuneAPIKey == "" {
		logrus.Warn("DUNE_API_KEY not set, analytics endpoints will fail")
	}

	var pipeline *metric.Metrics
	if cfg.EnableMetrics {
		pipeline = metric.NewMetrics(prometheus.DefaultRegisterer)
	}

	metrics := server.Metrics{
		ConversionRate: metric.New[model.ConversionRate](metric.ConversionRate, backends.cache, fetch.NewConversionRateClient(caller)).
			WithMetrics(pipeline).
			WithAfterFetch(metric.RecordHistory(backends.history, pipeline)),
		StakedSupply: metric.New[model.StakedSupply](metric.StakedSupply, backends.cache, fetch.NewStakedSupplyClient(caller)).
			WithMetrics(pipeline),
		MarketData: metric.New[model.MarketSnapshot](metric.MarketData, backends.cache,
			fetch.NewMarketDataClient(httpClient, fetch.DexScreenerURL, types.ChainBase, fetch.FeyPairAddress)).
			WithMetrics(pipeline),
		SpotPrice: metric.New[model.SpotPrice](metric.SpotPrice, backends.cache,
			fetch.NewSpotPriceClient(httpClient, fetch.CoinGeckoURL, fetch.WethAssetID)).
			WithMetrics(pipeline),
		Rewards: metric.New[model.RewardsTotal](metric.Rewards, backends.cache,
			fetch.NewRewardsClient(httpClient, fetch.DuneURL, cfg.DuneAPIKey, fetch.RewardsQueryID)).
			WithMetrics(pipeline),
		Buyback: metric.New[model.BuybackTotal](metric.Buyback, backends.cache,
			fetch.NewBuybackClient(httpClient, fetch.DuneURL, cfg.DuneAPIKey, fetch.BuybackQueryID)).
			WithMetrics(pipeline),
	}

	srv := server.New(server.Options{
		Port:           cfg.Port,
		EnableMetrics:  cfg.EnableMetrics,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, metrics, backends.history, pipeline)

	srv.Start()
}
