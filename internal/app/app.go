package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tabdila/pricewatch/internal/cache"
	"github.com/tabdila/pricewatch/internal/config"
	"github.com/tabdila/pricewatch/internal/delivery/telegram"
	"github.com/tabdila/pricewatch/internal/domain"
	"github.com/tabdila/pricewatch/internal/infra/db"
	"github.com/tabdila/pricewatch/internal/infra/log"
	"github.com/tabdila/pricewatch/internal/infra/providers"
	"github.com/tabdila/pricewatch/internal/quote"
	"github.com/tabdila/pricewatch/internal/usecase"
)

// App owns the background loops and exposes the usecases that are the only
// entry points for the conversational front-end.
type App struct {
	Quotes        *usecase.QuoteUsecase
	Alerts        *usecase.AlertUsecase
	Notifications *usecase.NotificationUsecase

	evaluator  *usecase.Evaluator
	dispatcher *usecase.Dispatcher
	quoteCache *cache.Cache
	stream     *providers.BinanceStream
	cfg        config.Config
	logger     *zap.Logger
	cleanupFn  func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	alertRepo := db.NewAlertRepository(dbConn)
	notificationRepo := db.NewNotificationRepository(dbConn)
	cacheStore := db.NewQuoteCacheRepository(dbConn)

	quoteCache := cache.New(cacheStore, logger)
	ttls := quote.TTLs{
		Crypto:    cfg.CacheTTLCrypto,
		Stock:     cfg.CacheTTLStock,
		Commodity: cfg.CacheTTLCommodity,
		Currency:  cfg.CacheTTLCurrency,
	}
	orchestrator := quote.NewOrchestrator(quoteCache, ttls, logger)
	registerAdapters(orchestrator, cfg, logger)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}
	notifier := telegram.NewNotifier(api, logger)

	tolerance := decimal.NewFromFloat(cfg.AlertEqualsTolerance)
	evaluator := usecase.NewEvaluator(alertRepo, orchestrator, cfg.AlertEvalInterval, tolerance, logger)
	dispatcher := usecase.NewDispatcher(notificationRepo, notifier, cfg.DispatchInterval, cfg.DispatchBatchSize, logger)

	var stream *providers.BinanceStream
	if cfg.BinanceStreamEnabled {
		stream = providers.NewBinanceStream(
			cfg.BinanceWSURL,
			cfg.BinanceStreamSymbols,
			quoteCache,
			cfg.CacheTTLCrypto,
			cfg.BinanceWSReadTimeout,
			logger,
		)
	}

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		Quotes:        usecase.NewQuoteUsecase(orchestrator),
		Alerts:        usecase.NewAlertUsecase(alertRepo, cfg.AlertQuotaPerUser),
		Notifications: usecase.NewNotificationUsecase(notificationRepo),
		evaluator:     evaluator,
		dispatcher:    dispatcher,
		quoteCache:    quoteCache,
		stream:        stream,
		cfg:           cfg,
		logger:        logger,
		cleanupFn:     cleanup,
	}, nil
}

// registerAdapters builds the static fallback order per asset class. Keyed
// providers are only registered when their key is configured.
func registerAdapters(orchestrator *quote.Orchestrator, cfg config.Config, logger *zap.Logger) {
	timeout := cfg.ProviderTimeout

	orchestrator.Register(domain.AssetCrypto,
		providers.NewBinance(cfg.BinanceBaseURL, timeout, logger),
		providers.NewCoingecko(cfg.CoingeckoBaseURL, timeout, logger),
		providers.NewKucoin(cfg.KucoinBaseURL, timeout, logger),
	)

	orchestrator.Register(domain.AssetStock,
		providers.NewYahooStocks(cfg.YahooBaseURL, timeout, logger),
	)
	if cfg.AlphaVantageAPIKey != "" {
		orchestrator.Register(domain.AssetStock,
			providers.NewAlphaVantageStocks(cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey, timeout, logger),
		)
	}
	if cfg.FinnhubAPIKey != "" {
		orchestrator.Register(domain.AssetStock,
			providers.NewFinnhub(cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, timeout, logger),
		)
	}

	orchestrator.Register(domain.AssetCommodity,
		providers.NewYahooCommodities(cfg.YahooBaseURL, timeout, logger),
	)
	if cfg.AlphaVantageAPIKey != "" {
		orchestrator.Register(domain.AssetCommodity,
			providers.NewAlphaVantageCommodities(cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey, timeout, logger),
		)
	}

	orchestrator.Register(domain.AssetCurrency,
		providers.NewExchangeRate(cfg.ExchangeRateBaseURL, cfg.ExchangeRateAPIKey, timeout, logger),
		providers.NewTgju(cfg.TgjuBaseURL, timeout, logger),
	)
}

// Run starts the evaluation loop, the dispatcher, the cache sweeper and the
// optional stream warmer, and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pricewatch starting")

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return a.evaluator.Run(ctx) })
	group.Go(func() error { return a.dispatcher.Run(ctx) })
	group.Go(func() error { return a.quoteCache.RunSweeper(ctx, a.cfg.CacheSweepInterval) })
	if a.stream != nil {
		group.Go(func() error { return a.stream.Run(ctx) })
	}

	a.logger.Info("pricewatch started")
	return group.Wait()
}

func (a *App) Shutdown() {
	a.logger.Info("pricewatch shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
