package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken  string        `env:"TELEGRAM_BOT_TOKEN,required"`
	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT,default=10s"`
	BinanceBaseURL      string        `env:"BINANCE_BASE_URL,default=https://api.binance.com"`
	CoingeckoBaseURL    string        `env:"COINGECKO_BASE_URL,default=https://api.coingecko.com"`
	KucoinBaseURL       string        `env:"KUCOIN_BASE_URL,default=https://api.kucoin.com"`
	YahooBaseURL        string        `env:"YAHOO_BASE_URL,default=https://query1.finance.yahoo.com"`
	AlphaVantageBaseURL string        `env:"ALPHAVANTAGE_BASE_URL,default=https://www.alphavantage.co"`
	AlphaVantageAPIKey  string        `env:"ALPHAVANTAGE_API_KEY"`
	FinnhubBaseURL      string        `env:"FINNHUB_BASE_URL,default=https://finnhub.io"`
	FinnhubAPIKey       string        `env:"FINNHUB_API_KEY"`
	ExchangeRateBaseURL string        `env:"EXCHANGERATE_BASE_URL,default=https://api.exchangerate.host"`
	ExchangeRateAPIKey  string        `env:"EXCHANGERATE_API_KEY"`
	TgjuBaseURL         string        `env:"TGJU_BASE_URL,default=https://www.tgju.org"`

	// Cache lifetimes per asset class. The values are knobs, not invariants;
	// fast-moving classes default shorter.
	CacheTTLCrypto     time.Duration `env:"CACHE_TTL_CRYPTO,default=2m"`
	CacheTTLStock      time.Duration `env:"CACHE_TTL_STOCK,default=5m"`
	CacheTTLCommodity  time.Duration `env:"CACHE_TTL_COMMODITY,default=10m"`
	CacheTTLCurrency   time.Duration `env:"CACHE_TTL_CURRENCY,default=5m"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL,default=5m"`

	AlertEvalInterval    time.Duration `env:"ALERT_EVAL_INTERVAL,default=60s"`
	AlertQuotaPerUser    int           `env:"ALERT_QUOTA_PER_USER,default=10"`
	AlertEqualsTolerance float64       `env:"ALERT_EQUALS_TOLERANCE,default=0.01"`

	DispatchInterval  time.Duration `env:"DISPATCH_INTERVAL,default=30s"`
	DispatchBatchSize int           `env:"DISPATCH_BATCH_SIZE,default=100"`

	BinanceStreamEnabled bool          `env:"BINANCE_STREAM_ENABLED,default=false"`
	BinanceWSURL         string        `env:"BINANCE_WS_URL,default=wss://stream.binance.com:9443"`
	BinanceStreamSymbols []string      `env:"BINANCE_STREAM_SYMBOLS,default=BTC,ETH,BNB,SOL,XRP"`
	BinanceWSReadTimeout time.Duration `env:"BINANCE_WS_READ_TIMEOUT,default=0s"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
