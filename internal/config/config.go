package config

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string `env:"PORT"         envDefault:"3001"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"*"`
	Database    string `env:"DATABASE_PATH" envDefault:"./data/loanzzz.db"`
	LogLvl      string `env:"LOG_LVL"      envDefault:"info"`
	JWTSecret   string `env:"JWT_SECRET"   envDefault:"loanzzz-dev-secret"`

	CoinGeckoURL string        `env:"COINGECKO_API_URL" envDefault:"https://api.coingecko.com/api/v3"`
	PriceTTL     time.Duration `env:"PRICE_CACHE_TTL"   envDefault:"60s"`

	ChronikURL   string `env:"CHRONIK_API_URL" envDefault:"https://chronik.e.cash"`
	SolanaRPCURL string `env:"SOLANA_RPC_URL"  envDefault:"https://api.mainnet-beta.solana.com"`

	EscrowXECAddress    string `env:"ESCROW_XEC_ADDRESS"    envDefault:""`
	EscrowSolanaAddress string `env:"ESCROW_SOLANA_ADDRESS" envDefault:""`

	InitialLTV         float64 `env:"INITIAL_LTV"          envDefault:"65"`
	MarginCallLTV      float64 `env:"MARGIN_CALL_LTV"      envDefault:"75"`
	LiquidationLTV     float64 `env:"LIQUIDATION_LTV"      envDefault:"83"`
	HourlyInterestRate float64 `env:"HOURLY_INTEREST_RATE" envDefault:"0.0001"`
	LiquidationFee     float64 `env:"LIQUIDATION_FEE"      envDefault:"0.02"`
	DailyYieldRate     float64 `env:"DAILY_YIELD_RATE"     envDefault:"0.0001"`
}

func New() *Config {
	cfg := &Config{}

	env.Parse(cfg)

	flag.StringVar(&cfg.Port, "p", cfg.Port, "port to listen on")
	flag.StringVar(&cfg.Database, "d", cfg.Database, "path to the ledger database file")
	flag.StringVar(&cfg.LogLvl, "l", cfg.LogLvl, "log level")
	flag.Parse()

	if !strings.HasPrefix(cfg.CoinGeckoURL, "http://") && !strings.HasPrefix(cfg.CoinGeckoURL, "https://") {
		cfg.CoinGeckoURL = "https://" + cfg.CoinGeckoURL
	}

	return cfg
}

// Address is the listen address derived from the configured port.
func (c *Config) Address() string {
	return ":" + c.Port
}

// Loan thresholds as exact decimals. NewFromFloat round-trips the short
// defaults (65, 0.0001, ...) without binary-float drift.

func (c *Config) InitialLTVDec() decimal.Decimal     { return decimal.NewFromFloat(c.InitialLTV) }
func (c *Config) MarginCallLTVDec() decimal.Decimal  { return decimal.NewFromFloat(c.MarginCallLTV) }
func (c *Config) LiquidationLTVDec() decimal.Decimal { return decimal.NewFromFloat(c.LiquidationLTV) }
func (c *Config) HourlyInterestRateDec() decimal.Decimal {
	return decimal.NewFromFloat(c.HourlyInterestRate)
}
func (c *Config) LiquidationFeeDec() decimal.Decimal { return decimal.NewFromFloat(c.LiquidationFee) }
func (c *Config) DailyYieldRateDec() decimal.Decimal { return decimal.NewFromFloat(c.DailyYieldRate) }
