package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SymbolConfig seeds one simulated symbol.
type SymbolConfig struct {
	Symbol     string  `yaml:"symbol"`
	Price      float64 `yaml:"price"`
	Change     float64 `yaml:"change"`
	Volatility float64 `yaml:"volatility"`
}

// PositionConfig seeds one position of the demo portfolio.
type PositionConfig struct {
	ID       string  `yaml:"id"`
	Symbol   string  `yaml:"symbol"`
	Quantity int     `yaml:"quantity"`
	AvgPrice float64 `yaml:"avg_price"`
}

// StrategyConfig seeds one strategy.
type StrategyConfig struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Symbols    []string       `yaml:"symbols"`
	Parameters map[string]any `yaml:"parameters"`
	IsActive   bool           `yaml:"is_active"`
	TotalPL    string         `yaml:"total_pl"`
}

// Config is the full server configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Simulator struct {
		Interval          time.Duration `yaml:"interval"`
		VolumeMin         int64         `yaml:"volume_min"`
		VolumeMax         int64         `yaml:"volume_max"`
		MinPrice          float64       `yaml:"min_price"`
		DefaultVolatility float64       `yaml:"default_volatility"`
		SeedVolumeMin     int64         `yaml:"seed_volume_min"`
		SeedVolumeMax     int64         `yaml:"seed_volume_max"`
	} `yaml:"simulator"`
	Market struct {
		MaxHistory int            `yaml:"max_history"`
		Symbols    []SymbolConfig `yaml:"symbols"`
	} `yaml:"market"`
	Portfolio struct {
		ID        string           `yaml:"id"`
		OwnerID   string           `yaml:"owner_id"`
		Balance   string           `yaml:"balance"`
		TotalPL   string           `yaml:"total_pl"`
		TodayPL   string           `yaml:"today_pl"`
		Positions []PositionConfig `yaml:"positions"`
	} `yaml:"portfolio"`
	Strategies []StrategyConfig `yaml:"strategies"`
	Signals    struct {
		DefaultStrategy string `yaml:"default_strategy"`
		DefaultLimit    int    `yaml:"default_limit"`
		MaxStored       int    `yaml:"max_stored"`
	} `yaml:"signals"`
	Hub struct {
		SendBuffer   int           `yaml:"send_buffer"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		MaxMessage   int64         `yaml:"max_message"`
	} `yaml:"hub"`
	Gateway struct {
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"gateway"`
	Indicators struct {
		SMAWindows []int   `yaml:"sma_windows"`
		EMAWindows []int   `yaml:"ema_windows"`
		RSIPeriod  int     `yaml:"rsi_period"`
		MACDFast   int     `yaml:"macd_fast"`
		MACDSlow   int     `yaml:"macd_slow"`
		MACDSignal int     `yaml:"macd_signal"`
		BBWindow   int     `yaml:"bb_window"`
		BBStdDev   float64 `yaml:"bb_stddev"`
	} `yaml:"indicators"`
	Journal struct {
		Type                 string `yaml:"type"`
		Dir                  string `yaml:"dir"`
		DBPath               string `yaml:"db_path"`
		Buffer               int    `yaml:"buffer"`
		IncludeMarketUpdates bool   `yaml:"include_market_updates"`
		RetentionDays        int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

const (
	JournalNone   = "none"
	JournalSQLite = "sqlite"
	JournalJSONL  = "jsonl"
)

// Default returns the built-in configuration: the six dashboard symbols, one
// demo portfolio and the two illustrative strategies.
func Default() *Config {
	var c Config
	c.Server.Addr = ":5000"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second

	c.Simulator.Interval = 5 * time.Second
	c.Simulator.VolumeMin = 500000
	c.Simulator.VolumeMax = 1000000
	c.Simulator.MinPrice = 0.01
	c.Simulator.DefaultVolatility = 0.01
	c.Simulator.SeedVolumeMin = 500000
	c.Simulator.SeedVolumeMax = 1500000

	c.Market.Symbols = []SymbolConfig{
		{Symbol: "AAPL", Price: 175.24, Change: 4.12, Volatility: 0.01},
		{Symbol: "GOOGL", Price: 2845.67, Change: -35.23, Volatility: 0.01},
		{Symbol: "MSFT", Price: 378.92, Change: 3.34, Volatility: 0.01},
		{Symbol: "TSLA", Price: 234.56, Change: -8.45, Volatility: 0.01},
		{Symbol: "AMZN", Price: 3234.78, Change: 54.23, Volatility: 0.01},
		{Symbol: "BTC", Price: 43567.89, Change: 1842.45, Volatility: 0.02},
	}

	c.Portfolio.ID = "portfolio-1"
	c.Portfolio.OwnerID = "user-1"
	c.Portfolio.Balance = "125430.20"
	c.Portfolio.TotalPL = "8945.30"
	c.Portfolio.TodayPL = "-234.56"
	c.Portfolio.Positions = []PositionConfig{
		{ID: "pos-1", Symbol: "AAPL", Quantity: 100, AvgPrice: 170.50},
		{ID: "pos-2", Symbol: "GOOGL", Quantity: 25, AvgPrice: 2880.00},
		{ID: "pos-3", Symbol: "TSLA", Quantity: 50, AvgPrice: 220.45},
	}

	c.Strategies = []StrategyConfig{
		{
			ID:         "strat-1",
			Name:       "Trend Following",
			Type:       "TREND_FOLLOWING",
			Symbols:    []string{"AAPL", "GOOGL", "MSFT"},
			Parameters: map[string]any{"period": 20, "threshold": 0.02},
			IsActive:   true,
			TotalPL:    "1234.56",
		},
		{
			ID:         "strat-2",
			Name:       "Mean Reversion",
			Type:       "MEAN_REVERSION",
			Symbols:    []string{"SPY", "QQQ"},
			Parameters: map[string]any{"rsi_period": 14, "bb_period": 20},
			IsActive:   true,
			TotalPL:    "-89.45",
		},
	}

	c.Signals.DefaultStrategy = "TREND_FOLLOWING"
	c.Signals.DefaultLimit = 10

	c.Hub.SendBuffer = 64
	c.Hub.WriteTimeout = 10 * time.Second
	c.Hub.PingInterval = 30 * time.Second
	c.Hub.PongTimeout = 60 * time.Second
	c.Hub.MaxMessage = 4096

	c.Gateway.RateLimitRPS = 20
	c.Gateway.RateLimitBurst = 40

	c.Indicators.SMAWindows = []int{20, 50}
	c.Indicators.EMAWindows = []int{12, 26}
	c.Indicators.RSIPeriod = 14
	c.Indicators.MACDFast = 12
	c.Indicators.MACDSlow = 26
	c.Indicators.MACDSignal = 9
	c.Indicators.BBWindow = 20
	c.Indicators.BBStdDev = 2

	c.Journal.Type = JournalNone
	c.Journal.Dir = "logs"
	c.Journal.DBPath = "journal.db"
	c.Journal.Buffer = 256
	return &c
}

// SymbolNames returns the tracked symbols in configured order.
func (c *Config) SymbolNames() []string {
	out := make([]string, 0, len(c.Market.Symbols))
	for _, s := range c.Market.Symbols {
		out = append(out, s.Symbol)
	}
	return out
}

// VolatilityFor returns the per-symbol volatility, falling back to the default.
func (c *Config) VolatilityFor(s SymbolConfig) float64 {
	if s.Volatility > 0 {
		return s.Volatility
	}
	return c.Simulator.DefaultVolatility
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator.interval must be positive, got %s", c.Simulator.Interval)
	}
	if c.Simulator.VolumeMin < 0 || c.Simulator.VolumeMax <= c.Simulator.VolumeMin {
		return fmt.Errorf("simulator volume range [%d, %d) is empty", c.Simulator.VolumeMin, c.Simulator.VolumeMax)
	}
	if c.Simulator.SeedVolumeMin < 0 || c.Simulator.SeedVolumeMax <= c.Simulator.SeedVolumeMin {
		return fmt.Errorf("simulator seed volume range [%d, %d) is empty", c.Simulator.SeedVolumeMin, c.Simulator.SeedVolumeMax)
	}
	if c.Simulator.MinPrice <= 0 {
		return fmt.Errorf("simulator.min_price must be positive, got %.4f", c.Simulator.MinPrice)
	}
	if len(c.Market.Symbols) == 0 {
		return errors.New("market.symbols cannot be empty")
	}
	if c.Market.MaxHistory < 0 {
		return fmt.Errorf("market.max_history must be >= 0, got %d", c.Market.MaxHistory)
	}
	seen := make(map[string]bool, len(c.Market.Symbols))
	for _, s := range c.Market.Symbols {
		if s.Symbol == "" {
			return errors.New("market.symbols entry has empty symbol")
		}
		if seen[s.Symbol] {
			return fmt.Errorf("market.symbols has duplicate symbol '%s'", s.Symbol)
		}
		seen[s.Symbol] = true
		if s.Price <= 0 {
			return fmt.Errorf("seed price for '%s' must be positive, got %.2f", s.Symbol, s.Price)
		}
		if s.Price-s.Change <= 0 {
			return fmt.Errorf("seed change for '%s' implies a non-positive previous price", s.Symbol)
		}
		if s.Volatility < 0 || s.Volatility >= 2 {
			return fmt.Errorf("volatility for '%s' must be in [0, 2), got %.4f", s.Symbol, s.Volatility)
		}
	}
	for field, v := range map[string]string{
		"portfolio.balance":  c.Portfolio.Balance,
		"portfolio.total_pl": c.Portfolio.TotalPL,
		"portfolio.today_pl": c.Portfolio.TodayPL,
	} {
		if _, err := parseMoney(v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	for _, p := range c.Portfolio.Positions {
		if p.Symbol == "" || p.Quantity == 0 {
			return fmt.Errorf("portfolio position '%s' needs a symbol and non-zero quantity", p.ID)
		}
	}
	for _, s := range c.Strategies {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("strategy '%s' needs a name and type", s.ID)
		}
		if _, err := parseMoney(s.TotalPL); err != nil {
			return fmt.Errorf("strategy '%s' total_pl: %w", s.ID, err)
		}
	}
	if c.Signals.DefaultStrategy == "" {
		return errors.New("signals.default_strategy cannot be empty")
	}
	if c.Signals.DefaultLimit <= 0 {
		return fmt.Errorf("signals.default_limit must be positive, got %d", c.Signals.DefaultLimit)
	}
	if c.Hub.SendBuffer <= 0 {
		return fmt.Errorf("hub.send_buffer must be positive, got %d", c.Hub.SendBuffer)
	}
	if c.Hub.PingInterval <= 0 || c.Hub.PongTimeout <= 0 || c.Hub.WriteTimeout <= 0 {
		return fmt.Errorf("hub.ping_interval (%s), hub.pong_timeout (%s) and hub.write_timeout (%s) must be positive",
			c.Hub.PingInterval, c.Hub.PongTimeout, c.Hub.WriteTimeout)
	}
	if c.Hub.PingInterval >= c.Hub.PongTimeout {
		return fmt.Errorf("hub.ping_interval (%s) must be shorter than hub.pong_timeout (%s)", c.Hub.PingInterval, c.Hub.PongTimeout)
	}
	if c.Gateway.RateLimitRPS < 0 {
		return fmt.Errorf("gateway.rate_limit_rps must be >= 0, got %.2f", c.Gateway.RateLimitRPS)
	}
	if c.Indicators.RSIPeriod <= 0 || c.Indicators.BBWindow <= 0 {
		return errors.New("indicators.rsi_period and indicators.bb_window must be positive")
	}
	if c.Indicators.MACDFast <= 0 || c.Indicators.MACDSlow <= c.Indicators.MACDFast {
		return fmt.Errorf("indicators.macd_slow (%d) must exceed macd_fast (%d)", c.Indicators.MACDSlow, c.Indicators.MACDFast)
	}
	switch c.Journal.Type {
	case JournalNone, JournalSQLite, JournalJSONL:
	default:
		return fmt.Errorf("journal.type must be 'none', 'sqlite' or 'jsonl', got '%s'", c.Journal.Type)
	}
	return nil
}

// LoadConfig layers the YAML file at path over Default, then applies env
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SIM_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIM_INTERVAL: %w", err)
		}
		c.Simulator.Interval = d
	}
	if v := os.Getenv("JOURNAL_TYPE"); v != "" {
		c.Journal.Type = strings.ToLower(v)
	}
	return nil
}

// ParseMoney parses a configured monetary amount; empty means zero.
func ParseMoney(v string) (decimal.Decimal, error) {
	return parseMoney(v)
}

func parseMoney(v string) (decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s'", v)
	}
	return d, nil
}
