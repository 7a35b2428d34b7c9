package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"refi-agent/domain"
)

type Config struct {
	ListenAddr         string `mapstructure:"listen_addr"`
	RedisAddr          string `mapstructure:"redis_addr"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`

	LogFile      string `mapstructure:"log_file"`
	DebugLogging bool   `mapstructure:"debug_logging"`

	// Stock scenario analyzed when a CLI run or request leaves fields
	// unset.
	LoanAmount     float64 `mapstructure:"loan_amount"`
	RatePct        float64 `mapstructure:"rate_pct"`
	TermMonths     int     `mapstructure:"term_months"`
	PaymentsMade   int     `mapstructure:"payments_made"`
	SellYear       int     `mapstructure:"sell_year"`
	SellMonth      int     `mapstructure:"sell_month"`
	ClosingCostPct float64 `mapstructure:"closing_cost_pct"`

	// Reference month the payments-made count is anchored to. Fixed in
	// configuration rather than read from the clock so a scenario
	// renders the same way on any day it is run.
	CurrentYear  int `mapstructure:"current_year"`
	CurrentMonth int `mapstructure:"current_month"`
}

const (
	DefaultListenAddr         = ":8080"
	DefaultRateLimitPerMinute = 60
)

// LoadConfig builds the configuration from defaults, an optional file
// and REFI_-prefixed environment variables, in increasing precedence.
// The scenario fields default to the stock analysis.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	stock := domain.DefaultAnalysisInput()
	defaults := map[string]interface{}{
		"listen_addr":           DefaultListenAddr,
		"rate_limit_per_minute": DefaultRateLimitPerMinute,
		"loan_amount":           stock.LoanAmount,
		"rate_pct":              stock.RatePct,
		"term_months":           stock.TermMonths,
		"payments_made":         stock.PaymentsMade,
		"sell_year":             stock.SellYear,
		"sell_month":            stock.SellMonth,
		"closing_cost_pct":      stock.ClosingCostPct,
		"current_year":          stock.CurrentYear,
		"current_month":         stock.CurrentMonth,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// AnalysisInput assembles the configured stock scenario.
func (c *Config) AnalysisInput() domain.AnalysisInput {
	return domain.AnalysisInput{
		LoanAmount:     c.LoanAmount,
		RatePct:        c.RatePct,
		TermMonths:     c.TermMonths,
		PaymentsMade:   c.PaymentsMade,
		SellYear:       c.SellYear,
		SellMonth:      c.SellMonth,
		ClosingCostPct: c.ClosingCostPct,
		CurrentYear:    c.CurrentYear,
		CurrentMonth:   c.CurrentMonth,
	}
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("REFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if addr := v.GetString("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if addr := v.GetString("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if file := v.GetString("LOG_FILE"); file != "" {
		cfg.LogFile = file
	}
	if v.GetBool("DEBUG_LOGGING") {
		cfg.DebugLogging = true
	}
	if n := v.GetInt("RATE_LIMIT_PER_MINUTE"); n != 0 {
		cfg.RateLimitPerMinute = n
	}
	if amount := v.GetFloat64("LOAN_AMOUNT"); amount != 0 {
		cfg.LoanAmount = amount
	}
	if rate := v.GetFloat64("RATE_PCT"); rate != 0 {
		cfg.RatePct = rate
	}
	if months := v.GetInt("TERM_MONTHS"); months != 0 {
		cfg.TermMonths = months
	}
	if paid := v.GetInt("PAYMENTS_MADE"); paid != 0 {
		cfg.PaymentsMade = paid
	}
	if year := v.GetInt("SELL_YEAR"); year != 0 {
		cfg.SellYear = year
	}
	if month := v.GetInt("SELL_MONTH"); month != 0 {
		cfg.SellMonth = month
	}
	if pct := v.GetFloat64("CLOSING_COST_PCT"); pct != 0 {
		cfg.ClosingCostPct = pct
	}
	if year := v.GetInt("CURRENT_YEAR"); year != 0 {
		cfg.CurrentYear = year
	}
	if month := v.GetInt("CURRENT_MONTH"); month != 0 {
		cfg.CurrentMonth = month
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("missing listen_addr in configuration")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return errors.New("invalid rate_limit_per_minute")
	}
	if cfg.LoanAmount <= 0 {
		return errors.New("invalid loan_amount")
	}
	if cfg.RatePct < 0 {
		return errors.New("invalid rate_pct")
	}
	if cfg.TermMonths < 1 {
		return errors.New("invalid term_months")
	}
	if cfg.PaymentsMade < 0 || cfg.PaymentsMade > cfg.TermMonths {
		return errors.New("invalid payments_made")
	}
	if cfg.SellYear < 1 || cfg.SellYear > 9999 {
		return errors.New("invalid sell_year")
	}
	if cfg.SellMonth < 1 || cfg.SellMonth > 12 {
		return errors.New("invalid sell_month")
	}
	if cfg.ClosingCostPct < 0 {
		return errors.New("invalid closing_cost_pct")
	}
	if cfg.CurrentYear < 1970 || cfg.CurrentYear > 9999 {
		return errors.New("invalid current_year")
	}
	if cfg.CurrentMonth < 1 || cfg.CurrentMonth > 12 {
		return errors.New("invalid current_month")
	}
	return nil
}
