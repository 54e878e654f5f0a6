package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PORTFOLIO_DATABASE_DSN
const EnvPrefix = "PORTFOLIO"

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Quotes    QuotesConfig    `mapstructure:"quotes"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServiceConfig struct {
	GRPCPort string `mapstructure:"grpc_port"`
	HTTPPort string `mapstructure:"http_port"`
	APIToken string `mapstructure:"api_token"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type PortfolioConfig struct {
	// Timezone is the reference zone naive timestamps and calendar days are read in
	Timezone string `mapstructure:"timezone"`
}

type PricingConfig struct {
	TTL              time.Duration     `mapstructure:"ttl"`
	Cache            string            `mapstructure:"cache"` // postgres | redis
	HistoryLookback  int               `mapstructure:"history_lookback_days"`
	AssetHistoryDays int               `mapstructure:"asset_history_days"`
	ChartDefaultDays int               `mapstructure:"chart_default_days"`
	Aliases          map[string]string `mapstructure:"aliases"`
}

type QuotesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries uint64        `mapstructure:"retries"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfig reads appsettings.yaml from path (when present), then applies environment overrides.
// A .env file in the working directory is loaded first if it exists.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.grpc_port", "50051")
	v.SetDefault("service.http_port", "8080")
	v.SetDefault("service.api_token", "")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "portfolio")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("portfolio.timezone", "UTC")

	v.SetDefault("pricing.ttl", time.Minute)
	v.SetDefault("pricing.cache", "postgres")
	v.SetDefault("pricing.history_lookback_days", 7)
	v.SetDefault("pricing.asset_history_days", 120)
	v.SetDefault("pricing.chart_default_days", 180)
	v.SetDefault("pricing.aliases", map[string]string{"BTC": "BTC-USD", "ETH": "ETH-USD"})

	v.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.timeout", 10*time.Second)
	v.SetDefault("quotes.retries", 2)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
}

// ConnectionString returns the DSN, built from its parts when not given verbatim
func (c DatabaseConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Location resolves the reference zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Portfolio.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid portfolio.timezone %q: %w", c.Portfolio.Timezone, err)
	}
	return loc, nil
}

// SymbolAliases returns the asset-to-provider symbol map with uppercase keys.
// viper lowercases map keys, so they are normalised back here.
func (c PricingConfig) SymbolAliases() map[string]string {
	aliases := make(map[string]string, len(c.Aliases))
	for from, to := range c.Aliases {
		aliases[strings.ToUpper(strings.TrimSpace(from))] = strings.ToUpper(strings.TrimSpace(to))
	}
	return aliases
}
