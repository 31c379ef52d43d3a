package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bybit       BybitConfig       `mapstructure:"bybit"`
	Sweep       SweepConfig       `mapstructure:"sweep"`
	Files       FilesConfig       `mapstructure:"files"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Log         LogConfig         `mapstructure:"log"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type BybitConfig struct {
	REST RESTConfig `mapstructure:"rest"`
}

type RESTConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RecvWindow int           `mapstructure:"recv_window"` // ms the venue accepts a signed request for
}

// SweepConfig controls what is swept and how often.
type SweepConfig struct {
	Percentage  float64       `mapstructure:"percentage"`   // share of realized profit to transfer, 20 means 20%
	Category    string        `mapstructure:"category"`     // closed P&L category, e.g. "linear"
	Coin        string        `mapstructure:"coin"`         // settlement asset moved between accounts
	FromAccount string        `mapstructure:"from_account"` // e.g. "UNIFIED"
	ToAccount   string        `mapstructure:"to_account"`   // e.g. "FUND"
	Lookback    time.Duration `mapstructure:"lookback"`     // trailing window profit is counted over
	Interval    time.Duration `mapstructure:"interval"`     // time between cycles
}

type FilesConfig struct {
	TradeLog    string `mapstructure:"trade_log"`
	TransferLog string `mapstructure:"transfer_log"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the metrics server
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// maxLookback is the widest closed P&L range Bybit serves in one query.
const maxLookback = 7 * 24 * time.Hour

func setDefaults(v *viper.Viper) {
	v.SetDefault("bybit.rest.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.rest.timeout", 10*time.Second)
	v.SetDefault("bybit.rest.recv_window", 5000)

	v.SetDefault("sweep.percentage", 20.0)
	v.SetDefault("sweep.category", "linear")
	v.SetDefault("sweep.coin", "USDT")
	v.SetDefault("sweep.from_account", "UNIFIED")
	v.SetDefault("sweep.to_account", "FUND")
	v.SetDefault("sweep.lookback", time.Hour)
	v.SetDefault("sweep.interval", time.Hour)

	v.SetDefault("files.trade_log", "last_hour_trades.csv")
	v.SetDefault("files.transfer_log", "profit_transfers.csv")

	v.SetDefault("credentials.source", CredentialsSourceFile)
	v.SetDefault("credentials.file", "config.json")
	v.SetDefault("credentials.ssm_key_param", "BYBIT_API_KEY")
	v.SetDefault("credentials.ssm_secret_param", "BYBIT_API_SECRET")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	// Every key needs a default so AutomaticEnv can override it.
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 0)
	v.SetDefault("postgres.max_idle_conns", 0)
	v.SetDefault("postgres.conn_max_lifetime", time.Duration(0))

	v.SetDefault("metrics.addr", "")
}

// Load loads application configuration using Viper.
// It reads config.yaml from dir when present and overrides with environment
// variables. An empty dir falls back to the config directory next to the binary.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir == "" {
		dir = defaultConfigDir()
	}
	v.AddConfigPath(dir)

	// Support environment variables with dot notation (e.g., SWEEP_PERCENTAGE)
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
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no cycle could run with. A percentage above 100
// would move more than the realized profit and is refused.
func (c *Config) Validate() error {
	switch {
	case c.Sweep.Percentage < 0 || c.Sweep.Percentage > 100:
		return fmt.Errorf("sweep.percentage must be within [0, 100], got %v", c.Sweep.Percentage)
	case c.Sweep.Lookback <= 0 || c.Sweep.Lookback > maxLookback:
		return fmt.Errorf("sweep.lookback must be within (0, %s], got %s", maxLookback, c.Sweep.Lookback)
	case c.Sweep.Interval <= 0:
		return fmt.Errorf("sweep.interval must be positive, got %s", c.Sweep.Interval)
	case c.Files.TradeLog == "" || c.Files.TransferLog == "":
		return errors.New("files.trade_log and files.transfer_log are required")
	case c.Bybit.REST.BaseURL == "":
		return errors.New("bybit.rest.base_url is required")
	}
	return nil
}

func defaultConfigDir() string {
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		return pwd
	}
	return filepath.Join(filepath.Dir(ex), "../config")
}
