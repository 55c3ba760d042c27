package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bybit     BybitConfig     `mapstructure:"bybit"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

type BybitConfig struct {
	REST        RESTConfig `mapstructure:"rest"`
	APIKey      string     `mapstructure:"api_key"`
	APISecret   string     `mapstructure:"api_secret"`
	AccountType string     `mapstructure:"account_type"` // e.g. "UNIFIED", "CONTRACT"
}

type RESTConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RecvWindow string        `mapstructure:"recv_window"`
	RateLimit  float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst  int           `mapstructure:"rate_burst"`
}

type TelegramConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	BotToken string        `mapstructure:"bot_token"`
	GroupID  string        `mapstructure:"group_id"` // target chat id
}

type SchedulerConfig struct {
	CheckInterval  int           `mapstructure:"check_interval"` // whole seconds
	StageTimeout   time.Duration `mapstructure:"stage_timeout"`
	PositionsLimit int           `mapstructure:"positions_limit"`
	ClosedPnlLimit int           `mapstructure:"closed_pnl_limit"`
}

// Interval is CheckInterval as a duration.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.CheckInterval) * time.Second
}

type ReportConfig struct {
	Timeframe string `mapstructure:"timeframe"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the status server
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// env names kept from the original deployment
var legacyEnv = map[string]string{
	"bybit.api_key":            "BYBIT_API_KEY",
	"bybit.api_secret":         "BYBIT_API_SECRET",
	"bybit.account_type":       "ACCOUNT_TYPE",
	"telegram.bot_token":       "TELEGRAM_BOT_TOKEN",
	"telegram.group_id":        "TELEGRAM_GROUP_ID",
	"scheduler.check_interval": "CHECK_INTERVAL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bybit.rest.base_url", "https://api.bybit.com/v5")
	v.SetDefault("bybit.rest.timeout", 15*time.Second)
	v.SetDefault("bybit.rest.recv_window", "20000")
	v.SetDefault("bybit.rest.rate_limit", 10)
	v.SetDefault("bybit.rest.rate_burst", 5)

	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 15*time.Second)

	v.SetDefault("scheduler.stage_timeout", 30*time.Second)
	v.SetDefault("scheduler.positions_limit", 10)
	v.SetDefault("scheduler.closed_pnl_limit", 100)

	v.SetDefault("report.timeframe", "1m")
	v.SetDefault("server.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "prod")

	v.SetDefault("secrets.source", SecretsFromEnv)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.bybit_api_key", "")
	v.SetDefault("secrets.bybit_api_secret", "")
	v.SetDefault("secrets.telegram_bot_token", "")
}

// Load reads config.yaml (optional), applies environment overrides, resolves
// secrets from the configured source and validates the result.
// dirs are searched before the directory next to the executable.
func Load(ctx context.Context, dirs ...string) (*Config, error) {
	cfg, err := load(newViper(dirs...))
	if err != nil {
		return nil, err
	}

	if cfg.Secrets.Source == SecretsFromSSM {
		getter, err := newSSMClient(ctx, cfg.Secrets.Region)
		if err != nil {
			return nil, err
		}
		if err := resolveSecrets(ctx, cfg, getter); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(dirs ...string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., BYBIT_REST_TIMEOUT)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	setDefaults(v)
	return v
}

func load(v *viper.Viper) (*Config, error) {
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
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"bybit.api_key", c.Bybit.APIKey},
		{"bybit.api_secret", c.Bybit.APISecret},
		{"bybit.account_type", c.Bybit.AccountType},
		{"telegram.bot_token", c.Telegram.BotToken},
		{"telegram.group_id", c.Telegram.GroupID},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.Scheduler.CheckInterval <= 0 {
		return fmt.Errorf("scheduler.check_interval must be a positive number of seconds, got %d", c.Scheduler.CheckInterval)
	}
	if c.Scheduler.PositionsLimit < 1 || c.Scheduler.ClosedPnlLimit < 1 {
		return errors.New("scheduler positions_limit and closed_pnl_limit must be positive")
	}
	switch c.Secrets.Source {
	case SecretsFromEnv, SecretsFromSSM:
	default:
		return fmt.Errorf("unknown secrets.source %q", c.Secrets.Source)
	}
	return nil
}
