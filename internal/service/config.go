// internal/service/config.go
package service

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig `mapstructure:"Exchange"`
	Risk     RiskConfig     `mapstructure:"Risk"`
	Session  SessionConfig  `mapstructure:"Session"`
	Journal  JournalConfig  `mapstructure:"Journal"`
	State    StateConfig    `mapstructure:"State"`
	Metrics  MetricsConfig  `mapstructure:"Metrics"`
	Telegram TelegramConfig `mapstructure:"Telegram"`
}

// ExchangeConfig holds broker connectivity and the traded contract.
type ExchangeConfig struct {
	Name            string
	APIKey          string
	AccessToken     string
	WSURL           string
	RESTURL         string
	TradingSymbol   string // e.g. NIFTY24SEPFUT
	Exchange        string // e.g. NFO
	Product         string // e.g. NRML
	InstrumentToken int64  // spot token the tick feed subscribes to
}

// RiskConfig holds the sizing and guardrail parameters.
type RiskConfig struct {
	RiskPerTradePct   float64 // fraction of high-water capital risked per trade, e.g. 0.02
	MaxAllocationPct  float64 // fraction of current capital a single trade may consume
	LotSize           int64   // minimum tradable increment
	RewardMultiple    float64 // target distance in R, e.g. 5
	MaxDailyDrawdownR float64 // negative R floor that halts trading, e.g. -2.5
}

// SessionConfig describes the trading session clock.
type SessionConfig struct {
	Timezone     string // e.g. Asia/Kolkata
	Open         string // session open, "09:15"
	BarInterval  string // trading timeframe, "15m"
	GraceSeconds int    // wait after a boundary before resampling ticks
}

type JournalConfig struct {
	Path string
}

type StateConfig struct {
	Path string
}

type MetricsConfig struct {
	Port int
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// GlobalConfig stores the loaded configuration.
var GlobalConfig Config

// LoadConfig reads and parses config/config.yaml, then overlays secrets
// from the environment so credentials never live in the YAML file.
func LoadConfig(configPath string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	applyEnvOverrides(&GlobalConfig)
	return &GlobalConfig
}

// applyEnvOverrides pulls credentials from the environment (a .env file is
// loaded in main before this runs). Empty env vars leave the YAML value alone.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Exchange.AccessToken = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
}
