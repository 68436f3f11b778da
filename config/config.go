package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger         `mapstructure:"logger"`
	API          API            `mapstructure:"api"`
	Upbit        Upbit          `mapstructure:"upbit"`
	Binance      Binance        `mapstructure:"binance"`
	ExchangeRate ExchangeRate   `mapstructure:"exchange_rate"`
	Cache        Cache          `mapstructure:"cache"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Sweep        Sweep          `mapstructure:"sweep"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type API struct {
	Port             int `mapstructure:"port"`
	MaxRequestPerMin int `mapstructure:"max_request_per_min"`
}

type Upbit struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CandleLimit         int           `mapstructure:"candle_limit"`
}

type Binance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	KlineLimit          int           `mapstructure:"kline_limit"`
}

type ExchangeRate struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheDuration   time.Duration `mapstructure:"cache_duration"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	FallbackUSDKRW  float64       `mapstructure:"fallback_usd_krw"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	BotToken        string        `mapstructure:"bot_token"`
	ChatID          int64         `mapstructure:"chat_id"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
	EnableAlerts    bool          `mapstructure:"enable_alerts"`
}

type Sweep struct {
	MaxConcurrency  int `mapstructure:"max_concurrency"`
	MaxCombinations int `mapstructure:"max_combinations"`
}

func Load() (*Config, error) {
	// .env is optional, env vars may also come from the runtime directly
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.max_request_per_min", 60)

	viper.SetDefault("upbit.base_url", "https://api.upbit.com")
	viper.SetDefault("upbit.timeout", 10*time.Second)
	viper.SetDefault("upbit.max_request_per_minute", 100)
	viper.SetDefault("upbit.candle_limit", 200)

	viper.SetDefault("binance.base_url", "https://api.binance.com")
	viper.SetDefault("binance.timeout", 10*time.Second)
	viper.SetDefault("binance.max_request_per_minute", 1200)
	viper.SetDefault("binance.kline_limit", 1000)

	viper.SetDefault("exchange_rate.base_url", "https://api.exchangerate-api.com")
	viper.SetDefault("exchange_rate.timeout", 10*time.Second)
	viper.SetDefault("exchange_rate.cache_duration", 5*time.Minute)
	viper.SetDefault("exchange_rate.refresh_schedule", "@every 5m")
	viper.SetDefault("exchange_rate.fallback_usd_krw", 1350.0)

	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)

	viper.SetDefault("telegram.timeout_duration", 10*time.Second)
	viper.SetDefault("telegram.enable_alerts", false)

	viper.SetDefault("sweep.max_concurrency", 4)
	viper.SetDefault("sweep.max_combinations", 100)
}
