package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cow       CowConfig       `mapstructure:"cow"`
	Signing   SigningConfig   `mapstructure:"signing"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type CowConfig struct {
	// Order book API base, e.g. https://api.cow.fi/sepolia
	APIBaseURL string `mapstructure:"api_base_url"`
	ChainID    int64  `mapstructure:"chain_id"`
	// Settlement contract override; empty uses the canonical deployment
	VerifyingContract string `mapstructure:"verifying_contract"`
	AppDataVersion    string `mapstructure:"app_data_version"`
	AppCode           string `mapstructure:"app_code"`
}

type SigningConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	// Scheme forces eip712 or ethsign; empty follows the scheme echoed
	// by the quote service.
	Scheme string `mapstructure:"scheme"`
	// VOffset is the recovery indicator convention the submission
	// service expects: 27 for 27/28, 0 for a raw recovery id.
	VOffset int `mapstructure:"v_offset"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. COWGATE_SIGNING_PRIVATE_KEY
	viper.SetEnvPrefix("cowgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("cow.api_base_url", "https://api.cow.fi/sepolia")
	viper.SetDefault("cow.chain_id", 11155111)
	viper.SetDefault("cow.app_data_version", "0.9.0")
	viper.SetDefault("signing.v_offset", 27)
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("ratelimit.rps", 10)
	viper.SetDefault("ratelimit.burst", 20)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
