package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/matcherr"
)

// EngineConfig configures one Orderbook instance and its ambient
// stack. Trimmed from the teacher's Config: this repo has no
// Database/Risk/Auth/PeerJS/MarketData sections because it has none of
// those subsystems — only the engine, its matching knobs, and the
// facade ports survive the trim.
type EngineConfig struct {
	Engine struct {
		OrderAsset      string `mapstructure:"order_asset"`
		PriceAsset      string `mapstructure:"price_asset"`
		StallBudget     int    `mapstructure:"stall_budget"`
		InitialCapacity int    `mapstructure:"initial_capacity"`
	} `mapstructure:"engine"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Monitoring struct {
		PrometheusPort int    `mapstructure:"prometheus_port"`
		LogLevel       string `mapstructure:"log_level"`
	} `mapstructure:"monitoring"`
}

// LoadConfig loads configuration from an optional YAML file at
// configPath plus MATCHBOOK_-prefixed environment variables, following
// the teacher's LoadConfig/setDefaults shape (minus the package-level
// singleton, which this repo's test suite has no use for).
func LoadConfig(configPath string) (*EngineConfig, error) {
	cfg := &EngineConfig{}
	setDefaults(cfg)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("MATCHBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal only consults the environment for keys viper knows, so
	// every key is registered with its default.
	v.SetDefault("engine.order_asset", cfg.Engine.OrderAsset)
	v.SetDefault("engine.price_asset", cfg.Engine.PriceAsset)
	v.SetDefault("engine.stall_budget", cfg.Engine.StallBudget)
	v.SetDefault("engine.initial_capacity", cfg.Engine.InitialCapacity)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("monitoring.prometheus_port", cfg.Monitoring.PrometheusPort)
	v.SetDefault("monitoring.log_level", cfg.Monitoring.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, matcherr.Wrap(matcherr.CodeConfig, "failed to read config file", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, matcherr.Wrap(matcherr.CodeConfig, "failed to unmarshal config", err)
	}

	return cfg, nil
}

func setDefaults(cfg *EngineConfig) {
	cfg.Engine.OrderAsset = "BTC"
	cfg.Engine.PriceAsset = "USD"
	cfg.Engine.StallBudget = 10
	cfg.Engine.InitialCapacity = 64

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080

	cfg.Monitoring.PrometheusPort = 9090
	cfg.Monitoring.LogLevel = "info"
}

// InitLogger builds a *zap.Logger from the configured log level,
// following the teacher's InitLogger: "debug" selects zap's development
// logger; any other value selects the production logger (info level).
func InitLogger(cfg *EngineConfig) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.Monitoring.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
