// Package config loads application configuration from an optional
// config.yaml plus SOLAR_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	GHL     GHLConfig     `yaml:"ghl" mapstructure:"ghl"`
	CRM     CRMConfig     `yaml:"crm" mapstructure:"crm"`
	Webhook WebhookConfig `yaml:"webhook" mapstructure:"webhook"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Audit   AuditConfig   `yaml:"audit" mapstructure:"audit"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GHLConfig holds GoHighLevel OAuth credentials and client settings.
type GHLConfig struct {
	ClientID          string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret      string  `yaml:"client_secret" mapstructure:"client_secret"`
	CompanyID         string  `yaml:"company_id" mapstructure:"company_id"`
	AppID             string  `yaml:"app_id" mapstructure:"app_id"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// CRMConfig fixes the sales pipeline new opportunities land in.
type CRMConfig struct {
	PipelineID      string `yaml:"pipeline_id" mapstructure:"pipeline_id"`
	PipelineStageID string `yaml:"pipeline_stage_id" mapstructure:"pipeline_stage_id"`
}

// WebhookConfig holds the externally configured webhook target reported
// by GET /config.
type WebhookConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// DataConfig locates the flat-file token store.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AuditConfig configures the audit history backend.
type AuditConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ghl.base_url", "https://services.leadconnectorhq.com")
	v.SetDefault("ghl.requests_per_second", 10.0)
	v.SetDefault("crm.pipeline_id", "8pMqwP5PVLR5LoM87lx8")
	v.SetDefault("crm.pipeline_stage_id", "6a4d8f9a-1aff-4bc3-8a3e-76714b7722a7")
	v.SetDefault("data.dir", ".")
	v.SetDefault("audit.driver", "sqlite")
	v.SetDefault("audit.dsn", "solar-pricing.db")
	v.SetDefault("server.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
