package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/screen"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Screening screen.Criteria `mapstructure:"screening"`
	Backtest  backtest.Config `mapstructure:"backtest"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

type StorageConfig struct {
	Hot     HotStorageConfig `mapstructure:"hot"`
	Archive ArchiveConfig    `mapstructure:"archive"`
}

type HotStorageConfig struct {
	DSN string `mapstructure:"dsn"` // sqlite database path
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig holds metrics configuration. One-shot commands push their
// counters to the gateway when one is configured; empty disables pushing.
type MetricsConfig struct {
	PushGateway string `mapstructure:"push_gateway"`
	Job         string `mapstructure:"job"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Hot: HotStorageConfig{
				DSN: "data/sift.db",
			},
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "archive",
			},
		},
		Screening: screen.DefaultCriteria(),
		Backtest:  backtest.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Job: "sift",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Storage.Hot.DSN == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("storage hot dsn is required"))
	}
	switch c.Storage.Archive.Type {
	case "", "localfs":
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Storage.Archive.Type))
	}

	if err := c.Screening.Validate(); err != nil {
		return err
	}
	return c.Backtest.Validate()
}
