package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Logger    LoggerConfig    `yaml:"logger" envconfig:"LOG"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
}

// DatasetConfig locates the sales workbook. Path may be absolute or relative
// to the working directory.
type DatasetConfig struct {
	Path        string        `yaml:"path" split_words:"true" validate:"required"`
	Sheet       string        `yaml:"sheet" split_words:"true" validate:"required"`
	TotalColumn string        `yaml:"total_column" split_words:"true"`
	LoadTimeout time.Duration `yaml:"load_timeout" split_words:"true" validate:"gt=0"`
}

type LoggerConfig struct {
	Level     string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format    string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	AddSource bool   `yaml:"add_source" split_words:"true"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit" split_words:"true"`
	RateLimitRPS    int      `yaml:"rate_limit_rps" split_words:"true" validate:"gt=0"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" split_words:"true" validate:"gt=0"`
	AllowedOrigins  []string `yaml:"allowed_origins" split_words:"true"`
	TrustedProxies  []string `yaml:"trusted_proxies" split_words:"true"`
}

type TelemetryConfig struct {
	EnableMetrics bool `yaml:"enable_metrics" split_words:"true"`
	EnableTracing bool `yaml:"enable_tracing" split_words:"true"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Dataset: DatasetConfig{
			Path:        "（商场销售数据）supermarket_sales.xlsx",
			Sheet:       "销售数据",
			TotalColumn: "总价",
			LoadTimeout: 30 * time.Second,
		},
		Logger: LoggerConfig{
			Level:     "info",
			Format:    "json",
			AddSource: true,
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			EnableTracing: false,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any), and the environment, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

var structValidator = validator.New()

func (c *Config) validate() error {
	return structValidator.Struct(c)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
