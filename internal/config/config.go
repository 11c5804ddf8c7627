package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Converter ConverterConfig `mapstructure:"converter"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Render    RenderConfig    `mapstructure:"render"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. MigrationsDir is optional;
// the embedded migrations are used when it is empty.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// StorageConfig holds the location of generated artifacts
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ConverterConfig holds the HTML conversion service settings.
// An empty BaseURL disables PDF and DOCX export.
type ConverterConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIToken         string        `mapstructure:"api_token"`
	Timeout          time.Duration `mapstructure:"timeout"`
	PageFormat       string        `mapstructure:"page_format"`
	Margins          MarginsConfig `mapstructure:"margins"`
	Scale            float64       `mapstructure:"scale"`
	ImageQuality     float64       `mapstructure:"image_quality"`
	PageBreakBefore  []string      `mapstructure:"page_break_before"`
	AvoidBreakInside []string      `mapstructure:"avoid_break_inside"`
}

// MarginsConfig holds page margins in millimeters
type MarginsConfig struct {
	Top    float64 `mapstructure:"top"`
	Right  float64 `mapstructure:"right"`
	Bottom float64 `mapstructure:"bottom"`
	Left   float64 `mapstructure:"left"`
}

// OpenAIConfig holds OpenAI API configuration.
// An empty APIKey disables email extraction.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// RenderConfig holds document rendering options
type RenderConfig struct {
	DateLayout string `mapstructure:"date_layout"`
}

// PreviewConfig holds thumbnail options
type PreviewConfig struct {
	MaxWidth int `mapstructure:"max_width"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/secu-devis.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("storage.base_dir", "data/documents")

	// Converter defaults
	v.SetDefault("converter.timeout", 60*time.Second)
	v.SetDefault("converter.page_format", "A4")
	v.SetDefault("converter.margins.top", 10)
	v.SetDefault("converter.margins.right", 10)
	v.SetDefault("converter.margins.bottom", 10)
	v.SetDefault("converter.margins.left", 10)
	v.SetDefault("converter.scale", 1.0)
	v.SetDefault("converter.image_quality", 0.95)
	v.SetDefault("converter.page_break_before", []string{".page + .page"})
	v.SetDefault("converter.avoid_break_inside", []string{".no-split", "tr"})

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("render.date_layout", "02.01.2006")
	v.SetDefault("preview.max_width", 320)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds secrets and deployment settings to their environment variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":      "OPENAI_API_KEY",
		"openai.base_url":     "OPENAI_BASE_URL",
		"converter.api_token": "CONVERTER_API_TOKEN",
		"converter.base_url":  "CONVERTER_BASE_URL",
		"database.path":       "DATABASE_PATH",
		"server.port":         "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	if c.Converter.BaseURL != "" {
		if !strings.HasPrefix(c.Converter.BaseURL, "http://") && !strings.HasPrefix(c.Converter.BaseURL, "https://") {
			return fmt.Errorf("converter.base_url must be an http(s) URL")
		}
		if c.Converter.Scale <= 0 {
			return fmt.Errorf("converter.scale must be positive")
		}
		if c.Converter.ImageQuality <= 0 || c.Converter.ImageQuality > 1 {
			return fmt.Errorf("converter.image_quality must be in (0, 1]")
		}
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be between 0 and 2")
	}

	if c.Preview.MaxWidth < 0 {
		return fmt.Errorf("preview.max_width must not be negative")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	return nil
}

// ConverterEnabled reports whether PDF and DOCX export can be served
func (c *Config) ConverterEnabled() bool {
	return c.Converter.BaseURL != ""
}

// ExtractionEnabled reports whether email extraction can be served
func (c *Config) ExtractionEnabled() bool {
	return c.OpenAI.APIKey != ""
}
