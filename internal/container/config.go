// Package container provides dependency injection and lifecycle management
// for the quote service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Converter ConverterConfig
	OpenAI    OpenAIConfig
	Render    RenderConfig
	Preview   PreviewConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir receives generated PDF, DOCX and thumbnail files
	BaseDir string
}

// ConverterConfig holds the HTML conversion service settings.
// The converter is not wired when BaseURL is empty.
type ConverterConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration

	PageFormat   string
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
	Scale        float64
	ImageQuality float64

	PageBreakBefore  []string
	AvoidBreakInside []string
}

// OpenAIConfig holds OpenAI API settings.
// Email extraction is not wired when APIKey is empty.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration

	// PromptsPath optionally overrides the built-in prompts
	PromptsPath string
}

// RenderConfig holds render engine settings.
type RenderConfig struct {
	// DateLayout is the Go time layout of displayed dates
	DateLayout string
}

// PreviewConfig holds thumbnail settings.
type PreviewConfig struct {
	MaxWidth int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/secu-devis.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Storage: StorageConfig{
			BaseDir: "data/documents",
		},
		Converter: ConverterConfig{
			Timeout:      60 * time.Second,
			PageFormat:   "A4",
			Scale:        1,
			ImageQuality: 0.95,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			Timeout:     60 * time.Second,
		},
		Render: RenderConfig{
			DateLayout: "02.01.2006",
		},
		Preview: PreviewConfig{
			MaxWidth: 320,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	return nil
}
