package config

import (
	"github.com/garyjia/secu-devis/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Storage: container.StorageConfig{
			BaseDir: c.Storage.BaseDir,
		},
		Converter: container.ConverterConfig{
			BaseURL:          c.Converter.BaseURL,
			APIToken:         c.Converter.APIToken,
			Timeout:          c.Converter.Timeout,
			PageFormat:       c.Converter.PageFormat,
			MarginTop:        c.Converter.Margins.Top,
			MarginRight:      c.Converter.Margins.Right,
			MarginBottom:     c.Converter.Margins.Bottom,
			MarginLeft:       c.Converter.Margins.Left,
			Scale:            c.Converter.Scale,
			ImageQuality:     c.Converter.ImageQuality,
			PageBreakBefore:  c.Converter.PageBreakBefore,
			AvoidBreakInside: c.Converter.AvoidBreakInside,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Temperature: c.OpenAI.Temperature,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Render: container.RenderConfig{
			DateLayout: c.Render.DateLayout,
		},
		Preview: container.PreviewConfig{
			MaxWidth: c.Preview.MaxWidth,
		},
	}
}
