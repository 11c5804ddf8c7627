package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/secu-devis.db", cfg.Database.Path)
	assert.Equal(t, "A4", cfg.Converter.PageFormat)
	assert.Equal(t, 10.0, cfg.Converter.Margins.Top)
	assert.Equal(t, 0.95, cfg.Converter.ImageQuality)
	assert.Equal(t, 60*time.Second, cfg.Converter.Timeout)
	assert.Equal(t, "02.01.2006", cfg.Render.DateLayout)
	assert.Equal(t, 320, cfg.Preview.MaxWidth)
	assert.False(t, cfg.ConverterEnabled())
	assert.False(t, cfg.ExtractionEnabled())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/devis.db
converter:
  base_url: http://converter:3000
  margins:
    top: 15
  page_break_before: [".page"]
openai:
  model: gpt-4o
render:
  date_layout: "2006-01-02"
logger:
  format: console
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CONVERTER_API_TOKEN", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/devis.db", cfg.Database.Path)
	assert.Equal(t, 15.0, cfg.Converter.Margins.Top)
	assert.Equal(t, 10.0, cfg.Converter.Margins.Left)
	assert.Equal(t, []string{".page"}, cfg.Converter.PageBreakBefore)
	assert.Equal(t, "secret", cfg.Converter.APIToken)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "2006-01-02", cfg.Render.DateLayout)
	assert.True(t, cfg.ConverterEnabled())
	assert.True(t, cfg.ExtractionEnabled())

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "/tmp/devis.db", cc.Database.Path)
	assert.Equal(t, 15.0, cc.Converter.MarginTop)
	assert.Equal(t, "sk-test", cc.OpenAI.APIKey)
	assert.Equal(t, 320, cc.Preview.MaxWidth)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"empty storage dir", func(c *Config) { c.Storage.BaseDir = "" }},
		{"converter url without scheme", func(c *Config) { c.Converter.BaseURL = "converter:3000" }},
		{"converter zero scale", func(c *Config) {
			c.Converter.BaseURL = "http://converter"
			c.Converter.Scale = 0
		}},
		{"converter image quality above one", func(c *Config) {
			c.Converter.BaseURL = "http://converter"
			c.Converter.ImageQuality = 1.5
		}},
		{"temperature too high", func(c *Config) { c.OpenAI.Temperature = 3 }},
		{"negative preview width", func(c *Config) { c.Preview.MaxWidth = -1 }},
		{"unknown log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
