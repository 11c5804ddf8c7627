// Command render turns quote, settings and layout JSON files into the HTML
// document the conversion service would receive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/garyjia/secu-devis/pkg/utils"
)

func main() {
	quotePath := flag.String("quote", "", "quote JSON file (required)")
	settingsPath := flag.String("settings", "", "settings JSON file (defaults when empty)")
	layoutPath := flag.String("layout", "", "layout JSON file (built-in layout of the quote variant when empty)")
	outPath := flag.String("o", "", "output HTML file (stdout when empty)")
	dateLayout := flag.String("date-layout", render.DefaultDateLayout, "Go time layout of displayed dates")
	verbose := flag.Bool("verbose", false, "log render warnings to stderr")
	flag.Parse()

	if *quotePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: render -quote quote.json [-settings settings.json] [-layout layout.json] [-o out.html]")
		os.Exit(2)
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*quotePath, *settingsPath, *layoutPath, *outPath, *dateLayout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func run(quotePath, settingsPath, layoutPath, outPath, dateLayout string, logger *zap.Logger) error {
	var quote entity.Quote
	if err := readJSON(quotePath, &quote); err != nil {
		return err
	}

	settings := entity.DefaultSettings()
	if settingsPath != "" {
		if err := readJSON(settingsPath, &settings); err != nil {
			return err
		}
	}

	layout := render.DefaultLayout(quote.EffectiveVariant())
	if layoutPath != "" {
		layout = entity.PDFLayoutConfig{}
		if err := readJSON(layoutPath, &layout); err != nil {
			return err
		}
	}

	html, err := render.NewEngine(logger, render.WithDateLayout(dateLayout)).RenderHTML(quote, settings, layout)
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = os.Stdout.WriteString(html)
		return err
	}
	if err := os.WriteFile(outPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logger.Info("Document written", zap.String("path", outPath), zap.String("layout_id", layout.ID))
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
