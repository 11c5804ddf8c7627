// Command extract-quote checks the OpenAI connection by drafting a quote
// from a client email and printing it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/infrastructure/external/openai"
)

func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "", "model name (default gpt-4o-mini)")
	promptsPath := flag.String("prompts", "", "prompts YAML overriding the built-in prompts")
	emailPath := flag.String("email", "-", "email text file, - for stdin")
	timeout := flag.Duration("timeout", 60*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	_ = godotenv.Load()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided")
		fmt.Fprintln(os.Stderr, "Usage: extract-quote --key sk-... [--email mail.txt] [--prompts prompts.yaml]")
		os.Exit(1)
	}

	email, err := readEmail(*emailPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	var prompts *openai.PromptConfig
	if *promptsPath != "" {
		prompts, err = openai.LoadPrompts(*promptsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}

	var extractor port.QuoteExtractor = openai.NewQuoteExtractor(openai.Config{
		APIKey:  *apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   *model,
		Timeout: *timeout,
	}, prompts, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	draft, err := extractor.ExtractQuote(ctx, email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: extraction failed after %v: %v\n", time.Since(start).Round(time.Millisecond), err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "✓ %d item(s) extracted in %v\n", len(draft.Items), time.Since(start).Round(time.Millisecond))
}

func readEmail(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return string(data), nil
}
