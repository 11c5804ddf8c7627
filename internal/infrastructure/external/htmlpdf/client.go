// Package htmlpdf talks to the external conversion service that turns a
// rendered quote document into PDF or DOCX bytes.
package htmlpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"go.uber.org/zap"
)

// ErrConversionFailed is returned when the service rejects a document or
// answers with something that is not a converted file.
var ErrConversionFailed = errors.New("document conversion failed")

const (
	pdfPath  = "/convert/pdf"
	docxPath = "/convert/docx"

	maxErrorBody = 512
)

// Margins are page margins in millimeters
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Config holds the conversion service settings
type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration

	PageFormat   string
	Margins      Margins
	Scale        float64
	ImageQuality float64

	// PageBreakBefore and AvoidBreakInside are CSS selectors passed to the rasterizer
	PageBreakBefore  []string
	AvoidBreakInside []string
}

// pdfOptions is the rasterization part of a PDF request. Width and Height,
// when set, replace Format.
type pdfOptions struct {
	Format           string   `json:"format,omitempty"`
	Width            float64  `json:"width,omitempty"`
	Height           float64  `json:"height,omitempty"`
	Margins          Margins  `json:"margins"`
	Scale            float64  `json:"scale"`
	ImageQuality     float64  `json:"imageQuality"`
	PrintBackground  bool     `json:"printBackground"`
	PageBreakBefore  []string `json:"pageBreakBefore,omitempty"`
	AvoidBreakInside []string `json:"avoidBreakInside,omitempty"`
}

type convertRequest struct {
	HTML    string      `json:"html"`
	Options *pdfOptions `json:"options,omitempty"`
}

// Client implements port.DocumentConverter over HTTP
type Client struct {
	baseURL    string
	token      string
	options    pdfOptions
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a conversion client. Zero values in cfg fall back to A4,
// 10 mm margins, scale 1 and image quality 0.95.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := pdfOptions{
		Format:           cfg.PageFormat,
		Margins:          cfg.Margins,
		Scale:            cfg.Scale,
		ImageQuality:     cfg.ImageQuality,
		PrintBackground:  true,
		PageBreakBefore:  cfg.PageBreakBefore,
		AvoidBreakInside: cfg.AvoidBreakInside,
	}
	if opts.Format == "" {
		opts.Format = "A4"
	}
	if opts.Margins == (Margins{}) {
		opts.Margins = Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.ImageQuality <= 0 || opts.ImageQuality > 1 {
		opts.ImageQuality = 0.95
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		options:    opts,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HTMLToPDF converts a complete HTML document to PDF. A page setup with a
// size overrides the configured format and margins, so the margins the
// document declares are applied once.
func (c *Client) HTMLToPDF(ctx context.Context, html string, page port.PageSetup) ([]byte, error) {
	opts := c.options
	if page.Width > 0 && page.Height > 0 {
		opts.Format = ""
		opts.Width, opts.Height = page.Width, page.Height
		opts.Margins = Margins{
			Top:    page.MarginTop,
			Right:  page.MarginRight,
			Bottom: page.MarginBottom,
			Left:   page.MarginLeft,
		}
	}
	body, err := c.convert(ctx, pdfPath, convertRequest{HTML: html, Options: &opts})
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: response is not a PDF", ErrConversionFailed)
	}
	return body, nil
}

// HTMLToDOCX converts a complete HTML document to DOCX
func (c *Client) HTMLToDOCX(ctx context.Context, html string) ([]byte, error) {
	body, err := c.convert(ctx, docxPath, convertRequest{HTML: html})
	if err != nil {
		return nil, err
	}
	// DOCX is a zip container
	if !bytes.HasPrefix(body, []byte("PK")) {
		return nil, fmt.Errorf("%w: response is not a DOCX file", ErrConversionFailed)
	}
	return body, nil
}

func (c *Client) convert(ctx context.Context, path string, req convertRequest) ([]byte, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrConversionFailed)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Conversion request failed", zap.String("endpoint", path), zap.Error(err))
		return nil, fmt.Errorf("conversion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.logger.Error("Conversion service returned an error",
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet))
		return nil, fmt.Errorf("%w: status %d: %s", ErrConversionFailed, resp.StatusCode, strings.TrimSpace(snippet))
	}

	c.logger.Info("Document converted",
		zap.String("endpoint", path),
		zap.Int("html_size", len(req.HTML)),
		zap.Int("output_size", len(body)),
		zap.Duration("duration", time.Since(start)))
	return body, nil
}

var _ port.DocumentConverter = (*Client)(nil)
