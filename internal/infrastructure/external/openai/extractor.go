package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model answers without content
var ErrEmptyResponse = errors.New("no response from OpenAI")

// Config holds the extractor settings
type Config struct {
	APIKey      string
	BaseURL     string // optional, for compatible endpoints
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// QuoteExtractor implements port.QuoteExtractor with a chat completion in JSON mode
type QuoteExtractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	prompts *PromptConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewQuoteExtractor creates an extractor. A nil prompts uses the built-in prompts.
func NewQuoteExtractor(cfg Config, prompts *PromptConfig, logger *zap.Logger) *QuoteExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if cfg.Temperature > 0 {
		prompts.QuoteExtraction.Temperature = cfg.Temperature
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &QuoteExtractor{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
		prompts: prompts,
		logger:  logger,
		now:     time.Now,
	}
}

// draft mirrors the JSON shape requested in the prompt
type draft struct {
	Client struct {
		Company    string `json:"company"`
		Name       string `json:"name"`
		Address    string `json:"address"`
		PostalCode string `json:"postalCode"`
		City       string `json:"city"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
	} `json:"client"`
	Items            []draftItem `json:"items"`
	AgentDescription string      `json:"agentDescription"`
}

type draftItem struct {
	Kind        string  `json:"kind"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
	Mode        string  `json:"mode"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unitPrice"`
	DateStart   string  `json:"dateStart"`
	TimeStart   string  `json:"timeStart"`
	DateEnd     string  `json:"dateEnd"`
	TimeEnd     string  `json:"timeEnd"`
	AgentType   string  `json:"agentType"`
	Canton      string  `json:"canton"`
}

// ExtractQuote drafts a quote from a client email. Only client identity and
// raw item inputs are filled; nothing is priced.
func (e *QuoteExtractor) ExtractQuote(ctx context.Context, email string) (*entity.Quote, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	p := e.prompts.QuoteExtraction
	userPrompt, err := renderTemplate(p.UserTemplate, map[string]string{
		"Today": e.now().Format("2006-01-02"),
		"Email": email,
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	var d draft
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		e.logger.Error("Failed to parse OpenAI response",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	quote := d.toQuote()
	e.logger.Info("Quote extracted from email",
		zap.String("client_company", quote.ClientCompany),
		zap.Int("item_count", len(quote.Items)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return quote, nil
}

// toQuote keeps the items the pricing engine can read and normalizes their enums.
func (d draft) toQuote() *entity.Quote {
	q := &entity.Quote{
		ClientCompany:    strings.TrimSpace(d.Client.Company),
		ClientName:       strings.TrimSpace(d.Client.Name),
		ClientAddress:    strings.TrimSpace(d.Client.Address),
		ClientPostalCode: strings.TrimSpace(d.Client.PostalCode),
		ClientCity:       strings.TrimSpace(d.Client.City),
		ClientEmail:      strings.TrimSpace(d.Client.Email),
		ClientPhone:      strings.TrimSpace(d.Client.Phone),
		AgentDescription: strings.TrimSpace(d.AgentDescription),
		Items:            []entity.QuoteItem{},
	}

	for _, it := range d.Items {
		switch entity.ItemKind(strings.ToUpper(strings.TrimSpace(it.Kind))) {
		case entity.ItemKindTech:
			mode := entity.TechModeUnique
			if strings.EqualFold(strings.TrimSpace(it.Mode), string(entity.TechModeMensuel)) {
				mode = entity.TechModeMensuel
			}
			qty := it.Qty
			if qty <= 0 {
				qty = 1
			}
			q.Items = append(q.Items, entity.QuoteItem{
				Kind:           entity.ItemKindTech,
				Reference:      strings.TrimSpace(it.Reference),
				Description:    strings.TrimSpace(it.Description),
				Mode:           mode,
				Qty:            qty,
				UnitPriceValue: max(it.UnitPrice, 0),
			})
		case entity.ItemKindAgent:
			q.Items = append(q.Items, entity.QuoteItem{
				Kind:        entity.ItemKindAgent,
				Description: strings.TrimSpace(it.Description),
				DateStart:   validOr(it.DateStart, "2006-01-02"),
				TimeStart:   validOr(it.TimeStart, "15:04"),
				DateEnd:     validOr(it.DateEnd, "2006-01-02"),
				TimeEnd:     validOr(it.TimeEnd, "15:04"),
				AgentType:   strings.TrimSpace(it.AgentType),
				Canton:      strings.ToUpper(strings.TrimSpace(it.Canton)),
			})
		}
	}
	return q
}

// validOr returns s when it parses with layout, otherwise an empty string
func validOr(s, layout string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(layout, s); err != nil {
		return ""
	}
	return s
}

var _ port.QuoteExtractor = (*QuoteExtractor)(nil)
