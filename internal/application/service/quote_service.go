package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteService manages quotes and exposes their computed totals
type QuoteService interface {
	Create(ctx context.Context, quote *entity.Quote) (*entity.Quote, error)
	Get(ctx context.Context, id string) (*entity.Quote, error)
	Update(ctx context.Context, quote *entity.Quote) (*entity.Quote, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Quote, error)

	// Price computes the line results and totals with the current settings
	Price(ctx context.Context, id string) (*pricing.PricedQuote, error)

	// ExtractDraft drafts an unsaved quote from a client email
	ExtractDraft(ctx context.Context, email string) (*entity.Quote, error)
}

type quoteServiceImpl struct {
	repo      port.QuoteRepository
	settings  SettingsService
	extractor port.QuoteExtractor
	txManager port.TransactionManager
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuoteService creates a new QuoteService. extractor may be nil when no
// AI key is configured.
func NewQuoteService(
	repo port.QuoteRepository,
	settings SettingsService,
	extractor port.QuoteExtractor,
	txManager port.TransactionManager,
	logger *zap.Logger,
) QuoteService {
	return &quoteServiceImpl{
		repo:      repo,
		settings:  settings,
		extractor: extractor,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and stores a new quote, assigning missing identifiers
func (s *quoteServiceImpl) Create(ctx context.Context, quote *entity.Quote) (*entity.Quote, error) {
	if quote == nil {
		return nil, fmt.Errorf("%w: quote is required", ErrInvalidInput)
	}
	if err := validateStruct(quote); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	q := *quote
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Date == "" {
		q.Date = now.Format("2006-01-02")
	}
	if q.Ref == "" {
		q.Ref = newQuoteRef(now)
	}
	q.Items = withItemIDs(q.Items)
	q.CreatedAt = now
	q.UpdatedAt = now

	if err := s.repo.Create(ctx, &q); err != nil {
		s.logger.Error("Failed to create quote", zap.String("quote_id", q.ID), zap.Error(err))
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.logger.Info("Quote created",
		zap.String("quote_id", q.ID),
		zap.String("ref", q.Ref),
		zap.Int("item_count", len(q.Items)))
	return &q, nil
}

// Get returns a stored quote
func (s *quoteServiceImpl) Get(ctx context.Context, id string) (*entity.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

// Update replaces the content of a stored quote, keeping its identity
func (s *quoteServiceImpl) Update(ctx context.Context, quote *entity.Quote) (*entity.Quote, error) {
	if quote == nil || quote.ID == "" {
		return nil, fmt.Errorf("%w: quote id is required", ErrInvalidInput)
	}
	if err := validateStruct(quote); err != nil {
		return nil, err
	}

	q := *quote
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, q.ID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		if existing == nil {
			return ErrQuoteNotFound
		}

		q.CreatedAt = existing.CreatedAt
		q.UpdatedAt = s.now().UTC()
		if q.Ref == "" {
			q.Ref = existing.Ref
		}
		if q.Date == "" {
			q.Date = existing.Date
		}
		q.Items = withItemIDs(q.Items)

		if err := s.repo.Update(txCtx, &q); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrQuoteNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("Failed to update quote", zap.String("quote_id", q.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Quote updated", zap.String("quote_id", q.ID))
	return &q, nil
}

// List returns quotes, most recently updated first
func (s *quoteServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	quotes, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}

// Price prices a stored quote with the settings as they are now
func (s *quoteServiceImpl) Price(ctx context.Context, id string) (*pricing.PricedQuote, error) {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	priced := pricing.PriceQuote(*quote, *settings)
	return &priced, nil
}

// ExtractDraft asks the extractor for a draft quote. The draft is not stored.
func (s *quoteServiceImpl) ExtractDraft(ctx context.Context, email string) (*entity.Quote, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("email extraction: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email text is required", ErrInvalidInput)
	}

	draft, err := s.extractor.ExtractQuote(ctx, email)
	if err != nil {
		s.logger.Error("Email extraction failed", zap.Error(err))
		return nil, fmt.Errorf("extract quote: %w", err)
	}

	if draft.Date == "" {
		draft.Date = s.now().UTC().Format("2006-01-02")
	}
	draft.Items = withItemIDs(draft.Items)

	s.logger.Info("Quote draft extracted",
		zap.String("client_company", draft.ClientCompany),
		zap.Int("item_count", len(draft.Items)))
	return draft, nil
}

// newQuoteRef builds a human readable reference such as DEV-20261014-3F9A1C.
func newQuoteRef(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "DEV-" + now.Format("20060102") + "-" + suffix
}

func withItemIDs(items []entity.QuoteItem) []entity.QuoteItem {
	out := make([]entity.QuoteItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}
