package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQuoteService(repo *mockQuoteRepo, extractor *mockExtractor) *quoteServiceImpl {
	var ex port.QuoteExtractor
	if extractor != nil {
		ex = extractor
	}
	settings := NewSettingsService(&mockSettingsRepo{}, nil, zap.NewNop())
	svc := NewQuoteService(repo, settings, ex, &mockTxManager{}, zap.NewNop()).(*quoteServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestQuoteService_Create(t *testing.T) {
	var stored *entity.Quote
	repo := &mockQuoteRepo{
		createFunc: func(ctx context.Context, quote *entity.Quote) error {
			stored = quote
			return nil
		},
	}
	svc := newTestQuoteService(repo, nil)

	in := &entity.Quote{
		ClientCompany: "Banque Exemple SA",
		Items:         []entity.QuoteItem{{Kind: entity.ItemKindTech, Qty: 1, UnitPriceValue: 10}},
	}
	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "2026-10-14", got.Date)
	assert.Regexp(t, `^DEV-20261014-[0-9A-F]{6}$`, got.Ref)
	assert.NotEmpty(t, got.Items[0].ID)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Same(t, stored, got)
	assert.Empty(t, in.ID, "input must not be modified")
	assert.Empty(t, in.Items[0].ID)
}

func TestQuoteService_CreateRejectsInvalidQuote(t *testing.T) {
	tests := []struct {
		name  string
		quote *entity.Quote
		field string
	}{
		{"nil quote", nil, ""},
		{"bad date", &entity.Quote{Date: "le 14 octobre"}, "date"},
		{"bad agent date", &entity.Quote{Items: []entity.QuoteItem{{Kind: entity.ItemKindAgent, DateStart: "2026-13-01"}}}, "items[0].dateStart"},
		{"discount over 100", &entity.Quote{DiscountPct: 120}, "discountPct"},
		{"unknown item kind", &entity.Quote{Items: []entity.QuoteItem{{Kind: "OTHER"}}}, "items[0].kind"},
		{"negative qty", &entity.Quote{Items: []entity.QuoteItem{{Kind: entity.ItemKindTech, Qty: -1}}}, "items[0].qty"},
		{"bad agent time", &entity.Quote{Items: []entity.QuoteItem{{Kind: entity.ItemKindAgent, TimeStart: "25:00"}}}, "items[0].timeStart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockQuoteRepo{
				createFunc: func(ctx context.Context, quote *entity.Quote) error {
					t.Fatal("invalid quote must not be stored")
					return nil
				},
			}
			_, err := newTestQuoteService(repo, nil).Create(context.Background(), tt.quote)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			if tt.field != "" {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Contains(t, ve.Fields, tt.field)
			}
		})
	}
}

func TestQuoteService_CreateAcceptsPricingDateFormats(t *testing.T) {
	repo := &mockQuoteRepo{
		createFunc: func(ctx context.Context, quote *entity.Quote) error { return nil },
	}
	in := &entity.Quote{
		Date: "14.10.2026",
		Items: []entity.QuoteItem{{
			Kind:      entity.ItemKindAgent,
			DateStart: "14/10/2026", TimeStart: "18:00",
			DateEnd: "14.10.2026", TimeEnd: "24:00",
			RateCHFh: 50,
		}},
	}

	got, err := newTestQuoteService(repo, nil).Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "14.10.2026", got.Date)
}

func TestQuoteService_Get(t *testing.T) {
	repo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			if id == "q-1" {
				return techQuote(), nil
			}
			return nil, nil
		},
	}
	svc := newTestQuoteService(repo, nil)

	q, err := svc.Get(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026/001", q.Ref)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestQuoteService_Update(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("keeps identity", func(t *testing.T) {
		var saved *entity.Quote
		repo := &mockQuoteRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
				q := techQuote()
				q.CreatedAt = created
				return q, nil
			},
			updateFunc: func(ctx context.Context, quote *entity.Quote) error {
				saved = quote
				return nil
			},
		}
		svc := newTestQuoteService(repo, nil)

		got, err := svc.Update(context.Background(), &entity.Quote{ID: "q-1", ClientCompany: "Autre SA"})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "DEV-2026/001", got.Ref)
		assert.Equal(t, "2026-10-14", got.Date)
		assert.Equal(t, created, got.CreatedAt)
		assert.Equal(t, "Autre SA", got.ClientCompany)
		assert.True(t, got.UpdatedAt.After(created))
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestQuoteService(&mockQuoteRepo{}, nil)
		_, err := svc.Update(context.Background(), &entity.Quote{ID: "nope"})
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := newTestQuoteService(&mockQuoteRepo{}, nil)
		_, err := svc.Update(context.Background(), &entity.Quote{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := &mockQuoteRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) { return techQuote(), nil },
			updateFunc:  func(ctx context.Context, quote *entity.Quote) error { return errors.New("disk full") },
		}
		_, err := newTestQuoteService(repo, nil).Update(context.Background(), techQuote())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestQuoteService_Price(t *testing.T) {
	repo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) { return techQuote(), nil },
	}
	priced, err := newTestQuoteService(repo, nil).Price(context.Background(), "q-1")
	require.NoError(t, err)

	assert.InDelta(t, 200.0, priced.Totals.Unique.SubtotalHT, 1e-9)
	assert.InDelta(t, 8.1, priced.Totals.TVAPct, 1e-9)
	assert.InDelta(t, 216.2, priced.Totals.Unique.TotalTTC, 1e-6)
}

func TestQuoteService_ExtractDraft(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := newTestQuoteService(&mockQuoteRepo{}, nil).ExtractDraft(context.Background(), "Bonjour")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("empty email", func(t *testing.T) {
		ex := &mockExtractor{}
		_, err := newTestQuoteService(&mockQuoteRepo{}, ex).ExtractDraft(context.Background(), "  \n")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("draft is completed but not stored", func(t *testing.T) {
		repo := &mockQuoteRepo{
			createFunc: func(ctx context.Context, quote *entity.Quote) error {
				t.Fatal("draft must not be stored")
				return nil
			},
		}
		ex := &mockExtractor{
			extractFunc: func(ctx context.Context, email string) (*entity.Quote, error) {
				return &entity.Quote{
					ClientCompany: "Hôtel du Lac",
					Items:         []entity.QuoteItem{{Kind: entity.ItemKindAgent, DateStart: "2026-12-31"}},
				}, nil
			},
		}
		draft, err := newTestQuoteService(repo, ex).ExtractDraft(context.Background(), "Il nous faut un agent le 31.12")
		require.NoError(t, err)
		assert.Equal(t, "2026-10-14", draft.Date)
		assert.Equal(t, "Hôtel du Lac", draft.ClientCompany)
		assert.NotEmpty(t, draft.Items[0].ID)
		assert.Empty(t, draft.ID)
	})

	t.Run("extractor failure", func(t *testing.T) {
		ex := &mockExtractor{
			extractFunc: func(ctx context.Context, email string) (*entity.Quote, error) {
				return nil, errors.New("rate limited")
			},
		}
		_, err := newTestQuoteService(&mockQuoteRepo{}, ex).ExtractDraft(context.Background(), "Bonjour")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})
}
