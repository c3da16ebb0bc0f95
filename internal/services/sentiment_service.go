package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finmind/internal/cache"
	flog "finmind/internal/log"
	"finmind/internal/ports"
	"finmind/internal/sentiment"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// SentimentService serves catalog lookups and keeps a per-user history of
// the symbols looked up.
type SentimentService struct {
	catalog  *sentiment.Catalog
	recorder ports.SentimentRecorder
	details  *cache.LRUCache[sentiment.Detail]
	logger   *slog.Logger
}

func NewSentimentService(catalog *sentiment.Catalog, recorder ports.SentimentRecorder, logger *slog.Logger) *SentimentService {
	if catalog == nil {
		catalog = sentiment.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SentimentService{
		catalog:  catalog,
		recorder: recorder,
		details:  cache.NewLRUCache[sentiment.Detail](100, time.Hour),
		logger:   logger.With(flog.FieldComponent, flog.ComponentSentiment),
	}
}

// DetailCache exposes the detail cache for registration with a cleanup
// manager.
func (s *SentimentService) DetailCache() *cache.LRUCache[sentiment.Detail] {
	return s.details
}

// List returns every catalog record in catalog order.
func (s *SentimentService) List() []sentiment.Record {
	return s.catalog.All()
}

// Lookup finds symbol and records the lookup for userID. An empty userID
// skips recording. Recording failures are logged and do not fail the lookup.
func (s *SentimentService) Lookup(ctx context.Context, userID, symbol string) (sentiment.Detail, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	d, ok := s.details.Get(key)
	if !ok {
		r, found := s.catalog.Find(key)
		if !found {
			return sentiment.Detail{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
		}
		d = sentiment.Describe(r)
		s.details.Set(key, d)
	}

	if userID != "" && s.recorder != nil {
		snap := ports.SentimentSnapshot{
			UserID: userID,
			Symbol: d.Record.Symbol,
			Score:  d.Record.SentimentScore,
			Source: ports.SourceCombined,
		}
		if err := s.recorder.RecordSentiment(ctx, snap); err != nil {
			s.logger.ErrorContext(ctx, "Failed to record sentiment lookup",
				flog.FieldUserID, userID, flog.FieldSymbol, d.Record.Symbol, flog.FieldError, err)
		}
	}
	return d, nil
}

// History returns the user's recorded lookups.
func (s *SentimentService) History(ctx context.Context, userID string) ([]ports.SentimentSnapshot, error) {
	if s.recorder == nil {
		return nil, nil
	}
	h, err := s.recorder.ListSentiment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sentiment: %w", err)
	}
	return h, nil
}
