package usecase

import (
	"context"
	"log"
	"time"

	"github.com/savemate/backend/internal/domain"
)

// History is capped so storage stays bounded; oldest entries fall off.
const (
	historyKey     = "purchases:history"
	maxHistorySize = 50
)

// SavingsService records confirmed purchases and tracks cumulative
// savings against the best comparison price at purchase time.
type SavingsService struct {
	store      domain.CacheRepository
	historyTTL time.Duration
	debug      bool
}

// SavingsServiceConfig holds configuration for the savings service
type SavingsServiceConfig struct {
	HistoryTTL         time.Duration
	EnableDebugLogging bool
}

// NewSavingsService creates a savings service backed by the given store
func NewSavingsService(store domain.CacheRepository, config SavingsServiceConfig) *SavingsService {
	historyTTL := config.HistoryTTL
	if historyTTL <= 0 {
		// Purchase history outlives individual comparisons
		historyTTL = 90 * 24 * time.Hour
	}
	return &SavingsService{
		store:      store,
		historyTTL: historyTTL,
		debug:      config.EnableDebugLogging,
	}
}

// RecordPurchase stores a confirmed purchase. Savings are the positive
// difference between the price paid and the best price from the last
// comparison; no comparison or no cheaper listing means zero saved.
func (s *SavingsService) RecordPurchase(ctx context.Context, product *domain.Product) (*domain.PurchaseRecord, error) {
	if product == nil || product.Title == "" || product.Price == nil {
		return nil, domain.ErrInvalidRequest
	}

	var saved float64
	if value, err := s.store.Get(ctx, lastComparisonKey); err == nil {
		if record, ok := value.(domain.ComparisonRecord); ok && len(record.Prices) > 0 {
			diff := *product.Price - record.Prices[0].Price
			if diff > 0 {
				saved = diff
			}
		}
	}

	record := domain.PurchaseRecord{
		ID:          time.Now().UnixMilli(),
		Title:       product.Title,
		PricePaid:   *product.Price,
		Saved:       saved,
		Site:        product.Site,
		PurchasedAt: time.Now(),
	}

	history := s.loadHistory(ctx)
	history = append([]domain.PurchaseRecord{record}, history...)
	if len(history) > maxHistorySize {
		history = history[:maxHistorySize]
	}
	if err := s.store.Set(ctx, historyKey, history, s.historyTTL); err != nil {
		return nil, err
	}

	if s.debug {
		log.Printf("[SAVINGS] recorded %q paid=%.2f saved=%.2f", record.Title, record.PricePaid, record.Saved)
	}
	return &record, nil
}

// History returns all purchase records and the cumulative amount saved
func (s *SavingsService) History(ctx context.Context) ([]domain.PurchaseRecord, float64) {
	history := s.loadHistory(ctx)
	var totalSaved float64
	for _, r := range history {
		totalSaved += r.Saved
	}
	return history, totalSaved
}

func (s *SavingsService) loadHistory(ctx context.Context) []domain.PurchaseRecord {
	value, err := s.store.Get(ctx, historyKey)
	if err != nil {
		return nil
	}
	history, ok := value.([]domain.PurchaseRecord)
	if !ok {
		return nil
	}
	return history
}
