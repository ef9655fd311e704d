package usecase

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/savemate/backend/internal/domain"
)

// Cache keys for comparison records. The per-navigation key mirrors the
// extension's tab-scoped storage; "last" mirrors lastComparison.
const (
	comparisonKeyPrefix = "comparison:"
	lastComparisonKey   = "comparison:last"
)

// ComparisonServiceConfig holds configuration for the orchestrator
type ComparisonServiceConfig struct {
	FetchTimeout       time.Duration
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// ComparisonService coordinates fetch + score across backends,
// deduplicates to best-per-source, and produces a price-sorted result.
type ComparisonService struct {
	backends     []domain.SearchBackend
	queryBuilder *QueryBuilder
	scorer       *RelevanceScorer
	store        domain.CacheRepository
	fetchTimeout time.Duration
	cacheTTL     time.Duration
	debug        bool

	mu       sync.Mutex
	inflight map[string]*inflightRun
}

// inflightRun tracks one background comparison so a newer detection for
// the same navigation key can cancel it.
type inflightRun struct {
	cancel context.CancelFunc
}

// NewComparisonService creates the orchestrator with its dependencies
func NewComparisonService(
	backends []domain.SearchBackend,
	queryBuilder *QueryBuilder,
	scorer *RelevanceScorer,
	store domain.CacheRepository,
	config ComparisonServiceConfig,
) *ComparisonService {
	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &ComparisonService{
		backends:     backends,
		queryBuilder: queryBuilder,
		scorer:       scorer,
		store:        store,
		fetchTimeout: fetchTimeout,
		cacheTTL:     cacheTTL,
		debug:        config.EnableDebugLogging,
		inflight:     make(map[string]*inflightRun),
	}
}

// RunComparison runs the full pipeline for one detected product:
// build query, fan out to every backend except the product's own site,
// score candidates against the original title, keep the cheapest
// survivor per source, and sort ascending by price.
//
// It never fails as a whole: a backend that errors or times out simply
// contributes zero candidates, and the worst case is an empty list.
func (s *ComparisonService) RunComparison(ctx context.Context, product *domain.Product) []domain.ScoredCandidate {
	if product == nil || product.Title == "" {
		return []domain.ScoredCandidate{}
	}

	query := s.queryBuilder.Build(product.Title)
	if query == "" {
		// No discriminative query means no comparison is possible
		return []domain.ScoredCandidate{}
	}

	if s.debug {
		log.Printf("[COMPARE] site=%s query=%q", product.Site, query)
	}

	candidates := s.fetchAll(ctx, product.Site, query)
	scored := s.scoreAndFilter(product, candidates)
	best := bestPerSource(scored)

	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Price < best[j].Price
	})
	return best
}

// fetchAll fans out one Search call per backend and waits for all of
// them to settle. Backend failures are logged and swallowed.
func (s *ComparisonService) fetchAll(ctx context.Context, ownSite domain.SiteID, query string) []domain.Candidate {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var all []domain.Candidate

	for _, backend := range s.backends {
		if backend.Name() == string(ownSite) {
			continue
		}
		backend := backend
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.fetchTimeout)
			defer cancel()

			candidates, err := backend.Search(callCtx, query)
			if err != nil {
				log.Printf("[COMPARE] backend %s contributed nothing: %v", backend.Name(), err)
				return nil
			}
			mu.Lock()
			all = append(all, candidates...)
			mu.Unlock()
			return nil
		})
	}

	// Closures always return nil, so Wait only reflects ctx cancellation
	_ = g.Wait()
	return all
}

// scoreAndFilter promotes candidates that clear the accessory, brand,
// and threshold gates. Scoring runs against the original title rather
// than the reduced query for highest fidelity.
func (s *ComparisonService) scoreAndFilter(product *domain.Product, candidates []domain.Candidate) []domain.ScoredCandidate {
	var scored []domain.ScoredCandidate
	for _, c := range candidates {
		if c.SiteKey == product.Site {
			continue
		}
		score := s.scorer.Score(product.Title, c.Title)
		if !s.scorer.Accepts(score) {
			if s.debug {
				log.Printf("[COMPARE] dropped %q (%.2f < %.2f)", c.Title, score, s.scorer.Threshold())
			}
			continue
		}
		scored = append(scored, domain.ScoredCandidate{Candidate: c, RelevanceScore: score})
	}
	return scored
}

// bestPerSource keeps only the lowest-priced surviving candidate per
// source. Ties are broken by first-seen order.
func bestPerSource(scored []domain.ScoredCandidate) []domain.ScoredCandidate {
	bySource := make(map[domain.SiteID]domain.ScoredCandidate)
	var order []domain.SiteID
	for _, sc := range scored {
		existing, seen := bySource[sc.SiteKey]
		if !seen {
			bySource[sc.SiteKey] = sc
			order = append(order, sc.SiteKey)
			continue
		}
		if sc.Price < existing.Price {
			bySource[sc.SiteKey] = sc
		}
	}

	best := make([]domain.ScoredCandidate, 0, len(order))
	for _, site := range order {
		best = append(best, bySource[site])
	}
	return best
}

// StartComparison writes the "searching" record for the navigation key,
// runs the comparison in the background, and writes the "done" record
// when it settles. Starting a new comparison for the same key cancels
// any in-flight run for it, so a superseded run stops fetching instead
// of racing the newer one to the storage write.
func (s *ComparisonService) StartComparison(product domain.Product, navKey string) domain.ComparisonRecord {
	record := domain.ComparisonRecord{
		Product:    product,
		Prices:     []domain.ScoredCandidate{},
		Status:     domain.StatusSearching,
		Timestamp:  time.Now(),
		ProductURL: product.URL,
	}
	s.writeRecord(navKey, record)

	ctx, cancel := context.WithCancel(context.Background())
	run := &inflightRun{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.inflight[navKey]; ok {
		prev.cancel()
	}
	s.inflight[navKey] = run
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			if s.inflight[navKey] == run {
				delete(s.inflight, navKey)
			}
			s.mu.Unlock()
			cancel()
		}()

		prices := s.RunComparison(ctx, &product)
		if ctx.Err() != nil {
			// Superseded mid-flight; the newer run owns the record now
			log.Printf("[COMPARE] superseded run for key %q discarded", navKey)
			return
		}
		done := record
		done.Prices = prices
		done.Status = domain.StatusDone
		done.Timestamp = time.Now()
		s.writeRecord(navKey, done)
	}()

	return record
}

// GetComparison returns the record for the navigation key, falling back
// to the most recent comparison like the popup does.
func (s *ComparisonService) GetComparison(ctx context.Context, navKey string) (*domain.ComparisonRecord, error) {
	if navKey != "" {
		if rec, err := s.readRecord(ctx, comparisonKeyPrefix+navKey); err == nil {
			return rec, nil
		}
	}
	return s.readRecord(ctx, lastComparisonKey)
}

// ClearComparison cancels any in-flight run for the key and removes the
// stored records. Sent by the navigation watcher on SPA route changes.
func (s *ComparisonService) ClearComparison(ctx context.Context, navKey string) {
	s.mu.Lock()
	if run, ok := s.inflight[navKey]; ok {
		run.cancel()
		delete(s.inflight, navKey)
	}
	s.mu.Unlock()

	if navKey != "" {
		_ = s.store.Delete(ctx, comparisonKeyPrefix+navKey)
	}
	_ = s.store.Delete(ctx, lastComparisonKey)
}

func (s *ComparisonService) writeRecord(navKey string, record domain.ComparisonRecord) {
	ctx := context.Background()
	if navKey != "" {
		if err := s.store.Set(ctx, comparisonKeyPrefix+navKey, record, s.cacheTTL); err != nil {
			log.Printf("[COMPARE] failed to store record for %q: %v", navKey, err)
		}
	}
	if err := s.store.Set(ctx, lastComparisonKey, record, s.cacheTTL); err != nil {
		log.Printf("[COMPARE] failed to store last comparison: %v", err)
	}
}

func (s *ComparisonService) readRecord(ctx context.Context, key string) (*domain.ComparisonRecord, error) {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	record, ok := value.(domain.ComparisonRecord)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &record, nil
}
