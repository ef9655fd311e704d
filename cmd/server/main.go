package main

import (
	"fmt"
	"log"
	"os"

	"github.com/savemate/backend/config"
	httpDelivery "github.com/savemate/backend/internal/delivery/http"
	"github.com/savemate/backend/internal/domain"
	"github.com/savemate/backend/internal/infrastructure/cache"
	"github.com/savemate/backend/internal/infrastructure/searchapi"
	"github.com/savemate/backend/internal/infrastructure/storefront"
	"github.com/savemate/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SaveMate Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	debug := cfg.Server.Environment == "development" || cfg.Matching.EnableDebugLogging

	// Infrastructure
	store := cache.NewStore(cfg.Cache.TTL)

	var backends []domain.SearchBackend
	if cfg.SearchAPI.APIKey != "" {
		apiClient := searchapi.NewClient(searchapi.Config{
			APIKey:          cfg.SearchAPI.APIKey,
			BaseURL:         cfg.SearchAPI.BaseURL,
			Engine:          cfg.SearchAPI.Engine,
			Locale:          cfg.SearchAPI.Locale,
			UserAgent:       cfg.Fetch.UserAgent,
			MaxPrice:        cfg.Fetch.MaxPrice,
			RequestsPerHour: cfg.RateLimit.SearchAPIPerHour,
			Timeout:         cfg.Fetch.Timeout,
		})
		apiClient.SetDebug(debug)
		backends = append(backends, apiClient)
		log.Printf("Search API configured: %s (engine: %s)", cfg.SearchAPI.BaseURL, cfg.SearchAPI.Engine)
	} else {
		log.Printf("WARNING: no search API key set - falling back to storefront scraping only")
	}

	for _, site := range domain.SupportedSites {
		backend, err := storefront.New(site, storefront.Config{
			UserAgent: cfg.Fetch.UserAgent,
			Locale:    cfg.SearchAPI.Locale,
			MaxPrice:  cfg.Fetch.MaxPrice,
			Timeout:   cfg.Fetch.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to build %s backend: %v", site, err)
		}
		backend.SetDebug(debug)
		backends = append(backends, backend)
	}
	log.Printf("Search backends: %d", len(backends))

	// Usecase layer
	queryBuilder := usecase.NewQueryBuilder(usecase.QueryBuilderConfig{
		MaxQueryTokens:   cfg.Matching.MaxQueryTokens,
		MaxModelTokenLen: cfg.Matching.MaxModelTokenLen,
		Debug:            debug,
	})
	scorer := usecase.NewRelevanceScorer(usecase.ScorerConfig{
		RelevanceThreshold: cfg.Matching.RelevanceThreshold,
		Debug:              debug,
	})
	comparisons := usecase.NewComparisonService(backends, queryBuilder, scorer, store, usecase.ComparisonServiceConfig{
		FetchTimeout:       cfg.Fetch.Timeout,
		CacheTTL:           cfg.Cache.TTL,
		EnableDebugLogging: debug,
	})
	savings := usecase.NewSavingsService(store, usecase.SavingsServiceConfig{
		EnableDebugLogging: debug,
	})
	extractor := usecase.NewExtractor(usecase.ExtractorConfig{
		MaxPrice: cfg.Fetch.MaxPrice,
		Debug:    debug,
	})
	feedFilter := usecase.NewFeedFilter(usecase.FilterContext{})

	log.Printf("Matching: threshold=%.2f, query tokens=%d, model cap=%d",
		cfg.Matching.RelevanceThreshold,
		cfg.Matching.MaxQueryTokens,
		cfg.Matching.MaxModelTokenLen)

	// Delivery
	handler := httpDelivery.NewHandler(comparisons, savings, extractor, feedFilter)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
