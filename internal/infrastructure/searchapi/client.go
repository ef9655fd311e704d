package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/savemate/backend/internal/domain"
)

// Client talks to a unified shopping-search API and classifies the
// heterogeneous results into the retailers we track. One outbound call
// per comparison run; failures are never retried within a run.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	engine      string
	locale      string
	userAgent   string
	maxPrice    float64
	rateLimiter *rate.Limiter
	debug       bool
}

// Config holds configuration for the search API client
type Config struct {
	APIKey          string
	BaseURL         string
	Engine          string
	Locale          string
	UserAgent       string
	MaxPrice        float64
	RequestsPerHour int
	Timeout         time.Duration
}

// NewClient creates a search API client with its rate limiter
func NewClient(config Config) *Client {
	perHour := config.RequestsPerHour
	if perHour <= 0 {
		perHour = 1000
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPrice := config.MaxPrice
	if maxPrice <= 0 {
		maxPrice = 100000
	}
	engine := config.Engine
	if engine == "" {
		engine = "google_shopping"
	}

	limiter := rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), 10)

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      config.APIKey,
		baseURL:     config.BaseURL,
		engine:      engine,
		locale:      config.Locale,
		userAgent:   config.UserAgent,
		maxPrice:    maxPrice,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Name identifies this backend in orchestrator logs. The unified API
// serves every source, so the name is not a site key.
func (c *Client) Name() string {
	return "searchapi"
}

// shoppingResult is the wire shape of one listing. The schema is not
// guaranteed; every field is parsed defensively.
type shoppingResult struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	Seller         string  `json:"seller"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
}

type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

// Search runs one query against the API and returns candidates tagged
// with the retailer inferred from the seller/source field. Results from
// unrecognized sellers are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/search", c.baseURL)
	params := url.Values{}
	params.Add("engine", c.engine)
	params.Add("q", query)
	params.Add("api_key", c.apiKey)
	if c.locale != "" {
		params.Add("hl", c.locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrBackendFailure, resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.ShoppingResults))
	for _, result := range parsed.ShoppingResults {
		site, ok := classifySource(result.Source, result.Seller)
		if !ok {
			continue
		}
		price, ok := c.resultPrice(result)
		if !ok {
			continue
		}
		link := result.Link
		if link == "" {
			link = result.ProductLink
		}
		candidates = append(candidates, domain.Candidate{
			SiteKey:  site,
			SiteName: domain.SiteNames[site],
			Price:    price,
			URL:      link,
			Title:    result.Title,
		})
	}

	if c.debug {
		log.Printf("[SEARCHAPI] query=%q results=%d kept=%d", query, len(parsed.ShoppingResults), len(candidates))
	}
	return candidates, nil
}

// classifySource maps a provider name to a site key by substring match
func classifySource(source, seller string) (domain.SiteID, bool) {
	name := strings.ToLower(source + " " + seller)
	switch {
	case strings.Contains(name, "amazon"):
		return domain.SiteAmazon, true
	case strings.Contains(name, "walmart"):
		return domain.SiteWalmart, true
	case strings.Contains(name, "best buy"), strings.Contains(name, "bestbuy"):
		return domain.SiteBestBuy, true
	case strings.Contains(name, "superstore"), strings.Contains(name, "real canadian"):
		return domain.SiteSuperstore, true
	}
	return "", false
}

var priceDigitsRegex = regexp.MustCompile(`\d+\.?\d*`)

// resultPrice prefers the pre-extracted numeric price, falling back to
// parsing the display string. Values outside (0, maxPrice) are invalid.
func (c *Client) resultPrice(result shoppingResult) (float64, bool) {
	price := result.ExtractedPrice
	if price == 0 && result.Price != "" {
		m := priceDigitsRegex.FindString(strings.ReplaceAll(result.Price, ",", ""))
		if m == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		price = parsed
	}
	if price <= 0 || price >= c.maxPrice {
		return 0, false
	}
	return price, true
}
