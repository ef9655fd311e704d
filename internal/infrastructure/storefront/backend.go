package storefront

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/savemate/backend/internal/domain"
)

// siteRules describe how to search one retailer and read the first
// result card out of its markup. Kept as a data table so a selector
// change on one site never touches control flow.
type siteRules struct {
	searchURL      string // fmt template, %s is the escaped query
	baseURL        string // prefix for relative result links
	priceSelectors []string
	linkSelectors  []string
	titleSelectors []string
}

var rulesBySite = map[domain.SiteID]siteRules{
	domain.SiteAmazon: {
		searchURL: "https://www.amazon.ca/s?k=%s",
		baseURL:   "https://www.amazon.ca",
		priceSelectors: []string{
			".s-result-item .a-price .a-offscreen",
			`[data-component-type="s-search-result"] .a-price .a-offscreen`,
			".a-price .a-offscreen",
		},
		linkSelectors: []string{
			".s-result-item h2 a",
			`[data-component-type="s-search-result"] h2 a`,
		},
		titleSelectors: []string{
			".s-result-item h2 span",
			`[data-component-type="s-search-result"] h2 span`,
		},
	},
	domain.SiteWalmart: {
		searchURL: "https://www.walmart.ca/search?q=%s",
		baseURL:   "https://www.walmart.ca",
		priceSelectors: []string{
			`[data-automation="product-price"]`,
			`[data-testid="list-view"] [data-automation="buybox-price"]`,
			".search-result-product-price",
			`span[data-automation="buybox-price"]`,
			`[itemprop="price"]`,
			".price-main",
		},
		linkSelectors: []string{
			`a[data-automation="product-title-link"]`,
			`a[link-identifier="linkIdentifier"]`,
			".search-result-product-title a",
		},
		titleSelectors: []string{
			`a[data-automation="product-title-link"]`,
			".search-result-product-title",
		},
	},
	domain.SiteBestBuy: {
		searchURL: "https://www.bestbuy.ca/en-ca/search?search=%s",
		baseURL:   "https://www.bestbuy.ca",
		priceSelectors: []string{
			`[data-automation="product-price"]`,
			".productPricingContainer .priceValue",
			`[itemprop="price"]`,
		},
		linkSelectors: []string{
			`a[data-automation="product-item-link"]`,
			".productItemName a",
			"a[itemprop='url']",
		},
		titleSelectors: []string{
			`[data-automation="product-item-name"]`,
			".productItemName",
		},
	},
	domain.SiteSuperstore: {
		searchURL: "https://www.realcanadiansuperstore.ca/search?search-bar=%s",
		baseURL:   "https://www.realcanadiansuperstore.ca",
		priceSelectors: []string{
			`[data-testid="price-product-tile"]`,
			`[data-code="price"]`,
			".price--sale",
			".price",
		},
		linkSelectors: []string{
			`a[data-testid="product-tile-link"]`,
			".product-tile a",
		},
		titleSelectors: []string{
			`[data-testid="product-title"]`,
			".product-name__item--name",
		},
	},
}

var priceDigitsRegex = regexp.MustCompile(`\d+\.?\d*`)

// Backend scrapes one retailer's search results page directly. It makes
// a single GET per comparison run and reads the first product card.
type Backend struct {
	site       domain.SiteID
	rules      siteRules
	httpClient *http.Client
	userAgent  string
	locale     string
	maxPrice   float64
	debug      bool
}

// Config holds configuration for a storefront backend
type Config struct {
	UserAgent string
	Locale    string
	MaxPrice  float64
	Timeout   time.Duration
}

// New creates a storefront backend for the given retailer
func New(site domain.SiteID, config Config) (*Backend, error) {
	rules, ok := rulesBySite[site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSite, site)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPrice := config.MaxPrice
	if maxPrice <= 0 {
		maxPrice = 100000
	}
	return &Backend{
		site:       site,
		rules:      rules,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  config.UserAgent,
		locale:     config.Locale,
		maxPrice:   maxPrice,
	}, nil
}

// SetDebug toggles fetch logging
func (b *Backend) SetDebug(debug bool) {
	b.debug = debug
}

// Name returns the site key this backend serves, so the orchestrator
// can skip the product's own site.
func (b *Backend) Name() string {
	return string(b.site)
}

// Search fetches the retailer's search results page and extracts the
// first listing. Returns at most one candidate; an unparseable page is
// an empty result, not an error.
func (b *Backend) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	searchURL := fmt.Sprintf(b.rules.searchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}
	if b.locale != "" {
		req.Header.Set("Accept-Language", b.locale)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrBackendFailure, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	candidate, ok := b.firstListing(doc, searchURL)
	if !ok {
		if b.debug {
			log.Printf("[STOREFRONT] %s: no parseable listing for %q", b.site, query)
		}
		return nil, nil
	}
	return []domain.Candidate{candidate}, nil
}

// firstListing reads the first result card via the selector tables
func (b *Backend) firstListing(doc *goquery.Document, fallbackURL string) (domain.Candidate, bool) {
	price, ok := b.firstPrice(doc)
	if !ok {
		return domain.Candidate{}, false
	}

	link := fallbackURL
	for _, sel := range b.rules.linkSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if href, exists := node.Attr("href"); exists && href != "" {
			if strings.HasPrefix(href, "http") {
				link = href
			} else {
				link = b.rules.baseURL + href
			}
			break
		}
	}

	title := ""
	for _, sel := range b.rules.titleSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			title = text
			break
		}
	}

	return domain.Candidate{
		SiteKey:  b.site,
		SiteName: domain.SiteNames[b.site],
		Price:    price,
		URL:      link,
		Title:    title,
	}, true
}

func (b *Backend) firstPrice(doc *goquery.Document) (float64, bool) {
	for _, sel := range b.rules.priceSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text, ok := node.Attr("content")
		if !ok || text == "" {
			text = strings.TrimSpace(node.Text())
		}
		if text == "" {
			continue
		}
		m := priceDigitsRegex.FindString(strings.ReplaceAll(text, ",", ""))
		if m == "" {
			continue
		}
		price, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if price <= 0 || price >= b.maxPrice {
			continue
		}
		return price, true
	}
	return 0, false
}
