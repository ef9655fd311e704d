package usecase

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/savemate/backend/internal/domain"
)

// Title length caps carried over from the extension content scripts
const (
	maxSlugTitleLen = 100
	maxProductTitle = 120
	maxPriceTextLen = 30
	defaultMaxPrice = 100000.0
)

// productPagePatterns decide whether a path is a product page at all
var productPagePatterns = map[domain.SiteID][]*regexp.Regexp{
	domain.SiteAmazon: {
		regexp.MustCompile(`(?i)/dp/[A-Z0-9]{10}`),
	},
	domain.SiteWalmart: {
		regexp.MustCompile(`/ip/`),
	},
	domain.SiteBestBuy: {
		regexp.MustCompile(`/en-ca/product/`),
		regexp.MustCompile(`/\d+\.aspx`),
	},
	domain.SiteSuperstore: {
		regexp.MustCompile(`/p/`),
		regexp.MustCompile(`/product/`),
		regexp.MustCompile(`/\d{5,}`),
	},
}

// priceSelectors are per-site CSS selector tables for the product price,
// tried in order. Mirrors the selector lists the content scripts probe.
var priceSelectors = map[domain.SiteID][]string{
	domain.SiteAmazon: {
		"span.a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		"#price_inside_buybox",
		".priceToPay .a-offscreen",
		"#corePrice_feature_div .a-price .a-offscreen",
		".a-price .a-offscreen",
	},
	domain.SiteWalmart: {
		`[data-automation="buybox-price"]`,
		`span[data-automation="buybox-price"]`,
		`[data-testid="price-wrap"] span`,
		`[data-testid="buybox-price-container"] span`,
		`[itemprop="price"]`,
		".price-characteristic",
		`span[class*="price"]`,
	},
	domain.SiteBestBuy: {
		`[data-automation="product-price"]`,
		".priceValue",
		`[itemprop="price"]`,
	},
	domain.SiteSuperstore: {
		`[data-code="price"]`,
		".price--sale",
		".price",
		`[itemprop="price"]`,
	},
}

// titleSelectors are per-site fallbacks when the URL slug carries no name
var titleSelectors = map[domain.SiteID][]string{
	domain.SiteAmazon:     {"#productTitle", "h1 span", "title"},
	domain.SiteWalmart:    {`h1[itemprop="name"]`, `h1[class*="prod-title"]`, "h1", "title"},
	domain.SiteBestBuy:    {`h1[class*="productName"]`, "h1", "title"},
	domain.SiteSuperstore: {`h1[data-testid="product-title"]`, "h1", "title"},
}

var (
	titleNoiseRegex  = regexp.MustCompile(`(?i)\b(with|the|a|an|for|set of|pack of|lot of)\b`)
	titleSpacesRegex = regexp.MustCompile(`\s{2,}`)
	priceDigitsRegex = regexp.MustCompile(`\d+\.?\d*`)
	numericSlugRegex = regexp.MustCompile(`^\d+$`)
	codeSlugRegex    = regexp.MustCompile(`^[\d_]+$|^\d+[_A-Z]+$`)
	productIDRegex   = regexp.MustCompile(`^\d+(\.aspx)?$`)
)

// Extractor pulls a product title and price from a page URL and markup
type Extractor struct {
	maxPrice float64
	debug    bool
}

// ExtractorConfig holds configuration for the extractor
type ExtractorConfig struct {
	MaxPrice float64
	Debug    bool
}

// NewExtractor creates an extractor with the given price sanity bound
func NewExtractor(config ExtractorConfig) *Extractor {
	maxPrice := config.MaxPrice
	if maxPrice <= 0 {
		maxPrice = defaultMaxPrice
	}
	return &Extractor{maxPrice: maxPrice, debug: config.Debug}
}

// SiteForHost maps a hostname to the retailer it belongs to
func SiteForHost(host string) (domain.SiteID, bool) {
	host = strings.ToLower(host)
	switch {
	case strings.Contains(host, "amazon"):
		return domain.SiteAmazon, true
	case strings.Contains(host, "walmart"):
		return domain.SiteWalmart, true
	case strings.Contains(host, "bestbuy"):
		return domain.SiteBestBuy, true
	case strings.Contains(host, "superstore"), strings.Contains(host, "realcanadiansuperstore"):
		return domain.SiteSuperstore, true
	}
	return "", false
}

// ExtractProduct builds a Product from a page URL and optional markup.
// The URL slug is the primary title source - it is available before any
// client-side rendering - with the markup as fallback. A missing title
// is fatal; a missing price is not, the comparison still runs.
func (e *Extractor) ExtractProduct(pageURL string, html io.Reader) (*domain.Product, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	site, ok := SiteForHost(parsed.Hostname())
	if !ok {
		return nil, domain.ErrUnsupportedSite
	}

	if !isProductPage(site, parsed.Path) {
		return nil, domain.ErrNoProduct
	}

	var doc *goquery.Document
	if html != nil {
		// Parse errors leave doc nil - the slug may still carry the title
		doc, _ = goquery.NewDocumentFromReader(html)
	}

	title := titleFromPath(site, parsed.Path)
	if title == "" && doc != nil {
		title = titleFromDocument(site, doc)
	}
	title = cleanExtractedTitle(title)
	if title == "" {
		return nil, domain.ErrNoProduct
	}
	if len(title) > maxProductTitle {
		title = strings.TrimSpace(truncateAtRune(title, maxProductTitle))
	}

	var price *float64
	if doc != nil {
		if p, ok := e.priceFromDocument(site, doc); ok {
			price = &p
		}
	}

	if e.debug {
		log.Printf("[EXTRACT] site=%s title=%q price=%v", site, title, price)
	}

	return &domain.Product{Title: title, Price: price, Site: site, URL: pageURL}, nil
}

// isProductPage checks the path against the site's product-page patterns
func isProductPage(site domain.SiteID, path string) bool {
	for _, pattern := range productPagePatterns[site] {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

// titleFromPath extracts the product name from the URL slug.
// Every supported site embeds the name in its product path.
func titleFromPath(site domain.SiteID, path string) string {
	parts := splitPath(path)

	switch site {
	case domain.SiteWalmart:
		// /en/ip/Product-Name-Here/ID or /ip/Product-Name/ID
		for i, p := range parts {
			if p == "ip" && i+1 < len(parts) {
				slug := parts[i+1]
				if !numericSlugRegex.MatchString(slug) {
					return slugToTitle(slug)
				}
			}
		}
	case domain.SiteAmazon:
		// /Product-Name-Here/dp/ASIN
		for i, p := range parts {
			if p == "dp" && i > 0 && strings.Contains(parts[i-1], "-") {
				return slugToTitle(parts[i-1])
			}
		}
	case domain.SiteBestBuy:
		// /en-ca/product/brand-product-name/12345.aspx
		for i, p := range parts {
			if productIDRegex.MatchString(p) && i > 0 {
				return slugToTitle(parts[i-1])
			}
		}
	case domain.SiteSuperstore:
		// /p/Product-Name-Here/21302823_EA
		for i, p := range parts {
			if (p == "p" || p == "product") && i+1 < len(parts) {
				slug := parts[i+1]
				if !codeSlugRegex.MatchString(slug) {
					return slugToTitle(slug)
				}
			}
		}
	}
	return ""
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func slugToTitle(slug string) string {
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}

// titleFromDocument probes the site's title selectors, splitting off
// retailer suffixes like "Product : Amazon.ca"
func titleFromDocument(site domain.SiteID, doc *goquery.Document) string {
	for _, sel := range titleSelectors[site] {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		text = strings.Split(text, "\n")[0]
		for _, sep := range []string{":", "|"} {
			text = strings.Split(text, sep)[0]
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text
		}
	}
	return ""
}

// priceFromDocument probes the site's price selectors in order.
// itemprop elements carry the price in their content attribute.
func (e *Extractor) priceFromDocument(site domain.SiteID, doc *goquery.Document) (float64, bool) {
	for _, sel := range priceSelectors[site] {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text, ok := node.Attr("content")
		if !ok || text == "" {
			text = strings.TrimSpace(node.Text())
		}
		if text == "" || len(text) >= maxPriceTextLen {
			continue
		}
		if p, ok := e.parsePrice(text); ok {
			return p, true
		}
	}
	return 0, false
}

// parsePrice pulls the first decimal number out of a price string and
// rejects values outside the sanity bound (0, maxPrice).
func (e *Extractor) parsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	m := priceDigitsRegex.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	if p <= 0 || p >= e.maxPrice {
		return 0, false
	}
	return p, true
}

// cleanExtractedTitle strips connective noise from the slug so the
// cross-site search targets the product type, then caps the length.
func cleanExtractedTitle(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := titleNoiseRegex.ReplaceAllString(raw, " ")
	cleaned = titleSpacesRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > maxSlugTitleLen {
		cleaned = strings.TrimSpace(truncateAtRune(cleaned, maxSlugTitleLen))
	}
	return cleaned
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
// The .ca retailers carry accented French slugs, so a plain byte slice
// can leave invalid UTF-8 in the title.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
