package storefront

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savemate/backend/internal/domain"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestNew(t *testing.T) {
	t.Run("builds a backend for every supported site", func(t *testing.T) {
		for _, site := range domain.SupportedSites {
			backend, err := New(site, Config{})
			require.NoError(t, err, "site %s", site)
			assert.Equal(t, string(site), backend.Name())
		}
	})

	t.Run("rejects unknown sites", func(t *testing.T) {
		_, err := New(domain.SiteID("ebay"), Config{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnsupportedSite)
	})
}

func TestFirstListing(t *testing.T) {
	t.Run("amazon result card", func(t *testing.T) {
		backend, err := New(domain.SiteAmazon, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<div class="s-result-item" data-component-type="s-search-result">
				<h2><a href="/Sony-WH-1000XM5/dp/B09XS7JWHH"><span>Sony WH-1000XM5 Wireless Headphones</span></a></h2>
				<span class="a-price"><span class="a-offscreen">$349.99</span></span>
			</div>
		</body></html>`)

		candidate, ok := backend.firstListing(doc, "https://www.amazon.ca/s?k=sony")
		require.True(t, ok)
		assert.Equal(t, domain.SiteAmazon, candidate.SiteKey)
		assert.Equal(t, "Amazon", candidate.SiteName)
		assert.Equal(t, 349.99, candidate.Price)
		assert.Equal(t, "Sony WH-1000XM5 Wireless Headphones", candidate.Title)
		assert.Equal(t, "https://www.amazon.ca/Sony-WH-1000XM5/dp/B09XS7JWHH", candidate.URL,
			"relative links must be resolved against the site base URL")
	})

	t.Run("walmart result card with absolute link", func(t *testing.T) {
		backend, err := New(domain.SiteWalmart, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<a data-automation="product-title-link" href="https://www.walmart.ca/en/ip/Keurig-K-Classic/6000196107186">Keurig K-Classic Coffee Maker</a>
			<span data-automation="product-price">$89.98</span>
		</body></html>`)

		candidate, ok := backend.firstListing(doc, "https://www.walmart.ca/search?q=keurig")
		require.True(t, ok)
		assert.Equal(t, 89.98, candidate.Price)
		assert.Equal(t, "Keurig K-Classic Coffee Maker", candidate.Title)
		assert.Equal(t, "https://www.walmart.ca/en/ip/Keurig-K-Classic/6000196107186", candidate.URL)
	})

	t.Run("missing link falls back to the search URL", func(t *testing.T) {
		backend, err := New(domain.SiteBestBuy, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<div data-automation="product-price">$329.99</div>
			<div data-automation="product-item-name">Sony WH-1000XM5</div>
		</body></html>`)

		candidate, ok := backend.firstListing(doc, "https://www.bestbuy.ca/en-ca/search?search=sony")
		require.True(t, ok)
		assert.Equal(t, "https://www.bestbuy.ca/en-ca/search?search=sony", candidate.URL)
	})

	t.Run("no price means no listing", func(t *testing.T) {
		backend, err := New(domain.SiteAmazon, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<div class="s-result-item"><h2><span>Sony WH-1000XM5</span></h2></div>
		</body></html>`)

		_, ok := backend.firstListing(doc, "https://www.amazon.ca/s?k=sony")
		assert.False(t, ok)
	})
}

func TestFirstPrice(t *testing.T) {
	t.Run("prefers the content attribute", func(t *testing.T) {
		backend, err := New(domain.SiteWalmart, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<span itemprop="price" content="59.97">Rollback price!</span>
		</body></html>`)

		price, ok := backend.firstPrice(doc)
		require.True(t, ok)
		assert.Equal(t, 59.97, price)
	})

	t.Run("strips currency formatting", func(t *testing.T) {
		backend, err := New(domain.SiteBestBuy, Config{})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<div data-automation="product-price">$1,299.99</div>
		</body></html>`)

		price, ok := backend.firstPrice(doc)
		require.True(t, ok)
		assert.Equal(t, 1299.99, price)
	})

	t.Run("rejects prices outside the sanity bound", func(t *testing.T) {
		backend, err := New(domain.SiteAmazon, Config{MaxPrice: 1000})
		require.NoError(t, err)

		doc := mustDoc(t, `<html><body>
			<span class="a-price"><span class="a-offscreen">$5000.00</span></span>
		</body></html>`)

		_, ok := backend.firstPrice(doc)
		assert.False(t, ok)
	})

	t.Run("empty document has no price", func(t *testing.T) {
		backend, err := New(domain.SiteSuperstore, Config{})
		require.NoError(t, err)

		_, ok := backend.firstPrice(mustDoc(t, `<html><body></body></html>`))
		assert.False(t, ok)
	})
}
