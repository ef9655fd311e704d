package searchapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savemate/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		Locale:          "en-CA",
		UserAgent:       "savemate-test",
		RequestsPerHour: 100000,
		Timeout:         2 * time.Second,
	})
}

func TestClientName(t *testing.T) {
	client := newTestClient("http://localhost")
	assert.Equal(t, "searchapi", client.Name())
}

func TestSearch(t *testing.T) {
	t.Run("classifies and tags results by seller", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/search", r.URL.Path)
			assert.Equal(t, "google_shopping", r.URL.Query().Get("engine"))
			assert.Equal(t, "Sony headphones WH-1000XM5", r.URL.Query().Get("q"))
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, "en-CA", r.URL.Query().Get("hl"))
			assert.Equal(t, "savemate-test", r.Header.Get("User-Agent"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"shopping_results": [
					{"title": "Sony WH-1000XM5", "source": "Walmart Canada", "link": "https://walmart.ca/x", "extracted_price": 349.99},
					{"title": "Sony WH-1000XM5", "seller": "Best Buy", "link": "https://bestbuy.ca/x", "extracted_price": 329.99},
					{"title": "Sony WH-1000XM5", "source": "Some Random Shop", "extracted_price": 299.99}
				]
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		candidates, err := client.Search(context.Background(), "Sony headphones WH-1000XM5")
		require.NoError(t, err)
		require.Len(t, candidates, 2, "unrecognized sellers must be dropped")

		assert.Equal(t, domain.SiteWalmart, candidates[0].SiteKey)
		assert.Equal(t, "Walmart", candidates[0].SiteName)
		assert.Equal(t, 349.99, candidates[0].Price)
		assert.Equal(t, domain.SiteBestBuy, candidates[1].SiteKey)
	})

	t.Run("falls back to parsing the display price", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"shopping_results": [
					{"title": "Keurig K-Classic", "source": "Amazon.ca", "price": "CDN$ 1,299.00"}
				]
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		candidates, err := client.Search(context.Background(), "Keurig coffee maker")
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, 1299.00, candidates[0].Price)
	})

	t.Run("drops results with prices outside the sanity bound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"shopping_results": [
					{"title": "Free Sample", "source": "Amazon.ca", "extracted_price": 0},
					{"title": "Listing Glitch", "source": "Amazon.ca", "extracted_price": 250000},
					{"title": "Real Listing", "source": "Amazon.ca", "extracted_price": 49.99}
				]
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		candidates, err := client.Search(context.Background(), "widget")
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Real Listing", candidates[0].Title)
	})

	t.Run("non-200 response is a backend failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid api key"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), "widget")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBackendFailure)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), "widget")
		require.Error(t, err)
	})

	t.Run("empty result set yields no candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"shopping_results": []}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		candidates, err := client.Search(context.Background(), "widget")
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestClassifySource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		seller   string
		wantSite domain.SiteID
		wantOK   bool
	}{
		{"amazon source", "Amazon.ca", "", domain.SiteAmazon, true},
		{"walmart seller", "", "Walmart Canada", domain.SiteWalmart, true},
		{"best buy with space", "Best Buy Canada", "", domain.SiteBestBuy, true},
		{"bestbuy joined", "", "bestbuy.ca", domain.SiteBestBuy, true},
		{"real canadian superstore", "Real Canadian Superstore", "", domain.SiteSuperstore, true},
		{"unknown", "Newegg", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site, ok := classifySource(tt.source, tt.seller)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSite, site)
		})
	}
}
