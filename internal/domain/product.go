package domain

import "time"

// SiteID identifies a supported retailer.
type SiteID string

const (
	SiteAmazon     SiteID = "amazon"
	SiteWalmart    SiteID = "walmart"
	SiteBestBuy    SiteID = "bestbuy"
	SiteSuperstore SiteID = "superstore"
)

// SupportedSites lists every retailer the extension tracks, in display order.
var SupportedSites = []SiteID{SiteAmazon, SiteWalmart, SiteBestBuy, SiteSuperstore}

// SiteNames maps site keys to display names shown in the popup.
var SiteNames = map[SiteID]string{
	SiteAmazon:     "Amazon",
	SiteWalmart:    "Walmart",
	SiteBestBuy:    "Best Buy",
	SiteSuperstore: "Superstore",
}

// IsSupportedSite reports whether the given key is a retailer we track.
func IsSupportedSite(site SiteID) bool {
	_, ok := SiteNames[site]
	return ok
}

// Product is what the extractor pulls from a single product page view.
// Immutable once built. Price may be nil when the page markup hid it;
// a comparison still runs so the popup can show cross-site prices.
type Product struct {
	Title string   `json:"title" binding:"required"`
	Price *float64 `json:"price,omitempty"`
	Site  SiteID   `json:"site" binding:"required"`
	URL   string   `json:"url"`
}

// Candidate is one listing returned by a search backend for a built query.
// Ephemeral, held only in memory during a comparison run.
type Candidate struct {
	SiteKey  SiteID  `json:"siteKey"`
	SiteName string  `json:"siteName"`
	Price    float64 `json:"price"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
}

// ScoredCandidate is a Candidate that survived the accessory and brand
// gates, annotated with its relevance score in [0,1].
type ScoredCandidate struct {
	Candidate
	RelevanceScore float64 `json:"relevanceScore"`
}

// Comparison record status values polled by the popup.
const (
	StatusSearching = "searching"
	StatusDone      = "done"
)

// ComparisonRecord is the per-navigation record the popup polls. It is
// written with StatusSearching as soon as a product is detected and
// overwritten with StatusDone plus the ranked prices when the run
// settles. Superseded by the next detection event.
type ComparisonRecord struct {
	Product    Product           `json:"product"`
	Prices     []ScoredCandidate `json:"prices"`
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	ProductURL string            `json:"productUrl"`
}

// PurchaseRecord is one confirmed purchase in the savings history.
type PurchaseRecord struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PricePaid   float64   `json:"pricePaid"`
	Saved       float64   `json:"saved"`
	Site        SiteID    `json:"site"`
	PurchasedAt time.Time `json:"purchasedAt"`
}
