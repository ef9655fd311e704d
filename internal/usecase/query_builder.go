package usecase

import (
	"log"
	"regexp"
	"strings"
)

// Defaults for the query shape. Empirically chosen caps - configurable,
// not known to be optimal.
const (
	defaultMaxQueryTokens   = 6
	defaultMaxModelTokenLen = 12
	maxModelPatternTokens   = 2
	maxSpecTokens           = 2
	maxDescriptiveTokens    = 2
)

// techBrands are recognized technology brands, stored in display form
// and matched case-insensitively against title tokens.
var techBrands = map[string]string{
	"apple": "Apple", "samsung": "Samsung", "sony": "Sony", "lg": "LG",
	"google": "Google", "microsoft": "Microsoft", "dell": "Dell", "hp": "HP",
	"lenovo": "Lenovo", "asus": "Asus", "acer": "Acer", "bose": "Bose",
	"jbl": "JBL", "logitech": "Logitech", "dyson": "Dyson", "nintendo": "Nintendo",
	"canon": "Canon", "nikon": "Nikon", "panasonic": "Panasonic", "philips": "Philips",
	"sennheiser": "Sennheiser", "garmin": "Garmin", "fitbit": "Fitbit",
	"anker": "Anker", "razer": "Razer", "msi": "MSI", "huawei": "Huawei",
	"xiaomi": "Xiaomi", "oneplus": "OnePlus", "motorola": "Motorola",
	"nokia": "Nokia", "corsair": "Corsair", "gopro": "GoPro", "roku": "Roku",
	"sonos": "Sonos",
}

// brandAlias is a bare product line name that implies both a brand and a
// product type without the brand word appearing in the title.
type brandAlias struct {
	Brand string
	Type  string
}

// techAliases map product-line words to their manufacturer. Checked
// before plain brand names so "iPhone 15 Pro" yields Apple even when
// "Apple" is absent from the title.
var techAliases = map[string]brandAlias{
	"iphone":      {Brand: "Apple", Type: "phone"},
	"ipad":        {Brand: "Apple", Type: "tablet"},
	"macbook":     {Brand: "Apple", Type: "laptop"},
	"imac":        {Brand: "Apple", Type: "desktop"},
	"airpods":     {Brand: "Apple", Type: "earbuds"},
	"galaxy":      {Brand: "Samsung", Type: "phone"},
	"pixel":       {Brand: "Google", Type: "phone"},
	"chromebook":  {Brand: "Google", Type: "laptop"},
	"surface":     {Brand: "Microsoft", Type: "laptop"},
	"xbox":        {Brand: "Microsoft", Type: "console"},
	"playstation": {Brand: "Sony", Type: "console"},
	"ps5":         {Brand: "Sony", Type: "console"},
	"ps4":         {Brand: "Sony", Type: "console"},
	"kindle":      {Brand: "Amazon", Type: "ereader"},
	"thinkpad":    {Brand: "Lenovo", Type: "laptop"},
	"roomba":      {Brand: "iRobot", Type: "vacuum"},
}

// namedBrands are recognized non-technology brands. Queries for these
// get padded with descriptive title words instead of model/spec tokens.
var namedBrands = map[string]string{
	"nike": "Nike", "adidas": "Adidas", "puma": "Puma", "reebok": "Reebok",
	"levis": "Levis", "columbia": "Columbia", "carhartt": "Carhartt",
	"patagonia": "Patagonia", "lego": "Lego", "keurig": "Keurig",
	"kitchenaid": "KitchenAid", "cuisinart": "Cuisinart", "ninja": "Ninja",
	"yeti": "Yeti", "stanley": "Stanley", "ikea": "Ikea",
	"mainstays": "Mainstays", "coleman": "Coleman", "weber": "Weber",
}

// productTypeWords are generic product-category words usable as the type
// token in a built query.
var productTypeWords = map[string]bool{
	"phone": true, "smartphone": true, "tablet": true, "laptop": true,
	"notebook": true, "desktop": true, "monitor": true, "tv": true,
	"television": true, "headphones": true, "earbuds": true, "speaker": true,
	"soundbar": true, "watch": true, "smartwatch": true, "camera": true,
	"console": true, "controller": true, "keyboard": true, "mouse": true,
	"router": true, "printer": true, "vacuum": true, "blender": true,
	"toaster": true, "kettle": true, "fridge": true, "refrigerator": true,
	"microwave": true, "drone": true, "projector": true, "ereader": true,
}

// stopWords are dropped from queries and excluded from score denominators
var stopWords = map[string]bool{
	"with": true, "the": true, "a": true, "an": true, "and": true,
	"or": true, "for": true, "in": true, "on": true, "of": true,
	"by": true, "to": true, "from": true, "at": true, "set": true,
	"pack": true, "lot": true, "new": true, "sale": true, "per": true,
}

// colorWords never make a query more discriminative cross-site
var colorWords = map[string]bool{
	"black": true, "white": true, "red": true, "blue": true, "green": true,
	"gray": true, "grey": true, "silver": true, "gold": true, "rose": true,
	"pink": true, "purple": true, "yellow": true, "orange": true,
	"brown": true, "beige": true, "navy": true, "teal": true,
	"graphite": true, "midnight": true, "starlight": true,
}

var materialWords = map[string]bool{
	"leather": true, "cotton": true, "wool": true, "silk": true,
	"plastic": true, "metal": true, "steel": true, "aluminum": true,
	"wood": true, "wooden": true, "glass": true, "ceramic": true,
	"rubber": true, "canvas": true, "suede": true, "velvet": true,
	"linen": true, "bamboo": true,
}

// tokenRule pairs a pattern with a token normalizer so extraction rules
// stay unit-testable data rather than inlined conditionals.
type tokenRule struct {
	pattern   *regexp.Regexp
	normalize func(string) string
}

func compactLower(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

// modelRules match model identifiers in priority order. First match per
// rule wins; at most two model tokens enter the query.
var modelRules = []tokenRule{
	// Hyphenated alphanumeric models: WH-1000XM5, QC-45
	{pattern: regexp.MustCompile(`\b[A-Za-z]{1,4}-\d{2,5}[A-Za-z0-9]{0,4}\b`), normalize: strings.TrimSpace},
	// Series / generation designators: "Series 9", "Gen 3"
	{pattern: regexp.MustCompile(`(?i)\b(?:series|gen(?:eration)?)\s?\d{1,2}\b`), normalize: compactLower},
	// Compact alphanumeric models: XM5, S23, A2342
	{pattern: regexp.MustCompile(`\b[A-Za-z]{1,6}\d{1,5}[A-Za-z0-9]{0,4}\b`), normalize: strings.TrimSpace},
	// Digit-led models: 1000XM4
	{pattern: regexp.MustCompile(`\b\d{2,5}[A-Za-z]{1,4}\d{0,3}\b`), normalize: strings.TrimSpace},
}

// specRules extract specification tokens, normalized to a compact form
// (digits+unit, no spaces). At most two spec tokens enter the query.
var specRules = []tokenRule{
	// Storage size: "128 GB" -> "128gb"
	{pattern: regexp.MustCompile(`(?i)\b\d{2,4}\s?[gt]b\b`), normalize: compactLower},
	// Physical dimension in millimetres: "44mm"
	{pattern: regexp.MustCompile(`(?i)\b\d{2,3}\s?mm\b`), normalize: compactLower},
	// Screen or band size in inches: "15.6 inch" -> "15.6in"
	{pattern: regexp.MustCompile(`(?i)\b\d{1,2}(?:\.\d)?\s?(?:inch(?:es)?|in)\b`), normalize: normalizeInches},
	// Connectivity flags
	{pattern: regexp.MustCompile(`(?i)\b(?:wi-?fi|bluetooth|cellular|gps|lte|5g)\b`), normalize: compactLower},
}

var inchesSuffixRegex = regexp.MustCompile(`(?i)\s?inch(?:es)?$|\s?in$`)

func normalizeInches(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return inchesSuffixRegex.ReplaceAllString(s, "") + "in"
}

var nonAlphanumericTokenRegex = regexp.MustCompile(`[^a-z0-9]`)

// QueryBuilder turns a raw noisy product title into a compact,
// discriminative search query. Deterministic: identical titles always
// produce identical queries.
type QueryBuilder struct {
	maxTokens   int
	maxModelLen int
	debug       bool
}

// QueryBuilderConfig holds configuration for the query builder
type QueryBuilderConfig struct {
	MaxQueryTokens   int
	MaxModelTokenLen int
	Debug            bool
}

// NewQueryBuilder creates a query builder with the given caps, falling
// back to defaults for non-positive values.
func NewQueryBuilder(config QueryBuilderConfig) *QueryBuilder {
	maxTokens := config.MaxQueryTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxQueryTokens
	}
	maxModelLen := config.MaxModelTokenLen
	if maxModelLen <= 0 {
		maxModelLen = defaultMaxModelTokenLen
	}
	return &QueryBuilder{
		maxTokens:   maxTokens,
		maxModelLen: maxModelLen,
		debug:       config.Debug,
	}
}

// detectedBrand is the result of scanning a title for a known brand
type detectedBrand struct {
	Brand       string // display form
	ImpliedType string // non-empty only for alias matches
	AnchorIdx   int    // index of the brand/alias token in the title
	NonTech     bool
}

// detectBrand scans title tokens against the alias, tech-brand, and
// named-brand tables. Alias matches take priority over plain brands.
func detectBrand(words []string) *detectedBrand {
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ",.;:!?"))
		if alias, ok := techAliases[key]; ok {
			return &detectedBrand{Brand: alias.Brand, ImpliedType: alias.Type, AnchorIdx: i}
		}
	}
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ",.;:!?"))
		if display, ok := techBrands[key]; ok {
			return &detectedBrand{Brand: display, AnchorIdx: i}
		}
	}
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ",.;:!?"))
		if display, ok := namedBrands[key]; ok {
			return &detectedBrand{Brand: display, AnchorIdx: i, NonTech: true}
		}
	}
	return nil
}

// IsKnownBrand reports whether the token names any brand the builder
// recognizes. Used by the relevance scorer's brand gate.
func IsKnownBrand(token string) bool {
	key := strings.ToLower(token)
	if _, ok := techBrands[key]; ok {
		return true
	}
	if _, ok := namedBrands[key]; ok {
		return true
	}
	if _, ok := techAliases[key]; ok {
		return true
	}
	return false
}

// Build constructs a search query from a raw product title.
// Empty or missing title yields an empty string - the caller must treat
// an empty query as "no comparison possible".
func (b *QueryBuilder) Build(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	words := strings.Fields(title)
	brand := detectBrand(words)

	var query string
	if brand == nil {
		query = b.buildFallbackQuery(words)
	} else {
		query = b.buildBrandQuery(title, words, brand)
	}

	if b.debug {
		log.Printf("[QUERY] %q -> %q", title, query)
	}
	return query
}

// buildBrandQuery assembles brand, type, model, and spec tokens
func (b *QueryBuilder) buildBrandQuery(title string, words []string, brand *detectedBrand) string {
	seen := make(map[string]bool)
	var tokens []string

	add := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" || len(tokens) >= b.maxTokens {
			return
		}
		key := strings.ToLower(tok)
		if seen[key] {
			return
		}
		seen[key] = true
		tokens = append(tokens, tok)
	}

	add(brand.Brand)

	// Product type: alias-implied, or the first category word in the title
	if brand.ImpliedType != "" {
		add(brand.ImpliedType)
	} else if t := firstProductType(words); t != "" {
		add(t)
	}

	// Model word: the token right after the brand, if it looks like one
	if m := modelWordAfter(words, brand.AnchorIdx); m != "" {
		add(m)
	}

	// A pattern match that is a fragment of a token already in the
	// query adds nothing discriminative
	contained := func(tok string) bool {
		lower := strings.ToLower(tok)
		for _, t := range tokens {
			if strings.Contains(strings.ToLower(t), lower) {
				return true
			}
		}
		return false
	}

	// Model identifier patterns, first match per rule, capped length
	added := 0
	for _, rule := range modelRules {
		if added >= maxModelPatternTokens {
			break
		}
		m := rule.pattern.FindString(title)
		if m == "" {
			continue
		}
		tok := rule.normalize(m)
		if len(tok) > b.maxModelLen {
			tok = tok[:b.maxModelLen]
		}
		if !seen[strings.ToLower(tok)] && !contained(tok) {
			add(tok)
			added++
		}
	}

	// Specification tokens
	added = 0
	for _, rule := range specRules {
		if added >= maxSpecTokens {
			break
		}
		m := rule.pattern.FindString(title)
		if m == "" {
			continue
		}
		tok := rule.normalize(m)
		if !seen[strings.ToLower(tok)] {
			add(tok)
			added++
		}
	}

	// Non-technology brands get descriptive words instead of specs
	if brand.NonTech {
		added = 0
		for _, w := range words {
			if added >= maxDescriptiveTokens {
				break
			}
			tok := cleanToken(w)
			if len(tok) < 3 || !isAlphabetic(tok) {
				continue
			}
			if stopWords[tok] || colorWords[tok] || materialWords[tok] {
				continue
			}
			if seen[tok] {
				continue
			}
			add(tok)
			added++
		}
	}

	return strings.Join(tokens, " ")
}

// buildFallbackQuery tokenizes the title when no brand was detected
func (b *QueryBuilder) buildFallbackQuery(words []string) string {
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(tokens) >= b.maxTokens {
			break
		}
		tok := cleanToken(w)
		if len(tok) < 3 {
			continue
		}
		if stopWords[tok] || colorWords[tok] || materialWords[tok] {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return strings.Join(tokens, " ")
}

// firstProductType returns the first recognized product-category word
func firstProductType(words []string) string {
	for _, w := range words {
		tok := cleanToken(w)
		if productTypeWords[tok] {
			return tok
		}
	}
	return ""
}

// modelWordAfter applies the model-identifier heuristic to the token
// immediately following the brand: mixed case or digit-bearing, and not
// itself a stopword, color, or product-type word.
func modelWordAfter(words []string, anchorIdx int) string {
	if anchorIdx+1 >= len(words) {
		return ""
	}
	w := strings.Trim(words[anchorIdx+1], ",.;:!?")
	lower := strings.ToLower(w)
	if stopWords[lower] || colorWords[lower] || productTypeWords[lower] {
		return ""
	}
	if !looksLikeModel(w) {
		return ""
	}
	return w
}

// looksLikeModel reports mixed-case tokens or tokens containing a digit
func looksLikeModel(w string) bool {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range w {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		}
	}
	return hasDigit || (hasUpper && hasLower)
}

// cleanToken lowercases a word and strips non-alphanumeric characters
func cleanToken(w string) string {
	return nonAlphanumericTokenRegex.ReplaceAllString(strings.ToLower(w), "")
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return len(s) > 0
}
