package usecase

import (
	"log"
	"regexp"
	"strings"
)

// Default relevance threshold. Empirically chosen - configurable, not
// known to be optimal.
const defaultRelevanceThreshold = 0.55

// accessoryPhrases mark listings that are accessories or parts rather
// than the product itself. Any hit forces the score to exactly 0.
var accessoryPhrases = []string{
	"compatible with",
	"screen protector",
	"protective case",
	"case for",
	"cover for",
	"replacement for",
	"mount for",
	"stand for",
	"holder for",
	"skin for",
	"band for",
	"strap for",
	"refill for",
}

// accessoryPatterns catch accessory listings the phrase list misses
var accessoryPatterns = []*regexp.Regexp{
	// "... for Apple ...", "... for Samsung ..." - accessory marketed by
	// the brand of the device it attaches to
	regexp.MustCompile(`(?i)\bfor\s+(?:apple|samsung|sony|lg|google|microsoft|dell|hp|lenovo|bose|nintendo)\b`),
	// Chargers, cables and adapters sold separately
	regexp.MustCompile(`(?i)\b(?:charg(?:er|ing)\s+(?:cable|cord|dock|stand|station)|usb(?:-c)?\s+cable|power\s+(?:adapter|cord)|wall\s+charger|car\s+charger)\b`),
}

// synonymVariants canonicalize spelling variants before scoring so
// hyphenated and spaced forms of the same compound word compare equal.
var synonymVariants = map[string]string{
	"wi-fi":       "wifi",
	"wi fi":       "wifi",
	"head-phones": "headphones",
	"head phones": "headphones",
	"ear-buds":    "earbuds",
	"ear buds":    "earbuds",
	"smart-watch": "smartwatch",
	"smart watch": "smartwatch",
	"sound-bar":   "soundbar",
	"sound bar":   "soundbar",
	"play station": "playstation",
	"e-reader":    "ereader",
	"t-shirt":     "tshirt",
}

var scorePunctuationRegex = regexp.MustCompile(`[^\w\s]`)
var scoreSpacesRegex = regexp.MustCompile(`\s+`)

// minStemLength guards the suffix stripper against mangling short words
const minStemLength = 3

// RelevanceScorer filters and ranks candidate listings against the
// original product title.
type RelevanceScorer struct {
	threshold float64
	debug     bool
}

// ScorerConfig holds configuration for the relevance scorer
type ScorerConfig struct {
	RelevanceThreshold float64
	Debug              bool
}

// NewRelevanceScorer creates a scorer, defaulting the threshold when
// the configured value is non-positive.
func NewRelevanceScorer(config ScorerConfig) *RelevanceScorer {
	threshold := config.RelevanceThreshold
	if threshold <= 0 {
		threshold = defaultRelevanceThreshold
	}
	return &RelevanceScorer{threshold: threshold, debug: config.Debug}
}

// Threshold returns the configured acceptance threshold.
func (s *RelevanceScorer) Threshold() float64 {
	return s.threshold
}

// Accepts reports whether a score clears the acceptance threshold.
func (s *RelevanceScorer) Accepts(score float64) bool {
	return score >= s.threshold
}

// IsAccessory reports whether a candidate title describes an accessory
// listing. This is a hard gate: an accessory match forces the relevance
// score to 0 regardless of token overlap.
func IsAccessory(title string) bool {
	lower := strings.ToLower(title)
	for _, phrase := range accessoryPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, pattern := range accessoryPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// normalizeForScoring lowercases, canonicalizes synonym variants,
// strips punctuation to spaces, and collapses whitespace.
func normalizeForScoring(s string) string {
	s = strings.ToLower(s)
	for variant, canonical := range synonymVariants {
		s = strings.ReplaceAll(s, variant, canonical)
	}
	s = scorePunctuationRegex.ReplaceAllString(s, " ")
	s = scoreSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stemToken strips common English suffixes so plural and verb-form
// mismatches still count as matches. Ordered from longest suffix down;
// a rule only applies when the remaining stem is long enough.
func stemToken(token string) string {
	switch {
	case strings.HasSuffix(token, "ies") && len(token)-3 >= minStemLength:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "ing") && len(token)-3 >= minStemLength+1:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ers") && len(token)-3 >= minStemLength:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "er") && len(token)-2 >= minStemLength:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "es") && len(token)-2 >= minStemLength:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token)-1 >= minStemLength:
		return token[:len(token)-1]
	}
	return token
}

// Score computes the relevance of a candidate title against the query
// (the original product title in practice, for highest fidelity).
// Returns a value in [0,1]. Accessory listings, brand mismatches, and
// missing core tokens all score exactly 0.
func (s *RelevanceScorer) Score(query, candidateTitle string) float64 {
	if query == "" || candidateTitle == "" {
		return 0
	}

	// Accessory hard gate
	if IsAccessory(candidateTitle) {
		if s.debug {
			log.Printf("[SCORE] accessory gate: %q", candidateTitle)
		}
		return 0
	}

	normQuery := normalizeForScoring(query)
	normCandidate := normalizeForScoring(candidateTitle)

	queryTokens := strings.Fields(normQuery)
	if len(queryTokens) == 0 {
		return 0
	}

	candidateTokens := strings.Fields(normCandidate)
	candidateSet := make(map[string]bool, len(candidateTokens))
	candidateStems := make(map[string]bool, len(candidateTokens))
	for _, t := range candidateTokens {
		candidateSet[t] = true
		candidateStems[stemToken(t)] = true
	}

	matches := func(token string) bool {
		if candidateSet[token] || candidateStems[stemToken(token)] {
			return true
		}
		return strings.Contains(normCandidate, token)
	}

	// Brand gate: a query that leads with a known brand rejects any
	// candidate that does not mention it
	if IsKnownBrand(queryTokens[0]) && !matches(queryTokens[0]) {
		if s.debug {
			log.Printf("[SCORE] brand gate: %q missing %q", candidateTitle, queryTokens[0])
		}
		return 0
	}

	// Core-token gate: the first query token (brand or dominant noun)
	// must appear in the candidate
	if !matches(queryTokens[0]) {
		if s.debug {
			log.Printf("[SCORE] core-token gate: %q missing %q", candidateTitle, queryTokens[0])
		}
		return 0
	}

	matched := 0
	total := 0
	for _, token := range queryTokens {
		if stopWords[token] {
			continue
		}
		total++
		if matches(token) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}

	score := float64(matched) / float64(total)
	if s.debug {
		log.Printf("[SCORE] %q vs %q = %.2f (%d/%d)", query, candidateTitle, score, matched, total)
	}
	return score
}
