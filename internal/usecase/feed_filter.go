package usecase

import (
	"strings"
	"sync"
)

// FilterContext is an immutable snapshot of the feed-filter settings.
// It is passed explicitly instead of living in ambient process state;
// a storage-change subscription calls Update with a fresh snapshot.
type FilterContext struct {
	Tags      []string `json:"tags"`
	Blacklist []string `json:"blacklist"`
}

// FeedFilter decides which feed entries to keep and which search
// queries to block, based on the current FilterContext.
type FeedFilter struct {
	mu  sync.RWMutex
	ctx FilterContext
}

// NewFeedFilter creates a feed filter with the initial context
func NewFeedFilter(ctx FilterContext) *FeedFilter {
	return &FeedFilter{ctx: ctx}
}

// Update replaces the filter context. This is the subscription callback
// target for settings changes.
func (f *FeedFilter) Update(ctx FilterContext) {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()
}

// Context returns the current snapshot
func (f *FeedFilter) Context() FilterContext {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ctx
}

// AllowVideo reports whether a feed entry with the given title should
// stay visible. With no tags configured everything is allowed;
// otherwise the title must contain at least one tag.
func (f *FeedFilter) AllowVideo(title string) bool {
	ctx := f.Context()
	if len(ctx.Tags) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, tag := range ctx.Tags {
		if tag == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// BlockSearch reports whether a search query hits the blacklist
func (f *FeedFilter) BlockSearch(query string) bool {
	ctx := f.Context()
	lower := strings.ToLower(query)
	for _, word := range ctx.Blacklist {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}
