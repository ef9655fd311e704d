package domain

import "errors"

var (
	// ErrNoProduct is returned when a page yields no usable product title
	ErrNoProduct = errors.New("no product detected on page")

	// ErrUnsupportedSite is returned for pages on retailers we do not track
	ErrUnsupportedSite = errors.New("unsupported retailer")

	// ErrBackendFailure is returned when a search backend request fails
	ErrBackendFailure = errors.New("search backend request failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
