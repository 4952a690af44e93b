package domain

import "errors"

var (
	// ErrInvalidInput is returned when the ingredient list is empty or malformed
	ErrInvalidInput = errors.New("invalid ingredient list")

	// ErrKnowledgeBase is returned when the catalog cannot be loaded or is structurally invalid
	ErrKnowledgeBase = errors.New("knowledge base error")

	// ErrInternalMatching is returned when an analysis would violate the token partition
	ErrInternalMatching = errors.New("internal matching error")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogSourceFailure is returned when a remote catalog endpoint cannot be read
	ErrCatalogSourceFailure = errors.New("catalog source request failed")
)
