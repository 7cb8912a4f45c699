package catalog

import "errors"

var (
	// ErrFetchFailed is returned when the remote catalog cannot be obtained
	ErrFetchFailed = errors.New("permission catalog fetch failed")

	// ErrCacheCorrupt marks a persisted record that cannot be decoded.
	// The cache recovers from it locally and never returns it to callers.
	ErrCacheCorrupt = errors.New("permission catalog cache record is corrupt")

	// ErrInvalidCatalog is returned when a catalog breaks the code invariants
	ErrInvalidCatalog = errors.New("invalid permission catalog")

	// ErrMissingToken is returned when a fetch is attempted without an identity token
	ErrMissingToken = errors.New("identity token is required")
)
