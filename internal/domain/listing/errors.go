package listing

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrNotListingOwner    = errors.New("not the listing owner")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidPriceRange  = errors.New("price_min must not exceed price_max")
	ErrTooManyImages      = errors.New("listing image limit reached")
	ErrStorageUnavailable = errors.New("file storage is not configured")
)
