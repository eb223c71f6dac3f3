package session

import "errors"

// Precondition failures. These are caught locally before any network call and
// are never sent to the relay.
var (
	// ErrNotConnected means no wallet identity is bound yet.
	ErrNotConnected = errors.New("no connected wallet")

	// ErrNoActiveSession means there is no session for the connected user.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionExpired means the session exists but its expiry has passed
	// on the local clock.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidPriceRange means priceMin is not strictly below priceMax.
	ErrInvalidPriceRange = errors.New("priceMin must be strictly less than priceMax")
)
