package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Error taxonomy for the authorization core. Unknown client and wrong
// secret both surface as ErrInvalidClient so callers cannot enumerate
// registered clients.
var (
	ErrInvalidClient        = errors.New("client authentication failed")
	ErrInvalidGrant         = errors.New("invalid grant")
	ErrInvalidScope         = errors.New("requested scope exceeds granted scope")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrNotFound             = errors.New("not found")
)

// classifyStoreErr separates record absence from infrastructure
// failure. A store timeout must never be read as "not found": that
// would let an attacker distinguish outage from absence and would let
// public-client bypass logic proceed on stale grounds.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	// Timeouts, cancellations and any other driver failure are all
	// retriable infrastructure conditions.
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
