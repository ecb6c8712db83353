package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed webhook event keys so a retried
// delivery does not mutate state twice.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Remove forgets a key so the gateway's redelivery is accepted.
	// Called when processing failed after the key was marked.
	Remove(ctx context.Context, key string) error

	// Close releases store resources
	Close() error
}

// IdempotencyConfig holds configuration for webhook idempotency
type IdempotencyConfig struct {
	// TTL is how long processed keys are remembered. Gateways retry
	// failed deliveries for up to 72 hours, so the window must cover that.
	TTL time.Duration

	// Enabled toggles idempotency checking
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     72 * time.Hour,
		Enabled: true,
	}
}
