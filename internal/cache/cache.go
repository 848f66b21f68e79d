package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores generated letters keyed by their normalized prompt.
type Cache interface {
	// GetLetter returns the cached letter for key.
	// Returns nil if not found
	GetLetter(ctx context.Context, key string) (*Letter, error)

	// SetLetter stores a letter with TTL
	SetLetter(ctx context.Context, key string, letter *Letter, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Letter is a cached generation result.
type Letter struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Key derives a cache key from the model and the user's description.
// Descriptions differing only in case or surrounding whitespace share a key.
func Key(model, description string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(description), " "))
	sum := sha256.Sum256([]byte(model + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}
