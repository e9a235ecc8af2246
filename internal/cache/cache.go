package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a verification response: one entry per
// source per citation, so a citation seen again in another document
// reuses the answer instead of hitting the source.
func Key(source, citation string) string {
	hash := sha256.Sum256([]byte(source + "|" + citation))
	return "citecheck:v1:" + hex.EncodeToString(hash[:])
}
