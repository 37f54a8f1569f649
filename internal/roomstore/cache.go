package roomstore

import (
	"time"

	"roomchat/internal/codec"
)

// cacheEntry wraps a cached value with its save time.
type cacheEntry[T any] struct {
	SavedAt int64 `json:"saved_at"`
	Value   T     `json:"value"`
}

// PutCache stores v as a disposable entry. Cached data is the first thing
// purged on quota overflow.
func PutCache[T any](s *Store, name string, v T) bool {
	entry := cacheEntry[T]{SavedAt: s.now().UnixMilli(), Value: v}
	return s.write(cacheKeyPrefix+name, codec.Encode(entry), true)
}

// GetCache returns the cached value when present and younger than maxAge.
// maxAge <= 0 disables expiry.
func GetCache[T any](s *Store, name string, maxAge time.Duration) (T, bool) {
	var zero T
	key := cacheKeyPrefix + name
	raw, ok := s.read(key)
	if !ok {
		return zero, false
	}
	entry := codec.Decode(s.log, key, raw, true, cacheEntry[T]{})
	if entry.SavedAt == 0 {
		return zero, false
	}
	if maxAge > 0 && s.now().Sub(time.UnixMilli(entry.SavedAt)) > maxAge {
		return zero, false
	}
	return entry.Value, true
}
