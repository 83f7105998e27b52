package user

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/caseforge/caseforge/internal/domain"
)

// CacheSchemaVersion is the current version of the cache schema.
// Increment this when the cached data structure changes to auto-invalidate old entries.
const CacheSchemaVersion = "1.0"

// cachedUserEntry wraps a user with version metadata for cache invalidation
type cachedUserEntry struct {
	Version  string      `json:"version"`
	User     domain.User `json:"user"`
	CachedAt time.Time   `json:"cached_at"`
}

// userCache provides an in-memory LRU cache for username lookups
// with time-based expiration and version-based invalidation.
type userCache struct {
	lru *expirable.LRU[string, *cachedUserEntry]
}

// newUserCache creates a new user cache with the specified size and TTL.
func newUserCache(size int, ttl time.Duration) *userCache {
	return &userCache{
		lru: expirable.NewLRU[string, *cachedUserEntry](size, nil, ttl),
	}
}

// Get retrieves a user from the cache by username.
// Returns (user, false) if not in cache, expired, or version mismatch.
// Automatically invalidates entries with mismatched versions.
func (c *userCache) Get(username string) (domain.User, bool) {
	entry, found := c.lru.Get(username)
	if !found {
		return domain.User{}, false
	}

	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(username)
		return domain.User{}, false
	}

	return entry.User, true
}

// Set stores a user in the cache with current schema version.
func (c *userCache) Set(username string, user domain.User) {
	c.lru.Add(username, &cachedUserEntry{
		Version:  CacheSchemaVersion,
		User:     user,
		CachedAt: time.Now(),
	})
}

// Invalidate removes a user from the cache after a profile or balance update.
func (c *userCache) Invalidate(username string) {
	c.lru.Remove(username)
}

// Clear removes all entries from the cache.
func (c *userCache) Clear() {
	c.lru.Purge()
}
