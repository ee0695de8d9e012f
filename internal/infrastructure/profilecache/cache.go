// Package profilecache memoizes profile identities for a fixed TTL.
package profilecache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/profile"
)

// DefaultTTL is how long a resolved identity is served from memory.
const DefaultTTL = 5 * time.Minute

type entry struct {
	identity  profile.Identity
	expiresAt time.Time
}

// Cache wraps a Resolver with a TTL cache. Profile writes must call
// Invalidate so renamed users show up before the TTL runs out.
type Cache struct {
	next    profile.Resolver
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
	logger  zerolog.Logger
}

func New(next profile.Resolver, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]entry),
		logger:  logger.With().Str("component", "profile_cache").Logger(),
	}
}

// Resolve serves fresh entries from memory and fetches the rest in one call.
func (c *Cache) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Identity, error) {
	out := make(map[uuid.UUID]profile.Identity, len(ids))
	var missing []uuid.UUID
	now := c.now()

	c.mu.RLock()
	for _, id := range ids {
		if e, ok := c.entries[id]; ok && now.Before(e.expiresAt) {
			out[id] = e.identity
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}
	fetched, err := c.next.Resolve(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for id, identity := range fetched {
		c.entries[id] = entry{identity: identity, expiresAt: now.Add(c.ttl)}
		out[id] = identity
	}
	c.mu.Unlock()
	c.logger.Debug().Int("hits", len(ids)-len(missing)).Int("misses", len(missing)).Msg("profiles resolved")
	return out, nil
}

// Invalidate drops one user's cached identity.
func (c *Cache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Clear drops every cached identity.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]entry)
}

// Len reports how many identities are held, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
