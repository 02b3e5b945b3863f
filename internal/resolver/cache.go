package resolver

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
)

// Tier selects one of the two cache namespaces. "Paris" as a city and
// "Paris" as a venue name never collide.
type Tier int

const (
	TierCity Tier = iota
	TierVenue
)

func (t Tier) String() string {
	if t == TierCity {
		return "city"
	}
	return "venue"
}

// DefaultVenueCapacity bounds the venue tier when no capacity is given.
const DefaultVenueCapacity = 1000

// Cache is the session-scoped, in-memory resolution cache. The venue tier
// evicts least recently used entries beyond its capacity; the city tier is
// unbounded. Safe for concurrent use.
type Cache struct {
	venues *lru.Cache[string, domain.ResolvedCoordinate]

	mu     sync.RWMutex
	cities map[string]domain.ResolvedCoordinate

	// writeMu serialises read-compare-write in Store so a concurrent store
	// can never replace a better value with a worse one.
	writeMu  sync.Mutex
	disposed atomic.Bool
}

// NewCache creates a cache whose venue tier holds at most venueCapacity
// entries. onEvict, when non-nil, is called for every evicted venue key.
func NewCache(venueCapacity int, onEvict func(key string)) (*Cache, error) {
	if venueCapacity <= 0 {
		venueCapacity = DefaultVenueCapacity
	}

	var evict func(string, domain.ResolvedCoordinate)
	if onEvict != nil {
		evict = func(key string, _ domain.ResolvedCoordinate) { onEvict(key) }
	}

	venues, err := lru.NewWithEvict[string, domain.ResolvedCoordinate](venueCapacity, evict)
	if err != nil {
		return nil, fmt.Errorf("create venue cache: %w", err)
	}
	return &Cache{
		venues: venues,
		cities: make(map[string]domain.ResolvedCoordinate),
	}, nil
}

// Lookup returns the cached coordinate for key in the given tier.
func (c *Cache) Lookup(key string, tier Tier) (domain.ResolvedCoordinate, bool) {
	if key == "" {
		return domain.ResolvedCoordinate{}, false
	}
	if tier == TierVenue {
		return c.venues.Get(key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cities[key]
	return v, ok
}

// Store upserts value under key. An existing entry with better confidence is
// kept. Stores after Dispose are ignored. The stored value carries no node ID.
func (c *Cache) Store(key string, tier Tier, value domain.ResolvedCoordinate) {
	if key == "" || c.disposed.Load() {
		return
	}
	value.NodeID = ""

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.disposed.Load() {
		return
	}
	if existing, ok := c.peek(key, tier); ok && existing.Confidence.Rank() > value.Confidence.Rank() {
		return
	}

	if tier == TierVenue {
		c.venues.Add(key, value)
		return
	}
	c.mu.Lock()
	c.cities[key] = value
	c.mu.Unlock()
}

// peek reads without touching venue recency.
func (c *Cache) peek(key string, tier Tier) (domain.ResolvedCoordinate, bool) {
	if tier == TierVenue {
		return c.venues.Peek(key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cities[key]
	return v, ok
}

// len returns the number of entries in the tier.
func (c *Cache) len(tier Tier) int {
	if tier == TierVenue {
		return c.venues.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cities)
}

// Dispose turns every later Store into a no-op. Lookups keep working.
func (c *Cache) Dispose() {
	c.disposed.Store(true)
}

// isDisposed reports whether Dispose has been called.
func (c *Cache) isDisposed() bool {
	return c.disposed.Load()
}

// VenueKey is the venue-tier key for a name in a destination.
func VenueKey(name, destination string) string {
	n := domain.Normalize(name)
	if n == "" {
		return ""
	}
	return n + "|" + domain.Normalize(destination)
}

// CityKey is the city-tier key for a destination.
func CityKey(destination string) string {
	return domain.Normalize(destination)
}
