package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
)

var (
	approxTaj = domain.ResolvedCoordinate{Lat: 27.1751, Lng: 78.0421, Confidence: domain.ConfidenceApproximate, Strategy: domain.StrategyGeocoded}
	cityAgra  = domain.ResolvedCoordinate{Lat: 27.1767, Lng: 78.0081, Confidence: domain.ConfidenceCity, Strategy: domain.StrategyGazetteer}
)

func newTestCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c, err := NewCache(capacity, nil)
	require.NoError(t, err)
	return c
}

func TestCache_LookupStore(t *testing.T) {
	c := newTestCache(t, 10)

	_, ok := c.Lookup("taj mahal|agra", TierVenue)
	assert.False(t, ok)

	c.Store("taj mahal|agra", TierVenue, approxTaj)
	got, ok := c.Lookup("taj mahal|agra", TierVenue)
	require.True(t, ok)
	assert.Equal(t, approxTaj, got)
}

func TestCache_TiersAreIndependent(t *testing.T) {
	c := newTestCache(t, 10)

	c.Store("paris", TierCity, cityAgra)
	_, ok := c.Lookup("paris", TierVenue)
	assert.False(t, ok)
	assert.Equal(t, 1, c.len(TierCity))
	assert.Zero(t, c.len(TierVenue))
}

func TestCache_StoreStripsNodeID(t *testing.T) {
	c := newTestCache(t, 10)
	v := approxTaj
	v.NodeID = "node-7"

	c.Store("k", TierVenue, v)
	got, _ := c.Lookup("k", TierVenue)
	assert.Empty(t, got.NodeID)
}

func TestCache_NeverDowngrades(t *testing.T) {
	c := newTestCache(t, 10)

	c.Store("k", TierVenue, approxTaj)
	c.Store("k", TierVenue, cityAgra)
	got, _ := c.Lookup("k", TierVenue)
	assert.Equal(t, domain.ConfidenceApproximate, got.Confidence)

	c.Store("city", TierCity, domain.ResolvedCoordinate{Confidence: domain.ConfidenceFallback, Strategy: domain.StrategyGeographicCenter})
	c.Store("city", TierCity, cityAgra)
	got, _ = c.Lookup("city", TierCity)
	assert.Equal(t, domain.ConfidenceCity, got.Confidence, "upgrades are allowed")
}

func TestCache_EvictsLeastRecentlyUsedVenue(t *testing.T) {
	var evicted []string
	c, err := NewCache(2, func(key string) { evicted = append(evicted, key) })
	require.NoError(t, err)

	c.Store("a", TierVenue, approxTaj)
	c.Store("b", TierVenue, approxTaj)
	_, _ = c.Lookup("a", TierVenue)
	c.Store("c", TierVenue, approxTaj)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.len(TierVenue))
	_, ok := c.Lookup("a", TierVenue)
	assert.True(t, ok)
}

func TestCache_CityTierIsUnbounded(t *testing.T) {
	c := newTestCache(t, 1)
	for _, k := range []string{"agra", "delhi", "jaipur"} {
		c.Store(k, TierCity, cityAgra)
	}
	assert.Equal(t, 3, c.len(TierCity))
}

func TestCache_DisposeIgnoresStores(t *testing.T) {
	c := newTestCache(t, 10)
	c.Store("kept", TierVenue, approxTaj)

	c.Dispose()
	assert.True(t, c.isDisposed())

	c.Store("late", TierVenue, approxTaj)
	_, ok := c.Lookup("late", TierVenue)
	assert.False(t, ok)
	_, ok = c.Lookup("kept", TierVenue)
	assert.True(t, ok)
}

func TestCache_EmptyKey(t *testing.T) {
	c := newTestCache(t, 10)
	c.Store("", TierCity, cityAgra)
	_, ok := c.Lookup("", TierCity)
	assert.False(t, ok)
}

func TestNewCache_DefaultCapacity(t *testing.T) {
	c := newTestCache(t, 0)
	for i := range DefaultVenueCapacity + 5 {
		c.Store(fmt.Sprintf("venue-%d", i), TierVenue, approxTaj)
	}
	assert.Equal(t, DefaultVenueCapacity, c.len(TierVenue))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cafe de flore|paris", VenueKey("  Café de  Flore", "PARIS"))
	assert.Equal(t, VenueKey("Eiffel Tower", "Paris"), VenueKey("eiffel tower ", " paris"))
	assert.NotEqual(t, VenueKey("Hard Rock Cafe", "Paris"), VenueKey("Hard Rock Cafe", "London"))
	assert.Empty(t, VenueKey("  ", "Paris"))
	assert.Equal(t, "new york", CityKey(" New  York "))
}
