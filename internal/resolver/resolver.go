// Package resolver turns itinerary location requests into confidence-tagged
// coordinates while keeping paid geocoding calls to a minimum.
//
// Each request walks the tiers below and stops at the first that answers:
//
//	provided          valid coordinates on the request            exact
//	generic-skip      generic name, destination city center       city
//	cache-hit         venue already resolved in this session      inherited
//	geocoded          specific venue geocoded                     approximate
//	gazetteer         destination found in the city table         city
//	city-geocoded     destination geocoded once per session       city
//	geographic-center nothing better known                        fallback
//
// Concurrent requests for the same venue or city share one geocoding call.
package resolver

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/observability"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 200 * time.Millisecond

	scopeVenue = "venue"
	scopeCity  = "city"
)

// Options tunes batching and the last-resort coordinate.
type Options struct {
	// BatchSize is the number of requests resolved concurrently.
	BatchSize int
	// BatchDelay is the pause between batches that issued geocoding calls.
	BatchDelay time.Duration
	// Fallback is returned with confidence fallback when nothing else resolves.
	Fallback domain.Geo
	// Clock times batch delays and durations. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultOptions returns batches of 5 with a 200ms delay and a (0,0) fallback.
func DefaultOptions() Options {
	return Options{BatchSize: DefaultBatchSize, BatchDelay: DefaultBatchDelay}
}

// Resolver orchestrates classification, caching, the gazetteer and the
// geocoder. A nil geocoder disables every paid tier.
type Resolver struct {
	geocoder  domain.Geocoder
	gazetteer *domain.Gazetteer
	cache     *Cache
	opts      Options
	clock     clockwork.Clock
	flights   singleflight.Group
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Resolver. The resolver is the only writer of cache.
func New(
	geocoder domain.Geocoder,
	gazetteer *domain.Gazetteer,
	cache *Cache,
	opts Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Resolver{
		geocoder:  geocoder,
		gazetteer: gazetteer,
		cache:     cache,
		opts:      opts,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve resolves a single request. It never fails; the worst outcome is the
// fallback coordinate.
func (r *Resolver) Resolve(ctx context.Context, req domain.LocationRequest) domain.ResolvedCoordinate {
	out, _ := r.resolve(ctx, req)
	r.observe(out)
	return out
}

// ResolveAll resolves reqs and returns one coordinate per request in input
// order. Requests with coordinates are answered inline. Requests that may
// need the network run in batches of Options.BatchSize, with Options.BatchDelay
// between batches that actually called the geocoder. Generic requests run
// last so they can reuse city centers geocoded by the batches.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []domain.LocationRequest) []domain.ResolvedCoordinate {
	start := r.clock.Now()
	out := make([]domain.ResolvedCoordinate, len(reqs))

	var networked, generic []int
	for i, req := range reqs {
		switch {
		case hasValidCoordinates(req):
			out[i] = provided(req)
		case domain.IsGeneric(req.Name):
			generic = append(generic, i)
		default:
			networked = append(networked, i)
		}
	}

	calledLast := false
	for lo := 0; lo < len(networked); lo += r.opts.BatchSize {
		if calledLast {
			r.sleepWithContext(ctx, r.opts.BatchDelay)
		}
		if ctx.Err() != nil {
			// Caller is gone: answer the rest from the zero-cost tiers.
			for _, i := range networked[lo:] {
				out[i], _ = r.resolve(ctx, reqs[i])
			}
			break
		}
		hi := min(lo+r.opts.BatchSize, len(networked))
		calledLast = r.resolveBatch(ctx, reqs, networked[lo:hi], out)
	}

	for _, i := range generic {
		out[i] = r.resolveGeneric(reqs[i])
	}

	for _, c := range out {
		r.observe(c)
	}
	r.metrics.ItineraryNodes.Observe(float64(len(reqs)))
	r.metrics.ResolveDuration.Observe(r.clock.Since(start).Seconds())
	return out
}

// Close disposes the cache. Geocodes still in flight finish but their results
// are discarded.
func (r *Resolver) Close() {
	r.cache.Dispose()
}

// resolveBatch resolves the requests at idx concurrently, writing each result
// at its own index. It reports whether any resolution called the geocoder.
func (r *Resolver) resolveBatch(ctx context.Context, reqs []domain.LocationRequest, idx []int, out []domain.ResolvedCoordinate) bool {
	var called atomic.Bool
	var g errgroup.Group
	g.SetLimit(r.opts.BatchSize)
	for _, i := range idx {
		g.Go(func() error {
			coord, network := r.resolve(ctx, reqs[i])
			out[i] = coord
			if network {
				called.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return called.Load()
}

// resolve walks the tiers for req and reports whether this call issued a
// geocoding request.
func (r *Resolver) resolve(ctx context.Context, req domain.LocationRequest) (domain.ResolvedCoordinate, bool) {
	if hasValidCoordinates(req) {
		return provided(req), false
	}

	class := domain.Classify(req.Name)
	if class == domain.ClassGeneric {
		return r.resolveGeneric(req), false
	}

	key := VenueKey(req.Name, req.Destination)
	if hit, ok := r.lookup(key, TierVenue); ok {
		return withNode(hit, req.NodeID, domain.StrategyCacheHit), false
	}

	if class != domain.ClassSpecific || r.geocoder == nil || ctx.Err() != nil {
		coord, called, _ := r.resolveCity(ctx, req)
		return coord, called
	}

	res, leader, done := r.coalesce(ctx, key, scopeVenue, func(fctx context.Context) flightResult {
		return r.geocodeVenue(fctx, req, key)
	})
	if done && res.ok {
		switch {
		case res.cached || (!leader && res.stable):
			return withNode(res.coord, req.NodeID, domain.StrategyCacheHit), false
		default:
			return withNode(res.coord, req.NodeID, res.coord.Strategy), leader && res.network
		}
	}

	coord, cityCalled, _ := r.resolveCity(ctx, req)
	return coord, cityCalled || (leader && res.network)
}

// geocodeVenue runs inside the venue flight. A permanent failure resolves the
// city tier here and, when that answer is stable, caches it under the venue
// key so the venue is not paid for again in this session.
func (r *Resolver) geocodeVenue(ctx context.Context, req domain.LocationRequest, key string) flightResult {
	if hit, ok := r.cache.Lookup(key, TierVenue); ok {
		return flightResult{coord: hit, ok: true, cached: true, stable: true}
	}

	geo, err := r.geocode(ctx, scopeVenue, venueQuery(req))
	if err == nil {
		coord := domain.ResolvedCoordinate{
			Lat:        geo.Lat,
			Lng:        geo.Lng,
			Confidence: domain.ConfidenceApproximate,
			Strategy:   domain.StrategyGeocoded,
		}
		r.cache.Store(key, TierVenue, coord)
		return flightResult{coord: coord, ok: true, network: true, stable: true}
	}

	r.logger.Warn("venue geocoding failed",
		"node_id", req.NodeID,
		"query", venueQuery(req),
		"kind", domain.KindOf(err).String(),
		"error", err,
	)
	if !domain.IsPermanent(err) {
		return flightResult{network: true, err: err}
	}

	coord, _, stable := r.resolveCity(ctx, req)
	if stable {
		r.cache.Store(key, TierVenue, coord)
	}
	return flightResult{coord: coord, ok: true, network: true, stable: stable, err: err}
}

// resolveGeneric answers generic names without touching the geocoder.
func (r *Resolver) resolveGeneric(req domain.LocationRequest) domain.ResolvedCoordinate {
	if geo, ok := r.gazetteer.Lookup(req.Destination); ok {
		return cityCoordinate(req.NodeID, geo, domain.StrategyGenericSkip)
	}
	if hit, ok := r.lookup(CityKey(req.Destination), TierCity); ok {
		if hit.Confidence == domain.ConfidenceCity {
			return withNode(hit, req.NodeID, domain.StrategyGenericSkip)
		}
		return withNode(hit, req.NodeID, hit.Strategy)
	}
	return r.fallback(req.NodeID)
}

// resolveCity is the city-center tier: gazetteer, city cache, one coalesced
// city geocode, then the fallback center. It reports whether a geocoding
// request was issued and whether the answer is stable for the session, i.e.
// not the product of a transient failure or a cancelled caller.
func (r *Resolver) resolveCity(ctx context.Context, req domain.LocationRequest) (coord domain.ResolvedCoordinate, called, stable bool) {
	if geo, ok := r.gazetteer.Lookup(req.Destination); ok {
		return cityCoordinate(req.NodeID, geo, domain.StrategyGazetteer), false, true
	}

	key := CityKey(req.Destination)
	if hit, ok := r.lookup(key, TierCity); ok {
		return withNode(hit, req.NodeID, hit.Strategy), false, true
	}
	if r.geocoder == nil || key == "" {
		return r.fallback(req.NodeID), false, true
	}
	if ctx.Err() != nil {
		return r.fallback(req.NodeID), false, false
	}

	res, leader, done := r.coalesce(ctx, "city:"+key, scopeCity, func(fctx context.Context) flightResult {
		return r.geocodeCity(fctx, req.Destination, key)
	})
	if done && res.ok {
		return withNode(res.coord, req.NodeID, res.coord.Strategy), leader && res.network, true
	}
	return r.fallback(req.NodeID), leader && res.network, false
}

// geocodeCity runs inside the city flight. Permanent failures cache the
// fallback center for the destination.
func (r *Resolver) geocodeCity(ctx context.Context, destination, key string) flightResult {
	if hit, ok := r.cache.Lookup(key, TierCity); ok {
		return flightResult{coord: hit, ok: true, cached: true}
	}

	geo, err := r.geocode(ctx, scopeCity, destination)
	if err == nil {
		coord := cityCoordinate("", geo, domain.StrategyCityGeocoded)
		r.cache.Store(key, TierCity, coord)
		return flightResult{coord: coord, ok: true, network: true}
	}

	r.logger.Warn("city geocoding failed",
		"query", destination,
		"kind", domain.KindOf(err).String(),
		"error", err,
	)
	if !domain.IsPermanent(err) {
		return flightResult{network: true, err: err}
	}

	coord := r.fallback("")
	r.cache.Store(key, TierCity, coord)
	return flightResult{coord: coord, ok: true, network: true, err: err}
}

// flightResult is shared by every caller waiting on the same flight.
type flightResult struct {
	coord   domain.ResolvedCoordinate
	ok      bool
	cached  bool
	network bool
	// stable results are cached; unstable ones come from a transient failure.
	stable bool
	err    error
}

// coalesce runs fn once per key across concurrent callers. fn runs detached
// from the caller's cancellation. A caller whose ctx ends stops waiting and
// gets done=false; the flight still completes and fills the cache.
func (r *Resolver) coalesce(ctx context.Context, key, scope string, fn func(context.Context) flightResult) (res flightResult, leader, done bool) {
	ran := false
	ch := r.flights.DoChan(key, func() (any, error) {
		ran = true
		return fn(context.WithoutCancel(ctx)), nil
	})

	select {
	case v := <-ch:
		if !ran {
			r.metrics.CoalescedWaits.WithLabelValues(scope).Inc()
		}
		return v.Val.(flightResult), ran, true
	case <-ctx.Done():
		r.logger.Debug("resolution abandoned", "key", key, "error", ctx.Err())
		return flightResult{}, false, false
	}
}

// geocode issues one paid call. Results outside the valid coordinate range
// are treated as not found.
func (r *Resolver) geocode(ctx context.Context, scope, query string) (domain.Geo, error) {
	geo, err := r.geocoder.Geocode(ctx, query)
	if err == nil && !geo.Valid() {
		err = domain.NewGeocodeError(domain.ErrorKindNotFound, query, nil)
	}

	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	r.metrics.GeocodeRequests.WithLabelValues(scope, outcome).Inc()
	return geo, err
}

func (r *Resolver) lookup(key string, tier Tier) (domain.ResolvedCoordinate, bool) {
	v, ok := r.cache.Lookup(key, tier)
	result := "miss"
	if ok {
		result = "hit"
	}
	r.metrics.CacheLookups.WithLabelValues(tier.String(), result).Inc()
	return v, ok
}

func (r *Resolver) fallback(nodeID string) domain.ResolvedCoordinate {
	return domain.ResolvedCoordinate{
		NodeID:     nodeID,
		Lat:        r.opts.Fallback.Lat,
		Lng:        r.opts.Fallback.Lng,
		Confidence: domain.ConfidenceFallback,
		Strategy:   domain.StrategyGeographicCenter,
	}
}

func (r *Resolver) observe(c domain.ResolvedCoordinate) {
	r.metrics.Resolutions.WithLabelValues(string(c.Strategy), string(c.Confidence)).Inc()
	r.logger.Debug("location resolved",
		"node_id", c.NodeID,
		"strategy", c.Strategy,
		"confidence", c.Confidence,
	)
}

// sleepWithContext waits for d on the resolver clock or until ctx is done.
func (r *Resolver) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-r.clock.After(d):
	}
}

func hasValidCoordinates(req domain.LocationRequest) bool {
	return req.Coordinates != nil && req.Coordinates.Valid()
}

func provided(req domain.LocationRequest) domain.ResolvedCoordinate {
	return domain.ResolvedCoordinate{
		NodeID:     req.NodeID,
		Lat:        req.Coordinates.Lat,
		Lng:        req.Coordinates.Lng,
		Confidence: domain.ConfidenceExact,
		Strategy:   domain.StrategyProvided,
	}
}

func cityCoordinate(nodeID string, geo domain.Geo, strategy domain.Strategy) domain.ResolvedCoordinate {
	return domain.ResolvedCoordinate{
		NodeID:     nodeID,
		Lat:        geo.Lat,
		Lng:        geo.Lng,
		Confidence: domain.ConfidenceCity,
		Strategy:   strategy,
	}
}

func withNode(c domain.ResolvedCoordinate, nodeID string, strategy domain.Strategy) domain.ResolvedCoordinate {
	c.NodeID = nodeID
	c.Strategy = strategy
	return c
}

func venueQuery(req domain.LocationRequest) string {
	if req.Destination == "" {
		return req.Name
	}
	return req.Name + ", " + req.Destination
}
