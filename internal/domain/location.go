package domain

import (
	"context"
	"math"
	"strings"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether g is a usable coordinate: finite, within range and
// not the (0,0) sentinel that upstream systems write for "unknown".
func (g Geo) Valid() bool {
	if math.IsNaN(g.Lat) || math.IsNaN(g.Lng) || math.IsInf(g.Lat, 0) || math.IsInf(g.Lng, 0) {
		return false
	}
	if g.Lat < -90 || g.Lat > 90 || g.Lng < -180 || g.Lng > 180 {
		return false
	}
	return g.Lat != 0 || g.Lng != 0
}

// Confidence describes how trustworthy a resolved coordinate is.
type Confidence string

const (
	ConfidenceExact       Confidence = "exact"
	ConfidenceApproximate Confidence = "approximate"
	ConfidenceCity        Confidence = "city"
	ConfidenceFallback    Confidence = "fallback"
)

// Rank orders confidences from best (3) to worst (0). Unknown values rank below fallback.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceExact:
		return 3
	case ConfidenceApproximate:
		return 2
	case ConfidenceCity:
		return 1
	case ConfidenceFallback:
		return 0
	default:
		return -1
	}
}

// Routable reports whether a point with this confidence is a real waypoint.
func (c Confidence) Routable() bool {
	return c == ConfidenceExact || c == ConfidenceApproximate
}

// Strategy names the resolution tier that produced a coordinate.
type Strategy string

const (
	StrategyProvided         Strategy = "provided"
	StrategyGenericSkip      Strategy = "generic-skip"
	StrategyCacheHit         Strategy = "cache-hit"
	StrategyGeocoded         Strategy = "geocoded"
	StrategyGazetteer        Strategy = "gazetteer"
	StrategyCityGeocoded     Strategy = "city-geocoded"
	StrategyGeographicCenter Strategy = "geographic-center"
)

// LocationRequest is one location to resolve. Coordinates is nil when the
// itinerary node carries no usable position.
type LocationRequest struct {
	NodeID      string
	Name        string
	Destination string
	Coordinates *Geo
}

// ResolvedCoordinate is the resolver output for a single LocationRequest.
type ResolvedCoordinate struct {
	NodeID     string     `json:"node_id"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Confidence Confidence `json:"confidence"`
	Strategy   Strategy   `json:"strategy"`
}

// Geo returns the coordinate pair.
func (r ResolvedCoordinate) Geo() Geo {
	return Geo{Lat: r.Lat, Lng: r.Lng}
}

// ItineraryNode is the subset of an itinerary day/node record the resolver consumes.
type ItineraryNode struct {
	NodeID          string   `json:"node_id"`
	Title           string   `json:"title"`
	LocationName    string   `json:"location_name"`
	DestinationHint string   `json:"destination_hint,omitempty"`
	ExistingLat     *float64 `json:"existing_lat,omitempty"`
	ExistingLng     *float64 `json:"existing_lng,omitempty"`
}

// ToRequest converts the node into a LocationRequest. The location name falls
// back to the title and the destination hint falls back to the itinerary
// destination. Existing coordinates are kept only when both are present.
func (n ItineraryNode) ToRequest(itineraryDestination string) LocationRequest {
	name := strings.TrimSpace(n.LocationName)
	if name == "" {
		name = strings.TrimSpace(n.Title)
	}

	destination := strings.TrimSpace(n.DestinationHint)
	if destination == "" {
		destination = strings.TrimSpace(itineraryDestination)
	}

	req := LocationRequest{
		NodeID:      n.NodeID,
		Name:        name,
		Destination: destination,
	}
	if n.ExistingLat != nil && n.ExistingLng != nil {
		req.Coordinates = &Geo{Lat: *n.ExistingLat, Lng: *n.ExistingLng}
	}
	return req
}

// ItineraryRequest asks for every node of an itinerary to be resolved.
type ItineraryRequest struct {
	ItineraryID string          `json:"itinerary_id"`
	Destination string          `json:"destination"`
	Nodes       []ItineraryNode `json:"nodes"`
}

// Requests converts the nodes into LocationRequests, preserving order.
func (r ItineraryRequest) Requests() []LocationRequest {
	reqs := make([]LocationRequest, len(r.Nodes))
	for i, n := range r.Nodes {
		reqs[i] = n.ToRequest(r.Destination)
	}
	return reqs
}

// ResolvedItinerary is the resolution result for one ItineraryRequest.
// Coordinates is index-aligned with the request's nodes.
type ResolvedItinerary struct {
	ItineraryID string               `json:"itinerary_id"`
	Destination string               `json:"destination,omitempty"`
	Coordinates []ResolvedCoordinate `json:"coordinates"`
	ResolvedAt  time.Time            `json:"resolved_at"`
}

// NewResolvedItinerary stamps the resolution result with the package clock.
func NewResolvedItinerary(req ItineraryRequest, coords []ResolvedCoordinate) ResolvedItinerary {
	return ResolvedItinerary{
		ItineraryID: req.ItineraryID,
		Destination: req.Destination,
		Coordinates: coords,
		ResolvedAt:  clock.Now().UTC(),
	}
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
