// Package mapview turns resolved coordinates into what a map renderer needs:
// colored markers, an ordered route and a viewport.
package mapview

import (
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
)

// Marker colors by confidence.
const (
	ColorExact       = "#2563eb"
	ColorApproximate = "#7c3aed"
	ColorCity        = "#f59e0b"
	ColorFallback    = "#9ca3af"
)

// minSpan is the smallest bounding box edge in degrees. A single point or a
// set of identical points is padded to this size so the viewport has an area.
const minSpan = 0.02

// Marker is a single pin on the map.
type Marker struct {
	NodeID     string            `json:"node_id"`
	Lat        float64           `json:"lat"`
	Lng        float64           `json:"lng"`
	Confidence domain.Confidence `json:"confidence"`
	Color      string            `json:"color"`
	// Routed is true when the marker is part of the route polyline.
	Routed bool `json:"routed"`
}

// Bounds is a south-west / north-east bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// WorldBounds is used when there is nothing to show.
var WorldBounds = Bounds{South: -85, West: -180, North: 85, East: 180}

// View is the render contract handed to the map surface.
type View struct {
	Markers []Marker     `json:"markers"`
	Route   []domain.Geo `json:"route"`
	Bounds  Bounds       `json:"bounds"`
}

// Build produces the view for coords. Every coordinate gets a marker; only
// exact and approximate points join the route, in input order. The bounds
// cover every marker, including city and fallback ones.
func Build(coords []domain.ResolvedCoordinate) View {
	v := View{
		Markers: make([]Marker, 0, len(coords)),
		Route:   make([]domain.Geo, 0, len(coords)),
		Bounds:  WorldBounds,
	}
	if len(coords) == 0 {
		return v
	}

	b := Bounds{South: 90, West: 180, North: -90, East: -180}
	for _, c := range coords {
		routed := c.Confidence.Routable()
		v.Markers = append(v.Markers, Marker{
			NodeID:     c.NodeID,
			Lat:        c.Lat,
			Lng:        c.Lng,
			Confidence: c.Confidence,
			Color:      Color(c.Confidence),
			Routed:     routed,
		})
		if routed {
			v.Route = append(v.Route, c.Geo())
		}
		b.South = min(b.South, c.Lat)
		b.North = max(b.North, c.Lat)
		b.West = min(b.West, c.Lng)
		b.East = max(b.East, c.Lng)
	}
	v.Bounds = pad(b)
	return v
}

// Color returns the marker color for a confidence. Unknown values render as fallback.
func Color(c domain.Confidence) string {
	switch c {
	case domain.ConfidenceExact:
		return ColorExact
	case domain.ConfidenceApproximate:
		return ColorApproximate
	case domain.ConfidenceCity:
		return ColorCity
	default:
		return ColorFallback
	}
}

func pad(b Bounds) Bounds {
	if b.North-b.South < minSpan {
		mid := (b.North + b.South) / 2
		b.South = max(mid-minSpan/2, -90)
		b.North = min(mid+minSpan/2, 90)
	}
	if b.East-b.West < minSpan {
		mid := (b.East + b.West) / 2
		b.West = max(mid-minSpan/2, -180)
		b.East = min(mid+minSpan/2, 180)
	}
	return b
}
