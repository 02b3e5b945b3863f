package domain

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAgraItinerary = `{
	"itinerary_id": "itin-agra-1",
	"destination": "Agra",
	"nodes": [
		{"node_id": "n1", "title": "Morning visit", "location_name": "Taj Mahal"},
		{"node_id": "n2", "title": "Lunch", "location_name": ""},
		{"node_id": "n3", "title": "Red Fort", "location_name": "Red Fort", "destination_hint": "Agra, India"},
		{"node_id": "n4", "title": "Eiffel Tower", "location_name": "Eiffel Tower", "destination_hint": "Paris", "existing_lat": 48.8584, "existing_lng": 2.2945}
	]
}`

func TestParseRawEvent(t *testing.T) {
	t.Run("itinerary request", func(t *testing.T) {
		req, err := ParseRawEvent(RawEvent{Value: []byte(testAgraItinerary)})
		require.NoError(t, err)

		assert.Equal(t, "itin-agra-1", req.ItineraryID)
		assert.Equal(t, "Agra", req.Destination)
		require.Len(t, req.Nodes, 4)
		assert.Equal(t, "n3", req.Nodes[2].NodeID)
		require.NotNil(t, req.Nodes[3].ExistingLat)
		assert.Equal(t, 48.8584, *req.Nodes[3].ExistingLat)
	})

	t.Run("itinerary id from message key", func(t *testing.T) {
		raw := RawEvent{Key: []byte("itin-from-key"), Value: []byte(`{"destination":"Paris","nodes":[]}`)}
		req, err := ParseRawEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, "itin-from-key", req.ItineraryID)
	})

	t.Run("missing itinerary id", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{"destination":"Paris"}`)})
		assert.ErrorIs(t, err, ErrMissingItineraryID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse itinerary request")
	})

	t.Run("generated node ids are deterministic", func(t *testing.T) {
		body := []byte(`{"itinerary_id":"i1","nodes":[{"title":"Lunch"},{"title":"Lunch"}]}`)
		first, err := DecodeItineraryRequest(body)
		require.NoError(t, err)
		second, err := DecodeItineraryRequest(body)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(first.Nodes[0].NodeID, "node-"))
		assert.Equal(t, first.Nodes[0].NodeID, second.Nodes[0].NodeID)
		assert.NotEqual(t, first.Nodes[0].NodeID, first.Nodes[1].NodeID)
	})
}

func TestItineraryNodeToRequest(t *testing.T) {
	lat, lng := 27.1751, 78.0421

	tests := []struct {
		name string
		node ItineraryNode
		want LocationRequest
	}{
		{
			name: "location name and hint",
			node: ItineraryNode{NodeID: "a", Title: "Sunrise", LocationName: "Taj Mahal", DestinationHint: "Agra"},
			want: LocationRequest{NodeID: "a", Name: "Taj Mahal", Destination: "Agra"},
		},
		{
			name: "title and itinerary destination fallback",
			node: ItineraryNode{NodeID: "b", Title: " Lunch "},
			want: LocationRequest{NodeID: "b", Name: "Lunch", Destination: "Delhi"},
		},
		{
			name: "existing coordinates",
			node: ItineraryNode{NodeID: "c", LocationName: "Taj Mahal", ExistingLat: &lat, ExistingLng: &lng},
			want: LocationRequest{NodeID: "c", Name: "Taj Mahal", Destination: "Delhi", Coordinates: &Geo{Lat: lat, Lng: lng}},
		},
		{
			name: "half coordinates ignored",
			node: ItineraryNode{NodeID: "d", LocationName: "Taj Mahal", ExistingLat: &lat},
			want: LocationRequest{NodeID: "d", Name: "Taj Mahal", Destination: "Delhi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.ToRequest("Delhi"))
		})
	}
}

func TestGeoValid(t *testing.T) {
	tests := []struct {
		geo  Geo
		want bool
	}{
		{Geo{Lat: 48.8584, Lng: 2.2945}, true},
		{Geo{Lat: -90, Lng: 180}, true},
		{Geo{Lat: 0, Lng: 0}, false},
		{Geo{Lat: 0, Lng: 12.5}, true},
		{Geo{Lat: 91, Lng: 0}, false},
		{Geo{Lat: 10, Lng: -181}, false},
		{Geo{Lat: math.NaN(), Lng: 1}, false},
		{Geo{Lat: 1, Lng: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.geo.Valid(), "Valid(%+v)", tt.geo)
	}
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceExact.Rank(), ConfidenceApproximate.Rank())
	assert.Greater(t, ConfidenceApproximate.Rank(), ConfidenceCity.Rank())
	assert.Greater(t, ConfidenceCity.Rank(), ConfidenceFallback.Rank())
	assert.Greater(t, ConfidenceFallback.Rank(), Confidence("bogus").Rank())

	assert.True(t, ConfidenceExact.Routable())
	assert.True(t, ConfidenceApproximate.Routable())
	assert.False(t, ConfidenceCity.Routable())
	assert.False(t, ConfidenceFallback.Routable())
}

func TestNewResolvedItinerary(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	req := ItineraryRequest{ItineraryID: "itin-1", Destination: "Agra"}
	coords := []ResolvedCoordinate{{NodeID: "n1", Lat: 27.17, Lng: 78.04, Confidence: ConfidenceCity, Strategy: StrategyGazetteer}}

	out := NewResolvedItinerary(req, coords)
	assert.Equal(t, "itin-1", out.ItineraryID)
	assert.Equal(t, fixed, out.ResolvedAt)
	assert.Equal(t, coords, out.Coordinates)
}

func TestItineraryRequestRequests(t *testing.T) {
	req, err := DecodeItineraryRequest([]byte(testAgraItinerary))
	require.NoError(t, err)

	reqs := req.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "Taj Mahal", reqs[0].Name)
	assert.Equal(t, "Agra", reqs[0].Destination)
	assert.Equal(t, "Lunch", reqs[1].Name)
	assert.Equal(t, "Agra, India", reqs[2].Destination)
	require.NotNil(t, reqs[3].Coordinates)
	assert.Equal(t, "Paris", reqs[3].Destination)
}
