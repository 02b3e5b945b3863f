package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("itin-1"),
		Value:     []byte(`{"itinerary_id":"itin-1"}`),
		Topic:     "itinerary-resolution-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("planner")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("itin-1"), raw.Key)
	assert.JSONEq(t, `{"itinerary_id":"itin-1"}`, string(raw.Value))
	assert.Equal(t, "itinerary-resolution-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "planner", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestMapMessageToRawEvent_NoHeaders(t *testing.T) {
	raw := mapMessageToRawEvent(kafkago.Message{Value: []byte("{}")})
	assert.NotNil(t, raw.Headers)
	assert.Empty(t, raw.Headers)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	it := domain.ResolvedItinerary{
		ItineraryID: "itin-agra",
		Destination: "Agra",
		Coordinates: []domain.ResolvedCoordinate{
			{NodeID: "n1", Lat: 27.1751, Lng: 78.0421, Confidence: domain.ConfidenceApproximate, Strategy: domain.StrategyGeocoded},
		},
		ResolvedAt: now,
	}

	msg, err := serializeToMessage(it)
	require.NoError(t, err)

	assert.Equal(t, []byte("itin-agra"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "itinerary_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("itin-agra"), msg.Headers[0].Value)
	assert.Equal(t, "resolved_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.ResolvedItinerary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, it, decoded)
}
