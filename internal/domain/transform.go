package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingItineraryID is returned when a request has neither an itinerary_id
// field nor a message key to fall back on.
var ErrMissingItineraryID = errors.New("missing itinerary_id")

// ParseRawEvent deserializes a RawEvent's value into an ItineraryRequest.
// The message key is used as the itinerary ID when the body omits it, and
// nodes without a node_id get a deterministic one so replays produce the
// same output.
func ParseRawEvent(raw RawEvent) (ItineraryRequest, error) {
	var req ItineraryRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ItineraryRequest{}, fmt.Errorf("parse itinerary request: %w", err)
	}
	return normalizeRequest(req, string(raw.Key))
}

// DecodeItineraryRequest parses a request body that did not arrive over Kafka.
func DecodeItineraryRequest(data []byte) (ItineraryRequest, error) {
	return ParseRawEvent(RawEvent{Value: data})
}

func normalizeRequest(req ItineraryRequest, fallbackID string) (ItineraryRequest, error) {
	req.ItineraryID = strings.TrimSpace(req.ItineraryID)
	if req.ItineraryID == "" {
		req.ItineraryID = strings.TrimSpace(fallbackID)
	}
	if req.ItineraryID == "" {
		return ItineraryRequest{}, ErrMissingItineraryID
	}
	req.Destination = strings.TrimSpace(req.Destination)

	for i := range req.Nodes {
		if strings.TrimSpace(req.Nodes[i].NodeID) == "" {
			req.Nodes[i].NodeID = generateNodeID(req.ItineraryID, i, req.Nodes[i])
		}
	}
	return req, nil
}

// generateNodeID derives a node ID from the itinerary ID, the node position
// and its names.
func generateNodeID(itineraryID string, index int, n ItineraryNode) string {
	input := fmt.Sprintf("%s|%d|%s|%s", itineraryID, index, n.Title, n.LocationName)
	hash := sha256.Sum256([]byte(input))
	return "node-" + hex.EncodeToString(hash[:8])
}
