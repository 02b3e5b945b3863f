package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
)

// ItineraryResolver resolves an ordered list of location requests.
type ItineraryResolver interface {
	ResolveAll(ctx context.Context, reqs []domain.LocationRequest) []domain.ResolvedCoordinate
}

// ItineraryTransformer implements Transformer by parsing the itinerary
// request and resolving every node.
type ItineraryTransformer struct {
	resolver ItineraryResolver
	logger   *slog.Logger
}

// NewTransformer creates an ItineraryTransformer.
func NewTransformer(resolver ItineraryResolver, logger *slog.Logger) *ItineraryTransformer {
	return &ItineraryTransformer{
		resolver: resolver,
		logger:   logger,
	}
}

func (t *ItineraryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.ResolvedItinerary, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.ResolvedItinerary{}, err
	}

	coords := t.resolver.ResolveAll(ctx, req.Requests())
	t.logger.Debug("itinerary resolved", "itinerary_id", req.ItineraryID, "nodes", len(coords))

	return domain.NewResolvedItinerary(req, coords), nil
}
