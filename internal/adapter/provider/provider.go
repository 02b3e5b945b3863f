// Package provider selects the geocoding backend from configuration.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/trip-geo-resolver/internal/adapter/google"
	"github.com/couchcryptid/trip-geo-resolver/internal/adapter/mapbox"
	"github.com/couchcryptid/trip-geo-resolver/internal/config"
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/observability"
)

// New returns the configured geocoder, or nil when geocoding is disabled.
// A nil geocoder makes the resolver fall back to the gazetteer and the
// geographic center for every request that has no coordinates.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.Geocoder, error) {
	if !cfg.GeocoderEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled")
		return nil, nil
	}

	var g domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderGoogle:
		g = google.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocoderTimeout, cfg.GeocoderRateLimit, logger, metrics)
	case config.ProviderMapbox:
		g = mapbox.NewClient(cfg.MapboxToken, cfg.GeocoderTimeout, cfg.GeocoderRateLimit, logger, metrics)
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.GeocoderProvider)
	}

	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enabled",
		"provider", cfg.GeocoderProvider,
		"timeout", cfg.GeocoderTimeout,
		"rate_limit", cfg.GeocoderRateLimit,
	)
	return g, nil
}
