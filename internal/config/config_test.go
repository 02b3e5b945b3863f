package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testGoogleKey   = "AIza-test-key"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "itinerary-resolution-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "resolved-itineraries", cfg.KafkaSinkTopic)
	assert.Equal(t, "trip-geo-resolver", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)

	assert.Equal(t, ProviderGoogle, cfg.GeocoderProvider)
	assert.False(t, cfg.GeocoderEnabled)
	assert.Empty(t, cfg.GeocoderCredential())
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.InDelta(t, 10.0, cfg.GeocoderRateLimit, 0)

	assert.Equal(t, 1000, cfg.VenueCacheSize)
	assert.Equal(t, 5, cfg.ResolveBatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.ResolveBatchDelay)
	assert.Zero(t, cfg.FallbackLat)
	assert.Zero(t, cfg.FallbackLng)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("GEOCODER_PROVIDER", "mapbox")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("GEOCODER_TIMEOUT", "10s")
	t.Setenv("GEOCODER_RATE_LIMIT", "2.5")
	t.Setenv("VENUE_CACHE_SIZE", "500")
	t.Setenv("RESOLVE_BATCH_SIZE", "8")
	t.Setenv("RESOLVE_BATCH_DELAY", "0s")
	t.Setenv("FALLBACK_LAT", "20.5937")
	t.Setenv("FALLBACK_LNG", "78.9629")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)

	assert.Equal(t, ProviderMapbox, cfg.GeocoderProvider)
	assert.True(t, cfg.GeocoderEnabled)
	assert.Equal(t, testMapboxToken, cfg.GeocoderCredential())
	assert.Equal(t, 10*time.Second, cfg.GeocoderTimeout)
	assert.InDelta(t, 2.5, cfg.GeocoderRateLimit, 0)

	assert.Equal(t, 500, cfg.VenueCacheSize)
	assert.Equal(t, 8, cfg.ResolveBatchSize)
	assert.Zero(t, cfg.ResolveBatchDelay)
	assert.InDelta(t, 20.5937, cfg.FallbackLat, 1e-9)
	assert.InDelta(t, 78.9629, cfg.FallbackLng, 1e-9)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GEOCODER_TIMEOUT", "bad"},
		{"GEOCODER_TIMEOUT", "0s"},
		{"RESOLVE_BATCH_DELAY", "-1s"},
		{"GEOCODER_RATE_LIMIT", "0"},
		{"GEOCODER_RATE_LIMIT", "fast"},
		{"FALLBACK_LAT", "91"},
		{"FALLBACK_LNG", "west"},
		{"GEOCODER_PROVIDER", "nominatim"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidCacheSizeFallsBackToDefault(t *testing.T) {
	t.Setenv("VENUE_CACHE_SIZE", "-4")
	t.Setenv("RESOLVE_BATCH_SIZE", "many")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.VenueCacheSize)
	assert.Equal(t, 5, cfg.ResolveBatchSize)
}

func TestLoad_GeocoderEnabledWithoutKey(t *testing.T) {
	t.Setenv("GEOCODER_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_MAPS_API_KEY")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("GEOCODER_PROVIDER", "mapbox")
	t.Setenv("GOOGLE_MAPS_API_KEY", testGoogleKey)
	t.Setenv("GEOCODER_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_KeyImpliesEnabled(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", testGoogleKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GeocoderEnabled)
	assert.Equal(t, testGoogleKey, cfg.GeocoderCredential())
}

func TestLoad_GeocoderExplicitlyDisabled(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", testGoogleKey)
	t.Setenv("GEOCODER_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeocoderEnabled)
}
