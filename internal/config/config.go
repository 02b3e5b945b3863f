package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported geocoding providers.
const (
	ProviderGoogle = "google"
	ProviderMapbox = "mapbox"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Geocoding provider configuration.
	GeocoderProvider  string
	GeocoderEnabled   bool
	GoogleMapsAPIKey  string
	MapboxToken       string
	GeocoderTimeout   time.Duration
	GeocoderRateLimit float64 // requests per second

	// Resolver tuning.
	VenueCacheSize    int
	ResolveBatchSize  int
	ResolveBatchDelay time.Duration
	FallbackLat       float64
	FallbackLng       float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	resolveBatchDelay, err := parseDuration("RESOLVE_BATCH_DELAY", "200ms")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODER_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid GEOCODER_RATE_LIMIT")
	}

	fallbackLat, err := parseFloatInRange("FALLBACK_LAT", -90, 90)
	if err != nil {
		return nil, err
	}
	fallbackLng, err := parseFloatInRange("FALLBACK_LNG", -180, 180)
	if err != nil {
		return nil, err
	}

	provider := sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderGoogle)
	googleKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	mapboxToken := os.Getenv("MAPBOX_TOKEN")

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "itinerary-resolution-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "resolved-itineraries"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "trip-geo-resolver"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		GeocoderProvider:  provider,
		GoogleMapsAPIKey:  googleKey,
		MapboxToken:       mapboxToken,
		GeocoderTimeout:   geocoderTimeout,
		GeocoderRateLimit: rateLimit,

		VenueCacheSize:    parsePositiveInt("VENUE_CACHE_SIZE", 1000),
		ResolveBatchSize:  parsePositiveInt("RESOLVE_BATCH_SIZE", 5),
		ResolveBatchDelay: resolveBatchDelay,
		FallbackLat:       fallbackLat,
		FallbackLng:       fallbackLng,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if provider != ProviderGoogle && provider != ProviderMapbox {
		return nil, fmt.Errorf("unsupported GEOCODER_PROVIDER %q", provider)
	}

	cfg.GeocoderEnabled = cfg.GeocoderCredential() != ""
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		cfg.GeocoderEnabled = v == "true"
	}
	if cfg.GeocoderEnabled && cfg.GeocoderCredential() == "" {
		return nil, fmt.Errorf("GEOCODER_ENABLED is true but %s is not set", cfg.credentialEnv())
	}

	return cfg, nil
}

// GeocoderCredential returns the API key or token of the selected provider.
func (c *Config) GeocoderCredential() string {
	if c.GeocoderProvider == ProviderMapbox {
		return c.MapboxToken
	}
	return c.GoogleMapsAPIKey
}

func (c *Config) credentialEnv() string {
	if c.GeocoderProvider == ProviderMapbox {
		return "MAPBOX_TOKEN"
	}
	return "GOOGLE_MAPS_API_KEY"
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseFloatInRange(key string, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
