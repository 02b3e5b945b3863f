// Package google geocodes free-text queries with the Google Geocoding API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/observability"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	providerName   = "google"
)

// Client implements domain.Geocoder using the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Google geocoding client that issues at most
// requestsPerSecond calls.
func NewClient(apiKey string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
		metrics: metrics,
	}
}

// Geocode converts a free-text query to the coordinates of the first result.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Geo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, err)
	}

	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	start := time.Now()
	geo, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode(), query)
	c.metrics.GeocodeAPIDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug("google geocode failed", "query", query, "error", err)
	}
	return geo, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, query string) (domain.Geo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Geo{}, domain.NewGeocodeError(
			domain.KindForStatus(resp.StatusCode),
			query,
			fmt.Errorf("google API error: status %d: %s", resp.StatusCode, body),
		)
	}

	var googleResp response
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, fmt.Errorf("decode response: %w", err))
	}

	if googleResp.Status != statusOK {
		return domain.Geo{}, domain.NewGeocodeError(kindForStatus(googleResp.Status), query, statusError(googleResp))
	}
	if len(googleResp.Results) == 0 {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNotFound, query, nil)
	}

	r := googleResp.Results[0]
	c.logger.Debug("google geocoded", "query", query, "formatted_address", r.FormattedAddress, "partial_match", r.PartialMatch)
	return domain.Geo{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}, nil
}

// Geocoding API status values.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusOverDailyLimit = "OVER_DAILY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusInvalidRequest = "INVALID_REQUEST"
)

// kindForStatus maps the API status field to an ErrorKind.
func kindForStatus(status string) domain.ErrorKind {
	switch status {
	case statusZeroResults, statusInvalidRequest:
		return domain.ErrorKindNotFound
	case statusOverQueryLimit:
		return domain.ErrorKindRateLimited
	case statusRequestDenied, statusOverDailyLimit:
		return domain.ErrorKindInvalidKey
	default:
		return domain.ErrorKindNetwork
	}
}

func statusError(r response) error {
	if r.ErrorMessage != "" {
		return fmt.Errorf("google API status %s: %s", r.Status, r.ErrorMessage)
	}
	return errors.New("google API status " + r.Status)
}

// Google API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
	PartialMatch     bool     `json:"partial_match,omitempty"`
}

type geometry struct {
	Location location `json:"location"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
