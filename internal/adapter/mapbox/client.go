package mapbox

import (
	"context"
	"encoding/json"
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
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	providerName   = "mapbox"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Mapbox geocoding client that issues at most
// requestsPerSecond calls.
func NewClient(token string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
		metrics: metrics,
	}
}

// Geocode converts a free-text query to coordinates. An empty feature list
// is reported as ErrorKindNotFound.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Geo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, err)
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	start := time.Now()
	geo, err := c.doRequest(ctx, u+"?"+params.Encode(), query)
	c.metrics.GeocodeAPIDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug("mapbox geocode failed", "query", query, "error", err)
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
			fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body),
		)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNetwork, query, fmt.Errorf("decode response: %w", err))
	}

	if len(mapboxResp.Features) == 0 || len(mapboxResp.Features[0].Center) != 2 {
		return domain.Geo{}, domain.NewGeocodeError(domain.ErrorKindNotFound, query, nil)
	}

	f := mapboxResp.Features[0]
	c.logger.Debug("mapbox geocoded", "query", query, "place_name", f.PlaceName, "relevance", f.Relevance)

	// Mapbox uses lon,lat order.
	return domain.Geo{Lat: f.Center[1], Lng: f.Center[0]}, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
