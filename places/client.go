package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medspagpt/backend/logging"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// ErrMissingAPIKey is returned before any network call when the Google
// Places key is not configured.
var ErrMissingAPIKey = errors.New("GOOGLE_PLACES_API_KEY is not configured")

// ErrNoGeometry is returned when a target place carries no coordinates, so
// no nearby search can be anchored.
var ErrNoGeometry = errors.New("target place has no geometry")

// competitorKeywords is the allow-list a nearby candidate's name must match
// to count as a med-spa competitor.
var competitorKeywords = []string{
	"med spa",
	"medical spa",
	"aesthetic",
	"dermatology",
	"cosmetic",
	"laser",
	"botox",
	"filler",
}

// competitorTypes is the allow-list for the Places `types` field.
var competitorTypes = []string{"spa", "health", "beauty_salon"}

// Client talks to the Google Places API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Places client. Every request carries a hard timeout so
// a stalled upstream can never hang the request chain.
func NewClient(apiKey string, logger *logging.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// SetBaseURL overrides the Places API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// SearchMedSpas runs a Text Search for med spas matching the query,
// optionally biased toward the user's location.
func (c *Client) SearchMedSpas(ctx context.Context, query string, userLocation *LatLng) ([]PlaceDetails, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("query", query+" med spa")
	params.Set("type", "beauty_salon")
	params.Set("key", c.apiKey)
	if userLocation != nil {
		params.Set("location", fmt.Sprintf("%f,%f", userLocation.Lat, userLocation.Lng))
		params.Set("radius", "50000")
	}

	var resp textSearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	if err := checkStatus(resp.Status, resp.Error); err != nil {
		return nil, err
	}

	c.logger.Info("places: text search %q returned %d results", query, len(resp.Results))
	return resp.Results, nil
}

// Details fetches the full place record for a place_id.
func (c *Client) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,rating,user_ratings_total,website,formatted_phone_number,geometry,types,reviews,photos")
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, fmt.Errorf("place details failed: %w", err)
	}
	if err := checkStatus(resp.Status, resp.Error); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("place details returned no result for %s", placeID)
	}

	return resp.Result, nil
}

// nearbySearch returns raw nearby candidates of the given place type.
func (c *Client) nearbySearch(ctx context.Context, loc LatLng, radiusMeters int, placeType string) ([]nearbyResult, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", placeType)
	params.Set("key", c.apiKey)

	var resp nearbyResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}
	if err := checkStatus(resp.Status, resp.Error); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

// IsCompetitor reports whether a candidate's name or type list matches the
// med-spa allow-list.
func IsCompetitor(name string, types []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range competitorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, t := range types {
		for _, allowed := range competitorTypes {
			if t == allowed {
				return true
			}
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned HTTP %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// checkStatus maps the Places API status field to an error. ZERO_RESULTS is
// an empty result set, not a failure.
func checkStatus(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	default:
		if message != "" {
			return fmt.Errorf("places API status %s: %s", status, message)
		}
		return fmt.Errorf("places API status %s", status)
	}
}
