// Package places implements the Google Places lookup capability: geocoding,
// text search, typed nearby search and place details, with shared rate
// limiting across all calls of a process.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// ErrRequestDenied marks REQUEST_DENIED responses: the API key is invalid
// or the required API is not enabled. Detected on the first query of a
// job, it aborts the whole job.
var ErrRequestDenied = errors.New("places api request denied")

// Search results farther than this factor times the requested radius are
// dropped; Google's radius is a bias, not a hard boundary.
const radiusSlack = 1.2

// Client implements the PlacesClient interface against the Google Maps
// web services
type Client struct {
	config     *common.PlacesConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Places client
func NewClient(config *common.PlacesConfig, logger arbor.ILogger) interfaces.PlacesClient {
	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout),
		},
		limiter: rate.NewLimiter(rate.Every(time.Duration(config.RateLimit)), 1),
	}
}

// IsAuthError reports whether an error came from a rejected API key
func IsAuthError(err error) bool {
	return errors.Is(err, ErrRequestDenied)
}

// Geocode resolves a location name to coordinates and a formatted address
func (c *Client) Geocode(ctx context.Context, apiKey, location string) (*models.GeoPoint, error) {
	params := url.Values{}
	params.Set("address", location)
	params.Set("key", apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}

	if resp.Status == "REQUEST_DENIED" {
		return nil, fmt.Errorf("%w: enable both the Places API and the Geocoding API for this key: %s", ErrRequestDenied, resp.ErrorMessage)
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, fmt.Errorf("could not geocode %q: status %s %s", location, resp.Status, resp.ErrorMessage)
	}

	result := resp.Results[0]
	if result.Geometry == nil || result.Geometry.Location == nil {
		return nil, fmt.Errorf("could not geocode %q: no geometry in response", location)
	}

	formatted := result.FormattedAddress
	if formatted == "" {
		formatted = location
	}

	c.logger.Info().
		Str("location", location).
		Str("formatted", formatted).
		Float64("lat", result.Geometry.Location.Lat).
		Float64("lng", result.Geometry.Location.Lng).
		Msg("Location geocoded")

	return &models.GeoPoint{
		Latitude:         result.Geometry.Location.Lat,
		Longitude:        result.Geometry.Location.Lng,
		FormattedAddress: formatted,
	}, nil
}

// Search runs one planned query: a paginated text search, plus a
// paginated nearby search when the query carries a place type. Results
// outside the radius (with slack) are dropped. Records are raw; callers
// enrich the ones they keep via Details.
func (c *Client) Search(ctx context.Context, apiKey string, query models.PlannedQuery, origin models.GeoPoint, radius int) ([]models.PlaceRecord, error) {
	var records []models.PlaceRecord
	seen := make(map[string]bool)

	keep := func(results []PlaceResult) {
		for _, place := range results {
			if place.PlaceID == "" || seen[place.PlaceID] {
				continue
			}
			if place.Geometry == nil || place.Geometry.Location == nil {
				continue
			}
			loc := place.Geometry.Location
			if !withinRadius(loc.Lat, loc.Lng, origin.Latitude, origin.Longitude, radius) {
				continue
			}
			seen[place.PlaceID] = true
			records = append(records, *c.toRecord(&place, apiKey))
		}
	}

	textParams := url.Values{}
	textParams.Set("query", fmt.Sprintf("%s in %s", query.Text, origin.FormattedAddress))
	textParams.Set("location", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	textParams.Set("radius", strconv.Itoa(radius))

	results, err := c.pagedSearch(ctx, apiKey, "/maps/api/place/textsearch/json", textParams)
	if err != nil {
		return nil, fmt.Errorf("text search for %q failed: %w", query.Text, err)
	}
	keep(results)

	if query.PlaceType != "" {
		nearbyParams := url.Values{}
		nearbyParams.Set("location", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
		nearbyParams.Set("radius", strconv.Itoa(radius))
		nearbyParams.Set("type", query.PlaceType)

		// A nearby-search failure after a successful text search only
		// costs coverage, not the query.
		nearby, err := c.pagedSearch(ctx, apiKey, "/maps/api/place/nearbysearch/json", nearbyParams)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("type", query.PlaceType).
				Msg("Nearby search failed, keeping text search results")
		} else {
			keep(nearby)
		}
	}

	c.logger.Info().
		Str("query", query.Text).
		Str("category", query.Category).
		Int("results", len(records)).
		Msg("Place search completed")

	return records, nil
}

// Details enriches a place ID with the full record fields
func (c *Client) Details(ctx context.Context, apiKey, placeID string) (*models.PlaceRecord, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields",
		"name,formatted_address,formatted_phone_number,international_phone_number,"+
			"website,rating,user_ratings_total,price_level,opening_hours,"+
			"editorial_summary,geometry,url,types,business_status,photos")
	params.Set("key", apiKey)

	var resp detailsResponse
	if err := c.get(ctx, "/maps/api/place/details/json", params, &resp); err != nil {
		return nil, fmt.Errorf("place details failed: %w", err)
	}

	if resp.Status == "REQUEST_DENIED" {
		return nil, fmt.Errorf("%w: %s", ErrRequestDenied, resp.ErrorMessage)
	}
	if resp.Status != "OK" || resp.Result == nil {
		return nil, fmt.Errorf("place details for %s: status %s %s", placeID, resp.Status, resp.ErrorMessage)
	}

	record := c.toRecord(resp.Result, apiKey)
	if record.PlaceID == "" {
		record.PlaceID = placeID
	}
	return record, nil
}

// pagedSearch follows next_page_token up to the configured page limit.
// Page tokens need a settle delay before Google accepts them; a failed
// follow-up page keeps the pages already fetched.
func (c *Client) pagedSearch(ctx context.Context, apiKey, path string, params url.Values) ([]PlaceResult, error) {
	var all []PlaceResult
	pageToken := ""

	maxPages := c.config.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	for page := 0; page < maxPages; page++ {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("key", apiKey)
		if pageToken != "" {
			p.Set("pagetoken", pageToken)
		}

		var resp searchResponse
		if err := c.get(ctx, path, p, &resp); err != nil {
			if page > 0 {
				c.logger.Warn().Err(err).Int("page", page+1).Msg("Follow-up page fetch failed")
				return all, nil
			}
			return nil, err
		}

		if resp.Status == "REQUEST_DENIED" {
			return nil, fmt.Errorf("%w: %s", ErrRequestDenied, resp.ErrorMessage)
		}
		if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
			if page > 0 {
				return all, nil
			}
			return nil, fmt.Errorf("places api status %s: %s", resp.Status, resp.ErrorMessage)
		}

		all = append(all, resp.Results...)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken

		select {
		case <-time.After(time.Duration(c.config.PageTokenDelay)):
		case <-ctx.Done():
			return all, ctx.Err()
		}
	}

	return all, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	fullURL := c.config.BaseURL + path + "?" + params.Encode()

	// Redact the API key in logs
	logParams := url.Values{}
	for k, v := range params {
		logParams[k] = v
	}
	logParams.Set("key", "***REDACTED***")
	c.logger.Debug().Str("url", c.config.BaseURL+path+"?"+logParams.Encode()).Msg("Calling Google Maps API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Google Maps API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Google Maps API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

// toRecord converts an API result to the internal record model. The
// photo URL embeds the caller's API key, matching what the export file
// links to.
func (c *Client) toRecord(place *PlaceResult, apiKey string) *models.PlaceRecord {
	record := &models.PlaceRecord{
		PlaceID:        place.PlaceID,
		Name:           place.Name,
		Address:        place.FormattedAddress,
		Website:        place.Website,
		Rating:         place.Rating,
		ReviewsCount:   place.UserRatingsTotal,
		PriceLevel:     place.PriceLevel,
		GoogleMapsURL:  place.URL,
		Types:          place.Types,
		BusinessStatus: place.BusinessStatus,
	}

	record.Phone = place.InternationalPhoneNumber
	if record.Phone == "" {
		record.Phone = place.FormattedPhoneNumber
	}

	if place.Geometry != nil && place.Geometry.Location != nil {
		lat, lng := place.Geometry.Location.Lat, place.Geometry.Location.Lng
		record.Latitude = &lat
		record.Longitude = &lng
	}

	if place.OpeningHours != nil {
		record.OpeningHours = place.OpeningHours.WeekdayText
	}

	if place.EditorialSummary != nil {
		record.Description = place.EditorialSummary.Overview
	}

	if len(place.Photos) > 0 && place.Photos[0].PhotoReference != "" {
		record.PhotoURL = fmt.Sprintf("%s/maps/api/place/photo?maxwidth=400&photo_reference=%s&key=%s",
			c.config.BaseURL, url.QueryEscape(place.Photos[0].PhotoReference), url.QueryEscape(apiKey))
	}

	return record
}

// withinRadius applies the haversine distance with slack
func withinRadius(lat, lng, centerLat, centerLng float64, radiusMeters int) bool {
	const earthRadius = 6371000.0

	phi1 := centerLat * math.Pi / 180
	phi2 := lat * math.Pi / 180
	dPhi := (lat - centerLat) * math.Pi / 180
	dLam := (lng - centerLng) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius*c <= float64(radiusMeters)*radiusSlack
}
