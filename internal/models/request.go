package models

// ScrapeRequest is the payload accepted by POST /api/scrape.
// Category/custom-query presence is validated by the query planner,
// which owns that rule; validator tags cover the simple fields.
// Radius carries no validation tag: out-of-range values are clamped by
// the planner, not rejected.
type ScrapeRequest struct {
	APIKey        string   `json:"api_key" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	Radius        int      `json:"radius"`
	Categories    []string `json:"categories"`
	CustomQueries string   `json:"custom_queries"`
	LicenseKey    string   `json:"license_key,omitempty"`
}

// PlannedQuery is one concrete search to issue against the Places API
type PlannedQuery struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	PlaceType string `json:"place_type,omitempty"` // optional nearby-search type filter
}

// GeoPoint is a geocoded location
type GeoPoint struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
}
