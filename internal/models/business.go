package models

// PlaceRecord is a raw place as returned by the lookup capability, after
// conversion from the Google Places API wire format but before aggregation.
// Optional numeric fields are pointers so "absent" survives normalization.
type PlaceRecord struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	ReviewsCount   int      `json:"reviews_count,omitempty"`
	PriceLevel     *int     `json:"price_level,omitempty"`
	OpeningHours   []string `json:"opening_hours,omitempty"`
	Description    string   `json:"description,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	GoogleMapsURL  string   `json:"google_maps_url,omitempty"`
	PhotoURL       string   `json:"photo_url,omitempty"`
	Types          []string `json:"types,omitempty"`
	BusinessStatus string   `json:"business_status,omitempty"`
}

// BusinessRecord is one deduplicated, normalized business in a job's
// result set. Created by the aggregator when a place ID is first seen,
// immutable thereafter.
type BusinessRecord struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	GoogleTypes   string   `json:"google_types,omitempty"`
	Address       string   `json:"address,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Website       string   `json:"website,omitempty"`
	Rating        *float64 `json:"rating"`
	ReviewsCount  int      `json:"reviews_count"`
	PriceLevel    string   `json:"price_level,omitempty"`
	OpeningHours  string   `json:"opening_hours,omitempty"`
	Description   string   `json:"description,omitempty"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	GoogleMapsURL string   `json:"google_maps_url,omitempty"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	PlaceID       string   `json:"place_id"`
}

// TopPlace is one entry in the summary's top-rated list
type TopPlace struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
}

// Summary is the derived aggregate computed once at job completion
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[string]int   `json:"by_category"`
	AvgRating  *float64         `json:"avg_rating"` // nil when no record carries a rating
	RatedCount int              `json:"rated_count"`
	Top5       []TopPlace       `json:"top5"`
	Businesses []BusinessRecord `json:"businesses"`
}
