package places

// geocodeResponse represents the Google Geocoding API response
type geocodeResponse struct {
	Results []struct {
		FormattedAddress string    `json:"formatted_address"`
		Geometry         *Geometry `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// searchResponse represents the Places Text Search / Nearby Search API response
type searchResponse struct {
	Results       []PlaceResult `json:"results"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// detailsResponse represents the Place Details API response
type detailsResponse struct {
	Result       *PlaceResult `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// PlaceResult represents a single place from the Google Places API
type PlaceResult struct {
	BusinessStatus           string            `json:"business_status,omitempty"`
	FormattedAddress         string            `json:"formatted_address,omitempty"`
	FormattedPhoneNumber     string            `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string            `json:"international_phone_number,omitempty"`
	Geometry                 *Geometry         `json:"geometry,omitempty"`
	Name                     string            `json:"name"`
	OpeningHours             *OpeningHours     `json:"opening_hours,omitempty"`
	EditorialSummary         *EditorialSummary `json:"editorial_summary,omitempty"`
	Photos                   []Photo           `json:"photos,omitempty"`
	PlaceID                  string            `json:"place_id"`
	PriceLevel               *int              `json:"price_level,omitempty"`
	Rating                   *float64          `json:"rating,omitempty"`
	Types                    []string          `json:"types,omitempty"`
	URL                      string            `json:"url,omitempty"`
	UserRatingsTotal         int               `json:"user_ratings_total,omitempty"`
	Website                  string            `json:"website,omitempty"`
}

// Geometry represents the geometry information of a place
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// LatLng represents a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OpeningHours represents the opening hours of a place
type OpeningHours struct {
	OpenNow     bool     `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// EditorialSummary represents Google's short place description
type EditorialSummary struct {
	Overview string `json:"overview,omitempty"`
}

// Photo represents a place photo reference
type Photo struct {
	Height         int    `json:"height"`
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
}
