package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// PlacesClient is the external lookup capability: it turns planned
// queries into raw place records. Implementations must classify
// credential rejections so the runner can abort early on a bad key.
type PlacesClient interface {
	// Geocode resolves a location name to coordinates
	Geocode(ctx context.Context, apiKey, location string) (*models.GeoPoint, error)

	// Search runs one planned query (text search plus optional typed
	// nearby search) and returns raw records within the radius
	Search(ctx context.Context, apiKey string, query models.PlannedQuery, origin models.GeoPoint, radius int) ([]models.PlaceRecord, error)

	// Details enriches a place ID with the full record fields
	Details(ctx context.Context, apiKey, placeID string) (*models.PlaceRecord, error)
}
