package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/models"
)

func TestPlanExpandsPresetCategories(t *testing.T) {
	req := &models.ScrapeRequest{
		Location:   "Lisbon, Portugal",
		Categories: []string{"restaurant"},
	}

	queries, err := Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, queries)

	for _, q := range queries {
		assert.Equal(t, "Restaurant", q.Category)
	}
}

func TestPlanAcceptsDisplayLabels(t *testing.T) {
	// UI labels like "Coffee Shops" must hit the "coffee-shops" preset
	req := &models.ScrapeRequest{
		Location:   "Lisbon",
		Categories: []string{"Coffee Shops"},
	}

	queries, err := Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, queries)
	assert.Equal(t, "Coffee Shops", queries[0].Category)
}

func TestPlanUnknownCategoryBecomesFreeText(t *testing.T) {
	req := &models.ScrapeRequest{
		Location:   "Lisbon",
		Categories: []string{"surf schools"},
	}

	queries, err := Plan(req)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "surf schools", queries[0].Text)
	assert.Equal(t, "Surf Schools", queries[0].Category)
	assert.Empty(t, queries[0].PlaceType)
}

func TestPlanCustomQueries(t *testing.T) {
	req := &models.ScrapeRequest{
		Location:      "Lisbon",
		CustomQueries: "vegan bakery, tattoo studio; surf shop\nrecord store",
	}

	queries, err := Plan(req)
	require.NoError(t, err)
	require.Len(t, queries, 4)
	for _, q := range queries {
		assert.Equal(t, CustomCategory, q.Category)
	}
	assert.Equal(t, "vegan bakery", queries[0].Text)
	assert.Equal(t, "record store", queries[3].Text)
}

func TestPlanCustomQueryMatchingPresetExpands(t *testing.T) {
	req := &models.ScrapeRequest{
		Location:      "Lisbon",
		CustomQueries: "restaurant",
	}

	queries, err := Plan(req)
	require.NoError(t, err)
	assert.Greater(t, len(queries), 1, "preset key in custom text should expand to its templates")
	assert.Equal(t, "Restaurant", queries[0].Category)
}

func TestPlanDeduplicates(t *testing.T) {
	req := &models.ScrapeRequest{
		Location:      "Lisbon",
		Categories:    []string{"restaurant", "restaurant"},
		CustomQueries: "restaurant",
	}

	queries, err := Plan(req)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, q := range queries {
		key := q.Text + "|" + q.Category
		assert.False(t, seen[key], "duplicate query planned: %s", key)
		seen[key] = true
	}
}

func TestPlanRejectsEmptySelection(t *testing.T) {
	tests := []struct {
		name string
		req  *models.ScrapeRequest
	}{
		{"no location", &models.ScrapeRequest{Categories: []string{"restaurant"}}},
		{"blank location", &models.ScrapeRequest{Location: "   ", Categories: []string{"restaurant"}}},
		{"nothing selected", &models.ScrapeRequest{Location: "Lisbon"}},
		{"blank entries only", &models.ScrapeRequest{Location: "Lisbon", Categories: []string{" ", ""}, CustomQueries: " ;, "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidRequest))
		})
	}
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		name     string
		radius   int
		expected int
	}{
		{"zero uses default", 0, 3000},
		{"negative uses default", -5, 3000},
		{"in range kept", 1500, 1500},
		{"above max clamped", 80000, MaxRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampRadius(tt.radius, 3000))
		})
	}
}
