package aggregator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/models"
)

func ptr[T any](v T) *T { return &v }

func place(id, name string, rating *float64, reviews int) *models.PlaceRecord {
	return &models.PlaceRecord{
		PlaceID:      id,
		Name:         name,
		Rating:       rating,
		ReviewsCount: reviews,
	}
}

func TestAddDeduplicatesByPlaceID(t *testing.T) {
	agg := New(0)

	assert.Equal(t, OutcomeAdded, agg.Add(place("p1", "First", nil, 0), "Restaurant"))
	assert.Equal(t, OutcomeDuplicate, agg.Add(place("p1", "First again", nil, 0), "Hotel"))
	assert.Equal(t, 1, agg.Count())

	// First-seen category wins
	summary := agg.Summarize()
	assert.Equal(t, "Restaurant", summary.Businesses[0].Category)
}

func TestAddSkipsPermanentlyClosed(t *testing.T) {
	agg := New(0)

	closed := place("p1", "Gone", nil, 0)
	closed.BusinessStatus = "CLOSED_PERMANENTLY"

	assert.Equal(t, OutcomeSkippedClosed, agg.Add(closed, "Restaurant"))
	assert.Equal(t, 0, agg.Count())
	assert.False(t, agg.Seen("p1"), "skipped places can still be picked up by a later query")
}

func TestAddEnforcesRowCap(t *testing.T) {
	agg := New(2)

	assert.Equal(t, OutcomeAdded, agg.Add(place("p1", "A", nil, 0), "Restaurant"))
	assert.Equal(t, OutcomeAdded, agg.Add(place("p2", "B", nil, 0), "Restaurant"))
	assert.True(t, agg.Full())
	assert.Equal(t, OutcomeCapReached, agg.Add(place("p3", "C", nil, 0), "Restaurant"))
	assert.Equal(t, 2, agg.Count())
}

func TestAddMismatchFilter(t *testing.T) {
	agg := New(0)

	// A hotel returned by a gym search carries an excluded type and no
	// matching gym type, so it is dropped.
	hotel := place("p1", "Grand Hotel", nil, 0)
	hotel.Types = []string{"lodging", "point_of_interest"}
	assert.Equal(t, OutcomeSkippedMismatch, agg.Add(hotel, "Gym & Fitness"))

	// A hotel gym carries both, so the match keeps it.
	hotelGym := place("p2", "Hotel Gym", nil, 0)
	hotelGym.Types = []string{"gym", "lodging"}
	assert.Equal(t, OutcomeAdded, agg.Add(hotelGym, "Gym & Fitness"))
}

func TestAddResolvesCategoryFromGoogleTypes(t *testing.T) {
	agg := New(0)

	// Google says it's a cafe even though a custom query found it
	cafe := place("p1", "Nice Cafe", nil, 0)
	cafe.Types = []string{"cafe", "food"}
	require.Equal(t, OutcomeAdded, agg.Add(cafe, "Custom"))

	summary := agg.Summarize()
	assert.Equal(t, "Restaurant", summary.Businesses[0].Category)
}

func TestAddNormalizesFields(t *testing.T) {
	agg := New(0)

	p := place("p1", "Bistro", ptr(4.5), 120)
	p.Types = []string{"restaurant", "food"}
	p.OpeningHours = []string{"Monday: 9-5", "Tuesday: 9-5"}
	p.PriceLevel = ptr(2)
	require.Equal(t, OutcomeAdded, agg.Add(p, "Restaurant"))

	free := place("p2", "Park Stand", nil, 0)
	free.PriceLevel = ptr(0)
	require.Equal(t, OutcomeAdded, agg.Add(free, "Restaurant"))

	rows := agg.Summarize().Businesses
	assert.Equal(t, "restaurant, food", rows[0].GoogleTypes)
	assert.Equal(t, "Monday: 9-5 | Tuesday: 9-5", rows[0].OpeningHours)
	assert.Equal(t, "$$", rows[0].PriceLevel)
	assert.Equal(t, "Free", rows[1].PriceLevel)
}

func TestSummarizeAverageOverRatedOnly(t *testing.T) {
	agg := New(0)

	require.Equal(t, OutcomeAdded, agg.Add(place("p1", "A", ptr(4.0), 10), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p2", "B", ptr(3.5), 5), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p3", "C", nil, 0), "Restaurant"))

	summary := agg.Summarize()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.RatedCount)
	require.NotNil(t, summary.AvgRating)
	assert.InDelta(t, 3.8, *summary.AvgRating, 0.001, "average rounds to one decimal place")
}

func TestSummarizeNoRatings(t *testing.T) {
	agg := New(0)
	require.Equal(t, OutcomeAdded, agg.Add(place("p1", "A", nil, 0), "Restaurant"))

	summary := agg.Summarize()
	assert.Nil(t, summary.AvgRating)
	assert.Empty(t, summary.Top5)
}

func TestSummarizeTopFive(t *testing.T) {
	agg := New(0)

	require.Equal(t, OutcomeAdded, agg.Add(place("p1", "Low", ptr(3.0), 500), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p2", "HighFewReviews", ptr(4.8), 10), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p3", "HighManyReviews", ptr(4.8), 200), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p4", "Unrated", nil, 0), "Restaurant"))
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("extra-%d", i)
		require.Equal(t, OutcomeAdded, agg.Add(place(id, id, ptr(4.0), i), "Restaurant"))
	}

	summary := agg.Summarize()
	require.Len(t, summary.Top5, 5)
	assert.Equal(t, "HighManyReviews", summary.Top5[0].Name, "review count breaks rating ties")
	assert.Equal(t, "HighFewReviews", summary.Top5[1].Name)
	for _, top := range summary.Top5 {
		assert.NotEqual(t, "Unrated", top.Name)
	}
}

func TestSummarizeByCategoryAndRowOrder(t *testing.T) {
	agg := New(0)

	require.Equal(t, OutcomeAdded, agg.Add(place("p1", "Hotel B", ptr(4.0), 0), "Hotel"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p2", "Cafe", ptr(4.2), 0), "Restaurant"))
	require.Equal(t, OutcomeAdded, agg.Add(place("p3", "Hotel A", ptr(4.9), 0), "Hotel"))

	summary := agg.Summarize()
	assert.Equal(t, map[string]int{"Hotel": 2, "Restaurant": 1}, summary.ByCategory)

	// Rows sorted by category asc, then rating desc
	require.Len(t, summary.Businesses, 3)
	assert.Equal(t, "Hotel A", summary.Businesses[0].Name)
	assert.Equal(t, "Hotel B", summary.Businesses[1].Name)
	assert.Equal(t, "Cafe", summary.Businesses[2].Name)
}
