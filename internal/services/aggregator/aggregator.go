// Package aggregator merges raw place records into a job's result set:
// deduplication by place ID, field normalization, mismatch filtering and
// the terminal summary computation.
package aggregator

import (
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/presets"
)

// AddOutcome reports what Add did with a record
type AddOutcome int

const (
	// OutcomeAdded means a new business record entered the result set
	OutcomeAdded AddOutcome = iota
	// OutcomeDuplicate means the place ID was already aggregated
	OutcomeDuplicate
	// OutcomeSkippedClosed means the place is permanently closed
	OutcomeSkippedClosed
	// OutcomeSkippedMismatch means Google's types disqualify the place
	// from the requested category
	OutcomeSkippedMismatch
	// OutcomeCapReached means the row cap stopped the record
	OutcomeCapReached
)

// Aggregator accumulates one job's result set. Not safe for concurrent
// use; the job runner's background goroutine is the only writer.
type Aggregator struct {
	capacity int
	seen     map[string]bool
	records  []models.BusinessRecord
}

// New creates an aggregator with a row cap. A cap of zero or less means
// unlimited.
func New(capacity int) *Aggregator {
	return &Aggregator{
		capacity: capacity,
		seen:     make(map[string]bool),
	}
}

// Seen reports whether a place ID is already part of the result set.
// Lets the runner skip detail lookups for duplicates before paying for
// the API call.
func (a *Aggregator) Seen(placeID string) bool {
	return a.seen[placeID]
}

// Full reports whether the row cap has been reached
func (a *Aggregator) Full() bool {
	return a.capacity > 0 && len(a.records) >= a.capacity
}

// Count returns the number of aggregated records
func (a *Aggregator) Count() int {
	return len(a.records)
}

// Add normalizes a raw place record and appends it to the result set,
// tagged with the category of the query that produced it. Duplicates are
// rejected, so the first-seen category wins.
func (a *Aggregator) Add(place *models.PlaceRecord, category string) AddOutcome {
	if a.seen[place.PlaceID] {
		return OutcomeDuplicate
	}
	if a.Full() {
		return OutcomeCapReached
	}
	if place.BusinessStatus == "CLOSED_PERMANENTLY" {
		return OutcomeSkippedClosed
	}

	// Re-categorize from Google's actual types, then drop places whose
	// types disqualify them from the requested category unless a type
	// also matches it.
	resolved := presets.ResolveCategory(place.Types, category)
	if exclude := presets.CategoryExcludeTypes[category]; len(exclude) > 0 {
		excluded := false
		for _, t := range place.Types {
			if exclude[t] {
				excluded = true
				break
			}
		}
		if excluded {
			expected := presets.ExpectedTypes(category)
			matches := false
			for _, t := range place.Types {
				if expected[t] {
					matches = true
					break
				}
			}
			if !matches {
				return OutcomeSkippedMismatch
			}
		}
	}

	a.seen[place.PlaceID] = true
	a.records = append(a.records, models.BusinessRecord{
		Name:          place.Name,
		Category:      resolved,
		GoogleTypes:   strings.Join(place.Types, ", "),
		Address:       place.Address,
		Phone:         place.Phone,
		Website:       place.Website,
		Rating:        place.Rating,
		ReviewsCount:  place.ReviewsCount,
		PriceLevel:    priceLevelString(place.PriceLevel),
		OpeningHours:  strings.Join(place.OpeningHours, " | "),
		Description:   place.Description,
		Latitude:      place.Latitude,
		Longitude:     place.Longitude,
		GoogleMapsURL: place.GoogleMapsURL,
		PhotoURL:      place.PhotoURL,
		PlaceID:       place.PlaceID,
	})
	return OutcomeAdded
}

// Summarize computes the terminal summary: totals, per-category counts,
// average rating over rated records only (one decimal place), and the
// top five by rating with review count then discovery order as
// tie-breakers. The record list is sorted by category, then rating
// descending.
func (a *Aggregator) Summarize() *models.Summary {
	byCategory := make(map[string]int)
	var ratedSum float64
	ratedCount := 0

	for _, r := range a.records {
		byCategory[r.Category]++
		if r.Rating != nil {
			ratedSum += *r.Rating
			ratedCount++
		}
	}

	var avgRating *float64
	if ratedCount > 0 {
		avg := math.Round(ratedSum/float64(ratedCount)*10) / 10
		avgRating = &avg
	}

	// Top 5 by rating; discovery order preserved by the stable sort
	rated := make([]models.BusinessRecord, 0, ratedCount)
	for _, r := range a.records {
		if r.Rating != nil {
			rated = append(rated, r)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		if *rated[i].Rating != *rated[j].Rating {
			return *rated[i].Rating > *rated[j].Rating
		}
		return rated[i].ReviewsCount > rated[j].ReviewsCount
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	top5 := make([]models.TopPlace, len(rated))
	for i, r := range rated {
		top5[i] = models.TopPlace{
			Name:     r.Name,
			Category: r.Category,
			Rating:   *r.Rating,
			Reviews:  r.ReviewsCount,
		}
	}

	records := make([]models.BusinessRecord, len(a.records))
	copy(records, a.records)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Category != records[j].Category {
			return records[i].Category < records[j].Category
		}
		return ratingOrZero(records[i].Rating) > ratingOrZero(records[j].Rating)
	})

	return &models.Summary{
		Total:      len(records),
		ByCategory: byCategory,
		AvgRating:  avgRating,
		RatedCount: ratedCount,
		Top5:       top5,
		Businesses: records,
	}
}

func ratingOrZero(r *float64) float64 {
	if r == nil {
		return 0
	}
	return *r
}

func priceLevelString(level *int) string {
	if level == nil {
		return ""
	}
	if *level <= 0 {
		return "Free"
	}
	return strings.Repeat("$", *level)
}
