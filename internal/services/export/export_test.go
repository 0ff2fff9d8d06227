package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/reperio/internal/models"
)

func sampleResult() *models.JobResult {
	rating := 4.5
	avg := 4.5
	lat, lng := 38.7223, -9.1393
	return &models.JobResult{
		JobID:    "job-1",
		Location: "Lisbon, Portugal",
		Rows: []models.BusinessRecord{
			{
				Name:          "Bistro",
				Category:      "Restaurant",
				GoogleTypes:   "restaurant, food",
				Address:       "Rua X 1, Lisbon",
				Phone:         "+351 21 000 0000",
				Website:       "https://bistro.example",
				Rating:        &rating,
				ReviewsCount:  120,
				PriceLevel:    "$$",
				OpeningHours:  "Monday: 9-5 | Tuesday: 9-5",
				Description:   "Cozy spot.",
				Latitude:      &lat,
				Longitude:     &lng,
				GoogleMapsURL: "https://maps.google.com/?cid=1",
				PlaceID:       "p1",
			},
			{
				Name:     "Unrated Stand",
				Category: "Restaurant",
				PlaceID:  "p2",
			},
		},
		Summary: models.Summary{
			Total:      2,
			ByCategory: map[string]int{"Restaurant": 2},
			AvgRating:  &avg,
			RatedCount: 1,
			Top5:       []models.TopPlace{{Name: "Bistro", Category: "Restaurant", Rating: 4.5, Reviews: 120}},
		},
		CreatedAt: time.Now(),
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 8, 23, 15, 30, 0, 0, time.UTC)
	assert.Equal(t,
		"businesses_lisbon_portugal_20260823_153000.xlsx",
		Filename("Lisbon, Portugal", "xlsx", at))
	assert.Equal(t,
		"businesses_porto_alegre_20260823_153000.csv",
		Filename("  Porto  Alegre ", "csv", at))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")

	assert.Equal(t, headers, records[0])
	assert.Equal(t, "Bistro", records[1][0])
	assert.Equal(t, "4.5", records[1][6])
	assert.Equal(t, "120", records[1][7])
	assert.Equal(t, "", records[2][6], "missing rating exports as blank")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Businesses")
	assert.Contains(t, sheets, "Summary")
	assert.NotContains(t, sheets, "Sheet1")

	name, err := f.GetCellValue("Businesses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Name", name)

	firstRow, err := f.GetCellValue("Businesses", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Bistro", firstRow)

	rating, err := f.GetCellValue("Businesses", "G2")
	require.NoError(t, err)
	assert.Equal(t, "4.5", rating)

	summaryTitle, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Scrape Summary", summaryTitle)
}

func TestWriteXLSXEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	result := &models.JobResult{
		JobID:    "job-1",
		Location: "Lisbon",
		Summary:  models.Summary{ByCategory: map[string]int{}},
	}
	require.NoError(t, WriteXLSX(&buf, result))
	assert.NotZero(t, buf.Len())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Lisbon, Portugal", "lisbon_portugal"},
		{"New York City", "new_york_city"},
		{"  -- odd -- input --  ", "odd_input"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, slugify(tt.in))
	}
}
