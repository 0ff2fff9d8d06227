// Package export renders a finished result set as a downloadable file.
// Exports are rendered on demand from the stored rows; nothing is
// pre-rendered or kept on disk.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/reperio/internal/models"
)

// headers is the column order shared by both export formats
var headers = []string{
	"Name", "Category", "Google Types", "Address", "Phone", "Website",
	"Rating", "Reviews", "Price Level", "Opening Hours", "Description",
	"Latitude", "Longitude", "Google Maps URL", "Photo URL", "Place ID",
}

// Filename builds the download name for a result set, e.g.
// businesses_lisbon_portugal_20260823_153000.xlsx
func Filename(location string, format string, at time.Time) string {
	return fmt.Sprintf("businesses_%s_%s.%s", slugify(location), at.Format("20060102_150405"), format)
}

// WriteCSV streams the result rows as CSV
func WriteCSV(w io.Writer, result *models.JobResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range result.Rows {
		if err := cw.Write(rowStrings(&result.Rows[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the result as a styled workbook: a Businesses sheet
// with a frozen, filterable header and banded rows, plus a Summary sheet.
func WriteXLSX(w io.Writer, result *models.JobResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Businesses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F5496"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	bandStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EDF2F9"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create band style: %w", err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i := range result.Rows {
		rowNum := i + 2
		values := rowValues(&result.Rows[i])
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
		}
		if rowNum%2 == 0 {
			start, _ := excelize.CoordinatesToCellName(1, rowNum)
			end, _ := excelize.CoordinatesToCellName(len(headers), rowNum)
			if err := f.SetCellStyle(sheet, start, end, bandStyle); err != nil {
				return fmt.Errorf("failed to style row %d: %w", rowNum, err)
			}
		}
	}

	setColumnWidths(f, sheet)

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	filterRange := fmt.Sprintf("A1:%s%d", lastCol, len(result.Rows)+1)
	if err := f.AutoFilter(sheet, filterRange, nil); err != nil {
		return fmt.Errorf("failed to set auto filter: %w", err)
	}

	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *models.JobResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}

	row := 1
	set := func(col int, value interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheet, cell, value)
	}
	title := func(text string) {
		set(1, text)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellStyle(sheet, cell, cell, titleStyle)
		row++
	}

	title("Scrape Summary")
	set(1, "Location")
	set(2, result.Location)
	row++
	set(1, "Generated")
	set(2, result.CreatedAt.Format(time.RFC3339))
	row++
	set(1, "Total Businesses")
	set(2, result.Summary.Total)
	row++
	set(1, "Rated Businesses")
	set(2, result.Summary.RatedCount)
	row++
	if result.Summary.AvgRating != nil {
		set(1, "Average Rating")
		set(2, *result.Summary.AvgRating)
		row++
	}
	row++

	title("By Category")
	for _, cat := range sortedCategories(result.Summary.ByCategory) {
		set(1, cat)
		set(2, result.Summary.ByCategory[cat])
		row++
	}
	row++

	if len(result.Summary.Top5) > 0 {
		title("Top Rated")
		for _, top := range result.Summary.Top5 {
			set(1, top.Name)
			set(2, top.Category)
			set(3, top.Rating)
			set(4, top.Reviews)
			row++
		}
	}

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "B", 28)
	return nil
}

func setColumnWidths(f *excelize.File, sheet string) {
	widths := map[string]float64{
		"A": 30, // Name
		"B": 18, // Category
		"C": 28, // Google Types
		"D": 40, // Address
		"E": 18, // Phone
		"F": 32, // Website
		"G": 8,  // Rating
		"H": 10, // Reviews
		"I": 10, // Price Level
		"J": 48, // Opening Hours
		"K": 42, // Description
		"L": 11, // Latitude
		"M": 11, // Longitude
		"N": 32, // Google Maps URL
		"O": 32, // Photo URL
		"P": 28, // Place ID
	}
	for col, width := range widths {
		f.SetColWidth(sheet, col, col, width)
	}
}

// rowValues keeps native types so Excel treats numbers as numbers
func rowValues(r *models.BusinessRecord) []interface{} {
	values := []interface{}{
		r.Name, r.Category, r.GoogleTypes, r.Address, r.Phone, r.Website,
		nil, r.ReviewsCount, r.PriceLevel, r.OpeningHours, r.Description,
		nil, nil, r.GoogleMapsURL, r.PhotoURL, r.PlaceID,
	}
	if r.Rating != nil {
		values[6] = *r.Rating
	} else {
		values[6] = ""
	}
	if r.Latitude != nil {
		values[11] = *r.Latitude
	} else {
		values[11] = ""
	}
	if r.Longitude != nil {
		values[12] = *r.Longitude
	} else {
		values[12] = ""
	}
	return values
}

func rowStrings(r *models.BusinessRecord) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	lat, lng := "", ""
	if r.Latitude != nil {
		lat = strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
	}
	if r.Longitude != nil {
		lng = strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
	}
	return []string{
		r.Name, r.Category, r.GoogleTypes, r.Address, r.Phone, r.Website,
		rating, strconv.Itoa(r.ReviewsCount), r.PriceLevel, r.OpeningHours,
		r.Description, lat, lng, r.GoogleMapsURL, r.PhotoURL, r.PlaceID,
	}
}

func sortedCategories(byCategory map[string]int) []string {
	keys := make([]string, 0, len(byCategory))
	for k := range byCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == ',' || r == '-' || r == '_' || r == '.':
			b.WriteRune('_')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	return strings.Trim(slug, "_")
}
