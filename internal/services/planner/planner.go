// Package planner expands a scrape request into the concrete list of
// Places API searches to run.
package planner

import (
	"fmt"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/presets"
)

// Places API accepted radius bounds in meters. Out-of-range values are
// clamped, not rejected.
const (
	MinRadius = 1
	MaxRadius = 50000
)

// CustomCategory labels queries that came from the free-text field
const CustomCategory = "Custom"

// Plan expands the request's categories and custom queries into an
// ordered, deduplicated sequence of planned queries. Category entries
// that match a preset key expand to that preset's templates; anything
// else becomes a single free-text query with a title-cased label.
// When the same (text, category) pair would be produced twice, the
// first occurrence wins.
func Plan(req *models.ScrapeRequest) ([]models.PlannedQuery, error) {
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("%w: location is required", models.ErrInvalidRequest)
	}

	var queries []models.PlannedQuery
	seen := make(map[string]bool)

	add := func(q models.PlannedQuery) {
		key := q.Text + "\x00" + q.Category
		if seen[key] {
			return
		}
		seen[key] = true
		queries = append(queries, q)
	}

	for _, cat := range req.Categories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(cat), " ", "-")
		if templates, ok := presets.Categories[key]; ok {
			for _, t := range templates {
				add(models.PlannedQuery{Text: t.Query, Category: t.Category, PlaceType: t.PlaceType})
			}
			continue
		}
		add(models.PlannedQuery{Text: cat, Category: titleCase(cat)})
	}

	for _, custom := range SplitCustomQueries(req.CustomQueries) {
		// Custom text matching a preset key still expands to the preset;
		// first match wins against anything already planned.
		key := strings.ReplaceAll(strings.ToLower(custom), " ", "-")
		if templates, ok := presets.Categories[key]; ok {
			for _, t := range templates {
				add(models.PlannedQuery{Text: t.Query, Category: t.Category, PlaceType: t.PlaceType})
			}
			continue
		}
		add(models.PlannedQuery{Text: custom, Category: CustomCategory})
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: select at least one category or enter custom queries", models.ErrInvalidRequest)
	}

	return queries, nil
}

// ClampRadius restricts a requested radius to the Places API bounds,
// substituting the default for zero/negative values.
func ClampRadius(radius, defaultRadius int) int {
	if radius <= 0 {
		radius = defaultRadius
	}
	if radius < MinRadius {
		return MinRadius
	}
	if radius > MaxRadius {
		return MaxRadius
	}
	return radius
}

// SplitCustomQueries splits the free-text field on commas, semicolons
// and newlines, trimming blanks.
func SplitCustomQueries(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
