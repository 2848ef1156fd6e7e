package places

import (
	"strings"

	"citybites/internal/textutil"
)

// TagFilter selects OSM elements carrying key=value
type TagFilter struct {
	Key   string
	Value string
}

type theme struct {
	keywords []string
	filters  []TagFilter
}

// Themes are matched in order; the first theme with a keyword contained in
// the query wins
var themes = []theme{
	{
		keywords: []string{"cafe", "café", "coffee", "espresso", "brunch"},
		filters: []TagFilter{
			{Key: "amenity", Value: "cafe"},
			{Key: "amenity", Value: "coffee_shop"},
			{Key: "amenity", Value: "restaurant"},
		},
	},
	{
		keywords: []string{"restaurant", "food", "diner", "bistro", "street food"},
		filters: []TagFilter{
			{Key: "amenity", Value: "restaurant"},
			{Key: "amenity", Value: "fast_food"},
		},
	},
	{
		keywords: []string{"bar", "cocktail", "night", "pub"},
		filters: []TagFilter{
			{Key: "amenity", Value: "bar"},
			{Key: "amenity", Value: "pub"},
		},
	},
	{
		keywords: []string{"wine", "vin", "cave"},
		filters: []TagFilter{
			{Key: "amenity", Value: "wine_bar"},
			{Key: "shop", Value: "wine"},
		},
	},
	{
		keywords: []string{"dessert", "patisserie", "boulangerie", "sweet"},
		filters: []TagFilter{
			{Key: "shop", Value: "bakery"},
			{Key: "amenity", Value: "ice_cream"},
		},
	},
	{
		keywords: []string{"museum", "musée", "art"},
		filters: []TagFilter{
			{Key: "tourism", Value: "museum"},
			{Key: "tourism", Value: "gallery"},
		},
	},
	{
		keywords: []string{"kids", "famille", "family", "park", "parc"},
		filters: []TagFilter{
			{Key: "leisure", Value: "park"},
			{Key: "tourism", Value: "attraction"},
		},
	},
}

var defaultFilters = []TagFilter{
	{Key: "amenity", Value: "restaurant"},
	{Key: "amenity", Value: "cafe"},
	{Key: "amenity", Value: "bar"},
}

// PickFilters maps a free-text theme to OSM tag filters, ignoring case and
// accents. An empty or unrecognised query selects restaurants, cafes and bars.
func PickFilters(query string) []TagFilter {
	q := textutil.Normalize(query)
	if q == "" {
		return defaultFilters
	}

	for _, th := range themes {
		for _, kw := range th.keywords {
			if strings.Contains(q, textutil.Normalize(kw)) {
				return th.filters
			}
		}
	}

	return defaultFilters
}
