package submission

import (
	"slices"
	"strings"
)

// CategoryOther is where every unrecognised service lands
const CategoryOther = "other"

// Categories is the allow-list of service categories the marketplace accepts
var Categories = []string{
	"photography",
	"videography",
	"catering",
	"music",
	"decoration",
	"lighting",
	"sound",
	"security",
	"transportation",
	"entertainment",
	"flowers",
	"furniture",
	CategoryOther,
}

// synonyms maps the free-form service keys producers pick to a canonical category
var synonyms = map[string]string{
	"dj":           "music",
	"band":         "music",
	"musician":     "music",
	"venue":        CategoryOther,
	"transport":    "transportation",
	"car":          "transportation",
	"bus":          "transportation",
	"cake":         "catering",
	"food":         "catering",
	"drinks":       "catering",
	"bar":          "catering",
	"photographer": "photography",
	"photo":        "photography",
	"video":        "videography",
	"videographer": "videography",
	"decor":        "decoration",
	"decorations":  "decoration",
	"lights":       "lighting",
	"audio":        "sound",
	"speakers":     "sound",
	"guard":        "security",
	"guards":       "security",
	"florist":      "flowers",
	"flower":       "flowers",
	"chairs":       "furniture",
	"tables":       "furniture",
	"magician":     "entertainment",
	"clown":        "entertainment",
	"performer":    "entertainment",
}

// NormalizeCategory maps a service key to one of Categories
func NormalizeCategory(service string) string {
	key := strings.ToLower(strings.TrimSpace(service))
	if slices.Contains(Categories, key) {
		return key
	}
	if category, ok := synonyms[key]; ok {
		return category
	}
	return CategoryOther
}

// NormalizeServices maps every service to its category, keeping the first
// occurrence of each.
func NormalizeServices(services []string) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		if category := NormalizeCategory(s); !slices.Contains(out, category) {
			out = append(out, category)
		}
	}
	return out
}
