package speech

import (
	"strings"

	"github.com/samber/lo"
)

// Category names a voice bucket
type Category string

const (
	CategoryHindi         Category = "hindi"
	CategoryIndianEnglish Category = "indian_english"
	CategoryOthers        Category = "others"
)

// Categories partitions a voice list. Every voice lands in exactly one
// bucket.
type Categories struct {
	Hindi         []Voice `json:"hindi"`
	IndianEnglish []Voice `json:"indianEnglish"`
	Others        []Voice `json:"others"`
}

// Classify returns the bucket for v. Hindi is checked first, so a voice
// matching both Hindi and Indian English counts as Hindi.
func Classify(v Voice) Category {
	name := strings.ToLower(v.Name)
	switch {
	case strings.Contains(v.Lang, "hi") || strings.Contains(name, "hindi"):
		return CategoryHindi
	case v.Lang == "en-IN" || (strings.Contains(v.Lang, "en") && strings.Contains(name, "india")):
		return CategoryIndianEnglish
	default:
		return CategoryOthers
	}
}

// Categorize splits voices into the three buckets, keeping their order
func Categorize(voices []Voice) Categories {
	groups := lo.GroupBy(voices, Classify)
	return Categories{
		Hindi:         nonNil(groups[CategoryHindi]),
		IndianEnglish: nonNil(groups[CategoryIndianEnglish]),
		Others:        nonNil(groups[CategoryOthers]),
	}
}

// All returns the buckets concatenated
func (c Categories) All() []Voice {
	return lo.Flatten([][]Voice{c.Hindi, c.IndianEnglish, c.Others})
}

func nonNil(v []Voice) []Voice {
	if v == nil {
		return []Voice{}
	}
	return v
}
