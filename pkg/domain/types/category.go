package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Category is the closed set of memory categories
type Category string

const (
	CategoryPersonalInfo  Category = "personal_info"
	CategoryFamily        Category = "family"
	CategoryWork          Category = "work"
	CategoryEmotional     Category = "emotional"
	CategoryRelationships Category = "relationships"
	CategoryHealth        Category = "health"
	CategoryGoals         Category = "goals"
	CategoryChallenges    Category = "challenges"
	CategoryAchievements  Category = "achievements"
	CategoryPreferences   Category = "preferences"
)

// AllCategories returns all valid categories in display order
func AllCategories() []Category {
	return []Category{
		CategoryPersonalInfo,
		CategoryFamily,
		CategoryWork,
		CategoryEmotional,
		CategoryRelationships,
		CategoryHealth,
		CategoryGoals,
		CategoryChallenges,
		CategoryAchievements,
		CategoryPreferences,
	}
}

// IsValid checks if the category belongs to the closed set
func (c Category) IsValid() bool {
	switch c {
	case CategoryPersonalInfo,
		CategoryFamily,
		CategoryWork,
		CategoryEmotional,
		CategoryRelationships,
		CategoryHealth,
		CategoryGoals,
		CategoryChallenges,
		CategoryAchievements,
		CategoryPreferences:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", goerr.New("invalid category", goerr.V("category", s))
	}
	return c, nil
}
