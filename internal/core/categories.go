package core

import "strings"

type CategoryID string

const (
	CategoryFood          CategoryID = "food"
	CategoryTransport     CategoryID = "transport"
	CategoryShopping      CategoryID = "shopping"
	CategoryEntertainment CategoryID = "entertainment"
	CategoryUtilities     CategoryID = "utilities"
	CategoryHousing       CategoryID = "housing"
	CategoryHealth        CategoryID = "health"
	CategoryEducation     CategoryID = "education"
	CategoryTravel        CategoryID = "travel"
	CategoryCoffee        CategoryID = "coffee"
	CategoryTech          CategoryID = "tech"
	CategoryOther         CategoryID = "other"
)

type Category struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

var categories = []Category{
	{CategoryFood, "Food & Dining"},
	{CategoryTransport, "Transport"},
	{CategoryShopping, "Shopping"},
	{CategoryEntertainment, "Entertainment"},
	{CategoryUtilities, "Utilities"},
	{CategoryHousing, "Housing"},
	{CategoryHealth, "Health"},
	{CategoryEducation, "Education"},
	{CategoryTravel, "Travel"},
	{CategoryCoffee, "Coffee"},
	{CategoryTech, "Tech"},
	{CategoryOther, "Other"},
}

var categoryIndex = func() map[CategoryID]Category {
	m := make(map[CategoryID]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// Categories returns the category catalogue in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory returns the category for id, falling back to Other.
func LookupCategory(id CategoryID) Category {
	if c, ok := categoryIndex[CategoryID(strings.ToLower(strings.TrimSpace(string(id))))]; ok {
		return c
	}
	return categoryIndex[CategoryOther]
}

// NormalizeCategory maps unknown or empty ids to CategoryOther.
func NormalizeCategory(id CategoryID) CategoryID {
	return LookupCategory(id).ID
}
