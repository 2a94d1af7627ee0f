package core

import "strings"

// CategorySetVersion identifies the fixed set of categories below.
// Bump it whenever a category is added or removed.
const CategorySetVersion = 1

type Category string

const (
	Food          Category = "food"
	Travel        Category = "travel"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Utilities     Category = "utilities"
	Health        Category = "health"
	Other         Category = "other"
)

type categoryInfo struct {
	label string
	color string
}

var categories = map[Category]categoryInfo{
	Food:          {label: "Food", color: "#A000FF"},
	Travel:        {label: "Travel", color: "#FDE006"},
	Entertainment: {label: "Entertainment", color: "#FF9304"},
	Shopping:      {label: "Shopping", color: "#00C49F"},
	Utilities:     {label: "Utilities", color: "#0088FE"},
	Health:        {label: "Health", color: "#FF4D6D"},
	Other:         {label: "Other", color: "#8784D2"},
}

// Categories returns the full category set in display order.
func Categories() []Category {
	return []Category{Food, Travel, Entertainment, Shopping, Utilities, Health, Other}
}

// ParseCategory matches s case-insensitively against the category set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Label is the human readable name, e.g. "Food".
func (c Category) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return string(c)
}

// Color is the chart color hint for the category.
func (c Category) Color() string {
	if info, ok := categories[c]; ok {
		return info.color
	}
	return "#999999"
}

func (c Category) String() string { return string(c) }
