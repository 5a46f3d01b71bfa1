package core

import "strings"

// Category is one of the fixed expense categories.
type Category string

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Shopping      Category = "shopping"
	Bills         Category = "bills"
	Entertainment Category = "entertainment"
	Health        Category = "health"
	Education     Category = "education"
	Other         Category = "other"
)

type categoryInfo struct {
	name  string
	icon  string
	color string
}

var categories = map[Category]categoryInfo{
	Food:          {name: "Food & Dining", icon: "🍔", color: "#ef4444"},
	Transport:     {name: "Transportation", icon: "🚗", color: "#3b82f6"},
	Shopping:      {name: "Shopping", icon: "🛍️", color: "#ec4899"},
	Bills:         {name: "Bills & Utilities", icon: "💡", color: "#f59e0b"},
	Entertainment: {name: "Entertainment", icon: "🎬", color: "#8b5cf6"},
	Health:        {name: "Healthcare", icon: "💊", color: "#10b981"},
	Education:     {name: "Education", icon: "📚", color: "#06b6d4"},
	Other:         {name: "Other", icon: "📌", color: "#6b7280"},
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Food, Transport, Shopping, Bills, Entertainment, Health, Education, Other}
}

// ParseCategory accepts a category key, case-insensitively.
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

// DisplayName is the human-readable name, e.g. "Bills & Utilities".
func (c Category) DisplayName() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return string(c)
}

func (c Category) Icon() string {
	return categories[c].icon
}

// Color is the chart color as a hex string.
func (c Category) Color() string {
	if info, ok := categories[c]; ok {
		return info.color
	}
	return "#6b7280"
}
