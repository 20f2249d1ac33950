package store

import (
	"strings"
	"sync"

	"tabletap/internal/model"
)

// Dietary filter values for the customer menu.
const (
	FilterAll    = "ALL"
	FilterVeg    = "VEG"
	FilterNonVeg = "NON_VEG"
)

// MenuCache holds the category tree fetched per restaurant. Filter state
// itself (selected category, search, dietary choice) travels in query
// parameters; this cache only provides the data and the derived filtering.
type MenuCache struct {
	mu         sync.RWMutex
	categories map[string][]model.Category
}

func NewMenuCache() *MenuCache {
	return &MenuCache{categories: make(map[string][]model.Category)}
}

// SetCategories replaces the cached category tree for a restaurant wholesale.
func (m *MenuCache) SetCategories(restaurantID string, cats []model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[restaurantID] = cats
}

// Categories returns a copy of the cached category tree for a restaurant.
func (m *MenuCache) Categories(restaurantID string) []model.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Category, len(m.categories[restaurantID]))
	copy(out, m.categories[restaurantID])
	return out
}

// FilterCategories narrows a category tree by category selection, search
// query (matched against item name and description, case-insensitive), and
// dietary filter. Categories left with no matching items are dropped.
func FilterCategories(cats []model.Category, categoryID, query, dietary string) []model.Category {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []model.Category
	for _, cat := range cats {
		if categoryID != "" && cat.ID != categoryID {
			continue
		}

		var items []model.MenuItem
		for _, item := range cat.MenuItems {
			if !matchesSearch(item, query) {
				continue
			}
			if dietary != "" && dietary != FilterAll && item.Dietary != dietary {
				continue
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			continue
		}

		cat.MenuItems = items
		out = append(out, cat)
	}
	return out
}

func matchesSearch(item model.MenuItem, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), query) ||
		strings.Contains(strings.ToLower(item.Description), query)
}

// FindItem looks an item up by id across the cached categories.
func (m *MenuCache) FindItem(restaurantID, itemID string) (model.MenuItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cat := range m.categories[restaurantID] {
		for _, item := range cat.MenuItems {
			if item.ID == itemID {
				return item, true
			}
		}
	}
	return model.MenuItem{}, false
}
