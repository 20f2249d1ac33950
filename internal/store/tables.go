package store

import (
	"sync"

	"tabletap/internal/model"
)

// TableCache mirrors the table list per restaurant. Fetches overwrite
// wholesale; tableStatusUpdated events patch only the status field.
type TableCache struct {
	mu           sync.RWMutex
	byRestaurant map[string][]model.Table
}

func NewTableCache() *TableCache {
	return &TableCache{byRestaurant: make(map[string][]model.Table)}
}

// Set replaces the table list for a restaurant. The input is copied so later
// status patches never write into the caller's slice; Table carries no
// nested slices, so an element copy detaches it fully.
func (c *TableCache) Set(restaurantID string, tables []model.Table) {
	cp := make([]model.Table, len(tables))
	copy(cp, tables)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRestaurant[restaurantID] = cp
}

// Tables returns a copy of the table list for a restaurant.
func (c *TableCache) Tables(restaurantID string) []model.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Table, len(c.byRestaurant[restaurantID]))
	copy(out, c.byRestaurant[restaurantID])
	return out
}

// Get finds a table by id across cached restaurants.
func (c *TableCache) Get(tableID string) (model.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, tables := range c.byRestaurant {
		for _, t := range tables {
			if t.ID == tableID {
				return t, true
			}
		}
	}
	return model.Table{}, false
}

// PatchStatus updates the status of the matching table. Unknown ids are a
// no-op. Returns true if a table was patched.
func (c *TableCache) PatchStatus(tableID, status string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	patched := false
	for key, tables := range c.byRestaurant {
		for i := range tables {
			if tables[i].ID == tableID {
				tables[i].Status = status
				patched = true
			}
		}
		c.byRestaurant[key] = tables
	}
	return patched
}
