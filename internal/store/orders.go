package store

import (
	"sync"

	"tabletap/internal/model"
)

// OrderCache is a read-mostly projection of server-side orders: the active
// list per restaurant and the order list per table. Fetches overwrite
// wholesale; push events patch only the status field of the matching entity,
// leaving everything else untouched. Unknown ids are a no-op, never an
// insertion.
type OrderCache struct {
	mu           sync.RWMutex
	byRestaurant map[string][]model.Order
	byTable      map[string][]model.Order
}

func NewOrderCache() *OrderCache {
	return &OrderCache{
		byRestaurant: make(map[string][]model.Order),
		byTable:      make(map[string][]model.Order),
	}
}

// cloneOrder detaches an order from any backing arrays shared with the
// caller. Push events patch order and KOT statuses in place, so the cache
// must never alias memory that handlers hand in or render from.
func cloneOrder(o model.Order) model.Order {
	if o.KOTs != nil {
		o.KOTs = append([]model.KOT(nil), o.KOTs...)
	}
	if o.Items != nil {
		o.Items = append([]model.OrderItem(nil), o.Items...)
	}
	return o
}

func cloneOrders(orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	for i, o := range orders {
		out[i] = cloneOrder(o)
	}
	return out
}

// SetActive replaces the active order list for a restaurant. The input is
// deep-copied; the caller keeps sole ownership of its slice.
func (c *OrderCache) SetActive(restaurantID string, orders []model.Order) {
	cloned := cloneOrders(orders)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRestaurant[restaurantID] = cloned
}

// Active returns a deep copy of the active order list for a restaurant.
// Later patches never show through a returned snapshot.
func (c *OrderCache) Active(restaurantID string) []model.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneOrders(c.byRestaurant[restaurantID])
}

// SetForTable replaces the order list for a table. The input is deep-copied.
func (c *OrderCache) SetForTable(tableID string, orders []model.Order) {
	cloned := cloneOrders(orders)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byTable[tableID] = cloned
}

// ForTable returns a deep copy of the order list for a table.
func (c *OrderCache) ForTable(tableID string) []model.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneOrders(c.byTable[tableID])
}

// Prepend inserts a newly created order at the head of both the restaurant
// and table lists it belongs to. Each list gets its own copy.
func (c *OrderCache) Prepend(order model.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRestaurant[order.RestaurantID] = append([]model.Order{cloneOrder(order)}, c.byRestaurant[order.RestaurantID]...)
	c.byTable[order.TableID] = append([]model.Order{cloneOrder(order)}, c.byTable[order.TableID]...)
}

// PatchStatus updates the status of the order with the given id wherever it
// appears. Returns true if any entry was patched.
func (c *OrderCache) PatchStatus(orderID, status string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	patched := false
	for _, list := range []map[string][]model.Order{c.byRestaurant, c.byTable} {
		for key, orders := range list {
			for i := range orders {
				if orders[i].ID == orderID {
					orders[i].Status = status
					patched = true
				}
			}
			list[key] = orders
		}
	}
	return patched
}

// PatchKOTStatus updates the status of the KOT with the given id on whichever
// cached order carries it.
func (c *OrderCache) PatchKOTStatus(kotID, status string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	patched := false
	for _, list := range []map[string][]model.Order{c.byRestaurant, c.byTable} {
		for _, orders := range list {
			for i := range orders {
				for j := range orders[i].KOTs {
					if orders[i].KOTs[j].ID == kotID {
						orders[i].KOTs[j].Status = status
						patched = true
					}
				}
			}
		}
	}
	return patched
}

// Get returns the cached order with the given id, if any list holds it.
func (c *OrderCache) Get(orderID string) (model.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, list := range []map[string][]model.Order{c.byRestaurant, c.byTable} {
		for _, orders := range list {
			for i := range orders {
				if orders[i].ID == orderID {
					return cloneOrder(orders[i]), true
				}
			}
		}
	}
	return model.Order{}, false
}

// FindByKOT returns the cached order carrying the given kitchen ticket.
func (c *OrderCache) FindByKOT(kotID string) (model.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, list := range []map[string][]model.Order{c.byRestaurant, c.byTable} {
		for _, orders := range list {
			for i := range orders {
				for j := range orders[i].KOTs {
					if orders[i].KOTs[j].ID == kotID {
						return cloneOrder(orders[i]), true
					}
				}
			}
		}
	}
	return model.Order{}, false
}

// Remove drops an order from both lists (after payment settles it).
func (c *OrderCache) Remove(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, list := range []map[string][]model.Order{c.byRestaurant, c.byTable} {
		for key, orders := range list {
			kept := orders[:0]
			for _, o := range orders {
				if o.ID != orderID {
					kept = append(kept, o)
				}
			}
			list[key] = kept
		}
	}
}
