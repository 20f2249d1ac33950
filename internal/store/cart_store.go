package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tabletap/internal/model"
)

// CartStore persists carts to the local database, one serialized row per
// browser session, so a cart survives a page reload. It wraps the in-memory
// Cart rather than replacing it: load, mutate, save.
type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

// Load rehydrates the cart for a browser session. A session with no stored
// cart gets a fresh empty one.
func (s *CartStore) Load(sessionID string) (*Cart, error) {
	var itemsJSON string
	err := s.db.QueryRow(
		`SELECT items_json FROM cart_storage WHERE browser_session_id = ?`, sessionID,
	).Scan(&itemsJSON)
	if err == sql.ErrNoRows {
		return NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []model.CartItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return RestoreCart(items), nil
}

// Save writes the cart's current line items for a browser session,
// overwriting any previous snapshot.
func (s *CartStore) Save(sessionID string, c *Cart) error {
	itemsJSON, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO cart_storage (browser_session_id, items_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (browser_session_id) DO UPDATE SET items_json = excluded.items_json, updated_at = excluded.updated_at`,
		sessionID, string(itemsJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the stored cart for a browser session.
func (s *CartStore) Clear(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM cart_storage WHERE browser_session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
