package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tabletap/internal/model"
	"tabletap/internal/seal"
)

// SessionStore holds the two identity contexts a browser may carry: a staff
// session (back-office) and a customer session (table visit). The two live in
// separate tables and never overwrite one another. Backend-issued tokens are
// sealed before they touch disk.
type SessionStore struct {
	db     *sql.DB
	sealer *seal.Sealer
}

func NewSessionStore(db *sql.DB, sealer *seal.Sealer) *SessionStore {
	return &SessionStore{db: db, sealer: sealer}
}

// Ensure registers a browser session id and bumps its last-seen time.
func (s *SessionStore) Ensure(sessionID string) error {
	_, err := s.db.Exec(
		`INSERT INTO browser_sessions (id, last_seen_at) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		sessionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure browser session: %w", err)
	}
	return nil
}

// --- Staff session ---

func (s *SessionStore) SetStaff(sessionID, token string, user model.Staff) error {
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("seal staff token: %w", err)
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode staff profile: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO staff_sessions (browser_session_id, token, user_json) VALUES (?, ?, ?)
		 ON CONFLICT (browser_session_id) DO UPDATE SET token = excluded.token, user_json = excluded.user_json`,
		sessionID, sealed, string(userJSON),
	)
	if err != nil {
		return fmt.Errorf("set staff session: %w", err)
	}
	return nil
}

// Staff returns the stored staff session, or nil when the browser session has
// none.
func (s *SessionStore) Staff(sessionID string) (*model.StaffSession, error) {
	var sealed, userJSON string
	err := s.db.QueryRow(
		`SELECT token, user_json FROM staff_sessions WHERE browser_session_id = ?`, sessionID,
	).Scan(&sealed, &userJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff session: %w", err)
	}

	token, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open staff token: %w", err)
	}

	var sess model.StaffSession
	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return nil, fmt.Errorf("decode staff profile: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

func (s *SessionStore) ClearStaff(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM staff_sessions WHERE browser_session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("clear staff session: %w", err)
	}
	return nil
}

// --- Customer session ---

func (s *SessionStore) SetCustomer(sessionID string, cs model.CustomerSession) error {
	sealed, err := s.sealer.Seal(cs.SessionToken)
	if err != nil {
		return fmt.Errorf("seal customer token: %w", err)
	}
	customerJSON, err := json.Marshal(cs.Customer)
	if err != nil {
		return fmt.Errorf("encode customer profile: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO customer_sessions (browser_session_id, session_token, customer_json, table_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT (browser_session_id) DO UPDATE SET session_token = excluded.session_token, customer_json = excluded.customer_json, table_id = excluded.table_id`,
		sessionID, sealed, string(customerJSON), cs.TableID,
	)
	if err != nil {
		return fmt.Errorf("set customer session: %w", err)
	}
	return nil
}

// Customer returns the stored customer session, or nil when none exists.
func (s *SessionStore) Customer(sessionID string) (*model.CustomerSession, error) {
	var sealed, customerJSON, tableID string
	err := s.db.QueryRow(
		`SELECT session_token, customer_json, table_id FROM customer_sessions WHERE browser_session_id = ?`, sessionID,
	).Scan(&sealed, &customerJSON, &tableID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer session: %w", err)
	}

	token, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open customer token: %w", err)
	}

	var cs model.CustomerSession
	if err := json.Unmarshal([]byte(customerJSON), &cs.Customer); err != nil {
		return nil, fmt.Errorf("decode customer profile: %w", err)
	}
	cs.SessionToken = token
	cs.TableID = tableID
	return &cs, nil
}

func (s *SessionStore) ClearCustomer(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM customer_sessions WHERE browser_session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("clear customer session: %w", err)
	}
	return nil
}

// CleanupBefore deletes browser sessions idle since the cutoff; staff,
// customer, and cart rows follow by cascade.
func (s *SessionStore) CleanupBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM browser_sessions WHERE last_seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
