package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/kinectkeys/internal/input"
)

// Event is one fired gesture.
type Event struct {
	ID      string          `json:"id"`
	Gesture string          `json:"gesture"`
	Kind    string          `json:"kind"`
	Keys    []input.KeyCode `json:"keys"`
	BodyID  int             `json:"body_id"`
	FiredAt time.Time       `json:"fired_at"`
}

// EventRepository records and queries fired gestures.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e, assigning an ID and fire time when they are unset.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = time.Now()
	}

	keys, err := json.Marshal(e.Keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO events (id, gesture, kind, keys, body_id, fired_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Gesture, e.Kind, string(keys), e.BodyID, e.FiredAt.UnixMilli(),
	)
	return err
}

// List returns up to limit events, newest first. A limit of zero or less returns all events.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, kind, keys, body_id, fired_at FROM events
		 ORDER BY fired_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var keys string
		var firedAt int64

		if err := rows.Scan(&e.ID, &e.Gesture, &e.Kind, &keys, &e.BodyID, &firedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(keys), &e.Keys); err != nil {
			return nil, fmt.Errorf("decode keys for event %s: %w", e.ID, err)
		}
		e.FiredAt = time.UnixMilli(firedAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// DeleteBefore removes events fired before t and returns how many were removed.
func (r *EventRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE fired_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
