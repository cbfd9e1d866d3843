package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/kinectkeys/internal/input"
)

// Binding is a stored override for one gesture's keys.
type Binding struct {
	Gesture   string
	Keys      []input.KeyCode
	Enabled   bool
	UpdatedAt time.Time
}

// BindingRepository provides CRUD operations for binding overrides.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Upsert inserts or replaces the override for b.Gesture.
func (r *BindingRepository) Upsert(b *Binding) error {
	b.UpdatedAt = time.Now()

	keys, err := json.Marshal(b.Keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO bindings (gesture, keys, enabled, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(gesture) DO UPDATE SET keys = excluded.keys, enabled = excluded.enabled, updated_at = excluded.updated_at`,
		b.Gesture, string(keys), b.Enabled, b.UpdatedAt,
	)
	return err
}

// Get retrieves the override for gesture.
func (r *BindingRepository) Get(gesture string) (*Binding, error) {
	row := r.db.QueryRow(
		`SELECT gesture, keys, enabled, updated_at FROM bindings WHERE gesture = ?`,
		gesture,
	)

	b, err := scanBinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List retrieves every override ordered by gesture name.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT gesture, keys, enabled, updated_at FROM bindings ORDER BY gesture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Delete removes the override for gesture, restoring the configured default.
func (r *BindingRepository) Delete(gesture string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE gesture = ?`, gesture)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBinding(row scanner) (*Binding, error) {
	b := &Binding{}
	var keys string
	var enabled int

	if err := row.Scan(&b.Gesture, &keys, &enabled, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keys), &b.Keys); err != nil {
		return nil, fmt.Errorf("decode keys for %s: %w", b.Gesture, err)
	}
	b.Enabled = enabled == 1
	return b, nil
}
