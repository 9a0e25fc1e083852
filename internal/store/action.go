package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// Action binds a gesture kind to a plugin action.
type Action struct {
	ID         string
	Gesture    gesture.Kind
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, gesture, plugin_name, action_name, config, enabled, created_at`

// Create inserts a new action into the database.
func (r *ActionRepository) Create(a *Action) error {
	if !a.Gesture.Valid() {
		return fmt.Errorf("unknown gesture %d", int(a.Gesture))
	}

	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Gesture.String(), a.PluginName, a.ActionName, string(configOrEmpty(a.Config)), boolToInt(a.Enabled), a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	row := r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)

	a, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves all actions, newest first.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC`)
}

// ListByGesture retrieves the enabled actions bound to kind, oldest first.
func (r *ActionRepository) ListByGesture(kind gesture.Kind) ([]*Action, error) {
	return r.query(
		`SELECT `+actionColumns+` FROM actions WHERE gesture = ? AND enabled = 1 ORDER BY created_at ASC`,
		kind.String(),
	)
}

// Update updates an existing action in the database.
func (r *ActionRepository) Update(a *Action) error {
	if !a.Gesture.Valid() {
		return fmt.Errorf("unknown gesture %d", int(a.Gesture))
	}

	result, err := r.db.Exec(
		`UPDATE actions SET gesture = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.Gesture.String(), a.PluginName, a.ActionName, string(configOrEmpty(a.Config)), boolToInt(a.Enabled), a.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Delete removes an action from the database by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *ActionRepository) query(q string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(row scanner) (*Action, error) {
	a := &Action{}
	var kind, config string
	var enabled int

	if err := row.Scan(&a.ID, &kind, &a.PluginName, &a.ActionName, &config, &enabled, &a.CreatedAt); err != nil {
		return nil, err
	}

	g, err := gesture.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	a.Gesture = g
	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func configOrEmpty(config json.RawMessage) json.RawMessage {
	if len(config) == 0 {
		return json.RawMessage("{}")
	}
	return config
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
