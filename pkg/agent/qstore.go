package agent

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// QMeta is the bookkeeping row persisted next to the table.
type QMeta struct {
	Episodes int
	Epsilon  float64
}

// QStore persists a QTable in SQLite, one row per (state, action) pair.
type QStore struct {
	db *sql.DB
}

// OpenQStore opens (and if needed creates) the database at path.
func OpenQStore(path string) (*QStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open qtable db: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open qtable db: %w", err)
	}
	store := &QStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate qtable db: %w", err)
	}
	return store, nil
}

func (s *QStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS qtable (
		state  TEXT    NOT NULL,
		action INTEGER NOT NULL,
		value  REAL    NOT NULL,
		PRIMARY KEY (state, action)
	);
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value REAL NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the whole table. An empty database yields an empty table and
// zero meta.
func (s *QStore) Load() (QTable, QMeta, error) {
	table := QTable{}
	rows, err := s.db.Query(`SELECT state, action, value FROM qtable`)
	if err != nil {
		return nil, QMeta{}, fmt.Errorf("load qtable: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var action int
		var value float64
		if err := rows.Scan(&state, &action, &value); err != nil {
			return nil, QMeta{}, fmt.Errorf("load qtable: %w", err)
		}
		if action < 0 || action > 3 {
			continue
		}
		table.get(state)[action] = value
	}
	if err := rows.Err(); err != nil {
		return nil, QMeta{}, fmt.Errorf("load qtable: %w", err)
	}

	meta := QMeta{}
	var v float64
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'episodes'`).Scan(&v); err == nil {
		meta.Episodes = int(v)
	}
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'epsilon'`).Scan(&v); err == nil {
		meta.Epsilon = v
	}
	return table, meta, nil
}

// Save upserts every entry and the meta rows, in one transaction.
func (s *QStore) Save(table QTable, meta QMeta) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save qtable: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO qtable (state, action, value) VALUES (?, ?, ?)
		ON CONFLICT (state, action) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("save qtable: %w", err)
	}
	defer stmt.Close()

	for state, qs := range table {
		for action, value := range qs {
			if _, err := stmt.Exec(state, action, value); err != nil {
				return fmt.Errorf("save qtable state %q: %w", state, err)
			}
		}
	}

	for key, value := range map[string]float64{
		"episodes": float64(meta.Episodes),
		"epsilon":  meta.Epsilon,
	} {
		_, err := tx.Exec(`
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
		if err != nil {
			return fmt.Errorf("save meta %q: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *QStore) Close() error {
	return s.db.Close()
}
