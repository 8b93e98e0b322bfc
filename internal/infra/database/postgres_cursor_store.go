// internal/infra/database/postgres_cursor_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// cursorRowID is the primary key of the only delivery_cursor row.
const cursorRowID = 1

type PostgresCursorStore struct {
	db *sql.DB
}

func NewPostgresCursorStore(db *sql.DB) *PostgresCursorStore {
	return &PostgresCursorStore{db: db}
}

func (s *PostgresCursorStore) Load(ctx context.Context) (int, error) {
	query := `SELECT last_index FROM delivery_cursor WHERE id = $1`
	var index int
	err := s.db.QueryRowContext(ctx, query, cursorRowID).Scan(&index)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("error loading delivery cursor: %w", err)
	}
	return index, nil
}

// Save upserts the cursor row in a single statement.
func (s *PostgresCursorStore) Save(ctx context.Context, index int) error {
	query := `INSERT INTO delivery_cursor (id, last_index, updated_at)
               VALUES ($1, $2, NOW())
               ON CONFLICT (id) DO UPDATE SET last_index = EXCLUDED.last_index, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, cursorRowID, index); err != nil {
		return fmt.Errorf("error saving delivery cursor: %w", err)
	}
	return nil
}
