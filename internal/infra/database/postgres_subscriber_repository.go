package database

import (
	"context"
	"database/sql"
	"fmt"

	"daily_revelation_bot/internal/domain/subscriber"
)

type PostgresSubscriberRepository struct {
	db *sql.DB
}

func NewPostgresSubscriberRepository(db *sql.DB) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{db: db}
}

// Register relies on the primary key for deduplication, so concurrent
// registrations of the same chat insert at most one row.
func (r *PostgresSubscriberRepository) Register(ctx context.Context, id subscriber.ID) (bool, error) {
	query := `INSERT INTO subscribers (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, int64(id))
	if err != nil {
		return false, fmt.Errorf("error inserting subscriber %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for subscriber %s: %w", id, err)
	}
	return n == 1, nil
}

func (r *PostgresSubscriberRepository) ListAll(ctx context.Context) ([]subscriber.ID, error) {
	query := `SELECT chat_id FROM subscribers ORDER BY registered_at, chat_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing subscribers: %w", err)
	}
	defer rows.Close()

	ids := make([]subscriber.ID, 0)
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("error scanning subscriber: %w", err)
		}
		ids = append(ids, subscriber.ID(chatID))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}
	return ids, nil
}
