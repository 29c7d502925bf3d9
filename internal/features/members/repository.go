// Package members — repository.go хранит активных пользователей в PostgreSQL.
package members

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей active_users.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Touch отмечает пользователя активным, обновляя время последней активности.
func (r *Repository) Touch(ctx context.Context, userID int64, username string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO active_users (user_id, username, last_active)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET username = EXCLUDED.username, last_active = NOW()`,
		userID, username)
	if err != nil {
		return fmt.Errorf("ошибка сохранения активного пользователя: %w", err)
	}
	return nil
}

// All возвращает всех активных пользователей.
func (r *Repository) All(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COALESCE(username, ''), last_active
		 FROM active_users
		 ORDER BY last_active DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки активных пользователей: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.LastActive); err != nil {
			return nil, fmt.Errorf("ошибка чтения активного пользователя: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
