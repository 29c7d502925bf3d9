// Package subscription — repository.go хранит подписчиков в PostgreSQL.
package subscription

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей subscribers.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Add добавляет или продлевает подписку на days дней от текущего момента.
func (r *Repository) Add(ctx context.Context, userID int64, username string, days int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscribers (user_id, username, paid_until)
		 VALUES ($1, $2, NOW() + make_interval(days => $3))
		 ON CONFLICT (user_id) DO UPDATE
		 SET username = EXCLUDED.username, paid_until = EXCLUDED.paid_until`,
		userID, username, days)
	if err != nil {
		return fmt.Errorf("ошибка сохранения подписчика: %w", err)
	}
	return nil
}

// Remove удаляет подписку. Возвращает false, если подписчик не найден.
func (r *Repository) Remove(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscribers WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления подписчика: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Expired возвращает подписчиков с истёкшим сроком оплаты.
func (r *Repository) Expired(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COALESCE(username, ''), paid_until
		 FROM subscribers
		 WHERE paid_until < NOW()`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки истёкших подписок: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.UserID, &s.Username, &s.PaidUntil); err != nil {
			return nil, fmt.Errorf("ошибка чтения подписчика: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
