// Package payment — repository.go работает с таблицей pending_payments.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — заявки на подтверждение оплаты в PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт репозиторий заявок.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Add добавляет заявку. Повторная подача на ту же дату перезаписывает
// способ оплаты и сбрасывает отметки времени.
func (r *Repository) Add(ctx context.Context, userID int64, username, dateStr, method string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_payments (user_id, username, date_str, payment_type, created_at, last_notified)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, date_str) DO UPDATE
		SET username = EXCLUDED.username,
		    payment_type = EXCLUDED.payment_type,
		    created_at = NOW(),
		    last_notified = NOW()`,
		userID, username, dateStr, method)
	if err != nil {
		return fmt.Errorf("ошибка добавления заявки: %w", err)
	}
	return nil
}

// Get возвращает заявку пользователя на дату. Пустой method означает
// любой способ оплаты. Если заявки нет, возвращает nil.
func (r *Repository) Get(ctx context.Context, userID int64, dateStr, method string) (*Pending, error) {
	query := `
		SELECT user_id, username, date_str, payment_type, created_at, last_notified
		FROM pending_payments
		WHERE user_id = $1 AND date_str = $2`
	args := []any{userID, dateStr}
	if method != "" {
		query += ` AND payment_type = $3`
		args = append(args, method)
	}

	var p Pending
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&p.UserID, &p.Username, &p.DateStr, &p.Method, &p.CreatedAt, &p.LastNotified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заявки: %w", err)
	}
	return &p, nil
}

// FindByUser возвращает самую раннюю заявку пользователя на любую дату.
func (r *Repository) FindByUser(ctx context.Context, userID int64) (*Pending, error) {
	var p Pending
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, username, date_str, payment_type, created_at, last_notified
		FROM pending_payments
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT 1`,
		userID).
		Scan(&p.UserID, &p.Username, &p.DateStr, &p.Method, &p.CreatedAt, &p.LastNotified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заявки пользователя: %w", err)
	}
	return &p, nil
}

// Delete удаляет заявку пользователя на дату.
func (r *Repository) Delete(ctx context.Context, userID int64, dateStr string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM pending_payments WHERE user_id = $1 AND date_str = $2`,
		userID, dateStr)
	if err != nil {
		return fmt.Errorf("ошибка удаления заявки: %w", err)
	}
	return nil
}

// ListAll возвращает все висящие заявки.
func (r *Repository) ListAll(ctx context.Context) ([]Pending, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, date_str, payment_type, created_at, last_notified
		FROM pending_payments
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()
	return scanPending(rows)
}

// ListForReminder возвращает заявки, о которых администраторам
// не напоминали дольше заданного числа часов.
func (r *Repository) ListForReminder(ctx context.Context, hours int) ([]Pending, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, date_str, payment_type, created_at, last_notified
		FROM pending_payments
		WHERE last_notified < NOW() - make_interval(hours => $1)
		ORDER BY created_at`,
		hours)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок для напоминания: %w", err)
	}
	defer rows.Close()
	return scanPending(rows)
}

// UpdateLastNotified сдвигает отметку последнего напоминания.
func (r *Repository) UpdateLastNotified(ctx context.Context, userID int64, dateStr string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE pending_payments SET last_notified = NOW() WHERE user_id = $1 AND date_str = $2`,
		userID, dateStr)
	if err != nil {
		return fmt.Errorf("ошибка обновления отметки напоминания: %w", err)
	}
	return nil
}

// DeleteStale удаляет заявки старше заданного числа дней.
func (r *Repository) DeleteStale(ctx context.Context, days int) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM pending_payments WHERE created_at < NOW() - make_interval(days => $1)`,
		days)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки устаревших заявок: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPending(rows pgx.Rows) ([]Pending, error) {
	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.UserID, &p.Username, &p.DateStr, &p.Method, &p.CreatedAt, &p.LastNotified); err != nil {
			return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
