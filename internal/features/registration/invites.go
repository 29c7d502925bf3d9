// Package registration — invites.go защищает от повторных приглашений:
// одному пользователю на одну дату отправляется не больше одного
// приглашения за время жизни блокировки.
package registration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InviteRepository — блокировки приглашений в PostgreSQL.
type InviteRepository struct {
	pool *pgxpool.Pool
}

// NewInviteRepository создаёт репозиторий приглашений.
func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

// TryAdd атомарно захватывает блокировку приглашения.
// Возвращает true, если приглашение можно отправлять: записи ещё нет
// либо прошлая истекла. Конкурирующие нажатия кнопки получают false.
func (r *InviteRepository) TryAdd(ctx context.Context, userID int64, dateStr string, ttlHours int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO bath_invites (user_id, date_str, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, date_str) DO UPDATE
		SET created_at = NOW()
		WHERE bath_invites.created_at < NOW() - make_interval(hours => $3)`,
		userID, dateStr, ttlHours)
	if err != nil {
		return false, fmt.Errorf("ошибка захвата приглашения: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Release снимает блокировку, чтобы пользователь мог запросить
// приглашение заново.
func (r *InviteRepository) Release(ctx context.Context, userID int64, dateStr string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM bath_invites WHERE user_id = $1 AND date_str = $2`,
		userID, dateStr)
	if err != nil {
		return fmt.Errorf("ошибка снятия блокировки приглашения: %w", err)
	}
	return nil
}
