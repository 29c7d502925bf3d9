// Package event — repository.go отвечает за все операции с таблицами
// bath_participants, bath_history и pinned_messages.
// Каждая функция выполняет один SQL-запрос; перенос события в историю
// идёт в одной транзакции.
package event

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parilka.club/bath-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateEvent создаёт событие бани на дату. Идемпотентна: событие
// существует, как только на дату есть хотя бы один участник, поэтому
// здесь нечего вставлять — метод лишь фиксирует намерение в логе вызова.
// Оставлен отдельной операцией ради симметрии с ClearPreviousEvents.
func (r *Repository) CreateEvent(ctx context.Context, dateStr string) error {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bath_participants WHERE date_str = $1`, dateStr,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("ошибка проверки события на %s: %w", dateStr, err)
	}
	return nil
}

// ClearPreviousEvents переносит участников всех дат, кроме exceptDate,
// в bath_history и удаляет их из bath_participants. Возвращает число
// перенесённых строк. Всё в одной транзакции — при ошибке ничего не
// переносится частично.
func (r *Repository) ClearPreviousEvents(ctx context.Context, exceptDate string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO bath_history (date_str, user_id, username, paid)
		SELECT date_str, user_id, username, paid
		FROM bath_participants
		WHERE date_str != $1
	`, exceptDate)
	if err != nil {
		return 0, fmt.Errorf("ошибка переноса участников в историю: %w", err)
	}
	moved := int(tag.RowsAffected())

	if _, err := tx.Exec(ctx,
		`DELETE FROM bath_participants WHERE date_str != $1`, exceptDate,
	); err != nil {
		return 0, fmt.Errorf("ошибка очистки прошлых событий: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return moved, nil
}

// Participants возвращает участников на дату в порядке записи.
func (r *Repository) Participants(ctx context.Context, dateStr string) ([]Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, date_str, user_id, username, paid, cash, created_at
		FROM bath_participants
		WHERE date_str = $1
		ORDER BY id
	`, dateStr)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.DateStr, &p.UserID, &p.Username, &p.Paid, &p.Cash, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// AddParticipant добавляет участника. Возвращает common.ErrAlreadyRegistered,
// если пара (дата, пользователь) уже есть. Лимит участников здесь
// НЕ проверяется — это ответственность вызывающего кода.
func (r *Repository) AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO bath_participants (date_str, user_id, username, paid)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date_str, user_id) DO NOTHING
	`, dateStr, userID, username, paid)
	if err != nil {
		return fmt.Errorf("ошибка добавления участника: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyRegistered
	}
	return nil
}

// MarkPaid отмечает оплату участника. Возвращает false, если участника
// на эту дату нет (это не ошибка).
func (r *Repository) MarkPaid(ctx context.Context, dateStr string, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bath_participants SET paid = TRUE WHERE date_str = $1 AND user_id = $2`,
		dateStr, userID,
	)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки оплаты: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetCash помечает участника как платящего наличными при входе.
func (r *Repository) SetCash(ctx context.Context, dateStr string, userID int64) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE bath_participants SET cash = TRUE WHERE date_str = $1 AND user_id = $2`,
		dateStr, userID,
	); err != nil {
		return fmt.Errorf("ошибка отметки оплаты наличными: %w", err)
	}
	return nil
}

// UserHistory возвращает историю посещений пользователя (новые даты первыми).
func (r *Repository) UserHistory(ctx context.Context, userID int64) ([]HistoryRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, date_str, user_id, username, paid, visited, created_at
		FROM bath_history
		WHERE user_id = $1
		ORDER BY to_date(date_str, 'DD.MM.YYYY') DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории: %w", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var h HistoryRecord
		if err := rows.Scan(&h.ID, &h.DateStr, &h.UserID, &h.Username, &h.Paid, &h.Visited, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// MarkVisit отмечает фактическое посещение бани в истории.
// false — если записи на эту дату у пользователя нет.
func (r *Repository) MarkVisit(ctx context.Context, dateStr string, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bath_history SET visited = TRUE WHERE date_str = $1 AND user_id = $2`,
		dateStr, userID,
	)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки посещения: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// VisitsCount возвращает количество подтверждённых посещений пользователя.
func (r *Repository) VisitsCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bath_history WHERE user_id = $1 AND visited = TRUE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта посещений: %w", err)
	}
	return count, nil
}

// Statistics возвращает агрегированную статистику по датам за период.
func (r *Repository) Statistics(ctx context.Context, fromDate, toDate string) ([]DayStat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_str,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE paid) AS paid,
		       COUNT(*) FILTER (WHERE visited) AS visited
		FROM bath_history
		WHERE to_date(date_str, 'DD.MM.YYYY') BETWEEN to_date($1, 'DD.MM.YYYY') AND to_date($2, 'DD.MM.YYYY')
		GROUP BY date_str
		ORDER BY to_date(date_str, 'DD.MM.YYYY') DESC
	`, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса статистики: %w", err)
	}
	defer rows.Close()

	var out []DayStat
	for rows.Next() {
		var s DayStat
		if err := rows.Scan(&s.DateStr, &s.Total, &s.Paid, &s.Visited); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// CashParticipants возвращает участников с наличной оплатой на дату,
// с полным именем из профиля, если он есть.
func (r *Repository) CashParticipants(ctx context.Context, dateStr string) ([]CashEntry, error) {
	return r.queryCash(ctx, `
		SELECT p.user_id, p.username, p.date_str, COALESCE(up.full_name, '')
		FROM bath_participants p
		LEFT JOIN user_profiles up ON up.user_id = p.user_id
		WHERE p.date_str = $1 AND p.cash = TRUE
		ORDER BY p.id
	`, dateStr)
}

// AllCash возвращает всех участников с наличной оплатой по всем датам.
func (r *Repository) AllCash(ctx context.Context) ([]CashEntry, error) {
	return r.queryCash(ctx, `
		SELECT p.user_id, p.username, p.date_str, COALESCE(up.full_name, '')
		FROM bath_participants p
		LEFT JOIN user_profiles up ON up.user_id = p.user_id
		WHERE p.cash = TRUE
		ORDER BY p.id
	`)
}

func (r *Repository) queryCash(ctx context.Context, query string, args ...interface{}) ([]CashEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса наличных: %w", err)
	}
	defer rows.Close()

	var out []CashEntry
	for rows.Next() {
		var e CashEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.DateStr, &e.FullName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// --- Закреплённое сообщение ---

// SetPinned запоминает закреплённое сообщение чата (одно на чат).
func (r *Repository) SetPinned(ctx context.Context, chatID int64, dateStr string, messageID int) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO pinned_messages (chat_id, date_str, message_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE
		SET date_str = EXCLUDED.date_str, message_id = EXCLUDED.message_id
	`, chatID, dateStr, messageID); err != nil {
		return fmt.Errorf("ошибка сохранения закреплённого сообщения: %w", err)
	}
	return nil
}

// GetPinned возвращает указатель на закреплённое сообщение чата.
// Если его нет — (nil, nil).
func (r *Repository) GetPinned(ctx context.Context, chatID int64) (*PinnedMessage, error) {
	var pm PinnedMessage
	err := r.db.QueryRow(ctx,
		`SELECT chat_id, date_str, message_id FROM pinned_messages WHERE chat_id = $1`, chatID,
	).Scan(&pm.ChatID, &pm.DateStr, &pm.MessageID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения закреплённого сообщения: %w", err)
	}
	return &pm, nil
}

// DeletePinned забывает закреплённое сообщение чата.
func (r *Repository) DeletePinned(ctx context.Context, chatID int64) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM pinned_messages WHERE chat_id = $1`, chatID,
	); err != nil {
		return fmt.Errorf("ошибка удаления закреплённого сообщения: %w", err)
	}
	return nil
}

// ClearAll полностью очищает рабочие таблицы (команда /clear_db).
// Профили пользователей не трогаем.
func (r *Repository) ClearAll(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{
		"bath_participants", "bath_history", "bath_invites",
		"pending_payments", "pinned_messages", "active_users", "subscribers",
	} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("ошибка очистки %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
