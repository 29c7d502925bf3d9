// Package event управляет событиями бани: список участников текущей даты,
// история посещений и закреплённое сообщение-запись в групповом чате.
// models.go описывает структуры данных для таблиц bath_participants,
// bath_history и pinned_messages.
package event

import "time"

// Participant — участник бани на конкретную дату.
// Уникален в паре (DateStr, UserID); удаляется при ротации события в историю.
type Participant struct {
	ID        int64     `db:"id"`
	DateStr   string    `db:"date_str"` // дата бани в формате ДД.ММ.ГГГГ
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"` // отображаемое имя на момент записи
	Paid      bool      `db:"paid"`     // оплата подтверждена админом
	Cash      bool      `db:"cash"`     // выбрал оплату наличными при входе
	CreatedAt time.Time `db:"created_at"`
}

// HistoryRecord — запись истории посещений. Создаётся при ротации события,
// хранится бессрочно. Флаг Visited проставляется командой /mark_visit.
type HistoryRecord struct {
	ID        int64     `db:"id"`
	DateStr   string    `db:"date_str"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Paid      bool      `db:"paid"`
	Visited   bool      `db:"visited"`
	CreatedAt time.Time `db:"created_at"`
}

// DayStat — агрегированная статистика посещений за одну дату.
type DayStat struct {
	DateStr string
	Total   int
	Paid    int
	Visited int
}

// PinnedMessage — указатель на закреплённое сообщение-запись в чате.
// Одна запись на чат; нужна для идемпотентного обновления вместо
// постоянного pin/unpin.
type PinnedMessage struct {
	ChatID    int64  `db:"chat_id"`
	DateStr   string `db:"date_str"`
	MessageID int    `db:"message_id"`
}

// CashEntry — участник с оплатой наличными (для сводки администраторам).
type CashEntry struct {
	UserID   int64
	Username string
	DateStr  string
	FullName string // из профиля, может быть пустым
}
