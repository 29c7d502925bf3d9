// Package registration ведёт процесс записи участника на баню:
// приглашение в личный чат, подтверждение и выбор способа оплаты.
// session.go хранит состояние диалога записи в памяти.
package registration

import (
	"sync"
	"time"
)

// Status — этап диалога записи.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaymentClaimed Status = "payment_claimed"
	StatusPendingCash    Status = "pending_cash"
)

// Session — состояние записи пользователя на конкретную дату.
type Session struct {
	UserID    int64
	Username  string
	DateStr   string
	Status    Status
	UpdatedAt time.Time
}

// Sessions — потокобезопасное хранилище диалогов записи.
// Записи живут ограниченное время, бот переживает перезапуск без них:
// долгоживущее состояние лежит в pending_payments.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	byUser map[int64]map[string]*Session
}

// NewSessions создаёт хранилище с заданным временем жизни записи.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		byUser: make(map[int64]map[string]*Session),
	}
}

// Set сохраняет или обновляет состояние записи.
func (s *Sessions) Set(userID int64, username, dateStr string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates, ok := s.byUser[userID]
	if !ok {
		dates = make(map[string]*Session)
		s.byUser[userID] = dates
	}
	dates[dateStr] = &Session{
		UserID:    userID,
		Username:  username,
		DateStr:   dateStr,
		Status:    status,
		UpdatedAt: time.Now(),
	}
}

// Get возвращает живую сессию записи на дату.
func (s *Sessions) Get(userID int64, dateStr string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID][dateStr]
	if !ok {
		return nil, false
	}
	if time.Since(sess.UpdatedAt) > s.ttl {
		delete(s.byUser[userID], dateStr)
		return nil, false
	}
	out := *sess
	return &out, true
}

// Delete удаляет сессию записи.
func (s *Sessions) Delete(userID int64, dateStr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser[userID], dateStr)
}

// Cleanup удаляет просроченные сессии. Вызывается по расписанию.
func (s *Sessions) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, dates := range s.byUser {
		for dateStr, sess := range dates {
			if time.Since(sess.UpdatedAt) > s.ttl {
				delete(dates, dateStr)
			}
		}
		if len(dates) == 0 {
			delete(s.byUser, userID)
		}
	}
}
