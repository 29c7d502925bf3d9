// Package event — service.go содержит бизнес-логику реестра событий.
// Сервис отделён от репозитория интерфейсом Store, чтобы обработчики
// и фоновые задачи можно было тестировать на in-memory подменах.
package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/common"
)

// Store — операции хранилища, нужные реестру событий.
// Реализуется *Repository (PostgreSQL) и тестовыми подменами.
type Store interface {
	CreateEvent(ctx context.Context, dateStr string) error
	ClearPreviousEvents(ctx context.Context, exceptDate string) (int, error)
	Participants(ctx context.Context, dateStr string) ([]Participant, error)
	AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error
	MarkPaid(ctx context.Context, dateStr string, userID int64) (bool, error)
	SetCash(ctx context.Context, dateStr string, userID int64) error
	UserHistory(ctx context.Context, userID int64) ([]HistoryRecord, error)
	MarkVisit(ctx context.Context, dateStr string, userID int64) (bool, error)
	VisitsCount(ctx context.Context, userID int64) (int, error)
	Statistics(ctx context.Context, fromDate, toDate string) ([]DayStat, error)
	CashParticipants(ctx context.Context, dateStr string) ([]CashEntry, error)
	AllCash(ctx context.Context) ([]CashEntry, error)
	SetPinned(ctx context.Context, chatID int64, dateStr string, messageID int) error
	GetPinned(ctx context.Context, chatID int64) (*PinnedMessage, error)
	DeletePinned(ctx context.Context, chatID int64) error
	ClearAll(ctx context.Context) error
}

// Service — реестр событий бани.
type Service struct {
	store           Store
	maxParticipants int
}

// NewService создаёт сервис реестра событий.
func NewService(store Store, maxParticipants int) *Service {
	return &Service{store: store, maxParticipants: maxParticipants}
}

// MaxParticipants возвращает лимит участников одной бани.
func (s *Service) MaxParticipants() int {
	return s.maxParticipants
}

// RotateToDate создаёт событие на дату и переносит все прошлые события
// в историю. Возвращает число перенесённых записей.
func (s *Service) RotateToDate(ctx context.Context, dateStr string) (int, error) {
	moved, err := s.store.ClearPreviousEvents(ctx, dateStr)
	if err != nil {
		return 0, fmt.Errorf("ошибка ротации событий: %w", err)
	}
	if err := s.store.CreateEvent(ctx, dateStr); err != nil {
		return moved, err
	}
	if moved > 0 {
		log.WithFields(log.Fields{"date": dateStr, "moved": moved}).Info("Прошлые события перенесены в историю")
	}
	return moved, nil
}

// Participants возвращает участников в порядке записи.
func (s *Service) Participants(ctx context.Context, dateStr string) ([]Participant, error) {
	return s.store.Participants(ctx, dateStr)
}

// HasCapacity проверяет, остались ли места на дату.
// Проверка и вставка не атомарны: редкая гонка двух одновременных
// подтверждений на последнее место разрешается вручную админами.
func (s *Service) HasCapacity(ctx context.Context, dateStr string) (bool, error) {
	participants, err := s.store.Participants(ctx, dateStr)
	if err != nil {
		return false, err
	}
	return len(participants) < s.maxParticipants, nil
}

// AddParticipant записывает участника на дату.
// common.ErrAlreadyRegistered — если он уже в списке.
func (s *Service) AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error {
	if err := s.store.AddParticipant(ctx, dateStr, userID, username, paid); err != nil {
		return err
	}
	log.WithFields(log.Fields{"date": dateStr, "user_id": userID}).Info("Участник добавлен")
	return nil
}

// IsParticipant проверяет, записан ли пользователь на дату.
func (s *Service) IsParticipant(ctx context.Context, dateStr string, userID int64) (bool, error) {
	participants, err := s.store.Participants(ctx, dateStr)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// MarkPaid отмечает оплату; false — участника нет на дату.
func (s *Service) MarkPaid(ctx context.Context, dateStr string, userID int64) (bool, error) {
	return s.store.MarkPaid(ctx, dateStr, userID)
}

// MarkPaidByUsername отмечает оплату по имени пользователя (/mark_paid).
func (s *Service) MarkPaidByUsername(ctx context.Context, dateStr, username string) (bool, error) {
	participants, err := s.store.Participants(ctx, dateStr)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if strings.EqualFold(p.Username, username) {
			return s.store.MarkPaid(ctx, dateStr, p.UserID)
		}
	}
	return false, nil
}

// SetCash помечает наличную оплату участника.
func (s *Service) SetCash(ctx context.Context, dateStr string, userID int64) error {
	return s.store.SetCash(ctx, dateStr, userID)
}

// UserHistory возвращает историю посещений пользователя.
func (s *Service) UserHistory(ctx context.Context, userID int64) ([]HistoryRecord, error) {
	return s.store.UserHistory(ctx, userID)
}

// MarkVisit отмечает фактическое посещение в истории.
func (s *Service) MarkVisit(ctx context.Context, dateStr string, userID int64) (bool, error) {
	if err := common.ValidateDate(dateStr); err != nil {
		return false, err
	}
	return s.store.MarkVisit(ctx, dateStr, userID)
}

// VisitsCount возвращает число подтверждённых посещений.
func (s *Service) VisitsCount(ctx context.Context, userID int64) (int, error) {
	return s.store.VisitsCount(ctx, userID)
}

// StatisticsLastQuarter возвращает статистику за последние 3 месяца.
func (s *Service) StatisticsLastQuarter(ctx context.Context, now time.Time) ([]DayStat, error) {
	to := now.Format(common.DateLayout)
	from := now.AddDate(0, 0, -90).Format(common.DateLayout)
	return s.store.Statistics(ctx, from, to)
}

// CashParticipants возвращает наличников на дату.
func (s *Service) CashParticipants(ctx context.Context, dateStr string) ([]CashEntry, error) {
	return s.store.CashParticipants(ctx, dateStr)
}

// AllCash возвращает наличников по всем датам.
func (s *Service) AllCash(ctx context.Context) ([]CashEntry, error) {
	return s.store.AllCash(ctx)
}

// ClearAll полностью очищает рабочие таблицы.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

