// Package subscription — service.go продлевает подписки и исключает
// участников с истёкшим сроком.
package subscription

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Store абстрагирует хранилище подписчиков.
type Store interface {
	Add(ctx context.Context, userID int64, username string, days int) error
	Remove(ctx context.Context, userID int64) (bool, error)
	Expired(ctx context.Context) ([]Subscriber, error)
}

// TelegramAPI — операции Telegram, нужные для исключения из чата.
type TelegramAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Service управляет подписками на групповой чат.
type Service struct {
	store       Store
	api         TelegramAPI
	groupChatID int64
}

func NewService(store Store, api TelegramAPI, groupChatID int64) *Service {
	return &Service{store: store, api: api, groupChatID: groupChatID}
}

// Add добавляет или продлевает подписку.
func (s *Service) Add(ctx context.Context, userID int64, username string, days int) error {
	return s.store.Add(ctx, userID, username, days)
}

// Remove снимает подписку. Возвращает false, если подписчик не найден.
func (s *Service) Remove(ctx context.Context, userID int64) (bool, error) {
	return s.store.Remove(ctx, userID)
}

// KickExpired исключает из группы всех подписчиков с истёкшим сроком.
// Бан тут же снимается, чтобы пользователь мог вернуться после продления.
func (s *Service) KickExpired(ctx context.Context) {
	expired, err := s.store.Expired(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка выборки истёкших подписок")
		return
	}

	for _, sub := range expired {
		if _, err := s.api.Request(tgbotapi.BanChatMemberConfig{
			ChatMemberConfig: tgbotapi.ChatMemberConfig{
				ChatID: s.groupChatID,
				UserID: sub.UserID,
			},
		}); err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Error("Ошибка исключения пользователя")
			continue
		}
		if _, err := s.api.Request(tgbotapi.UnbanChatMemberConfig{
			ChatMemberConfig: tgbotapi.ChatMemberConfig{
				ChatID: s.groupChatID,
				UserID: sub.UserID,
			},
			OnlyIfBanned: true,
		}); err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Warn("Ошибка снятия бана")
		}

		if _, err := s.store.Remove(ctx, sub.UserID); err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Error("Ошибка удаления подписчика")
			continue
		}
		log.WithField("user_id", sub.UserID).Info("Пользователь исключён из-за истекшей подписки")
	}
}
