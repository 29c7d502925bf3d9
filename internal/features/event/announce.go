// Package event — announce.go публикует анонс бани в группу и держит
// его закреплённым в актуальном виде.
package event

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/common"
)

// Announcer связывает реестр событий с групповым чатом:
// ротация недели, публикация анонса, обновление закреплённого сообщения.
type Announcer struct {
	service  *Service
	renderer Renderer
	pinner   *Pinner
	api      TelegramAPI
	chatID   int64
}

// NewAnnouncer создаёт Announcer для группового чата.
func NewAnnouncer(service *Service, renderer Renderer, pinner *Pinner, api TelegramAPI, chatID int64) *Announcer {
	return &Announcer{
		service:  service,
		renderer: renderer,
		pinner:   pinner,
		api:      api,
		chatID:   chatID,
	}
}

// PublishNext создаёт событие на ближайшее воскресенье, переносит прошлые
// события в историю и публикует закреплённый анонс. Возвращает дату события.
func (a *Announcer) PublishNext(ctx context.Context, now time.Time) (string, error) {
	dateStr := common.NextSunday(now)

	moved, err := a.service.RotateToDate(ctx, dateStr)
	if err != nil {
		return "", err
	}

	if err := a.pinner.Unpin(ctx); err != nil {
		log.WithError(err).Warn("Не удалось открепить сообщение прошлой недели")
	}
	if err := a.RefreshPinned(ctx, dateStr); err != nil {
		return dateStr, err
	}

	if moved > 0 {
		text := fmt.Sprintf("🔄 Создана новая запись на баню %s. Список участников предыдущей бани очищен.", dateStr)
		if _, err := a.api.Send(tgbotapi.NewMessage(a.chatID, text)); err != nil {
			log.WithError(err).Error("Ошибка отправки уведомления о ротации")
		}
	}

	log.WithField("date", dateStr).Info("Анонс бани опубликован")
	return dateStr, nil
}

// RefreshPinned перечитывает участников и сверяет закреплённый анонс.
func (a *Announcer) RefreshPinned(ctx context.Context, dateStr string) error {
	participants, err := a.service.Participants(ctx, dateStr)
	if err != nil {
		return err
	}
	text := a.renderer.Announcement(dateStr, participants)
	markup := a.renderer.JoinKeyboard(dateStr, len(participants))
	return a.pinner.Reconcile(ctx, dateStr, text, markup)
}

// AnnounceJoined сообщает в группу об успешной записи участника
// и прикладывает актуальный список.
func (a *Announcer) AnnounceJoined(ctx context.Context, dateStr, username string) error {
	participants, err := a.service.Participants(ctx, dateStr)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("@%s успешно записался(ась) на баню %s ✅\n\n%s",
		username, dateStr, a.renderer.Roster(dateStr, participants))
	if _, err := a.api.Send(tgbotapi.NewMessage(a.chatID, text)); err != nil {
		return fmt.Errorf("ошибка отправки списка участников: %w", err)
	}
	return nil
}

// SendRoster отправляет актуальный список участников в группу.
func (a *Announcer) SendRoster(ctx context.Context, dateStr string) error {
	participants, err := a.service.Participants(ctx, dateStr)
	if err != nil {
		return err
	}
	_, err = a.api.Send(tgbotapi.NewMessage(a.chatID, a.renderer.Roster(dateStr, participants)))
	return err
}
