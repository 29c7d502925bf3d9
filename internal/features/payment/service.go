// Package payment — service.go ведёт жизненный цикл заявки:
// подача, напоминания, подтверждение или отклонение администратором.
package payment

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// PendingStore — операции хранилища заявок.
type PendingStore interface {
	Add(ctx context.Context, userID int64, username, dateStr, method string) error
	Get(ctx context.Context, userID int64, dateStr, method string) (*Pending, error)
	Delete(ctx context.Context, userID int64, dateStr string) error
	ListAll(ctx context.Context) ([]Pending, error)
	ListForReminder(ctx context.Context, hours int) ([]Pending, error)
	UpdateLastNotified(ctx context.Context, userID int64, dateStr string) error
	DeleteStale(ctx context.Context, days int) (int, error)
}

// Registry — операции реестра участников, нужные при подтверждении.
type Registry interface {
	IsParticipant(ctx context.Context, dateStr string, userID int64) (bool, error)
	AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error
	SetCash(ctx context.Context, dateStr string, userID int64) error
	MarkPaid(ctx context.Context, dateStr string, userID int64) (bool, error)
}

// Pinboard обновляет групповой чат после подтверждения.
type Pinboard interface {
	RefreshPinned(ctx context.Context, dateStr string) error
	AnnounceJoined(ctx context.Context, dateStr, username string) error
}

// Profiles проверяет наличие заполненного профиля.
type Profiles interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Service обрабатывает заявки на оплату.
type Service struct {
	store    PendingStore
	registry Registry
	pinboard Pinboard
	profiles Profiles
	bot      Sender
	adminIDs []int64

	mu    sync.Mutex
	relay map[int64]int64
}

// NewService создаёт сервис заявок.
func NewService(store PendingStore, registry Registry, pinboard Pinboard, profiles Profiles, bot Sender, adminIDs []int64) *Service {
	return &Service{
		store:    store,
		registry: registry,
		pinboard: pinboard,
		profiles: profiles,
		bot:      bot,
		adminIDs: adminIDs,
		relay:    make(map[int64]int64),
	}
}

// Submit регистрирует заявку и уведомляет администраторов.
func (s *Service) Submit(ctx context.Context, userID int64, username, dateStr, method string) error {
	if err := s.store.Add(ctx, userID, username, dateStr, method); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"date":    dateStr,
		"method":  method,
	}).Info("Добавлена заявка на подтверждение оплаты")

	var text string
	if method == MethodCash {
		text = fmt.Sprintf("Пользователь @%s (ID: %d) выбрал оплату наличными на %s. "+
			"Согласны ли вы, что пользователь заплатит наличкой?\n"+
			"В воскресенье я отправлю вам список всех участников с наличной оплатой.",
			username, userID, dateStr)
	} else {
		text = fmt.Sprintf("Пользователь @%s (ID: %d) утверждает, что оплатил баню на %s.\nПожалуйста, подтвердите или отклоните оплату.",
			username, userID, dateStr)
	}
	s.notifyAdmins(text, adjudicationKeyboard(userID, dateStr, method))
	return nil
}

// Confirm обрабатывает решение администратора подтвердить оплату.
// Возвращает текст для сообщения администратора.
func (s *Service) Confirm(ctx context.Context, userID int64, dateStr, method string) (string, error) {
	pending, err := s.store.Get(ctx, userID, dateStr, method)
	if err != nil {
		return "", err
	}
	if pending == nil {
		return "Информация о пользователе не найдена. Возможно, запрос устарел.", nil
	}

	hasProfile, err := s.profiles.Exists(ctx, userID)
	if err != nil {
		return "", err
	}
	if !hasProfile {
		msg := tgbotapi.NewMessage(userID, "Для записи в баню необходимо заполнить информацию о себе. Пожалуйста, заполните профиль:")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Заполнить профиль", "start_profile"),
			),
		)
		if _, err := s.bot.Send(msg); err != nil {
			log.WithError(err).Error("Ошибка отправки приглашения заполнить профиль")
		}
		return "Пользователь не заполнил профиль. Сначала нужно заполнить профиль, а затем подтвердить оплату.", nil
	}

	registered, err := s.registry.IsParticipant(ctx, dateStr, userID)
	if err != nil {
		return "", err
	}
	if !registered {
		if err := s.registry.AddParticipant(ctx, dateStr, userID, pending.Username, false); err != nil {
			return "", err
		}
		if pending.Method == MethodCash {
			if err := s.registry.SetCash(ctx, dateStr, userID); err != nil {
				return "", err
			}
		}
	}

	if _, err := s.registry.MarkPaid(ctx, dateStr, userID); err != nil {
		return "", err
	}
	if err := s.store.Delete(ctx, userID, dateStr); err != nil {
		return "", err
	}

	userText := fmt.Sprintf("Поздравляем! Ваша оплата на баню %s подтверждена. Вы добавлены в список участников.", dateStr)
	if _, err := s.bot.Send(tgbotapi.NewMessage(userID, userText)); err != nil {
		log.WithError(err).Error("Ошибка отправки подтверждения пользователю")
	}

	if err := s.pinboard.AnnounceJoined(ctx, dateStr, pending.Username); err != nil {
		log.WithError(err).Error("Ошибка отправки списка участников в группу")
	}
	if err := s.pinboard.RefreshPinned(ctx, dateStr); err != nil {
		log.WithError(err).Error("Ошибка обновления закреплённого сообщения")
	}

	log.WithFields(log.Fields{"user_id": userID, "date": dateStr}).Info("Оплата подтверждена администратором")
	return fmt.Sprintf("Вы подтвердили оплату пользователя @%s на %s. Пользователь добавлен в список участников.",
		pending.Username, dateStr), nil
}

// Decline обрабатывает отклонение заявки. Возвращает текст и клавиатуру
// для сообщения администратора.
func (s *Service) Decline(ctx context.Context, userID int64, dateStr, method string) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	pending, err := s.store.Get(ctx, userID, dateStr, method)
	if err != nil {
		return "", nil, err
	}
	if pending == nil {
		return "Информация о пользователе не найдена. Возможно, запрос устарел.", nil, nil
	}

	if err := s.store.Delete(ctx, userID, dateStr); err != nil {
		return "", nil, err
	}

	userText := fmt.Sprintf("К сожалению, ваша оплата на баню %s не подтверждена. Пожалуйста, свяжитесь с администратором для выяснения деталей.", dateStr)
	if _, err := s.bot.Send(tgbotapi.NewMessage(userID, userText)); err != nil {
		log.WithError(err).Error("Ошибка отправки уведомления пользователю")
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отправить сообщение", fmt.Sprintf("message_user_%d_%s", userID, dateStr)),
		),
	)
	log.WithFields(log.Fields{"user_id": userID, "date": dateStr}).Info("Оплата отклонена администратором")
	return fmt.Sprintf("Вы отклонили оплату пользователя @%s на %s. Вы можете отправить пользователю сообщение с объяснением.",
		pending.Username, dateStr), &markup, nil
}

// StartRelay запоминает, что администратор собирается написать пользователю.
func (s *Service) StartRelay(adminID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relay[adminID] = userID
}

// HandleRelayMessage пересылает сообщение администратора пользователю.
// Возвращает false, если администратор никому не пишет.
func (s *Service) HandleRelayMessage(ctx context.Context, adminID int64, text string) bool {
	s.mu.Lock()
	userID, ok := s.relay[adminID]
	if ok {
		delete(s.relay, adminID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	if _, err := s.bot.Send(tgbotapi.NewMessage(userID, "Сообщение от администратора: "+text)); err != nil {
		log.WithError(err).Error("Ошибка пересылки сообщения пользователю")
		s.sendTo(adminID, fmt.Sprintf("Ошибка при отправке сообщения: %v", err))
		return true
	}
	s.sendTo(adminID, "Ваше сообщение отправлено пользователю.")
	return true
}

// Remind напоминает администраторам о заявках без решения, если прошло
// не меньше afterHours часов с прошлого напоминания.
func (s *Service) Remind(ctx context.Context, afterHours int) error {
	reminders, err := s.store.ListForReminder(ctx, afterHours)
	if err != nil {
		return err
	}
	for _, p := range reminders {
		text := fmt.Sprintf("Висят неподтверждённые заявки:\n\n@%s — %s\n\nПожалуйста, подтвердите или отклоните заявку.",
			p.Username, p.DateStr)
		if s.notifyAdmins(text, adjudicationKeyboard(p.UserID, p.DateStr, p.Method)) == 0 {
			// ни один администратор не получил напоминание,
			// отметку не двигаем и повторим на следующем проходе
			log.WithFields(log.Fields{"user_id": p.UserID, "date": p.DateStr}).
				Warn("Напоминание не доставлено ни одному администратору")
			continue
		}
		if err := s.store.UpdateLastNotified(ctx, p.UserID, p.DateStr); err != nil {
			log.WithError(err).Error("Ошибка обновления отметки напоминания")
		}
	}
	return nil
}

// SendPendingDigest отправляет администраторам сводку всех висящих заявок.
func (s *Service) SendPendingDigest(ctx context.Context) error {
	pending, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	text := "Висят неподтверждённые заявки:\n\n"
	for _, p := range pending {
		text += fmt.Sprintf("@%s — %s\n", p.Username, p.DateStr)
	}
	s.notifyAdmins(text, nil)
	return nil
}

// CleanupStale удаляет заявки старше заданного числа дней.
func (s *Service) CleanupStale(ctx context.Context, days int) error {
	removed, err := s.store.DeleteStale(ctx, days)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("Удалены устаревшие заявки")
	}
	return nil
}

// notifyAdmins возвращает число администраторов, получивших сообщение.
func (s *Service) notifyAdmins(text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	delivered := 0
	for _, adminID := range s.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		if _, err := s.bot.Send(msg); err != nil {
			log.WithError(err).WithField("admin_id", adminID).Error("Ошибка уведомления администратора")
			continue
		}
		delivered++
	}
	return delivered
}

func (s *Service) sendTo(chatID int64, text string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// adjudicationKeyboard — кнопки подтверждения и отклонения заявки.
func adjudicationKeyboard(userID int64, dateStr, method string) *tgbotapi.InlineKeyboardMarkup {
	confirmLabel := "Оплатил онлайн"
	if method == MethodCash {
		confirmLabel = "да, наличные"
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(confirmLabel, fmt.Sprintf("admin_confirm_%d_%s_%s", userID, dateStr, method)),
			tgbotapi.NewInlineKeyboardButtonData("Отклонить", fmt.Sprintf("admin_decline_%d_%s_%s", userID, dateStr, method)),
		),
	)
	return &markup
}
