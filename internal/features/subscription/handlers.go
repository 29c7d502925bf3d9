// Package subscription — handlers.go обрабатывает команды управления
// подписками /add_subscriber и /remove_subscriber.
package subscription

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
)

// BotAPI — операции Telegram, нужные обработчику подписок.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Handler обрабатывает команды управления подписками.
type Handler struct {
	service *Service
	bot     BotAPI
	access  *filters.Access
}

// NewHandler создаёт обработчик команд подписок.
func NewHandler(service *Service, bot BotAPI, access *filters.Access) *Handler {
	return &Handler{service: service, bot: bot, access: access}
}

// HandleAddSubscriber обрабатывает /add_subscriber <user_id> <срок в днях>.
func (h *Handler) HandleAddSubscriber(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		h.reply(msg.Chat.ID, "Использование: /add_subscriber <username или user_id> <срок в днях>")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(msg.Chat.ID, "Пожалуйста, используйте user_id вместо username.")
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days <= 0 {
		h.reply(msg.Chat.ID, "Пожалуйста, укажите корректный срок в днях.")
		return
	}

	username := h.displayName(targetID)
	if err := h.service.Add(ctx, targetID, username, days); err != nil {
		log.WithError(err).Error("Ошибка добавления подписчика")
		h.reply(msg.Chat.ID, "Произошла ошибка при добавлении подписчика.")
		return
	}

	log.WithFields(log.Fields{"user_id": targetID, "days": days}).Info("Подписка добавлена")
	h.reply(msg.Chat.ID, fmt.Sprintf("Подписка для %s (ID: %d) добавлена на %d дней.", username, targetID, days))
}

// HandleRemoveSubscriber обрабатывает /remove_subscriber <user_id>.
func (h *Handler) HandleRemoveSubscriber(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		h.reply(msg.Chat.ID, "Использование: /remove_subscriber <user_id>")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(msg.Chat.ID, "Пожалуйста, укажите корректный user_id.")
		return
	}

	found, err := h.service.Remove(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка удаления подписчика")
		h.reply(msg.Chat.ID, "Произошла ошибка при удалении подписчика.")
		return
	}
	if !found {
		h.reply(msg.Chat.ID, fmt.Sprintf("Пользователь с ID %d не найден в базе подписчиков.", targetID))
		return
	}

	log.WithField("user_id", targetID).Info("Подписка удалена")
	h.reply(msg.Chat.ID, fmt.Sprintf("Подписка для пользователя с ID %d удалена.", targetID))
}

// displayName запрашивает у Telegram имя пользователя по его ID.
func (h *Handler) displayName(userID int64) string {
	chat, err := h.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: userID},
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить имя пользователя")
		return strconv.FormatInt(userID, 10)
	}
	if chat.UserName != "" {
		return chat.UserName
	}
	return strings.TrimSpace(chat.FirstName + " " + chat.LastName)
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Warn("Ошибка отправки ответа")
	}
}
