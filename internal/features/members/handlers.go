// Package members — handlers.go обрабатывает команду /mention_all.
package members

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
)

// Handler обрабатывает команды учёта участников.
type Handler struct {
	service     *Service
	bot         filters.Sender
	access      *filters.Access
	groupChatID int64
}

// NewHandler создаёт обработчик команд участников.
func NewHandler(service *Service, bot filters.Sender, access *filters.Access, groupChatID int64) *Handler {
	return &Handler{
		service:     service,
		bot:         bot,
		access:      access,
		groupChatID: groupChatID,
	}
}

// HandleMentionAll обрабатывает /mention_all: отправляет в групповой чат
// сообщение с упоминанием всех активных пользователей.
func (h *Handler) HandleMentionAll(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	mentions, err := h.service.MentionText(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка выборки активных пользователей")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении списка пользователей.")
		return
	}
	if mentions == "" {
		h.reply(msg.Chat.ID, "Нет пользователей для упоминания.")
		return
	}

	text := "Внимание всем активным участникам!"
	if args := msg.CommandArguments(); args != "" {
		text = args
	}

	out := tgbotapi.NewMessage(h.groupChatID,
		fmt.Sprintf("📢 %s\n\n%s", common.EscapeMarkdown(text), mentions))
	out.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := h.bot.Send(out); err != nil {
		log.WithError(err).Error("Ошибка отправки упоминания в группу")
		h.reply(msg.Chat.ID, "Не удалось отправить сообщение в группу.")
		return
	}

	log.WithFields(log.Fields{"admin_id": msg.From.ID}).Info("Отправлено массовое упоминание")
	h.reply(msg.Chat.ID, "Сообщение отправлено в группу.")
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Warn("Ошибка отправки ответа")
	}
}
