// Package filters содержит проверки доступа к командам:
// личный чат и права администратора.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Access проверяет контекст команды перед выполнением.
type Access struct {
	bot     Sender
	isAdmin func(userID int64) bool
}

// NewAccess создаёт проверки доступа.
func NewAccess(bot Sender, isAdmin func(userID int64) bool) *Access {
	return &Access{bot: bot, isAdmin: isAdmin}
}

// IsAdmin сообщает, входит ли пользователь в список администраторов.
func (a *Access) IsAdmin(userID int64) bool {
	return a.isAdmin(userID)
}

// RequirePrivate пропускает команду только в личном чате.
func (a *Access) RequirePrivate(msg *tgbotapi.Message) bool {
	if msg.Chat.IsPrivate() {
		return true
	}
	a.reply(msg.Chat.ID, "Эта команда доступна только в личном чате с ботом.")
	log.WithFields(log.Fields{"user_id": msg.From.ID, "command": msg.Command()}).Warn("Команда вызвана не в личном чате")
	return false
}

// RequireAdmin пропускает команду только для администратора.
func (a *Access) RequireAdmin(msg *tgbotapi.Message) bool {
	if a.isAdmin(msg.From.ID) {
		return true
	}
	a.reply(msg.Chat.ID, "У вас нет прав для выполнения этой команды.")
	log.WithFields(log.Fields{"user_id": msg.From.ID, "command": msg.Command()}).Warn("Команда доступна только администраторам")
	return false
}

// RequireAdminPrivate объединяет обе проверки.
func (a *Access) RequireAdminPrivate(msg *tgbotapi.Message) bool {
	return a.RequirePrivate(msg) && a.RequireAdmin(msg)
}

func (a *Access) reply(chatID int64, text string) {
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
