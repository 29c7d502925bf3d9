// Package bot — menu.go настраивает меню команд: общий набор для всех
// и расширенный для администраторов через BotCommandScopeChat.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

func userCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "register", Description: "Записаться на баню (например: /register 12.05.2025)"},
		{Command: "history", Description: "Ваша история посещений бани"},
		{Command: "visits", Description: "Количество посещений и даты"},
		{Command: "profile", Description: "Просмотр/обновление информации о себе"},
	}
}

func adminCommands() []tgbotapi.BotCommand {
	return append(userCommands(), []tgbotapi.BotCommand{
		{Command: "cash_list", Description: "Список участников с оплатой наличными (только для админа)"},
		{Command: "create_bath", Description: "Создать новую запись на ближайшее воскресенье"},
		{Command: "mark_paid", Description: "Отметить оплату пользователя (/mark_paid username DD.MM.YYYY)"},
		{Command: "add_subscriber", Description: "Добавить подписчика (/add_subscriber user_id days)"},
		{Command: "remove_subscriber", Description: "Удалить подписчика (/remove_subscriber user_id)"},
		{Command: "update_commands", Description: "Обновить меню команд (только для админа)"},
		{Command: "export_profiles", Description: "Экспорт всех профилей пользователей"},
		{Command: "mention_all", Description: "Упомянуть всех активных пользователей"},
		{Command: "stats", Description: "Статистика посещений бани"},
		{Command: "mark_visit", Description: "Отметить посещение бани"},
		{Command: "clear_db", Description: "Полная очистка базы данных (только для админа)"},
	}...)
}

// SetupCommandMenus публикует меню команд: базовое для всех пользователей
// и расширенное в личных чатах администраторов.
func (b *Bot) SetupCommandMenus() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(userCommands()...)); err != nil {
		return fmt.Errorf("ошибка установки меню команд: %w", err)
	}

	for _, adminID := range b.cfg.AdminIDs {
		cfg := tgbotapi.NewSetMyCommandsWithScope(
			tgbotapi.NewBotCommandScopeChat(adminID),
			adminCommands()...,
		)
		if _, err := b.api.Request(cfg); err != nil {
			log.WithError(err).WithField("admin_id", adminID).Error("Ошибка настройки меню команд администратора")
		}
	}

	log.Info("Меню команд настроено")
	return nil
}

// handleUpdateCommands обрабатывает /update_commands.
func (b *Bot) handleUpdateCommands(msg *tgbotapi.Message) {
	if !b.access.RequireAdminPrivate(msg) {
		return
	}

	if err := b.SetupCommandMenus(); err != nil {
		log.WithError(err).Error("Ошибка обновления меню команд")
		b.sendMessage(msg.Chat.ID, "Произошла ошибка при обновлении меню команд.")
		return
	}
	b.sendMessage(msg.Chat.ID, "Меню команд обновлено!")
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
