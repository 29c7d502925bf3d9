// Package event — pinned.go поддерживает закреплённый анонс в группе
// в актуальном состоянии.
package event

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// TelegramAPI — минимальный срез методов бота, нужный для работы
// с закреплённым сообщением.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Pinner сверяет закреплённый анонс с ожидаемым текстом и клавиатурой.
type Pinner struct {
	api    TelegramAPI
	store  Store
	chatID int64
}

// NewPinner создаёт Pinner для группового чата.
func NewPinner(api TelegramAPI, store Store, chatID int64) *Pinner {
	return &Pinner{api: api, store: store, chatID: chatID}
}

// Reconcile приводит закреплённое сообщение к ожидаемому виду.
// Если текст отличается, всё открепляется и публикуется новый анонс.
// Если отличаются только подписи кнопок, сообщение редактируется на месте.
func (p *Pinner) Reconcile(ctx context.Context, dateStr, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	chat, err := p.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: p.chatID},
	})
	if err != nil {
		return fmt.Errorf("ошибка получения чата %d: %w", p.chatID, err)
	}

	pinned := chat.PinnedMessage
	if pinned == nil || pinned.Text != text {
		return p.repin(ctx, dateStr, text, markup)
	}

	if markupLabels(pinned.ReplyMarkup) != markupLabels(markup) {
		edit := tgbotapi.NewEditMessageText(p.chatID, pinned.MessageID, text)
		edit.ReplyMarkup = markup
		if _, err := p.api.Send(edit); err != nil {
			return fmt.Errorf("ошибка редактирования закреплённого сообщения: %w", err)
		}
		log.WithField("message_id", pinned.MessageID).Info("Закреплённое сообщение обновлено")
		return nil
	}

	log.Debug("Закреплённое сообщение не требует обновления")
	return nil
}

// Unpin открепляет сохранённый анонс и забывает его.
func (p *Pinner) Unpin(ctx context.Context) error {
	stored, err := p.store.GetPinned(ctx, p.chatID)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}
	if _, err := p.api.Request(tgbotapi.UnpinChatMessageConfig{
		ChatID:    p.chatID,
		MessageID: stored.MessageID,
	}); err != nil {
		log.WithError(err).Warn("Не удалось открепить старое сообщение")
	}
	return p.store.DeletePinned(ctx, p.chatID)
}

func (p *Pinner) repin(ctx context.Context, dateStr, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if _, err := p.api.Request(tgbotapi.UnpinAllChatMessagesConfig{ChatID: p.chatID}); err != nil {
		log.WithError(err).Warn("Не удалось открепить все сообщения")
	}

	msg := tgbotapi.NewMessage(p.chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := p.api.Send(msg)
	if err != nil {
		return fmt.Errorf("ошибка отправки анонса: %w", err)
	}

	if _, err := p.api.Request(tgbotapi.PinChatMessageConfig{
		ChatID:    p.chatID,
		MessageID: sent.MessageID,
	}); err != nil {
		return fmt.Errorf("ошибка закрепления сообщения %d: %w", sent.MessageID, err)
	}

	if err := p.store.SetPinned(ctx, p.chatID, dateStr, sent.MessageID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"message_id": sent.MessageID, "date": dateStr}).Info("Новое сообщение закреплено")
	return nil
}

// markupLabels сводит клавиатуру к подписям кнопок: сравниваем только их,
// чтобы не перезакреплять сообщение из-за несущественных полей.
func markupLabels(markup *tgbotapi.InlineKeyboardMarkup) string {
	if markup == nil {
		return ""
	}
	out := ""
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			out += btn.Text + "|"
		}
		out += ";"
	}
	return out
}
