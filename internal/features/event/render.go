// Package event — render.go собирает текст анонса бани и клавиатуру записи.
package event

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Renderer форматирует анонс события по данным конфигурации.
type Renderer struct {
	BathTime           string
	BathCost           int
	MaxParticipants    int
	CardPaymentLink    string
	RevolutPaymentLink string
	LocationURL        string
}

// Announcement строит полный текст анонса со списком участников.
func (r Renderer) Announcement(dateStr string, participants []Participant) string {
	var b strings.Builder

	b.WriteString("НОВАЯ ЗАПИСЬ В БАНЮ👇\n\n")
	fmt.Fprintf(&b, "Время: %s ‼️\n\n", r.BathTime)
	fmt.Fprintf(&b, "Дата: ВОСКРЕСЕНЬЕ %s\n\n", dateStr)
	fmt.Fprintf(&b, "Cтоимость: %d карта либо наличка при входе📍\n\n", r.BathCost)
	fmt.Fprintf(&b, "Список участников (максимум %d человек):\n", r.MaxParticipants)

	for i, p := range participants {
		status := "❌"
		if p.Paid {
			status = "✅"
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, p.Username, status)
	}
	if len(participants) == 0 {
		b.WriteString("Пока никто не записался\n")
	}

	b.WriteString("\nОплата:\n")
	fmt.Fprintf(&b, "КАРТА\n%s\n", r.CardPaymentLink)
	fmt.Fprintf(&b, "Revolut\n%s\n\n", r.RevolutPaymentLink)
	fmt.Fprintf(&b, "Локация: %s\n\n", r.LocationURL)

	if len(participants) < r.MaxParticipants {
		b.WriteString("Для записи:\n")
		b.WriteString("1. Нажмите кнопку 'Записаться' ниже\n")
		b.WriteString("2. Следуйте инструкциям бота в личном чате\n")
		b.WriteString("3. Оплатите участие и подтвердите оплату через бота\n")
		b.WriteString("4. Ожидайте подтверждения от администратора")
	} else {
		b.WriteString("\n❗️Лимит участников достигнут. Запись закрыта.\n")
	}

	return b.String()
}

// JoinKeyboard возвращает клавиатуру с кнопкой записи либо nil,
// если лимит участников уже достигнут.
func (r Renderer) JoinKeyboard(dateStr string, participantCount int) *tgbotapi.InlineKeyboardMarkup {
	if participantCount >= r.MaxParticipants {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Записаться", "join_bath_"+dateStr),
		),
	)
	return &markup
}

// Roster строит актуальный список участников для сообщения в группу.
func (r Renderer) Roster(dateStr string, participants []Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Обновленный список участников бани на %s:\n\n", dateStr)
	for i, p := range participants {
		status := "❌"
		if p.Paid {
			status = "✅"
		}
		cash := ""
		if p.Cash {
			cash = "💵"
		}
		fmt.Fprintf(&b, "%d. %s %s%s\n", i+1, p.Username, status, cash)
	}
	if len(participants) == 0 {
		b.WriteString("Пока никто не записался\n")
	}
	return b.String()
}
