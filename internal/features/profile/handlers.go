// Package profile — handlers.go обрабатывает /profile, /export_profiles
// и кнопку «Заполнить профиль».
package profile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
)

// TelegramAPI — методы бота, нужные обработчикам анкет.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler обрабатывает команды анкет.
type Handler struct {
	service *Service
	conv    *Conversation
	bot     TelegramAPI
	access  *filters.Access
}

// NewHandler создаёт обработчик анкет.
func NewHandler(service *Service, conv *Conversation, bot TelegramAPI, access *filters.Access) *Handler {
	return &Handler{service: service, conv: conv, bot: bot, access: access}
}

// HandleProfileCommand обрабатывает /profile.
func (h *Handler) HandleProfileCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		h.send(msg.Chat.ID, "Профиль можно заполнять только в личном чате с ботом.")
		return
	}
	h.conv.Start(ctx, msg.From.ID, common.DisplayName(msg.From.UserName, msg.From.FirstName, msg.From.LastName))
}

// HandleStartProfileCallback обрабатывает кнопку «Заполнить профиль».
func (h *Handler) HandleStartProfileCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
	if query.Message == nil {
		return
	}
	if !query.Message.Chat.IsPrivate() {
		edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID,
			"Профиль можно заполнять только в личном чате с ботом.")
		if _, err := h.bot.Send(edit); err != nil {
			log.WithError(err).Error("Ошибка редактирования сообщения")
		}
		return
	}
	user := query.From
	h.conv.Start(ctx, user.ID, common.DisplayName(user.UserName, user.FirstName, user.LastName))
}

// HandleExport обрабатывает /export_profiles: выгрузка анкет в CSV.
func (h *Handler) HandleExport(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	profiles, err := h.service.All(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка экспорта профилей")
		h.send(msg.Chat.ID, "Произошла ошибка при экспорте профилей.")
		return
	}
	if len(profiles) == 0 {
		h.send(msg.Chat.ID, "Нет данных о пользователях.")
		return
	}

	data, err := profilesCSV(profiles)
	if err != nil {
		log.WithError(err).Error("Ошибка формирования CSV")
		h.send(msg.Chat.ID, "Произошла ошибка при экспорте профилей.")
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: "bath_users.csv", Bytes: data})
	doc.Caption = "Экспорт всех профилей пользователей."
	if _, err := h.bot.Send(doc); err != nil {
		log.WithError(err).Error("Ошибка отправки файла")
		h.send(msg.Chat.ID, "Произошла ошибка при экспорте профилей.")
		return
	}
	log.WithField("profiles", len(profiles)).Info("Экспорт профилей отправлен")
}

// profilesCSV сериализует анкеты в CSV с заголовком.
func profilesCSV(profiles []Profile) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"user_id", "username", "full_name", "birth_date", "occupation",
		"instagram", "skills", "total_visits", "first_visit_date", "last_visit_date"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	for _, p := range profiles {
		row := []string{
			strconv.FormatInt(p.UserID, 10),
			p.Username,
			p.FullName,
			p.BirthDate,
			p.Occupation,
			p.Instagram,
			p.Skills,
			strconv.Itoa(p.TotalVisits),
			p.FirstVisitDate,
			p.LastVisitDate,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
