// Package event — handlers.go обрабатывает команды реестра событий:
// создание записи, отметки оплаты и посещений, статистика.
package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
)

// VisitStats обновляет счётчики посещений в профиле пользователя.
// Реализуется сервисом профилей.
type VisitStats interface {
	UpdateVisitStatistics(ctx context.Context, userID int64, dateStr string) error
}

// Handler обрабатывает команды реестра событий.
type Handler struct {
	service    *Service
	announcer  *Announcer
	visitStats VisitStats
	bot        TelegramAPI
	access     *filters.Access
	location   *time.Location
}

// NewHandler создаёт обработчик команд событий.
func NewHandler(service *Service, announcer *Announcer, visitStats VisitStats, bot TelegramAPI, access *filters.Access) *Handler {
	return &Handler{
		service:    service,
		announcer:  announcer,
		visitStats: visitStats,
		bot:        bot,
		access:     access,
		location:   common.BathLocation(),
	}
}

// HandleCreateBath обрабатывает /create_bath: ручная публикация анонса
// на ближайшее воскресенье.
func (h *Handler) HandleCreateBath(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	dateStr, err := h.announcer.PublishNext(ctx, time.Now().In(h.location))
	if err != nil {
		log.WithError(err).Error("Ошибка создания события")
		h.reply(msg.Chat.ID, "Произошла ошибка при создании записи на баню.")
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Создана запись на баню %s.", dateStr))
}

// HandleMarkPaid обрабатывает /mark_paid <username> <дата>.
func (h *Handler) HandleMarkPaid(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		h.reply(msg.Chat.ID, "Использование: /mark_paid <username> <дата в формате DD.MM.YYYY>")
		return
	}
	username := strings.TrimPrefix(args[0], "@")
	dateStr := args[1]

	marked, err := h.service.MarkPaidByUsername(ctx, dateStr, username)
	if err != nil {
		log.WithError(err).Error("Ошибка подтверждения оплаты")
		h.reply(msg.Chat.ID, "Произошла ошибка при подтверждении оплаты.")
		return
	}
	if !marked {
		h.reply(msg.Chat.ID, fmt.Sprintf("Пользователь @%s не найден в списке участников на %s.", username, dateStr))
		return
	}

	h.reply(msg.Chat.ID, fmt.Sprintf("Оплата для @%s на %s подтверждена.", username, dateStr))
	if err := h.announcer.RefreshPinned(ctx, dateStr); err != nil {
		log.WithError(err).Error("Ошибка обновления закреплённого сообщения")
	}
}

// HandleHistory обрабатывает /history: история посещений пользователя.
func (h *Handler) HandleHistory(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequirePrivate(msg) {
		return
	}

	history, err := h.service.UserHistory(ctx, msg.From.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении истории.")
		return
	}
	if len(history) == 0 {
		h.reply(msg.Chat.ID, "У вас пока нет истории посещений бани.")
		return
	}

	var b strings.Builder
	b.WriteString("📅 Ваша история посещений бани:\n\n")
	for _, entry := range history {
		status := "❌"
		if entry.Visited {
			status = "✅"
		}
		paid := "💸"
		if entry.Paid {
			paid = "💰"
		}
		fmt.Fprintf(&b, "%s %s %s\n", entry.DateStr, status, paid)
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleVisits обрабатывает /visits: счётчик и даты посещений.
func (h *Handler) HandleVisits(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequirePrivate(msg) {
		return
	}

	count, err := h.service.VisitsCount(ctx, msg.From.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения посещений")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении информации о посещениях.")
		return
	}
	if count == 0 {
		h.reply(msg.Chat.ID, "Вы еще не посещали баню.")
		return
	}

	history, err := h.service.UserHistory(ctx, msg.From.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории посещений")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении информации о посещениях.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Вы посетили баню %d раз(а):\n\n", count)
	for _, entry := range history {
		if entry.Visited {
			fmt.Fprintf(&b, "📅 %s\n", entry.DateStr)
		}
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleStats обрабатывает /stats: сводка по дням за последний квартал.
func (h *Handler) HandleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	stats, err := h.service.StatisticsLastQuarter(ctx, time.Now().In(h.location))
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении статистики.")
		return
	}
	if len(stats) == 0 {
		h.reply(msg.Chat.ID, "За последние 3 месяца нет данных о посещениях.")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Статистика посещений бани за последние 3 месяца:\n\n")
	for _, day := range stats {
		fmt.Fprintf(&b, "Дата: %s\n", day.DateStr)
		fmt.Fprintf(&b, "Всего участников: %d\n", day.Total)
		fmt.Fprintf(&b, "Оплатили: %d\n", day.Paid)
		fmt.Fprintf(&b, "Посетили: %d\n\n", day.Visited)
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleMarkVisit обрабатывает /mark_visit <дата>: отметка посещения
// самим участником.
func (h *Handler) HandleMarkVisit(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequirePrivate(msg) {
		return
	}

	dateStr := strings.TrimSpace(msg.CommandArguments())
	if dateStr == "" {
		h.reply(msg.Chat.ID, "Пожалуйста, укажите дату в формате ДД.ММ.ГГГГ")
		return
	}

	marked, err := h.service.MarkVisit(ctx, dateStr, msg.From.ID)
	if err != nil || !marked {
		if err != nil {
			log.WithError(err).Warn("Ошибка отметки посещения")
		}
		h.reply(msg.Chat.ID, "❌ Не удалось отметить посещение. Проверьте дату и попробуйте снова.")
		return
	}
	if err := h.visitStats.UpdateVisitStatistics(ctx, msg.From.ID, dateStr); err != nil {
		log.WithError(err).Error("Ошибка обновления статистики профиля")
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Посещение бани %s отмечено!", dateStr))
}

// HandleCashList обрабатывает /cash_list: все участники с оплатой наличными.
func (h *Handler) HandleCashList(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	entries, err := h.service.AllCash(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка наличных")
		h.reply(msg.Chat.ID, "Произошла ошибка при получении списка.")
		return
	}
	if len(entries) == 0 {
		h.reply(msg.Chat.ID, "Нет участников с оплатой наличными.")
		return
	}

	var b strings.Builder
	b.WriteString("Список участников с оплатой наличными:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "@%s — %s\n", e.Username, e.DateStr)
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleClearDB обрабатывает /clear_db: полная очистка рабочих таблиц.
func (h *Handler) HandleClearDB(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequireAdminPrivate(msg) {
		return
	}

	if err := h.service.ClearAll(ctx); err != nil {
		log.WithError(err).Error("Ошибка очистки базы")
		h.reply(msg.Chat.ID, "Произошла ошибка при очистке базы данных.")
		return
	}
	h.reply(msg.Chat.ID, "База данных полностью очищена.")
	log.Warn("База данных очищена по команде администратора")
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
