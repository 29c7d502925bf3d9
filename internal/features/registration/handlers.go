// Package registration — handlers.go обрабатывает кнопку «Записаться»,
// подтверждение записи и выбор способа оплаты.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
	"parilka.club/bath-bot/internal/features/payment"
)

// Registry — операции реестра событий, нужные процессу записи.
type Registry interface {
	HasCapacity(ctx context.Context, dateStr string) (bool, error)
	AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error
	SetCash(ctx context.Context, dateStr string, userID int64) error
}

// InviteStore захватывает и снимает блокировку приглашения.
type InviteStore interface {
	TryAdd(ctx context.Context, userID int64, dateStr string, ttlHours int) (bool, error)
	Release(ctx context.Context, userID int64, dateStr string) error
}

// PendingSubmitter регистрирует заявку на подтверждение оплаты.
type PendingSubmitter interface {
	Submit(ctx context.Context, userID int64, username, dateStr, method string) error
}

// TelegramAPI — методы бота, нужные процессу записи.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Config — параметры записи, попадающие в тексты сообщений.
type Config struct {
	BathTime           string
	BathCost           int
	CardPaymentLink    string
	RevolutPaymentLink string
	BotUsername        string
	InviteTTLHours     int
}

// Handler ведёт пользователя по процессу записи.
type Handler struct {
	events    Registry
	invites   InviteStore
	sessions  *Sessions
	submitter PendingSubmitter
	bot       TelegramAPI
	access    *filters.Access
	cfg       Config
	location  *time.Location
}

// NewHandler создаёт обработчик записи.
func NewHandler(events Registry, invites InviteStore, sessions *Sessions, submitter PendingSubmitter, bot TelegramAPI, access *filters.Access, cfg Config) *Handler {
	return &Handler{
		events:    events,
		invites:   invites,
		sessions:  sessions,
		submitter: submitter,
		bot:       bot,
		access:    access,
		cfg:       cfg,
		location:  common.BathLocation(),
	}
}

// HandleJoin обрабатывает кнопку «Записаться» в группе.
func (h *Handler) HandleJoin(ctx context.Context, query *tgbotapi.CallbackQuery, dateStr string) {
	user := query.From
	log.WithFields(log.Fields{"user_id": user.ID, "date": dateStr}).Info("Пользователь записывается на баню")

	won, err := h.invites.TryAdd(ctx, user.ID, dateStr, h.cfg.InviteTTLHours)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки приглашения")
		h.alert(query, "Произошла ошибка. Пожалуйста, попробуйте позже.")
		return
	}
	if !won {
		h.alert(query, "Вам уже отправлено приглашение на регистрацию. Проверьте личные сообщения.")
		return
	}

	if _, active := h.sessions.Get(user.ID, dateStr); active {
		h.alert(query, "Вы уже начали процесс записи на эту дату.")
		return
	}

	hasCapacity, err := h.events.HasCapacity(ctx, dateStr)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки лимита участников")
		h.alert(query, "Произошла ошибка. Пожалуйста, попробуйте позже.")
		return
	}
	if !hasCapacity {
		h.alert(query, "К сожалению, баня уже занята. Вы можете записаться в следующий раз!")
		return
	}

	if err := h.sendConfirmPrompt(user.ID, dateStr); err != nil {
		// Личный чат недоступен: бот ещё не запущен пользователем.
		// Блокировка снимается, чтобы кнопка сработала после запуска бота.
		log.WithError(err).WithField("user_id", user.ID).Warn("Не удалось написать пользователю в личный чат")
		if err := h.invites.Release(ctx, user.ID, dateStr); err != nil {
			log.WithError(err).Error("Ошибка снятия блокировки приглашения")
		}
		h.alert(query, "Необходимо начать диалог с ботом")
		h.sendDeepLinkInstructions(query, dateStr)
		return
	}

	h.answer(query)
	if query.Message != nil {
		reply := tgbotapi.NewMessage(query.Message.Chat.ID,
			fmt.Sprintf("@%s, проверьте личные сообщения от бота.", common.DisplayName(user.UserName, user.FirstName, user.LastName)))
		reply.ReplyToMessageID = query.Message.MessageID
		if _, err := h.bot.Send(reply); err != nil {
			log.WithError(err).Error("Ошибка отправки ответа в группу")
		}
	}
}

// HandleConfirm обрабатывает кнопку «Подтвердить запись» в личном чате.
func (h *Handler) HandleConfirm(ctx context.Context, query *tgbotapi.CallbackQuery, dateStr string) {
	user := query.From
	h.answer(query)

	hasCapacity, err := h.events.HasCapacity(ctx, dateStr)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки лимита участников")
		h.edit(query, "Произошла ошибка. Пожалуйста, попробуйте позже.", nil)
		return
	}
	if !hasCapacity {
		h.edit(query, "К сожалению, баня уже занята. Вы можете записаться в следующий раз!", nil)
		return
	}

	username := common.DisplayName(user.UserName, user.FirstName, user.LastName)
	h.sessions.Set(user.ID, username, dateStr, StatusPendingPayment)

	text := fmt.Sprintf("Отлично! Для завершения записи на баню (%s), пожалуйста, выполните оплату:\n\n", dateStr)
	text += fmt.Sprintf("Cтоимость: %d\n\n", h.cfg.BathCost)
	text += "Способы оплаты:\n"
	text += fmt.Sprintf("1. КАРТА: %s\n", h.cfg.CardPaymentLink)
	text += fmt.Sprintf("2. Revolut: %s\n\n", h.cfg.RevolutPaymentLink)
	text += "После совершения оплаты, выберите способ ниже."

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Я оплатил(а) онлайн", "paid_bath_"+dateStr),
			tgbotapi.NewInlineKeyboardButtonData("Буду платить наличными", "cash_bath_"+dateStr),
		),
	)
	h.edit(query, text, &markup)
	h.sendPaymentQR(user.ID)
}

// HandlePaid обрабатывает кнопку «Я оплатил(а) онлайн».
func (h *Handler) HandlePaid(ctx context.Context, query *tgbotapi.CallbackQuery, dateStr string) {
	user := query.From
	h.answer(query)

	sess, ok := h.sessions.Get(user.ID, dateStr)
	if !ok {
		log.WithField("user_id", user.ID).Warn("Подтверждение оплаты без начатой записи")
		h.edit(query, "Произошла ошибка. Пожалуйста, начните процесс записи заново.", nil)
		return
	}

	h.sessions.Set(user.ID, sess.Username, dateStr, StatusPaymentClaimed)
	if err := h.submitter.Submit(ctx, user.ID, sess.Username, dateStr, payment.MethodOnline); err != nil {
		log.WithError(err).Error("Ошибка подачи заявки")
		h.edit(query, "Произошла ошибка. Пожалуйста, попробуйте позже.", nil)
		return
	}

	h.edit(query, fmt.Sprintf("Спасибо! Ваша заявка об оплате отправлена администратору.\n"+
		"После подтверждения оплаты, вы будете добавлены в список участников бани на %s.\n"+
		"Пожалуйста, ожидайте подтверждения.", dateStr), nil)
}

// HandleCash обрабатывает кнопку «Буду платить наличными».
// Участник сразу попадает в список с пометкой cash, но без оплаты.
func (h *Handler) HandleCash(ctx context.Context, query *tgbotapi.CallbackQuery, dateStr string) {
	user := query.From
	h.answer(query)

	username := common.DisplayName(user.UserName, user.FirstName, user.LastName)
	h.sessions.Set(user.ID, username, dateStr, StatusPendingCash)

	if err := h.events.AddParticipant(ctx, dateStr, user.ID, username, false); err != nil && !errors.Is(err, common.ErrAlreadyRegistered) {
		log.WithError(err).Error("Ошибка добавления участника")
		h.edit(query, "Произошла ошибка. Пожалуйста, попробуйте позже.", nil)
		return
	}
	if err := h.events.SetCash(ctx, dateStr, user.ID); err != nil {
		log.WithError(err).Error("Ошибка отметки наличной оплаты")
	}

	if err := h.submitter.Submit(ctx, user.ID, username, dateStr, payment.MethodCash); err != nil {
		log.WithError(err).Error("Ошибка подачи заявки")
		h.edit(query, "Произошла ошибка. Пожалуйста, попробуйте позже.", nil)
		return
	}

	h.edit(query, "Спасибо! Ваша заявка на оплату наличными отправлена администратору. Ожидайте подтверждения.", nil)
}

// HandleStart обрабатывает /start, в том числе глубокую ссылку bath_<дата>.
func (h *Handler) HandleStart(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequirePrivate(msg) {
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if strings.HasPrefix(arg, "bath_") {
		dateStr := strings.TrimPrefix(arg, "bath_")
		if err := common.ValidateDate(dateStr); err == nil {
			if err := h.sendConfirmPrompt(msg.Chat.ID, dateStr); err != nil {
				log.WithError(err).Error("Ошибка отправки приглашения")
			}
			return
		}
	}

	h.send(msg.Chat.ID, fmt.Sprintf("Привет, %s! Я бот для управления подписками и записью в баню.", msg.From.FirstName))
}

// HandleRegister обрабатывает /register <дата>.
func (h *Handler) HandleRegister(ctx context.Context, msg *tgbotapi.Message) {
	if !h.access.RequirePrivate(msg) {
		return
	}

	dateStr := strings.TrimSpace(msg.CommandArguments())
	if dateStr == "" {
		nextSunday := common.NextSunday(time.Now().In(h.location))
		h.send(msg.Chat.ID, fmt.Sprintf("Чтобы записаться на баню, используйте команду с датой в формате /register DD.MM.YYYY\n\nНапример: /register %s", nextSunday))
		return
	}
	if err := common.ValidateDate(dateStr); err != nil {
		h.send(msg.Chat.ID, "Неверный формат даты. Используйте ДД.ММ.ГГГГ")
		return
	}

	if err := h.sendConfirmPrompt(msg.Chat.ID, dateStr); err != nil {
		log.WithError(err).Error("Ошибка отправки приглашения")
		h.send(msg.Chat.ID, "Произошла ошибка при регистрации. Пожалуйста, попробуйте позже.")
	}
}

// sendConfirmPrompt отправляет в личный чат приглашение подтвердить запись.
func (h *Handler) sendConfirmPrompt(chatID int64, dateStr string) error {
	text := fmt.Sprintf("Вы хотите записаться на баню в воскресенье %s.\n\n", dateStr)
	text += fmt.Sprintf("Время: %s ‼️\n\n", h.cfg.BathTime)
	text += fmt.Sprintf("Cтоимость: %d карта либо наличка при входе📍\n\n", h.cfg.BathCost)
	text += "Для продолжения записи, нажмите кнопку ниже:"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Подтвердить запись", "confirm_bath_"+dateStr),
		),
	)
	_, err := h.bot.Send(msg)
	return err
}

// sendDeepLinkInstructions объясняет в группе, как начать диалог с ботом.
func (h *Handler) sendDeepLinkInstructions(query *tgbotapi.CallbackQuery, dateStr string) {
	if query.Message == nil {
		return
	}
	user := query.From
	startLink := fmt.Sprintf("https://t.me/%s?start=bath_%s", h.cfg.BotUsername, dateStr)
	text := fmt.Sprintf("@%s, для записи на баню необходимо сначала начать диалог с ботом.\n\n"+
		"1. [Нажмите здесь для перехода в чат с ботом](%s)\n"+
		"2. Отправьте команду /start\n"+
		"3. Затем используйте команду /register %s\n\n"+
		"После этого вы сможете продолжить процесс записи.",
		common.DisplayName(user.UserName, user.FirstName, user.LastName), startLink, dateStr)

	reply := tgbotapi.NewMessage(query.Message.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.DisableWebPagePreview = true
	reply.ReplyToMessageID = query.Message.MessageID
	if _, err := h.bot.Send(reply); err != nil {
		log.WithError(err).Error("Ошибка отправки инструкции в группу")
	}
}

// sendPaymentQR прикладывает QR-код ссылки на оплату картой.
func (h *Handler) sendPaymentQR(chatID int64) {
	if h.cfg.CardPaymentLink == "" {
		return
	}
	png, err := qrcode.Encode(h.cfg.CardPaymentLink, qrcode.Medium, 256)
	if err != nil {
		log.WithError(err).Error("Ошибка генерации QR-кода")
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "payment_qr.png", Bytes: png})
	photo.Caption = "QR-код для оплаты картой"
	if _, err := h.bot.Send(photo); err != nil {
		log.WithError(err).Error("Ошибка отправки QR-кода")
	}
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) edit(query *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ReplyMarkup = markup
	if _, err := h.bot.Send(edit); err != nil {
		log.WithError(err).Error("Ошибка редактирования сообщения")
	}
}

func (h *Handler) answer(query *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
}

func (h *Handler) alert(query *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallbackWithAlert(query.ID, text)); err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
}
