// Package bot содержит главный модуль бота: запуск polling, маршрутизацию
// команд и callback-кнопок по обработчикам фич.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/bot/middleware"
	"parilka.club/bath-bot/internal/config"
	"parilka.club/bath-bot/internal/features/event"
	"parilka.club/bath-bot/internal/features/members"
	"parilka.club/bath-bot/internal/features/payment"
	"parilka.club/bath-bot/internal/features/profile"
	"parilka.club/bath-bot/internal/features/registration"
	"parilka.club/bath-bot/internal/features/subscription"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	access      *filters.Access
	rateLimiter *middleware.RateLimiter

	eventHandler        *event.Handler
	registrationHandler *registration.Handler
	payments            *payment.Service
	profileHandler      *profile.Handler
	profileConv         *profile.Conversation
	memberHandler       *members.Handler
	memberService       *members.Service
	subscriptionHandler *subscription.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	access *filters.Access,
	eventHandler *event.Handler,
	registrationHandler *registration.Handler,
	payments *payment.Service,
	profileHandler *profile.Handler,
	profileConv *profile.Conversation,
	memberService *members.Service,
	memberHandler *members.Handler,
	subscriptionHandler *subscription.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                 api,
		cfg:                 cfg,
		access:              access,
		rateLimiter:         middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		eventHandler:        eventHandler,
		registrationHandler: registrationHandler,
		payments:            payments,
		profileHandler:      profileHandler,
		profileConv:         profileConv,
		memberHandler:       memberHandler,
		memberService:       memberService,
		subscriptionHandler: subscriptionHandler,
		inflight:            make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	b.touchMember(ctx, message.From)

	if message.IsCommand() {
		b.routeCommand(ctx, message)
		return
	}

	// Свободный текст в личном чате: сначала диалог анкеты,
	// затем ожидание сообщения для пересылки пользователю.
	if message.Chat.IsPrivate() && message.Text != "" {
		if b.profileConv.HandleText(ctx, message.From.ID, message.Text) {
			return
		}
		if b.access.IsAdmin(message.From.ID) &&
			b.payments.HandleRelayMessage(ctx, message.From.ID, message.Text) {
			return
		}
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"user_id": msg.From.ID,
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.registrationHandler.HandleStart(ctx, msg)
	case "register":
		b.registrationHandler.HandleRegister(ctx, msg)
	case "history":
		b.eventHandler.HandleHistory(ctx, msg)
	case "visits":
		b.eventHandler.HandleVisits(ctx, msg)
	case "profile":
		b.profileHandler.HandleProfileCommand(ctx, msg)
	case "cancel":
		if msg.Chat.IsPrivate() && b.profileConv.Active(msg.From.ID) {
			b.profileConv.Cancel(msg.From.ID)
		}

	case "create_bath":
		b.eventHandler.HandleCreateBath(ctx, msg)
	case "mark_paid":
		b.eventHandler.HandleMarkPaid(ctx, msg)
	case "mark_visit":
		b.eventHandler.HandleMarkVisit(ctx, msg)
	case "stats":
		b.eventHandler.HandleStats(ctx, msg)
	case "cash_list":
		b.eventHandler.HandleCashList(ctx, msg)
	case "clear_db":
		b.eventHandler.HandleClearDB(ctx, msg)
	case "export_profiles":
		b.profileHandler.HandleExport(ctx, msg)
	case "mention_all":
		b.memberHandler.HandleMentionAll(ctx, msg)
	case "add_subscriber":
		b.subscriptionHandler.HandleAddSubscriber(ctx, msg)
	case "remove_subscriber":
		b.subscriptionHandler.HandleRemoveSubscriber(ctx, msg)
	case "update_commands":
		b.handleUpdateCommands(msg)
	}
}

// handleCallback маршрутизирует нажатие инлайн-кнопки.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	middleware.LogCallback(query)

	if query.From != nil {
		b.touchMember(ctx, query.From)
	}

	intent, err := ParseCallback(query.Data)
	if err != nil {
		log.WithError(err).Warn("Нераспознанный callback")
		b.answer(query)
		return
	}

	switch in := intent.(type) {
	case JoinBath:
		b.registrationHandler.HandleJoin(ctx, query, in.DateStr)
	case ConfirmBath:
		b.registrationHandler.HandleConfirm(ctx, query, in.DateStr)
	case PaidBath:
		b.registrationHandler.HandlePaid(ctx, query, in.DateStr)
	case CashBath:
		b.registrationHandler.HandleCash(ctx, query, in.DateStr)
	case StartProfile:
		b.profileHandler.HandleStartProfileCallback(ctx, query)
	case UpdateProfile:
		b.answer(query)
		b.profileConv.HandleUpdateCallback(query.From.ID, in.Yes)

	case AdminConfirm:
		b.answer(query)
		if !b.requireAdminCallback(query) {
			return
		}
		text, err := b.payments.Confirm(ctx, in.UserID, in.DateStr, in.Method)
		if err != nil {
			log.WithError(err).Error("Ошибка подтверждения оплаты")
			b.editCallbackMessage(query, "Произошла ошибка при подтверждении оплаты.", nil)
			return
		}
		b.editCallbackMessage(query, text, nil)

	case AdminDecline:
		b.answer(query)
		if !b.requireAdminCallback(query) {
			return
		}
		text, markup, err := b.payments.Decline(ctx, in.UserID, in.DateStr, in.Method)
		if err != nil {
			log.WithError(err).Error("Ошибка отклонения оплаты")
			b.editCallbackMessage(query, "Произошла ошибка при отклонении оплаты.", nil)
			return
		}
		b.editCallbackMessage(query, text, markup)

	case MessageUser:
		b.answer(query)
		if !b.requireAdminCallback(query) {
			return
		}
		b.payments.StartRelay(query.From.ID, in.UserID)
		b.editCallbackMessage(query,
			"Пожалуйста, отправьте сообщение, которое вы хотите передать пользователю.", nil)
	}
}

// requireAdminCallback пропускает админские кнопки только для администраторов.
func (b *Bot) requireAdminCallback(query *tgbotapi.CallbackQuery) bool {
	if b.access.IsAdmin(query.From.ID) {
		return true
	}
	b.editCallbackMessage(query, "У вас нет прав для выполнения этой операции.", nil)
	log.WithField("user_id", query.From.ID).Warn("Попытка использования админской кнопки")
	return false
}

// touchMember отмечает активность пользователя для /mention_all.
func (b *Bot) touchMember(ctx context.Context, user *tgbotapi.User) {
	if user.IsBot {
		return
	}
	if err := b.memberService.Touch(ctx, user.ID, user.UserName); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Не удалось отметить активность")
	}
}

func (b *Bot) answer(query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Warn("Ошибка ответа на callback")
	}
}

func (b *Bot) editCallbackMessage(query *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).Warn("Ошибка редактирования сообщения")
	}
}
