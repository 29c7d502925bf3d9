// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot"
	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/config"
	"parilka.club/bath-bot/internal/db/postgres"
	"parilka.club/bath-bot/internal/features/event"
	"parilka.club/bath-bot/internal/features/members"
	"parilka.club/bath-bot/internal/features/payment"
	"parilka.club/bath-bot/internal/features/profile"
	"parilka.club/bath-bot/internal/features/registration"
	"parilka.club/bath-bot/internal/features/subscription"
	"parilka.club/bath-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	eventRepo := event.NewRepository(pool)
	paymentRepo := payment.NewRepository(pool)
	inviteRepo := registration.NewInviteRepository(pool)
	profileRepo := profile.NewRepository(pool)
	memberRepo := members.NewRepository(pool)
	subscriptionRepo := subscription.NewRepository(pool)

	// === 4. Сервисы ===
	eventService := event.NewService(eventRepo, cfg.MaxParticipants)
	renderer := event.Renderer{
		BathTime:           cfg.BathTime,
		BathCost:           cfg.BathCost,
		MaxParticipants:    cfg.MaxParticipants,
		CardPaymentLink:    cfg.CardPaymentLink,
		RevolutPaymentLink: cfg.RevolutLink,
		LocationURL:        cfg.BathLocationURL,
	}
	pinner := event.NewPinner(botAPI, eventRepo, cfg.BathChatID)
	announcer := event.NewAnnouncer(eventService, renderer, pinner, botAPI, cfg.BathChatID)

	profileService := profile.NewService(profileRepo)
	paymentService := payment.NewService(paymentRepo, eventService, announcer, profileService, botAPI, cfg.AdminIDs)
	profileConv := profile.NewConversation(profileService, paymentRepo, botAPI, cfg.AdminIDs)
	memberService := members.NewService(memberRepo)
	subscriptionService := subscription.NewService(subscriptionRepo, botAPI, cfg.BathChatID)

	sessions := registration.NewSessions(2 * time.Hour)

	// === 5. Фильтры и обработчики ===
	access := filters.NewAccess(botAPI, cfg.IsAdmin)

	eventHandler := event.NewHandler(eventService, announcer, profileService, botAPI, access)
	registrationHandler := registration.NewHandler(
		eventService, inviteRepo, sessions, paymentService, botAPI, access,
		registration.Config{
			BathTime:           cfg.BathTime,
			BathCost:           cfg.BathCost,
			CardPaymentLink:    cfg.CardPaymentLink,
			RevolutPaymentLink: cfg.RevolutLink,
			BotUsername:        botAPI.Self.UserName,
			InviteTTLHours:     cfg.InviteTTLHours,
		},
	)
	profileHandler := profile.NewHandler(profileService, profileConv, botAPI, access)
	memberHandler := members.NewHandler(memberService, botAPI, access, cfg.BathChatID)
	subscriptionHandler := subscription.NewHandler(subscriptionService, botAPI, access)

	// === 6. Собираем бота ===
	b := bot.New(
		botAPI, cfg, access,
		eventHandler,
		registrationHandler,
		paymentService,
		profileHandler, profileConv,
		memberService, memberHandler,
		subscriptionHandler,
	)

	if err := b.SetupCommandMenus(); err != nil {
		log.WithError(err).Error("Не удалось настроить меню команд")
	}

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(
		jobs.Config{
			ReminderAfterHours: cfg.ReminderAfterHours,
			PendingStaleDays:   cfg.PendingStaleDays,
		},
		announcer, eventService, profileService, paymentService,
		subscriptionService, sessions, botAPI, cfg.AdminIDs,
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции по порядку версий.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Events},
		{2, migration002Payments},
		{3, migration003Profiles},
		{4, migration004Members},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}
