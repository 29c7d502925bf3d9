// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: публикация записи по понедельникам,
// воскресные сводки, напоминания о заявках и проверка подписок.
package jobs

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
	"parilka.club/bath-bot/internal/features/event"
	"parilka.club/bath-bot/internal/features/payment"
	"parilka.club/bath-bot/internal/features/profile"
	"parilka.club/bath-bot/internal/features/registration"
	"parilka.club/bath-bot/internal/features/subscription"
)

// Config — настройки расписания.
type Config struct {
	ReminderAfterHours int
	PendingStaleDays   int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron *cron.Cron
	cfg  Config

	announcer     *event.Announcer
	events        *event.Service
	profiles      *profile.Service
	payments      *payment.Service
	subscriptions *subscription.Service
	sessions      *registration.Sessions

	bot      filters.Sender
	adminIDs []int64
	location *time.Location
}

// NewScheduler создаёт планировщик задач в часовом поясе бани.
func NewScheduler(
	cfg Config,
	announcer *event.Announcer,
	events *event.Service,
	profiles *profile.Service,
	payments *payment.Service,
	subscriptions *subscription.Service,
	sessions *registration.Sessions,
	bot filters.Sender,
	adminIDs []int64,
) *Scheduler {
	loc := common.BathLocation()
	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		cfg:           cfg,
		announcer:     announcer,
		events:        events,
		profiles:      profiles,
		payments:      payments,
		subscriptions: subscriptions,
		sessions:      sessions,
		bot:           bot,
		adminIDs:      adminIDs,
		location:      loc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Новая запись на баню по понедельникам утром
	s.cron.AddFunc("0 8 * * 1", func() {
		log.Info("[CRON] Публикация записи на следующее воскресенье")
		if _, err := s.announcer.PublishNext(ctx, time.Now().In(s.location)); err != nil {
			log.WithError(err).Error("[CRON] Ошибка публикации записи")
		}
	})

	// Сводка участников каждый воскресный вечер
	s.cron.AddFunc("0 20 * * 0", func() {
		log.Info("[CRON] Рассылка сводки участников")
		if err := s.sendBathSummary(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка рассылки сводки")
		}
	})

	// Воскресным утром: список наличных админам, дайджест заявок,
	// очистка зависших заявок
	s.cron.AddFunc("0 10 * * 0", func() {
		log.Info("[CRON] Воскресные сводки администраторам")
		if err := s.sendCashList(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка рассылки списка наличных")
		}
		if err := s.payments.SendPendingDigest(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка дайджеста заявок")
		}
		if err := s.payments.CleanupStale(ctx, s.cfg.PendingStaleDays); err != nil {
			log.WithError(err).Error("[CRON] Ошибка очистки старых заявок")
		}
	})

	// Ежечасно: напоминания о неподтверждённых заявках и чистка сессий
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Проверка неподтверждённых заявок")
		if err := s.payments.Remind(ctx, s.cfg.ReminderAfterHours); err != nil {
			log.WithError(err).Error("[CRON] Ошибка напоминаний")
		}
		s.sessions.Cleanup()
	})

	// Ежедневная проверка истёкших подписок
	s.cron.AddFunc("0 9 * * *", func() {
		log.Info("[CRON] Проверка истёкших подписок")
		s.subscriptions.KickExpired(ctx)
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Warsaw)")
}

// Stop останавливает планировщик, дождавшись текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// sendBathSummary отправляет каждому участнику сегодняшней бани сводку
// профилей всех участников.
func (s *Scheduler) sendBathSummary(ctx context.Context) error {
	today := time.Now().In(s.location).Format(common.DateLayout)

	participants, err := s.events.Participants(ctx, today)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return nil
	}

	text := fmt.Sprintf("📊 Сводка участников бани %s:\n\n", today)
	for _, p := range participants {
		prof, err := s.profiles.Get(ctx, p.UserID)
		if err != nil {
			log.WithError(err).WithField("user_id", p.UserID).Warn("Ошибка чтения профиля")
			continue
		}
		if prof == nil {
			continue
		}
		text += profile.FormatSummary(prof) + "\n"
	}

	for _, p := range participants {
		if _, err := s.bot.Send(tgbotapi.NewMessage(p.UserID, text)); err != nil {
			log.WithError(err).WithField("user_id", p.UserID).Warn("Не удалось отправить сводку")
		}
	}
	return nil
}

// sendCashList отправляет администраторам список наличников на сегодня.
func (s *Scheduler) sendCashList(ctx context.Context) error {
	today := time.Now().In(s.location).Format(common.DateLayout)

	entries, err := s.events.CashParticipants(ctx, today)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	text := fmt.Sprintf("Список участников, выбравших оплату наличными на %s:\n\n", today)
	for _, e := range entries {
		text += fmt.Sprintf("@%s | %s\n", e.Username, e.FullName)
	}

	for _, adminID := range s.adminIDs {
		if _, err := s.bot.Send(tgbotapi.NewMessage(adminID, text)); err != nil {
			log.WithError(err).WithField("admin_id", adminID).Warn("Не удалось отправить список наличных")
		}
	}
	return nil
}
