// Package profile — conversation.go ведёт пошаговый диалог заполнения
// анкеты в личном чате.
package profile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parilka.club/bath-bot/internal/features/payment"
)

// Шаги диалога анкеты.
type step int

const (
	stepUpdateChoice step = iota + 1
	stepFullName
	stepBirthDate
	stepOccupation
	stepInstagram
	stepSkills
)

var birthDateRe = regexp.MustCompile(`^\d{1,2}\.\d{1,2}$`)

// PendingFinder ищет висящую заявку пользователя на оплату.
type PendingFinder interface {
	FindByUser(ctx context.Context, userID int64) (*payment.Pending, error)
}

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type dialog struct {
	step      step
	draft     Profile
	updatedAt time.Time
}

// Conversation — машина состояний диалога анкеты.
type Conversation struct {
	service  *Service
	pending  PendingFinder
	bot      Sender
	adminIDs []int64

	mu      sync.Mutex
	dialogs map[int64]*dialog
	ttl     time.Duration
}

// NewConversation создаёт диалог анкеты.
func NewConversation(service *Service, pending PendingFinder, bot Sender, adminIDs []int64) *Conversation {
	return &Conversation{
		service:  service,
		pending:  pending,
		bot:      bot,
		adminIDs: adminIDs,
		dialogs:  make(map[int64]*dialog),
		ttl:      time.Hour,
	}
}

// Start начинает диалог: показывает текущую анкету либо первый вопрос.
func (c *Conversation) Start(ctx context.Context, userID int64, username string) {
	existing, err := c.service.Get(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		c.send(userID, "Произошла ошибка. Пожалуйста, попробуйте снова.")
		return
	}

	d := &dialog{updatedAt: time.Now()}
	d.draft.UserID = userID
	d.draft.Username = username

	if existing != nil {
		d.step = stepUpdateChoice
		c.setDialog(userID, d)
		msg := tgbotapi.NewMessage(userID, FormatCard(existing)+"\nХотите обновить информацию? (да/нет)")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Да", "update_profile_yes"),
				tgbotapi.NewInlineKeyboardButtonData("Нет", "update_profile_no"),
			),
		)
		if _, err := c.bot.Send(msg); err != nil {
			log.WithError(err).Error("Ошибка отправки сообщения")
		}
		return
	}

	d.step = stepFullName
	c.setDialog(userID, d)
	c.send(userID, "Давайте заполним информацию о вас.\nКак вас зовут? (Имя и Фамилия)")
}

// Active сообщает, ведёт ли пользователь диалог анкеты.
func (c *Conversation) Active(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dialogs[userID]
	if !ok {
		return false
	}
	if time.Since(d.updatedAt) > c.ttl {
		delete(c.dialogs, userID)
		return false
	}
	return true
}

// Cancel прерывает диалог.
func (c *Conversation) Cancel(userID int64) {
	c.mu.Lock()
	delete(c.dialogs, userID)
	c.mu.Unlock()
	c.send(userID, "Диалог отменён. Вы можете вернуться к анкете командой /profile.")
}

// HandleText обрабатывает очередной ответ пользователя.
// Возвращает false, если диалог не ведётся.
// Состояние диалога меняется только под мьютексом, ответ уходит после.
func (c *Conversation) HandleText(ctx context.Context, userID int64, text string) bool {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	d, ok := c.dialogs[userID]
	if ok && time.Since(d.updatedAt) > c.ttl {
		delete(c.dialogs, userID)
		ok = false
	}
	if !ok {
		c.mu.Unlock()
		return false
	}
	d.updatedAt = time.Now()

	var reply string
	var finished *dialog
	switch d.step {
	case stepUpdateChoice:
		reply = c.advanceUpdateChoice(userID, d, text)
	case stepFullName:
		d.draft.FullName = text
		d.step = stepBirthDate
		reply = "Введите дату рождения (например, 15.03):"
	case stepBirthDate:
		if !birthDateRe.MatchString(text) {
			reply = "Пожалуйста, введите дату рождения в формате ДД.ММ (например, 15.03)"
			break
		}
		d.draft.BirthDate = text
		d.step = stepOccupation
		reply = "Чем вы занимаетесь? (род деятельности):"
	case stepOccupation:
		d.draft.Occupation = text
		d.step = stepInstagram
		reply = "Введите ссылку на ваш Instagram (или 'нет', если не хотите указывать):"
	case stepInstagram:
		d.draft.Instagram = text
		d.step = stepSkills
		reply = "Сфера бизнеса, область работы, тип услуг которые предоставляете и т.д."
	case stepSkills:
		d.draft.Skills = text
		delete(c.dialogs, userID)
		finished = d
	}
	c.mu.Unlock()

	if finished != nil {
		c.finish(ctx, userID, finished)
	} else if reply != "" {
		c.send(userID, reply)
	}
	return true
}

// advanceUpdateChoice вызывается под c.mu и возвращает текст ответа.
func (c *Conversation) advanceUpdateChoice(userID int64, d *dialog, text string) string {
	switch strings.ToLower(text) {
	case "да":
		d.step = stepFullName
		return "Пожалуйста, введите ваше полное имя:"
	case "нет":
		delete(c.dialogs, userID)
		return "Хорошо, профиль останется без изменений."
	default:
		return "Пожалуйста, ответьте «да» или «нет»."
	}
}

// HandleUpdateCallback обрабатывает кнопки «да»/«нет» на вопрос об
// обновлении профиля. Эквивалент текстового ответа на том же шаге.
func (c *Conversation) HandleUpdateCallback(userID int64, yes bool) {
	answer := "нет"
	if yes {
		answer = "да"
	}

	c.mu.Lock()
	d, ok := c.dialogs[userID]
	if ok && d.step != stepUpdateChoice {
		ok = false
	}
	var reply string
	if ok {
		d.updatedAt = time.Now()
		reply = c.advanceUpdateChoice(userID, d, answer)
	}
	c.mu.Unlock()

	if ok {
		c.send(userID, reply)
	}
}

// finish получает диалог, уже убранный из карты под мьютексом.
func (c *Conversation) finish(ctx context.Context, userID int64, d *dialog) {
	if err := c.service.Save(ctx, d.draft); err != nil {
		log.WithError(err).Error("Ошибка сохранения профиля")
		c.send(userID, "Произошла ошибка при сохранении профиля. Пожалуйста, попробуйте позже.")
		return
	}
	log.WithField("user_id", userID).Info("Профиль сохранён")

	c.send(userID, "Спасибо! Ваш профиль успешно сохранен.\nВы можете обновить информацию в любой момент, используя команду /profile")
	c.notifyPending(ctx, d)
}

// notifyPending напоминает администраторам о висящей заявке пользователя,
// которую блокировало отсутствие анкеты.
func (c *Conversation) notifyPending(ctx context.Context, d *dialog) {
	pending, err := c.pending.FindByUser(ctx, d.draft.UserID)
	if err != nil {
		log.WithError(err).Error("Ошибка поиска заявки пользователя")
		return
	}
	if pending == nil {
		return
	}

	text := fmt.Sprintf("Пользователь @%s заполнил профиль:\n\n", d.draft.Username)
	text += fmt.Sprintf("👤 Имя: %s\n", d.draft.FullName)
	text += fmt.Sprintf("🎂 Дата рождения: %s\n", d.draft.BirthDate)
	text += fmt.Sprintf("💼 Род деятельности: %s\n", d.draft.Occupation)
	text += fmt.Sprintf("📸 Instagram: %s\n", d.draft.Instagram)
	text += fmt.Sprintf("🎯 Сфера бизнеса, область работы, тип услуг которые предоставляет: %s\n\n", d.draft.Skills)
	text += fmt.Sprintf("Теперь можно подтвердить оплату бани на %s.", pending.DateStr)

	confirmLabel := "Оплатил онлайн"
	if pending.Method == payment.MethodCash {
		confirmLabel = "да, наличные"
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(confirmLabel,
				fmt.Sprintf("admin_confirm_%d_%s_%s", pending.UserID, pending.DateStr, pending.Method)),
			tgbotapi.NewInlineKeyboardButtonData("Отклонить",
				fmt.Sprintf("admin_decline_%d_%s_%s", pending.UserID, pending.DateStr, pending.Method)),
		),
	)

	for _, adminID := range c.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ReplyMarkup = markup
		if _, err := c.bot.Send(msg); err != nil {
			log.WithError(err).WithField("admin_id", adminID).Error("Ошибка уведомления администратора")
		}
	}
}

func (c *Conversation) setDialog(userID int64, d *dialog) {
	c.mu.Lock()
	c.dialogs[userID] = d
	c.mu.Unlock()
}

func (c *Conversation) send(chatID int64, text string) {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
