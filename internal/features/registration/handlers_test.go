package registration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parilka.club/bath-bot/internal/bot/filters"
	"parilka.club/bath-bot/internal/common"
	"parilka.club/bath-bot/internal/features/payment"
)

type fakeRegistry struct {
	capacity bool
	added    []string
	cash     []string
}

func (f *fakeRegistry) HasCapacity(ctx context.Context, dateStr string) (bool, error) {
	return f.capacity, nil
}

func (f *fakeRegistry) AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error {
	for _, key := range f.added {
		if key == dateStr+"/"+username {
			return common.ErrAlreadyRegistered
		}
	}
	f.added = append(f.added, dateStr+"/"+username)
	return nil
}

func (f *fakeRegistry) SetCash(ctx context.Context, dateStr string, userID int64) error {
	f.cash = append(f.cash, dateStr)
	return nil
}

type fakeInvites struct {
	won      bool
	released []string
}

func (f *fakeInvites) TryAdd(ctx context.Context, userID int64, dateStr string, ttlHours int) (bool, error) {
	return f.won, nil
}

func (f *fakeInvites) Release(ctx context.Context, userID int64, dateStr string) error {
	f.released = append(f.released, dateStr)
	return nil
}

type fakeSubmitter struct {
	submitted []string
}

func (f *fakeSubmitter) Submit(ctx context.Context, userID int64, username, dateStr, method string) error {
	f.submitted = append(f.submitted, username+"/"+dateStr+"/"+method)
	return nil
}

// recorder имитирует Telegram API; отправка в чаты из failChats падает.
type recorder struct {
	sent      []tgbotapi.Chattable
	callbacks []tgbotapi.CallbackConfig
	failChats map[int64]bool
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok && r.failChats[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("forbidden: bot was blocked by the user")
	}
	r.sent = append(r.sent, c)
	return tgbotapi.Message{MessageID: 10}, nil
}

func (r *recorder) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		r.callbacks = append(r.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recorder) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range r.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (r *recorder) editTexts() []string {
	var out []string
	for _, c := range r.sent {
		if edit, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, edit.Text)
		}
	}
	return out
}

func (r *recorder) alertTexts() []string {
	var out []string
	for _, cb := range r.callbacks {
		if cb.ShowAlert {
			out = append(out, cb.Text)
		}
	}
	return out
}

func newTestHandler(registry *fakeRegistry, invites *fakeInvites) (*Handler, *fakeSubmitter, *recorder) {
	bot := &recorder{failChats: map[int64]bool{}}
	submitter := &fakeSubmitter{}
	access := filters.NewAccess(bot, func(int64) bool { return false })
	h := NewHandler(registry, invites, NewSessions(time.Hour), submitter, bot, access, Config{
		BathTime:           "8:00 - 11:30",
		BathCost:           1000,
		CardPaymentLink:    "https://pay.example/card",
		RevolutPaymentLink: "https://revolut.me/example",
		BotUsername:        "bath_bot",
		InviteTTLHours:     2,
	})
	return h, submitter, bot
}

func joinQuery(userID int64) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: userID, UserName: "ivan", FirstName: "Иван"},
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		},
		Data: "join_bath_15.06.2025",
	}
}

func TestHandleJoin_SendsConfirmPrompt(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})

	h.HandleJoin(context.Background(), joinQuery(1), "15.06.2025")

	dm := bot.messagesTo(1)
	require.Len(t, dm, 1)
	assert.Contains(t, dm[0].Text, "Вы хотите записаться на баню в воскресенье 15.06.2025.")
	markup, ok := dm[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "confirm_bath_15.06.2025", *markup.InlineKeyboard[0][0].CallbackData)

	group := bot.messagesTo(-100)
	require.Len(t, group, 1)
	assert.Contains(t, group[0].Text, "проверьте личные сообщения от бота")
	assert.Equal(t, 42, group[0].ReplyToMessageID)
}

func TestHandleJoin_InviteAlreadySent(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: false})

	h.HandleJoin(context.Background(), joinQuery(1), "15.06.2025")

	assert.Empty(t, bot.messagesTo(1))
	alerts := bot.alertTexts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "уже отправлено приглашение")
}

func TestHandleJoin_Full(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: false}, &fakeInvites{won: true})

	h.HandleJoin(context.Background(), joinQuery(1), "15.06.2025")

	assert.Empty(t, bot.messagesTo(1))
	alerts := bot.alertTexts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "баня уже занята")
}

func TestHandleJoin_DMBlocked_FallsBackToDeepLink(t *testing.T) {
	invites := &fakeInvites{won: true}
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, invites)
	bot.failChats[1] = true

	h.HandleJoin(context.Background(), joinQuery(1), "15.06.2025")

	alerts := bot.alertTexts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Необходимо начать диалог с ботом", alerts[0])

	// блокировка снята, повторное нажатие снова отправит приглашение
	assert.Equal(t, []string{"15.06.2025"}, invites.released)

	group := bot.messagesTo(-100)
	require.Len(t, group, 1)
	assert.Contains(t, group[0].Text, "https://t.me/bath_bot?start=bath_15.06.2025")
	assert.Contains(t, group[0].Text, "/register 15.06.2025")
	assert.Equal(t, tgbotapi.ModeMarkdown, group[0].ParseMode)
}

func TestHandleConfirm_StartsPaymentStep(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}

	h.HandleConfirm(context.Background(), query, "15.06.2025")

	sess, ok := h.sessions.Get(1, "15.06.2025")
	require.True(t, ok)
	assert.Equal(t, StatusPendingPayment, sess.Status)

	edits := bot.editTexts()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0], "выполните оплату")
	assert.Contains(t, edits[0], "https://pay.example/card")

	// QR-код прикладывается отдельным сообщением
	var photos int
	for _, c := range bot.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			photos++
		}
	}
	assert.Equal(t, 1, photos)
}

func TestHandleConfirm_Full(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: false}, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}

	h.HandleConfirm(context.Background(), query, "15.06.2025")

	_, ok := h.sessions.Get(1, "15.06.2025")
	assert.False(t, ok)
	edits := bot.editTexts()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0], "баня уже занята")
}

func TestHandlePaid_SubmitsOnline(t *testing.T) {
	h, submitter, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}
	ctx := context.Background()

	h.HandleConfirm(ctx, query, "15.06.2025")
	h.HandlePaid(ctx, query, "15.06.2025")

	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, "ivan/15.06.2025/"+payment.MethodOnline, submitter.submitted[0])

	sess, ok := h.sessions.Get(1, "15.06.2025")
	require.True(t, ok)
	assert.Equal(t, StatusPaymentClaimed, sess.Status)

	edits := bot.editTexts()
	assert.Contains(t, edits[len(edits)-1], "заявка об оплате отправлена администратору")
}

func TestHandlePaid_WithoutSession(t *testing.T) {
	h, submitter, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}

	h.HandlePaid(context.Background(), query, "15.06.2025")

	assert.Empty(t, submitter.submitted)
	edits := bot.editTexts()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0], "начните процесс записи заново")
}

func TestHandleCash_AddsParticipantAndSubmits(t *testing.T) {
	registry := &fakeRegistry{capacity: true}
	h, submitter, bot := newTestHandler(registry, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}

	h.HandleCash(context.Background(), query, "15.06.2025")

	assert.Equal(t, []string{"15.06.2025/ivan"}, registry.added)
	assert.Equal(t, []string{"15.06.2025"}, registry.cash)
	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, "ivan/15.06.2025/"+payment.MethodCash, submitter.submitted[0])

	sess, ok := h.sessions.Get(1, "15.06.2025")
	require.True(t, ok)
	assert.Equal(t, StatusPendingCash, sess.Status)

	edits := bot.editTexts()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0], "заявка на оплату наличными отправлена администратору")
}

func TestHandleCash_AlreadyRegistered(t *testing.T) {
	registry := &fakeRegistry{capacity: true, added: []string{"15.06.2025/ivan"}}
	h, submitter, _ := newTestHandler(registry, &fakeInvites{won: true})
	query := joinQuery(1)
	query.Message.Chat = &tgbotapi.Chat{ID: 1, Type: "private"}

	h.HandleCash(context.Background(), query, "15.06.2025")

	// повторная запись не ломает подачу заявки
	require.Len(t, submitter.submitted, 1)
}

func TestHandleStart_DeepLink(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	msg := &tgbotapi.Message{
		Text:     "/start bath_15.06.2025",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		From:     &tgbotapi.User{ID: 1, FirstName: "Иван"},
		Chat:     &tgbotapi.Chat{ID: 1, Type: "private"},
	}

	h.HandleStart(context.Background(), msg)

	dm := bot.messagesTo(1)
	require.Len(t, dm, 1)
	assert.Contains(t, dm[0].Text, "Вы хотите записаться на баню в воскресенье 15.06.2025.")
}

func TestHandleStart_Welcome(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	msg := &tgbotapi.Message{
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		From:     &tgbotapi.User{ID: 1, FirstName: "Иван"},
		Chat:     &tgbotapi.Chat{ID: 1, Type: "private"},
	}

	h.HandleStart(context.Background(), msg)

	dm := bot.messagesTo(1)
	require.Len(t, dm, 1)
	assert.True(t, strings.HasPrefix(dm[0].Text, "Привет, Иван!"))
}

func TestHandleRegister_Usage(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	msg := &tgbotapi.Message{
		Text:     "/register",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 9}},
		From:     &tgbotapi.User{ID: 1, FirstName: "Иван"},
		Chat:     &tgbotapi.Chat{ID: 1, Type: "private"},
	}

	h.HandleRegister(context.Background(), msg)

	dm := bot.messagesTo(1)
	require.Len(t, dm, 1)
	assert.Contains(t, dm[0].Text, "/register DD.MM.YYYY")
}

func TestHandleRegister_NotPrivate(t *testing.T) {
	h, _, bot := newTestHandler(&fakeRegistry{capacity: true}, &fakeInvites{won: true})
	msg := &tgbotapi.Message{
		Text:     "/register 15.06.2025",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 9}},
		From:     &tgbotapi.User{ID: 1, FirstName: "Иван"},
		Chat:     &tgbotapi.Chat{ID: -100, Type: "supergroup"},
	}

	h.HandleRegister(context.Background(), msg)

	group := bot.messagesTo(-100)
	require.Len(t, group, 1)
	assert.Contains(t, group[0].Text, "только в личном чате")
}
