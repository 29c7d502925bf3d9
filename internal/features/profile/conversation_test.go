package profile

import (
	"context"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parilka.club/bath-bot/internal/features/payment"
)

// memStore — in-memory реализация Store.
type memStore struct {
	profiles map[int64]*Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[int64]*Profile)}
}

func (m *memStore) Save(ctx context.Context, p Profile) error {
	if existing, ok := m.profiles[p.UserID]; ok {
		p.TotalVisits = existing.TotalVisits
		p.FirstVisitDate = existing.FirstVisitDate
		p.LastVisitDate = existing.LastVisitDate
	}
	m.profiles[p.UserID] = &p
	return nil
}

func (m *memStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (m *memStore) All(ctx context.Context) ([]Profile, error) {
	var out []Profile
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) UpdateVisitStatistics(ctx context.Context, userID int64, visitDate string) error {
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}
	p.TotalVisits++
	if p.FirstVisitDate == "" {
		p.FirstVisitDate = visitDate
	}
	p.LastVisitDate = visitDate
	return nil
}

type fakePendingFinder struct {
	pending *payment.Pending
}

func (f *fakePendingFinder) FindByUser(ctx context.Context, userID int64) (*payment.Pending, error) {
	return f.pending, nil
}

type recorder struct {
	sent []tgbotapi.MessageConfig
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{MessageID: 1}, nil
}

func (r *recorder) lastTextTo(chatID int64) string {
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].ChatID == chatID {
			return r.sent[i].Text
		}
	}
	return ""
}

func newTestConversation(finder *fakePendingFinder) (*Conversation, *memStore, *recorder) {
	store := newMemStore()
	bot := &recorder{}
	conv := NewConversation(NewService(store), finder, bot, []int64{900})
	return conv, store, bot
}

func fill(ctx context.Context, conv *Conversation, userID int64) {
	conv.HandleText(ctx, userID, "Иван Иванов")
	conv.HandleText(ctx, userID, "15.03")
	conv.HandleText(ctx, userID, "предприниматель")
	conv.HandleText(ctx, userID, "@ivan")
	conv.HandleText(ctx, userID, "строительство")
}

func TestConversation_FullFlow(t *testing.T) {
	conv, store, bot := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	conv.Start(ctx, 1, "ivan")
	assert.True(t, conv.Active(1))
	assert.Contains(t, bot.lastTextTo(1), "Как вас зовут?")

	fill(ctx, conv, 1)

	assert.False(t, conv.Active(1))
	assert.Contains(t, bot.lastTextTo(1), "Ваш профиль успешно сохранен")

	p, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Иван Иванов", p.FullName)
	assert.Equal(t, "15.03", p.BirthDate)
	assert.Equal(t, "предприниматель", p.Occupation)
	assert.Equal(t, "@ivan", p.Instagram)
	assert.Equal(t, "строительство", p.Skills)
}

func TestConversation_BirthDateValidation(t *testing.T) {
	conv, _, bot := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	conv.Start(ctx, 1, "ivan")
	conv.HandleText(ctx, 1, "Иван Иванов")
	conv.HandleText(ctx, 1, "15 марта")

	assert.Contains(t, bot.lastTextTo(1), "в формате ДД.ММ")
	assert.True(t, conv.Active(1))

	// корректная дата продолжает диалог
	conv.HandleText(ctx, 1, "15.03")
	assert.Contains(t, bot.lastTextTo(1), "Чем вы занимаетесь?")
}

func TestConversation_UpdateChoice(t *testing.T) {
	conv, store, bot := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Profile{UserID: 1, Username: "ivan", FullName: "Иван Иванов"}))

	conv.Start(ctx, 1, "ivan")
	assert.Contains(t, bot.lastTextTo(1), "Хотите обновить информацию? (да/нет)")

	conv.HandleText(ctx, 1, "нет")
	assert.False(t, conv.Active(1))
	assert.Contains(t, bot.lastTextTo(1), "останется без изменений")

	conv.Start(ctx, 1, "ivan")
	conv.HandleText(ctx, 1, "да")
	assert.Contains(t, bot.lastTextTo(1), "введите ваше полное имя")
}

func TestConversation_UpdateChoiceButtons(t *testing.T) {
	conv, store, bot := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Profile{UserID: 1, Username: "ivan", FullName: "Иван Иванов"}))

	conv.Start(ctx, 1, "ivan")
	markup, ok := bot.sent[len(bot.sent)-1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "update_profile_yes", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "update_profile_no", *markup.InlineKeyboard[0][1].CallbackData)

	conv.HandleUpdateCallback(1, false)
	assert.False(t, conv.Active(1))
	assert.Contains(t, bot.lastTextTo(1), "останется без изменений")

	conv.Start(ctx, 1, "ivan")
	conv.HandleUpdateCallback(1, true)
	assert.Contains(t, bot.lastTextTo(1), "введите ваше полное имя")
	assert.True(t, conv.Active(1))

	// вне шага выбора кнопка игнорируется
	sent := len(bot.sent)
	conv.HandleUpdateCallback(1, true)
	conv.HandleText(ctx, 1, "Иван Иванов")
	assert.Contains(t, bot.lastTextTo(1), "дату рождения")
	assert.Greater(t, len(bot.sent), sent)
}

func TestConversation_PreservesVisitCounters(t *testing.T) {
	conv, store, _ := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Profile{UserID: 1, Username: "ivan", FullName: "Иван"}))
	require.NoError(t, store.UpdateVisitStatistics(ctx, 1, "08.06.2025"))

	conv.Start(ctx, 1, "ivan")
	conv.HandleText(ctx, 1, "да")
	fill(ctx, conv, 1)

	p, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalVisits)
	assert.Equal(t, "08.06.2025", p.FirstVisitDate)
}

func TestConversation_NotifiesAdminsAboutPending(t *testing.T) {
	finder := &fakePendingFinder{pending: &payment.Pending{
		UserID:  1,
		DateStr: "15.06.2025",
		Method:  payment.MethodOnline,
	}}
	conv, _, bot := newTestConversation(finder)
	ctx := context.Background()

	conv.Start(ctx, 1, "ivan")
	fill(ctx, conv, 1)

	adminText := bot.lastTextTo(900)
	assert.Contains(t, adminText, "Пользователь @ivan заполнил профиль")
	assert.Contains(t, adminText, "Теперь можно подтвердить оплату бани на 15.06.2025.")

	var markup tgbotapi.InlineKeyboardMarkup
	for _, m := range bot.sent {
		if m.ChatID == 900 {
			markup = m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		}
	}
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "admin_confirm_1_15.06.2025_online", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestConversation_HandleTextWithoutDialog(t *testing.T) {
	conv, _, _ := newTestConversation(&fakePendingFinder{})
	assert.False(t, conv.HandleText(context.Background(), 1, "привет"))
}

// safeRecorder потокобезопасен, используется в конкурентных тестах.
type safeRecorder struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (r *safeRecorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{MessageID: 1}, nil
}

func TestConversation_ConcurrentAnswers(t *testing.T) {
	store := newMemStore()
	bot := &safeRecorder{}
	conv := NewConversation(NewService(store), &fakePendingFinder{}, bot, nil)
	ctx := context.Background()

	conv.Start(ctx, 1, "ivan")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.HandleText(ctx, 1, "Иван Иванов")
		}()
	}
	wg.Wait()

	// первый ответ переводит диалог на шаг даты рождения,
	// остальные не проходят валидацию и шаг не меняют
	assert.True(t, conv.Active(1))

	conv.HandleText(ctx, 1, "15.03")
	conv.HandleText(ctx, 1, "предприниматель")
	conv.HandleText(ctx, 1, "@ivan")
	conv.HandleText(ctx, 1, "строительство")

	p, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Иван Иванов", p.FullName)
}

func TestConversation_Cancel(t *testing.T) {
	conv, store, _ := newTestConversation(&fakePendingFinder{})
	ctx := context.Background()

	conv.Start(ctx, 1, "ivan")
	conv.HandleText(ctx, 1, "Иван Иванов")
	conv.Cancel(1)

	assert.False(t, conv.Active(1))
	p, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
}
