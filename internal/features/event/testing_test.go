package event

import (
	"context"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"parilka.club/bath-bot/internal/common"
)

// memStore — in-memory реализация Store для тестов.
type memStore struct {
	participants map[string][]Participant
	history      []HistoryRecord
	pinned       map[int64]*PinnedMessage
	nextID       int64
}

func newMemStore() *memStore {
	return &memStore{
		participants: make(map[string][]Participant),
		pinned:       make(map[int64]*PinnedMessage),
	}
}

func (m *memStore) CreateEvent(ctx context.Context, dateStr string) error { return nil }

func (m *memStore) ClearPreviousEvents(ctx context.Context, exceptDate string) (int, error) {
	moved := 0
	for date, list := range m.participants {
		if date == exceptDate {
			continue
		}
		for _, p := range list {
			m.history = append(m.history, HistoryRecord{
				DateStr:  p.DateStr,
				UserID:   p.UserID,
				Username: p.Username,
				Paid:     p.Paid,
			})
			moved++
		}
		delete(m.participants, date)
	}
	return moved, nil
}

func (m *memStore) Participants(ctx context.Context, dateStr string) ([]Participant, error) {
	out := make([]Participant, len(m.participants[dateStr]))
	copy(out, m.participants[dateStr])
	return out, nil
}

func (m *memStore) AddParticipant(ctx context.Context, dateStr string, userID int64, username string, paid bool) error {
	for _, p := range m.participants[dateStr] {
		if p.UserID == userID {
			return common.ErrAlreadyRegistered
		}
	}
	m.nextID++
	m.participants[dateStr] = append(m.participants[dateStr], Participant{
		ID:       m.nextID,
		DateStr:  dateStr,
		UserID:   userID,
		Username: username,
		Paid:     paid,
	})
	return nil
}

func (m *memStore) MarkPaid(ctx context.Context, dateStr string, userID int64) (bool, error) {
	for i, p := range m.participants[dateStr] {
		if p.UserID == userID {
			m.participants[dateStr][i].Paid = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SetCash(ctx context.Context, dateStr string, userID int64) error {
	for i, p := range m.participants[dateStr] {
		if p.UserID == userID {
			m.participants[dateStr][i].Cash = true
		}
	}
	return nil
}

func (m *memStore) UserHistory(ctx context.Context, userID int64) ([]HistoryRecord, error) {
	var out []HistoryRecord
	for _, h := range m.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := time.Parse(common.DateLayout, out[i].DateStr)
		b, _ := time.Parse(common.DateLayout, out[j].DateStr)
		return a.After(b)
	})
	return out, nil
}

func (m *memStore) MarkVisit(ctx context.Context, dateStr string, userID int64) (bool, error) {
	for i, h := range m.history {
		if h.UserID == userID && h.DateStr == dateStr {
			m.history[i].Visited = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) VisitsCount(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, h := range m.history {
		if h.UserID == userID && h.Visited {
			count++
		}
	}
	return count, nil
}

func (m *memStore) Statistics(ctx context.Context, fromDate, toDate string) ([]DayStat, error) {
	from, _ := time.Parse(common.DateLayout, fromDate)
	to, _ := time.Parse(common.DateLayout, toDate)
	byDate := make(map[string]*DayStat)
	for _, h := range m.history {
		d, err := time.Parse(common.DateLayout, h.DateStr)
		if err != nil || d.Before(from) || d.After(to) {
			continue
		}
		stat, ok := byDate[h.DateStr]
		if !ok {
			stat = &DayStat{DateStr: h.DateStr}
			byDate[h.DateStr] = stat
		}
		stat.Total++
		if h.Paid {
			stat.Paid++
		}
		if h.Visited {
			stat.Visited++
		}
	}
	var out []DayStat
	for _, s := range byDate {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateStr < out[j].DateStr })
	return out, nil
}

func (m *memStore) CashParticipants(ctx context.Context, dateStr string) ([]CashEntry, error) {
	var out []CashEntry
	for _, p := range m.participants[dateStr] {
		if p.Cash {
			out = append(out, CashEntry{UserID: p.UserID, Username: p.Username, DateStr: p.DateStr})
		}
	}
	return out, nil
}

func (m *memStore) AllCash(ctx context.Context) ([]CashEntry, error) {
	var out []CashEntry
	for _, list := range m.participants {
		for _, p := range list {
			if p.Cash {
				out = append(out, CashEntry{UserID: p.UserID, Username: p.Username, DateStr: p.DateStr})
			}
		}
	}
	return out, nil
}

func (m *memStore) SetPinned(ctx context.Context, chatID int64, dateStr string, messageID int) error {
	m.pinned[chatID] = &PinnedMessage{ChatID: chatID, DateStr: dateStr, MessageID: messageID}
	return nil
}

func (m *memStore) GetPinned(ctx context.Context, chatID int64) (*PinnedMessage, error) {
	return m.pinned[chatID], nil
}

func (m *memStore) DeletePinned(ctx context.Context, chatID int64) error {
	delete(m.pinned, chatID)
	return nil
}

func (m *memStore) ClearAll(ctx context.Context) error {
	m.participants = make(map[string][]Participant)
	m.history = nil
	m.pinned = make(map[int64]*PinnedMessage)
	return nil
}

// fakeAPI записывает отправленные сообщения и отдаёт настроенный чат.
type fakeAPI struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	chat      tgbotapi.Chat
	nextMsgID int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextMsgID: 100}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextMsgID++
	return tgbotapi.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return f.chat, nil
}

// sentTexts возвращает тексты всех отправленных сообщений.
func (f *fakeAPI) sentTexts() []string {
	var out []string
	for _, c := range f.sent {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		}
	}
	return out
}

func (f *fakeAPI) sentContaining(sub string) bool {
	for _, text := range f.sentTexts() {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}
