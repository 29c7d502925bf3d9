package subscription

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	subs map[int64]Subscriber
}

func newMemStore() *memStore {
	return &memStore{subs: map[int64]Subscriber{}}
}

func (m *memStore) Add(ctx context.Context, userID int64, username string, days int) error {
	m.subs[userID] = Subscriber{
		UserID:    userID,
		Username:  username,
		PaidUntil: time.Now().AddDate(0, 0, days),
	}
	return nil
}

func (m *memStore) Remove(ctx context.Context, userID int64) (bool, error) {
	if _, ok := m.subs[userID]; !ok {
		return false, nil
	}
	delete(m.subs, userID)
	return true, nil
}

func (m *memStore) Expired(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	for _, s := range m.subs {
		if s.PaidUntil.Before(time.Now()) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAPI struct {
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestKickExpired_BansAndUnbans(t *testing.T) {
	store := newMemStore()
	store.subs[10] = Subscriber{UserID: 10, Username: "ivan", PaidUntil: time.Now().Add(-time.Hour)}
	store.subs[11] = Subscriber{UserID: 11, Username: "petr", PaidUntil: time.Now().Add(time.Hour)}
	api := &fakeAPI{}
	svc := NewService(store, api, -100)

	svc.KickExpired(context.Background())

	require.Len(t, api.requests, 2)
	ban, ok := api.requests[0].(tgbotapi.BanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(10), ban.UserID)
	assert.Equal(t, int64(-100), ban.ChatID)

	unban, ok := api.requests[1].(tgbotapi.UnbanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(10), unban.UserID)
	assert.True(t, unban.OnlyIfBanned)

	_, stillExpired := store.subs[10]
	assert.False(t, stillExpired)
	_, kept := store.subs[11]
	assert.True(t, kept)
}

func TestKickExpired_NothingExpired(t *testing.T) {
	store := newMemStore()
	store.subs[11] = Subscriber{UserID: 11, PaidUntil: time.Now().Add(time.Hour)}
	api := &fakeAPI{}
	svc := NewService(store, api, -100)

	svc.KickExpired(context.Background())

	assert.Empty(t, api.requests)
	assert.Len(t, store.subs, 1)
}
