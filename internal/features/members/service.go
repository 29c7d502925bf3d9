// Package members — service.go собирает упоминания активных пользователей.
package members

import (
	"context"
	"fmt"
	"strings"

	"parilka.club/bath-bot/internal/common"
)

// maxMentionLen ограничивает длину блока упоминаний в одном сообщении.
const maxMentionLen = 4000

// Store абстрагирует хранилище активных пользователей.
type Store interface {
	Touch(ctx context.Context, userID int64, username string) error
	All(ctx context.Context) ([]Member, error)
}

// Service отвечает за учёт активности и массовые упоминания.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Touch отмечает активность пользователя.
func (s *Service) Touch(ctx context.Context, userID int64, username string) error {
	return s.store.Touch(ctx, userID, username)
}

// MentionText строит текст упоминания всех активных пользователей в MarkdownV2.
// Пустая строка означает, что упоминать некого.
func (s *Service) MentionText(ctx context.Context) (string, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}

	// Обрезка только по границе упоминания: разрыв внутри экранирования
	// или ссылки делает MarkdownV2 невалидным.
	var b strings.Builder
	truncated := false
	for _, u := range users {
		mention := fmt.Sprintf("[user](tg://user?id=%d)", u.UserID)
		if u.Username != "" {
			mention = "@" + common.EscapeMarkdown(u.Username)
		}
		if b.Len() > 0 {
			mention = " " + mention
		}
		if b.Len()+len(mention) > maxMentionLen {
			truncated = true
			break
		}
		b.WriteString(mention)
	}
	if truncated {
		b.WriteString(" ...")
	}
	return b.String(), nil
}
