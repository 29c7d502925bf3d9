// Package profile — service.go отвечает за анкеты и их представление.
package profile

import (
	"context"
	"fmt"
	"strings"
)

// Store — операции хранилища анкет.
type Store interface {
	Save(ctx context.Context, p Profile) error
	Get(ctx context.Context, userID int64) (*Profile, error)
	All(ctx context.Context) ([]Profile, error)
	UpdateVisitStatistics(ctx context.Context, userID int64, visitDate string) error
}

// Service — анкеты участников.
type Service struct {
	store Store
}

// NewService создаёт сервис анкет.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Exists сообщает, заполнена ли анкета пользователя.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// Get возвращает анкету либо nil.
func (s *Service) Get(ctx context.Context, userID int64) (*Profile, error) {
	return s.store.Get(ctx, userID)
}

// Save сохраняет анкету.
func (s *Service) Save(ctx context.Context, p Profile) error {
	return s.store.Save(ctx, p)
}

// All возвращает все анкеты.
func (s *Service) All(ctx context.Context) ([]Profile, error) {
	return s.store.All(ctx)
}

// UpdateVisitStatistics инкрементирует счётчики посещений в анкете.
func (s *Service) UpdateVisitStatistics(ctx context.Context, userID int64, visitDate string) error {
	return s.store.UpdateVisitStatistics(ctx, userID, visitDate)
}

// FormatCard собирает карточку анкеты для показа владельцу.
func FormatCard(p *Profile) string {
	var b strings.Builder
	b.WriteString("📋 Ваш текущий профиль:\n\n")
	fmt.Fprintf(&b, "👤 Имя: %s\n", p.FullName)
	fmt.Fprintf(&b, "🎂 Дата рождения: %s\n", p.BirthDate)
	fmt.Fprintf(&b, "💼 Род деятельности: %s\n", p.Occupation)
	fmt.Fprintf(&b, "📸 Instagram: %s\n", p.Instagram)
	fmt.Fprintf(&b, "🎯 Чем может быть полезен: %s\n", p.Skills)
	fmt.Fprintf(&b, "🏆 Всего посещений: %d\n", p.TotalVisits)
	if p.FirstVisitDate != "" {
		fmt.Fprintf(&b, "📅 Первое посещение: %s\n", p.FirstVisitDate)
	}
	if p.LastVisitDate != "" {
		fmt.Fprintf(&b, "📅 Последнее посещение: %s\n", p.LastVisitDate)
	}
	return b.String()
}

// FormatSummary собирает блок анкеты для сводки участников.
func FormatSummary(p *Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", p.FullName)
	if p.BirthDate != "" {
		fmt.Fprintf(&b, "🎂 %s\n", p.BirthDate)
	}
	if p.Occupation != "" {
		fmt.Fprintf(&b, "💼 %s\n", p.Occupation)
	}
	if p.Instagram != "" {
		fmt.Fprintf(&b, "📸 %s\n", p.Instagram)
	}
	if p.Skills != "" {
		fmt.Fprintf(&b, "🎯 Чем может быть полезен: %s\n", p.Skills)
	}
	return b.String()
}
