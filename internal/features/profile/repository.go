// Package profile — repository.go работает с таблицей user_profiles.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — анкеты участников в PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт репозиторий анкет.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save сохраняет или обновляет анкету. Счётчики посещений при обновлении
// не трогаются.
func (r *Repository) Save(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, username, full_name, birth_date, occupation, instagram, skills, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    full_name = EXCLUDED.full_name,
		    birth_date = EXCLUDED.birth_date,
		    occupation = EXCLUDED.occupation,
		    instagram = EXCLUDED.instagram,
		    skills = EXCLUDED.skills,
		    last_updated = NOW()`,
		p.UserID, p.Username, p.FullName, p.BirthDate, p.Occupation, p.Instagram, p.Skills)
	if err != nil {
		return fmt.Errorf("ошибка сохранения профиля: %w", err)
	}
	return nil
}

// Get возвращает анкету пользователя либо nil, если её нет.
func (r *Repository) Get(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, username, full_name, birth_date, occupation, instagram, skills,
		       total_visits, COALESCE(first_visit_date, ''), COALESCE(last_visit_date, ''), last_updated
		FROM user_profiles
		WHERE user_id = $1`,
		userID).
		Scan(&p.UserID, &p.Username, &p.FullName, &p.BirthDate, &p.Occupation, &p.Instagram,
			&p.Skills, &p.TotalVisits, &p.FirstVisitDate, &p.LastVisitDate, &p.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return &p, nil
}

// All возвращает все анкеты для экспорта.
func (r *Repository) All(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, full_name, birth_date, occupation, instagram, skills,
		       total_visits, COALESCE(first_visit_date, ''), COALESCE(last_visit_date, ''), last_updated
		FROM user_profiles
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Username, &p.FullName, &p.BirthDate, &p.Occupation,
			&p.Instagram, &p.Skills, &p.TotalVisits, &p.FirstVisitDate, &p.LastVisitDate, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("ошибка чтения профиля: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateVisitStatistics инкрементирует счётчик посещений.
// Для пользователей без анкеты ничего не меняет.
func (r *Repository) UpdateVisitStatistics(ctx context.Context, userID int64, visitDate string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET total_visits = total_visits + 1,
		    first_visit_date = COALESCE(NULLIF(first_visit_date, ''), $2),
		    last_visit_date = $2,
		    last_updated = NOW()
		WHERE user_id = $1`,
		userID, visitDate)
	if err != nil {
		return fmt.Errorf("ошибка обновления статистики посещений: %w", err)
	}
	return nil
}
