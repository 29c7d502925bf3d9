// Package members учитывает активных пользователей бота.
package members

import "time"

// Member — пользователь, взаимодействовавший с ботом.
type Member struct {
	UserID     int64
	Username   string
	LastActive time.Time
}
