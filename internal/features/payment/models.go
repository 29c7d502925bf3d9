// Package payment — models.go описывает заявки на подтверждение оплаты.
package payment

import "time"

// Способы оплаты участия.
const (
	MethodOnline = "online"
	MethodCash   = "cash"
)

// Pending — заявка участника, ожидающая решения администратора.
type Pending struct {
	UserID       int64
	Username     string
	DateStr      string
	Method       string
	CreatedAt    time.Time
	LastNotified time.Time
}
