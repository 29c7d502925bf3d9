// Package subscription управляет платным членством в групповом чате.
package subscription

import "time"

// Subscriber — участник группы с оплаченным доступом.
type Subscriber struct {
	UserID    int64
	Username  string
	PaidUntil time.Time
}
