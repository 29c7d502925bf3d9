// Package bot — callbacks.go разбирает callback data инлайн-кнопок.
package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackIntent — распознанное намерение нажатой инлайн-кнопки.
// Закрытое объединение: каждая структура соответствует одному формату
// callback data.
type CallbackIntent interface {
	callbackIntent()
}

// JoinBath — кнопка "Записаться" в закреплённом анонсе.
type JoinBath struct{ DateStr string }

// ConfirmBath — подтверждение записи в личном чате.
type ConfirmBath struct{ DateStr string }

// PaidBath — заявка "Я оплатил(а) онлайн".
type PaidBath struct{ DateStr string }

// CashBath — заявка "Буду платить наличными".
type CashBath struct{ DateStr string }

// AdminConfirm — подтверждение оплаты администратором.
type AdminConfirm struct {
	UserID  int64
	DateStr string
	Method  string
}

// AdminDecline — отклонение оплаты администратором.
type AdminDecline struct {
	UserID  int64
	DateStr string
	Method  string
}

// MessageUser — кнопка "Написать пользователю" после отклонения.
type MessageUser struct {
	UserID  int64
	DateStr string
}

// StartProfile — кнопка "Заполнить профиль".
type StartProfile struct{}

// UpdateProfile — ответ "да"/"нет" на вопрос об обновлении профиля.
type UpdateProfile struct{ Yes bool }

func (JoinBath) callbackIntent() {}
func (ConfirmBath) callbackIntent() {}
func (PaidBath) callbackIntent() {}
func (CashBath) callbackIntent() {}
func (AdminConfirm) callbackIntent() {}
func (AdminDecline) callbackIntent() {}
func (MessageUser) callbackIntent() {}
func (StartProfile) callbackIntent() {}
func (UpdateProfile) callbackIntent() {}

// ParseCallback разбирает callback data в типизированное намерение.
func ParseCallback(data string) (CallbackIntent, error) {
	switch {
	case data == "start_profile":
		return StartProfile{}, nil
	case data == "update_profile_yes":
		return UpdateProfile{Yes: true}, nil
	case data == "update_profile_no":
		return UpdateProfile{Yes: false}, nil
	case strings.HasPrefix(data, "join_bath_"):
		return JoinBath{DateStr: strings.TrimPrefix(data, "join_bath_")}, nil
	case strings.HasPrefix(data, "confirm_bath_"):
		return ConfirmBath{DateStr: strings.TrimPrefix(data, "confirm_bath_")}, nil
	case strings.HasPrefix(data, "paid_bath_"):
		return PaidBath{DateStr: strings.TrimPrefix(data, "paid_bath_")}, nil
	case strings.HasPrefix(data, "cash_bath_"):
		return CashBath{DateStr: strings.TrimPrefix(data, "cash_bath_")}, nil
	case strings.HasPrefix(data, "admin_confirm_"):
		userID, dateStr, method, err := parseAdjudication(strings.TrimPrefix(data, "admin_confirm_"))
		if err != nil {
			return nil, fmt.Errorf("некорректный формат admin_confirm: %w", err)
		}
		return AdminConfirm{UserID: userID, DateStr: dateStr, Method: method}, nil
	case strings.HasPrefix(data, "admin_decline_"):
		userID, dateStr, method, err := parseAdjudication(strings.TrimPrefix(data, "admin_decline_"))
		if err != nil {
			return nil, fmt.Errorf("некорректный формат admin_decline: %w", err)
		}
		return AdminDecline{UserID: userID, DateStr: dateStr, Method: method}, nil
	case strings.HasPrefix(data, "message_user_"):
		parts := strings.SplitN(strings.TrimPrefix(data, "message_user_"), "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("некорректный формат message_user: %q", data)
		}
		userID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный user_id в message_user: %w", err)
		}
		return MessageUser{UserID: userID, DateStr: parts[1]}, nil
	}
	return nil, fmt.Errorf("неизвестный callback: %q", data)
}

// parseAdjudication разбирает хвост "<user_id>_<дата>_<способ оплаты>".
// Способ оплаты может отсутствовать: старые кнопки его не несли, тогда
// метод остаётся пустым и заявка ищется по любому способу.
// Дата содержит точки, но не подчёркивания, поэтому деление по "_" безопасно.
func parseAdjudication(tail string) (int64, string, string, error) {
	parts := strings.Split(tail, "_")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, "", "", fmt.Errorf("ожидается 2 или 3 части, получено %d", len(parts))
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("некорректный user_id: %w", err)
	}
	method := ""
	if len(parts) == 3 {
		method = parts[2]
	}
	return userID, parts[1], method, nil
}
