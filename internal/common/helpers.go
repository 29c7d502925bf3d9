// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с датами бани, русская плюрализация, форматирование.
package common

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// DateLayout — формат дат бани во всех таблицах и callback-данных.
// Пример: "15.06.2025".
const DateLayout = "02.01.2006"

var dateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// BathLocation возвращает часовой пояс бани (Europe/Warsaw).
// Если зона недоступна — фиксированный UTC+1.
func BathLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.FixedZone("CET", 1*60*60)
	}
	return loc
}

// NextSunday возвращает дату ближайшего воскресенья в формате DateLayout.
// Если сегодня воскресенье — берётся следующее.
func NextSunday(now time.Time) string {
	now = now.In(BathLocation())
	days := (7 - int(now.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days).Format(DateLayout)
}

// ValidateDate проверяет, что строка — дата в формате ДД.ММ.ГГГГ.
func ValidateDate(s string) error {
	if !dateRe.MatchString(s) {
		return ErrBadDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrBadDate
	}
	return nil
}

// PluralizePeople возвращает правильную форму слова «человек» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "человек" (1, 21, ...)
//   - n%10 в [2,4] И n%100 НЕ в [12,14] → "человека"
//   - Остальные случаи → "человек"
func PluralizePeople(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwo := absN % 100

	if lastDigit >= 2 && lastDigit <= 4 && (lastTwo < 12 || lastTwo > 14) {
		return "человека"
	}
	return "человек"
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwo := absN % 100

	if lastDigit == 1 && lastTwo != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwo < 12 || lastTwo > 14) {
		return "дня"
	}
	return "дней"
}

// DisplayName собирает отображаемое имя пользователя Telegram:
// @username, если он есть, иначе имя с фамилией.
func DisplayName(username, firstName, lastName string) string {
	if username != "" {
		return username
	}
	if lastName != "" {
		return fmt.Sprintf("%s %s", firstName, lastName)
	}
	return firstName
}

// EscapeMarkdown экранирует спецсимволы MarkdownV2 в тексте.
// Используется при упоминаниях пользователей.
func EscapeMarkdown(text string) string {
	const escapeChars = "_*[]()~`>#+-=|{}.!"
	out := make([]rune, 0, len(text))
	for _, c := range text {
		for _, e := range escapeChars {
			if c == e {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, c)
	}
	return string(out)
}
