package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSunday(t *testing.T) {
	loc := BathLocation()

	// Среда 11.06.2025 → воскресенье 15.06.2025
	wed := time.Date(2025, 6, 11, 12, 0, 0, 0, loc)
	assert.Equal(t, "15.06.2025", NextSunday(wed))

	// Воскресенье 15.06.2025 → берём следующее, 22.06.2025
	sun := time.Date(2025, 6, 15, 9, 0, 0, 0, loc)
	assert.Equal(t, "22.06.2025", NextSunday(sun))

	// Суббота → завтрашнее воскресенье
	sat := time.Date(2025, 6, 14, 23, 0, 0, 0, loc)
	assert.Equal(t, "15.06.2025", NextSunday(sat))
}

func TestValidateDate(t *testing.T) {
	require.NoError(t, ValidateDate("15.06.2025"))
	assert.ErrorIs(t, ValidateDate("15.6.2025"), ErrBadDate)
	assert.ErrorIs(t, ValidateDate("2025-06-15"), ErrBadDate)
	assert.ErrorIs(t, ValidateDate("32.01.2025"), ErrBadDate)
	assert.ErrorIs(t, ValidateDate(""), ErrBadDate)
}

func TestPluralizePeople(t *testing.T) {
	assert.Equal(t, "человек", PluralizePeople(1))
	assert.Equal(t, "человека", PluralizePeople(2))
	assert.Equal(t, "человека", PluralizePeople(4))
	assert.Equal(t, "человек", PluralizePeople(6))
	assert.Equal(t, "человек", PluralizePeople(11))
	assert.Equal(t, "человека", PluralizePeople(22))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "vasya", DisplayName("vasya", "Вася", "Пупкин"))
	assert.Equal(t, "Вася Пупкин", DisplayName("", "Вася", "Пупкин"))
	assert.Equal(t, "Вася", DisplayName("", "Вася", ""))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `ivan\.petrov\_77`, EscapeMarkdown("ivan.petrov_77"))
	assert.Equal(t, "ivan", EscapeMarkdown("ivan"))
}
