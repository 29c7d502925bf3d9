package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesCSV(t *testing.T) {
	profiles := []Profile{
		{
			UserID:         1,
			Username:       "ivan",
			FullName:       "Иван Иванов",
			BirthDate:      "15.03",
			Occupation:     "предприниматель",
			Instagram:      "@ivan",
			Skills:         "строительство",
			TotalVisits:    3,
			FirstVisitDate: "01.06.2025",
			LastVisitDate:  "15.06.2025",
		},
		{UserID: 2, Username: "petr", FullName: "Пётр, Петров"},
	}

	data, err := profilesCSV(profiles)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "user_id,username,full_name,birth_date,occupation,instagram,skills,total_visits,first_visit_date,last_visit_date", lines[0])
	assert.Contains(t, lines[1], "1,ivan,Иван Иванов,15.03")
	// значение с запятой экранируется
	assert.Contains(t, lines[2], `"Пётр, Петров"`)
}

func TestFormatCard(t *testing.T) {
	p := &Profile{
		FullName:       "Иван Иванов",
		BirthDate:      "15.03",
		Occupation:     "предприниматель",
		Instagram:      "@ivan",
		Skills:         "строительство",
		TotalVisits:    2,
		FirstVisitDate: "01.06.2025",
	}
	card := FormatCard(p)

	assert.Contains(t, card, "👤 Имя: Иван Иванов")
	assert.Contains(t, card, "🏆 Всего посещений: 2")
	assert.Contains(t, card, "📅 Первое посещение: 01.06.2025")
	assert.NotContains(t, card, "Последнее посещение")
}

func TestFormatSummary_SkipsEmptyFields(t *testing.T) {
	p := &Profile{FullName: "Иван Иванов", Occupation: "предприниматель"}
	summary := FormatSummary(p)

	assert.Contains(t, summary, "👤 Иван Иванов")
	assert.Contains(t, summary, "💼 предприниматель")
	assert.NotContains(t, summary, "🎂")
	assert.NotContains(t, summary, "📸")
}
