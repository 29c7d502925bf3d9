package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data string
		want CallbackIntent
	}{
		{"join_bath_15.06.2025", JoinBath{DateStr: "15.06.2025"}},
		{"confirm_bath_15.06.2025", ConfirmBath{DateStr: "15.06.2025"}},
		{"paid_bath_15.06.2025", PaidBath{DateStr: "15.06.2025"}},
		{"cash_bath_15.06.2025", CashBath{DateStr: "15.06.2025"}},
		{"admin_confirm_123_15.06.2025_online", AdminConfirm{UserID: 123, DateStr: "15.06.2025", Method: "online"}},
		{"admin_decline_123_15.06.2025_cash", AdminDecline{UserID: 123, DateStr: "15.06.2025", Method: "cash"}},
		// кнопки без способа оплаты: метод остаётся пустым
		{"admin_confirm_123_15.06.2025", AdminConfirm{UserID: 123, DateStr: "15.06.2025"}},
		{"admin_decline_123_15.06.2025", AdminDecline{UserID: 123, DateStr: "15.06.2025"}},
		{"message_user_123_15.06.2025", MessageUser{UserID: 123, DateStr: "15.06.2025"}},
		{"start_profile", StartProfile{}},
		{"update_profile_yes", UpdateProfile{Yes: true}},
		{"update_profile_no", UpdateProfile{Yes: false}},
	}
	for _, tc := range cases {
		got, err := ParseCallback(tc.data)
		require.NoError(t, err, tc.data)
		assert.Equal(t, tc.want, got, tc.data)
	}
}

func TestParseCallback_Invalid(t *testing.T) {
	for _, data := range []string{
		"",
		"unknown",
		"admin_confirm_abc_15.06.2025_online",
		"admin_confirm_123",
		"message_user_123",
	} {
		_, err := ParseCallback(data)
		assert.Error(t, err, data)
	}
}
