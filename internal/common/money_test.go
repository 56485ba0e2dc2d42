package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"370.00", "370"},
		{"369.999", "370"},
		{"200.555", "200.56"},
		{"0.004", "0"},
		{"185.0000", "185"},
	}
	for _, c := range cases {
		got := RoundMoney(decimal.RequireFromString(c.in))
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("RoundMoney(%s) = %s, ожидалось %s", c.in, got, c.want)
		}
	}
}

func TestValidAmount(t *testing.T) {
	valid := []string{"50", "100.50", "0.01", "999999.99"}
	for _, s := range valid {
		if !ValidAmount(decimal.RequireFromString(s)) {
			t.Errorf("ValidAmount(%s) = false, ожидалось true", s)
		}
	}

	invalid := []string{"0", "-1", "-0.01", "10.005", "0.001"}
	for _, s := range invalid {
		if ValidAmount(decimal.RequireFromString(s)) {
			t.Errorf("ValidAmount(%s) = true, ожидалось false", s)
		}
	}
}

func TestPluralizeRubles(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "рубль"},
		{2, "рубля"},
		{5, "рублей"},
		{11, "рублей"},
		{21, "рубль"},
		{104, "рубля"},
		{111, "рублей"},
	}
	for _, c := range cases {
		if got := PluralizeRubles(c.n); got != c.want {
			t.Errorf("PluralizeRubles(%d) = %q, ожидалось %q", c.n, got, c.want)
		}
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrStakeTooSmall, CodeValidation},
		{ErrInsufficientBalance, CodeInsufficientFunds},
		{ErrBetAlreadySettled, CodeAlreadySettled},
		{ErrPaymentConflict, CodeDuplicatePayment},
		{ErrLockTimeout, CodeRetryLater},
	}
	for _, c := range cases {
		if got := ErrorCode(c.err); got != c.want {
			t.Errorf("ErrorCode(%v) = %q, ожидалось %q", c.err, got, c.want)
		}
	}
}
