package betting

import (
	"testing"

	"github.com/shopspring/decimal"
)

// Выплата считается по зафиксированному коэффициенту и округляется до копеек.
func TestWinAmount(t *testing.T) {
	cases := []struct {
		amount string
		odds   string
		want   string
	}{
		{"200", "1.85", "370"},
		{"100", "2.10", "210"},
		{"33.33", "1.85", "61.66"}, // 61.6605 округляется вниз
		{"50", "1.00", "50"},
	}

	for _, c := range cases {
		b := Bet{
			Amount: decimal.RequireFromString(c.amount),
			Odds:   decimal.RequireFromString(c.odds),
		}
		if got := b.WinAmount(); !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("WinAmount(%s × %s) = %s, ожидалось %s", c.amount, c.odds, got, c.want)
		}
	}
}
