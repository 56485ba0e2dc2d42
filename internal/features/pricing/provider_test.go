package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeSheetFixed(t *testing.T) {
	racers := []*Racer{
		{ID: 1, Name: "Гонщик 1", Odds: dec("1.85")},
		{ID: 2, Name: "Гонщик 2", Odds: dec("2.10")},
	}

	sheet := ComputeSheet(racers, config.PricingModeFixed, decimal.Zero)

	if p, ok := sheet.Price(1); !ok || !p.Equal(dec("1.85")) {
		t.Errorf("цена гонщика 1 = %s, ожидалось 1.85", p)
	}
	if p, ok := sheet.Price(2); !ok || !p.Equal(dec("2.10")) {
		t.Errorf("цена гонщика 2 = %s, ожидалось 2.10", p)
	}
	if _, ok := sheet.Price(99); ok {
		t.Error("несуществующий гонщик не должен иметь цены")
	}
}

func TestComputeSheetMargin(t *testing.T) {
	// Две равные вероятности: честная цена 2.00, с маржой 5% → 2.10
	racers := []*Racer{
		{ID: 1, Odds: dec("1.50"), Probability: decPtr("0.5")},
		{ID: 2, Odds: dec("3.00"), Probability: decPtr("0.5")},
	}

	sheet := ComputeSheet(racers, config.PricingModeMargin, dec("0.05"))

	for _, id := range []int64{1, 2} {
		if p, _ := sheet.Price(id); !p.Equal(dec("2.10")) {
			t.Errorf("цена гонщика %d = %s, ожидалось 2.10", id, p)
		}
	}
}

func TestComputeSheetMarginAsymmetric(t *testing.T) {
	// total = 0.96; price_1 = 0.96/0.52*1.00 ≈ 1.85, price_2 = 0.96/0.44 ≈ 2.18
	racers := []*Racer{
		{ID: 1, Odds: dec("1.85"), Probability: decPtr("0.52")},
		{ID: 2, Odds: dec("2.10"), Probability: decPtr("0.44")},
	}

	sheet := ComputeSheet(racers, config.PricingModeMargin, decimal.Zero)

	if p, _ := sheet.Price(1); !p.Equal(dec("1.85")) {
		t.Errorf("цена гонщика 1 = %s, ожидалось 1.85", p)
	}
	if p, _ := sheet.Price(2); !p.Equal(dec("2.18")) {
		t.Errorf("цена гонщика 2 = %s, ожидалось 2.18", p)
	}
}

func TestComputeSheetMarginFallbackToFixed(t *testing.T) {
	// Без вероятности гонщик получает фиксированный коэффициент из карточки
	racers := []*Racer{
		{ID: 1, Odds: dec("1.85"), Probability: decPtr("0.52")},
		{ID: 2, Odds: dec("2.10"), Probability: nil},
	}

	sheet := ComputeSheet(racers, config.PricingModeMargin, dec("0.05"))

	if p, _ := sheet.Price(2); !p.Equal(dec("2.10")) {
		t.Errorf("цена гонщика без вероятности = %s, ожидалось 2.10", p)
	}
}

func TestComputeSheetClampsBelowOne(t *testing.T) {
	// Вероятность больше суммарной массы дать не может, но кривые данные
	// в карточке (odds < 1) не должны просочиться в цены
	racers := []*Racer{
		{ID: 1, Odds: dec("0.50")},
	}

	sheet := ComputeSheet(racers, config.PricingModeFixed, decimal.Zero)

	if p, _ := sheet.Price(1); !p.Equal(dec("1.00")) {
		t.Errorf("цена = %s, ожидалось клампирование к 1.00", p)
	}
}

func TestComputeSheetEmpty(t *testing.T) {
	sheet := ComputeSheet(nil, config.PricingModeFixed, decimal.Zero)
	if len(sheet.Prices) != 0 {
		t.Errorf("пустой список гонщиков должен давать пустой снимок, получили %d цен", len(sheet.Prices))
	}
	if sheet.Version.IsZero() {
		t.Error("у снимка должна быть версия")
	}
}
