// Package common содержит общие утилиты, используемые во всём проекте.
// money.go — работа с денежными суммами: все суммы хранятся как decimal
// с двумя знаками после запятой (рубли и копейки).
package common

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney приводит сумму к денежной точности (2 знака).
// Применяется к любому вычисленному значению (выигрыш = ставка × коэффициент)
// перед записью в БД, чтобы баланс никогда не накапливал хвосты.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidAmount проверяет, что сумма положительная и не точнее копейки.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Exponent() >= -2
}

// PluralizeRubles возвращает правильную форму слова «рубль» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "рубль" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "рубля" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "рублей" (0, 5-20, 25-30, 100, ...)
func PluralizeRubles(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "рубль"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "рубля"
	}
	return "рублей"
}

// FormatAmount форматирует сумму для показа пользователю.
// Пример: FormatAmount(decimal.NewFromInt(370)) → "370.00 ₽"
func FormatAmount(d decimal.Decimal) string {
	return fmt.Sprintf("%s ₽", d.StringFixed(2))
}

// FormatRubles — сумма для текстов уведомлений: целые суммы показываются
// без копеек и со склонением («370 рублей»), дробные — через FormatAmount.
func FormatRubles(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		n := d.IntPart()
		return fmt.Sprintf("%d %s", n, PluralizeRubles(n))
	}
	return FormatAmount(d)
}
