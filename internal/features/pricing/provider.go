// Package pricing — provider.go вычисляет коэффициенты выплат.
//
// Два режима (выбирается конфигурацией, не хардкодом):
//   - fixed:  коэффициент берётся из карточки гонщика как есть;
//   - margin: коэффициент выводится из вероятностей с маржой букмекера:
//     price_i = (p1 + ... + pn) / p_i * (1 + margin).
//
// В обоих режимах коэффициент не бывает меньше 1.00. Цена фиксируется
// в ставке при размещении; расчёт всегда использует сохранённую цену.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/config"
)

var minPrice = decimal.RequireFromString("1.00")

// Provider выдаёт снимки цен для размещения ставок.
type Provider struct {
	repo   *Repository
	cache  *Cache
	mode   string
	margin decimal.Decimal
}

// NewProvider создаёт провайдер цен.
func NewProvider(repo *Repository, cache *Cache, cfg *config.Config) *Provider {
	return &Provider{
		repo:   repo,
		cache:  cache,
		mode:   cfg.PricingMode,
		margin: decimal.NewFromFloat(cfg.PricingMargin),
	}
}

// CurrentSheet возвращает актуальный снимок цен: сначала кэш,
// при промахе — активные гонщики из БД с пересчётом по режиму.
func (p *Provider) CurrentSheet(ctx context.Context) (*PriceSheet, error) {
	if sheet, ok := p.cache.GetSheet(ctx); ok {
		return sheet, nil
	}

	racers, err := p.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	sheet := ComputeSheet(racers, p.mode, p.margin)
	p.cache.SetSheet(ctx, sheet)
	return sheet, nil
}

// CurrentPrice возвращает коэффициент для одного исхода.
func (p *Provider) CurrentPrice(ctx context.Context, racerID int64) (decimal.Decimal, error) {
	sheet, err := p.CurrentSheet(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := sheet.Price(racerID)
	if !ok {
		return decimal.Zero, common.ErrInvalidOutcome
	}
	return price, nil
}

// ValidOutcome проверяет, что гонщик существует. В отличие от снимка цен
// учитывает и деактивированных: расчёт гонки должен работать, даже если
// победителя уже сняли с приёма ставок.
func (p *Provider) ValidOutcome(ctx context.Context, racerID int64) error {
	_, err := p.repo.GetByID(ctx, racerID)
	return err
}

// Invalidate сбрасывает кэш цен (после изменения гонщиков админом).
func (p *Provider) Invalidate(ctx context.Context) {
	p.cache.Invalidate(ctx)
}

// ComputeSheet строит снимок цен из списка активных гонщиков.
// Вынесено в чистую функцию, чтобы логику можно было проверить без БД.
func ComputeSheet(racers []*Racer, mode string, margin decimal.Decimal) *PriceSheet {
	sheet := &PriceSheet{
		Version: time.Now().UTC(),
		Prices:  make(map[int64]decimal.Decimal, len(racers)),
	}

	if mode == config.PricingModeMargin {
		// Суммарная "вероятностная масса" всех активных исходов
		total := decimal.Zero
		for _, rc := range racers {
			if rc.Probability != nil && rc.Probability.IsPositive() {
				total = total.Add(*rc.Probability)
			}
		}

		for _, rc := range racers {
			if rc.Probability == nil || !rc.Probability.IsPositive() || !total.IsPositive() {
				// Нет вероятности — откатываемся на фиксированный коэффициент
				sheet.Prices[rc.ID] = clampPrice(rc.Odds)
				continue
			}
			price := total.Div(*rc.Probability).Mul(decimal.NewFromInt(1).Add(margin)).Round(2)
			sheet.Prices[rc.ID] = clampPrice(price)
		}
		return sheet
	}

	for _, rc := range racers {
		sheet.Prices[rc.ID] = clampPrice(rc.Odds)
	}
	return sheet
}

func clampPrice(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(minPrice) {
		return minPrice
	}
	return p
}
