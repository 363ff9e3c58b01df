package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// параметры эвристики поиска цен ликвидации
var (
	// целевая полоса (lower, upper]: держим HF чуть ниже 1.005, чтобы
	// округление до двух знаков давало ровно 1.00. Расширение целится
	// чуть ниже верхней границы, иначе сжатие зависает на её краю.
	solverLowerBound = decimal.NewFromFloat(1.0049)
	solverUpperBound = decimal.NewFromFloat(1.005)
	// фаза расширения: +10% к цене за шаг
	expandFactor = decimal.NewFromFloat(1.1)
	// шаг сжатия не больше половины цены
	maxStepShare = decimal.NewFromFloat(0.5)
	// ниже цента цены не опускаем
	priceFloor = decimal.NewFromFloat(0.01)

	hfOne = decimal.NewFromInt(1)
)

const solverMaxIterations = 500

// LiquidationScenario ищет гипотетические цены залоговых активов, при которых
// health factor позиции становится ≈1.00. Это итеративная эвристика, а не
// аналитическое решение: несколько активов, связанных общим взвешенным
// порогом, не имеют однозначной обратной задачи. Пустой результат означает
// "сценарий не представим", а не "позиция безопасна".
func LiquidationScenario(p *models.Position, marketRefPriceUSD decimal.Decimal) []*models.Asset {
	if p == nil {
		return nil
	}
	if p.HealthFactorIsInfinite() || p.HealthFactor.Sign() < 0 {
		return nil
	}
	if len(EligibleLiquidationReserves(p)) == 0 {
		return nil
	}

	// текущий HF уже округляется в 1.00 — текущие цены и есть сценарий
	if p.HealthFactor.Round(2).Equal(hfOne) {
		out := make([]*models.Asset, 0)
		for _, r := range EligibleLiquidationReserves(p) {
			out = append(out, r.Asset.Clone())
		}
		return out
	}

	// дальше работаем на глубокой копии: цены будут гипотетические
	work := p.Clone()
	Recompute(work, marketRefPriceUSD)
	eligible := EligibleLiquidationReserves(work)
	if len(eligible) == 0 {
		return nil
	}

	iterations := 0

	// фаза расширения: поднимаем цены, пока не окажемся выше полосы —
	// сжатие вниз к цели устойчивее, чем подгонка снизу
	for work.HealthFactor.LessThan(solverLowerBound) && iterations < solverMaxIterations {
		for _, r := range eligible {
			r.Asset.PriceUSD = r.Asset.PriceUSD.Mul(expandFactor).Round(2)
			Recompute(work, marketRefPriceUSD)
		}
		iterations++
	}

	// фаза сжатия: опускаем цены к полосе; процент шага фиксируется по
	// первому активу свипа и дальше применяется ко всем. На следующем свипе
	// процент выводится заново от текущего HF, иначе широкий первый шаг
	// (кап 50%) вечно перелетает ниже 1 и каждый декремент откатывается.
	shortCircuit := false

	for work.HealthFactor.GreaterThan(solverUpperBound) && iterations < solverMaxIterations && !shortCircuit {
		uniformPct := decimal.Zero
		floored := 0
		for _, r := range eligible {
			price := r.Asset.PriceUSD
			if price.LessThanOrEqual(priceFloor) {
				floored++
				continue
			}

			var step decimal.Decimal
			if uniformPct.Sign() > 0 {
				step = price.Mul(uniformPct)
			} else {
				// относительный перелёт HF над полосой: для позиции из
				// одного актива это попадание в полосу за один шаг
				pct := work.HealthFactor.Sub(solverLowerBound).Div(work.HealthFactor)
				if pct.GreaterThan(maxStepShare) {
					pct = maxStepShare
				}
				step = price.Mul(pct)
				// процент запоминаем до проверки отката: даже если
				// первый декремент откатится, свип идёт этим шагом
				uniformPct = pct
			}

			next := price.Sub(step).Round(2)
			if next.LessThan(priceFloor) {
				next = priceFloor
			}

			r.Asset.PriceUSD = next
			Recompute(work, marketRefPriceUSD)

			if work.HealthFactor.LessThan(hfOne) {
				// перелёт: возвращаем цену и этот актив в свипе
				// больше не трогаем
				r.Asset.PriceUSD = price
				Recompute(work, marketRefPriceUSD)
			}
		}
		if floored == len(eligible) {
			shortCircuit = true
		}
		iterations++
	}

	if shortCircuit || iterations >= solverMaxIterations {
		return nil
	}

	out := make([]*models.Asset, 0, len(eligible))
	for _, r := range eligible {
		out = append(out, r.Asset.Clone())
	}
	return out
}
