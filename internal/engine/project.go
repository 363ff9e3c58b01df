package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// Projection — результат "предпросмотра" операции: HF и сценарий ликвидации
// на одноразовой копии, без мутации рабочей позиции. nil = операция
// неприменима (те же предусловия, что у мутирующего варианта).
type Projection struct {
	HealthFactor        decimal.Decimal
	LiquidationScenario []*models.Asset
}

func project(p *models.Position, marketRefPriceUSD decimal.Decimal, apply func(*models.Position) bool) *Projection {
	if p == nil {
		return nil
	}
	work := p.Clone()
	if !apply(work) {
		return nil
	}
	return &Projection{
		HealthFactor:        work.HealthFactor,
		LiquidationScenario: LiquidationScenario(work, marketRefPriceUSD),
	}
}

func ProjectSwapDebt(p *models.Position, catalog models.Catalog, params SwapParams, marketRefPriceUSD decimal.Decimal) *Projection {
	return project(p, marketRefPriceUSD, func(work *models.Position) bool {
		return SwapDebt(work, catalog, params, marketRefPriceUSD)
	})
}

func ProjectSwapCollateral(p *models.Position, catalog models.Catalog, params SwapParams, marketRefPriceUSD decimal.Decimal) *Projection {
	return project(p, marketRefPriceUSD, func(work *models.Position) bool {
		return SwapCollateral(work, catalog, params, marketRefPriceUSD)
	})
}

func ProjectRepayDebt(p *models.Position, symbol string, amount decimal.Decimal, marketRefPriceUSD decimal.Decimal) *Projection {
	return project(p, marketRefPriceUSD, func(work *models.Position) bool {
		return RepayDebt(work, symbol, amount, marketRefPriceUSD)
	})
}

func ProjectRepayFromCollateral(p *models.Position, params RepayParams, marketRefPriceUSD decimal.Decimal) *Projection {
	return project(p, marketRefPriceUSD, func(work *models.Position) bool {
		return RepayFromCollateral(work, params, marketRefPriceUSD)
	})
}

func ProjectBorrowMore(p *models.Position, catalog models.Catalog, symbol string, units decimal.Decimal, marketRefPriceUSD decimal.Decimal) *Projection {
	return project(p, marketRefPriceUSD, func(work *models.Position) bool {
		return BorrowMore(work, catalog, symbol, units, marketRefPriceUSD)
	})
}
