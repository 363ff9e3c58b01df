package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// LoopState — результат внешнего "looping"-калькулятора: абсолютные объёмы
// залога и долга, которые нужно перенести на рабочую позицию.
type LoopState struct {
	CollateralSymbol string
	CollateralUnits  decimal.Decimal
	DebtSymbol       string
	DebtUnits        decimal.Decimal
}

// ApplyLoopState гарантирует наличие обеих строк и выставляет объёмы напрямую.
func ApplyLoopState(p *models.Position, catalog models.Catalog, state LoopState, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || state.CollateralUnits.Sign() < 0 || state.DebtUnits.Sign() < 0 {
		return false
	}

	coll := p.Reserve(state.CollateralSymbol)
	if coll == nil {
		asset := catalog.Lookup(state.CollateralSymbol)
		if asset == nil {
			return false
		}
		if !AddReserve(p, asset, marketRefPriceUSD) {
			return false
		}
		coll = p.Reserve(state.CollateralSymbol)
	}

	debt := p.Borrow(state.DebtSymbol)
	if debt == nil {
		asset := catalog.Lookup(state.DebtSymbol)
		if asset == nil {
			return false
		}
		if !AddBorrow(p, asset, marketRefPriceUSD) {
			return false
		}
		debt = p.Borrow(state.DebtSymbol)
	}

	coll.Balance = state.CollateralUnits
	debt.Total = state.DebtUnits
	Recompute(p, marketRefPriceUSD)
	return true
}
