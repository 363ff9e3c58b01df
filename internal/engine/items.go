package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// Все мутации ниже молча игнорируют некорректный ввод (неизвестный символ,
// дубль, отрицательное количество): движок дёргается на каждый ввод в UI,
// и ошибки тут не нужны. Возвращаемый bool — применилась ли операция.

// AddReserve добавляет пустую строку залога для актива из каталога.
func AddReserve(p *models.Position, asset *models.Asset, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || asset == nil || asset.Symbol == "" {
		return false
	}
	if p.Reserve(asset.Symbol) != nil {
		return false
	}
	p.Reserves = append(p.Reserves, &models.ReserveItem{
		Asset:             asset.Clone(),
		Balance:           decimal.Zero,
		UsageAsCollateral: asset.CollateralEnabled,
		UserAdded:         true,
	})
	Recompute(p, marketRefPriceUSD)
	return true
}

// AddBorrow добавляет пустую строку долга.
func AddBorrow(p *models.Position, asset *models.Asset, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || asset == nil || asset.Symbol == "" {
		return false
	}
	if p.Borrow(asset.Symbol) != nil {
		return false
	}
	p.Borrows = append(p.Borrows, &models.BorrowItem{
		Asset:     asset.Clone(),
		Total:     decimal.Zero,
		UserAdded: true,
	})
	Recompute(p, marketRefPriceUSD)
	return true
}

// RemoveReserve удаляет строку залога по символу.
func RemoveReserve(p *models.Position, symbol string, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil {
		return false
	}
	for i, r := range p.Reserves {
		if r.Asset != nil && r.Asset.Symbol == symbol {
			p.Reserves = append(p.Reserves[:i], p.Reserves[i+1:]...)
			Recompute(p, marketRefPriceUSD)
			return true
		}
	}
	return false
}

// RemoveBorrow удаляет строку долга по символу.
func RemoveBorrow(p *models.Position, symbol string, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil {
		return false
	}
	for i, b := range p.Borrows {
		if b.Asset != nil && b.Asset.Symbol == symbol {
			p.Borrows = append(p.Borrows[:i], p.Borrows[i+1:]...)
			Recompute(p, marketRefPriceUSD)
			return true
		}
	}
	return false
}

// SetReserveBalance выставляет баланс залога. Без изменения — без пересчёта.
func SetReserveBalance(p *models.Position, symbol string, balance decimal.Decimal, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || balance.Sign() < 0 {
		return false
	}
	r := p.Reserve(symbol)
	if r == nil || r.Balance.Equal(balance) {
		return false
	}
	r.Balance = balance
	Recompute(p, marketRefPriceUSD)
	return true
}

// SetBorrowTotal выставляет объём долга. Без изменения — без пересчёта.
func SetBorrowTotal(p *models.Position, symbol string, total decimal.Decimal, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || total.Sign() < 0 {
		return false
	}
	b := p.Borrow(symbol)
	if b == nil || b.Total.Equal(total) {
		return false
	}
	b.Total = total
	Recompute(p, marketRefPriceUSD)
	return true
}

// OverrideAssetPrice — ценовой шок "что если": переписывает цену актива во
// всех строках, где он встречается.
func OverrideAssetPrice(p *models.Position, symbol string, priceUSD decimal.Decimal, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || priceUSD.Sign() < 0 {
		return false
	}
	touched := false
	if r := p.Reserve(symbol); r != nil && r.Asset != nil {
		r.Asset.PriceUSD = priceUSD
		touched = true
	}
	if b := p.Borrow(symbol); b != nil && b.Asset != nil {
		b.Asset.PriceUSD = priceUSD
		touched = true
	}
	if !touched {
		return false
	}
	Recompute(p, marketRefPriceUSD)
	return true
}

// ToggleCollateralUsage переключает пользовательский флаг "считать залогом".
func ToggleCollateralUsage(p *models.Position, symbol string, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil {
		return false
	}
	r := p.Reserve(symbol)
	if r == nil {
		return false
	}
	r.UsageAsCollateral = !r.UsageAsCollateral
	Recompute(p, marketRefPriceUSD)
	return true
}
