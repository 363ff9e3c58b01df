package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// BorrowMore увеличивает существующий долг или заводит новый. Лимит headroom
// здесь не проверяется: AvailableBorrowsUSD — подсказка для вызывающего,
// а не жёсткий кап.
func BorrowMore(p *models.Position, catalog models.Catalog, symbol string, units decimal.Decimal, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || units.Sign() <= 0 {
		return false
	}

	if b := p.Borrow(symbol); b != nil {
		b.Total = b.Total.Add(units)
		Recompute(p, marketRefPriceUSD)
		return true
	}

	asset := catalog.Lookup(symbol)
	if !IsBorrowable(asset) {
		return false
	}
	p.Borrows = append(p.Borrows, &models.BorrowItem{
		Asset:     asset.Clone(),
		Total:     units,
		UserAdded: true,
	})
	Recompute(p, marketRefPriceUSD)
	return true
}
