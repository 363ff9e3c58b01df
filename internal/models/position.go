package models

import "github.com/shopspring/decimal"

// HealthFactorInfinite — сентинел для позиции без долга: у shopspring/decimal
// нет ±Inf, поэтому "бесконечный" health factor кодируем как -1.
var HealthFactorInfinite = decimal.NewFromInt(-1)

// ReserveItem — одна строка залога.
type ReserveItem struct {
	Asset *Asset

	Balance    decimal.Decimal // в единицах актива
	BalanceUSD decimal.Decimal
	BalanceMRC decimal.Decimal

	UsageAsCollateral bool // пользовательский флаг "считать залогом"
	UserAdded         bool
}

// BorrowItem — одна строка долга.
type BorrowItem struct {
	Asset *Asset

	Total    decimal.Decimal // в единицах актива
	TotalUSD decimal.Decimal
	TotalMRC decimal.Decimal

	APY decimal.Decimal

	UserAdded bool
}

// Position — позиция пользователя на одном рынке. Derived-поля пересчитываются
// только через engine.Recompute и никогда не выставляются руками.
type Position struct {
	Address string
	Market  string

	Reserves []*ReserveItem // символы уникальны, порядок стабилен
	Borrows  []*BorrowItem

	EModeCategoryID int

	MarketRefPriceUSD decimal.Decimal

	// derived
	TotalCollateralMRC   decimal.Decimal
	TotalBorrowsMRC      decimal.Decimal
	TotalBorrowsUSD      decimal.Decimal
	LiquidationThreshold decimal.Decimal // 0..1, взвешенный
	LoanToValue          decimal.Decimal // 0..1, взвешенный
	HealthFactor         decimal.Decimal
	AvailableBorrowsMRC  decimal.Decimal
	AvailableBorrowsUSD  decimal.Decimal
}

func (p *Position) HealthFactorIsInfinite() bool {
	return p.HealthFactor.Equal(HealthFactorInfinite)
}

// Reserve ищет строку залога по символу.
func (p *Position) Reserve(symbol string) *ReserveItem {
	for _, r := range p.Reserves {
		if r.Asset != nil && r.Asset.Symbol == symbol {
			return r
		}
	}
	return nil
}

// Borrow ищет строку долга по символу.
func (p *Position) Borrow(symbol string) *BorrowItem {
	for _, b := range p.Borrows {
		if b.Asset != nil && b.Asset.Symbol == symbol {
			return b
		}
	}
	return nil
}

// Clone — глубокая копия: assets копируются тоже, чтобы ценовые override'ы
// рабочей копии никогда не протекали в baseline.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Reserves = make([]*ReserveItem, 0, len(p.Reserves))
	for _, r := range p.Reserves {
		rc := *r
		rc.Asset = r.Asset.Clone()
		cp.Reserves = append(cp.Reserves, &rc)
	}
	cp.Borrows = make([]*BorrowItem, 0, len(p.Borrows))
	for _, b := range p.Borrows {
		bc := *b
		bc.Asset = b.Asset.Clone()
		cp.Borrows = append(cp.Borrows, &bc)
	}
	return &cp
}
