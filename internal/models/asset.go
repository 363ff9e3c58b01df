package models

import "github.com/shopspring/decimal"

// Asset — инструмент рынка кредитования (позиция supply/borrow ссылается на него).
type Asset struct {
	Symbol string

	PriceUSD decimal.Decimal
	PriceMRC decimal.Decimal // цена в reference-валюте рынка

	// риск-параметры в bps (7500 => 75%)
	LTVBps          int64
	LiqThresholdBps int64

	CollateralEnabled bool // можно ли использовать как залог
	BorrowingEnabled  bool

	Active bool
	Frozen bool
	Paused bool

	FlashLoanEnabled bool

	// e-mode: 0 = нет категории
	EModeCategoryID      int
	EModeLTVBps          int64
	EModeLiqThresholdBps int64
	EModeLabel           string
}

// Clone возвращает независимую копию (decimal иммутабелен, хватает копии структуры).
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
