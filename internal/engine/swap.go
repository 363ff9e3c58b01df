package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// SwapParams — параметры свопа долга/залога. Ровно одно из Fraction/Units:
// Units с приоритетом, если задано.
type SwapParams struct {
	Source string
	Target string

	Fraction decimal.Decimal // 0..1 от исходной строки
	Units    decimal.Decimal // фиксированное количество исходного актива

	SlippageBps int64 // <=0 — дефолтные 150 bps
}

// priceOrOne: при нулевой/отсутствующей цене считаем актив за $1,
// чтобы не делить на ноль.
func priceOrOne(price decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 {
		return one
	}
	return price
}

func validFraction(f decimal.Decimal) bool {
	return f.Sign() > 0 && f.LessThanOrEqual(one)
}

// SwapDebt конвертирует часть долга из одного актива в другой через своп:
// целевой долг растёт на нетто-величину после комиссий и слиппеджа.
func SwapDebt(p *models.Position, catalog models.Catalog, params SwapParams, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || params.Source == params.Target {
		return false
	}
	src := p.Borrow(params.Source)
	if src == nil || src.Asset == nil || src.Total.Sign() <= 0 {
		return false
	}

	var units decimal.Decimal
	switch {
	case params.Units.Sign() > 0:
		if params.Units.GreaterThan(src.Total) {
			return false
		}
		units = params.Units
	case validFraction(params.Fraction):
		units = src.Total.Mul(params.Fraction)
	default:
		return false
	}

	target := catalog.Lookup(params.Target)
	if existing := p.Borrow(params.Target); existing != nil {
		target = existing.Asset
	}
	if !IsBorrowable(target) {
		return false
	}

	notionalUSD := units.Mul(priceOrOne(src.Asset.PriceUSD))
	breakdown := SwapBreakdown(notionalUSD, params.SlippageBps)
	targetUnits := breakdown.ReceiveUSD.Div(priceOrOne(target.PriceUSD))

	src.Total = src.Total.Sub(units)
	if dst := p.Borrow(params.Target); dst != nil {
		dst.Total = dst.Total.Add(targetUnits)
	} else {
		p.Borrows = append(p.Borrows, &models.BorrowItem{
			Asset:     target.Clone(),
			Total:     targetUnits,
			UserAdded: true,
		})
	}

	Recompute(p, marketRefPriceUSD)
	return true
}

// SwapCollateral продаёт часть залога и заводит выручку в другой залоговый
// актив. Целевой актив должен быть suppliable.
func SwapCollateral(p *models.Position, catalog models.Catalog, params SwapParams, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || params.Source == params.Target {
		return false
	}
	src := p.Reserve(params.Source)
	if src == nil || src.Asset == nil || src.Balance.Sign() <= 0 {
		return false
	}

	var units decimal.Decimal
	switch {
	case params.Units.Sign() > 0:
		if params.Units.GreaterThan(src.Balance) {
			return false
		}
		units = params.Units
	case validFraction(params.Fraction):
		units = src.Balance.Mul(params.Fraction)
	default:
		return false
	}

	target := catalog.Lookup(params.Target)
	if existing := p.Reserve(params.Target); existing != nil {
		target = existing.Asset
	}
	if !IsSuppliable(target) {
		return false
	}

	notionalUSD := units.Mul(priceOrOne(src.Asset.PriceUSD))
	breakdown := SwapBreakdown(notionalUSD, params.SlippageBps)
	targetUnits := breakdown.ReceiveUSD.Div(priceOrOne(target.PriceUSD))

	src.Balance = src.Balance.Sub(units)
	if dst := p.Reserve(params.Target); dst != nil {
		dst.Balance = dst.Balance.Add(targetUnits)
	} else {
		p.Reserves = append(p.Reserves, &models.ReserveItem{
			Asset:             target.Clone(),
			Balance:           targetUnits,
			UsageAsCollateral: target.CollateralEnabled,
			UserAdded:         true,
		})
	}

	Recompute(p, marketRefPriceUSD)
	return true
}
