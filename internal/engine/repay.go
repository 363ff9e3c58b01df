package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// RepayParams — погашение долга за счёт продажи залога.
type RepayParams struct {
	DebtSymbol       string
	CollateralSymbol string

	Units    decimal.Decimal // сколько долга гасим (в единицах долга)
	Fraction decimal.Decimal // либо доля от долга

	SlippageBps int64
	// BonusBps > 0 моделирует стороннего ликвидатора: бонус заменяет
	// комиссии свопа целиком
	BonusBps int64
}

// RepayDebt — ручное погашение: уменьшает долг на amount, пол — ноль.
func RepayDebt(p *models.Position, symbol string, amount decimal.Decimal, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil || amount.Sign() <= 0 {
		return false
	}
	b := p.Borrow(symbol)
	if b == nil || b.Total.Sign() <= 0 {
		return false
	}
	next := b.Total.Sub(amount)
	if next.Sign() < 0 {
		next = decimal.Zero
	}
	b.Total = next
	Recompute(p, marketRefPriceUSD)
	return true
}

// repayTarget возвращает сколько единиц долга гасим, с капом по остатку.
func repayTarget(outstanding decimal.Decimal, params RepayParams) (decimal.Decimal, bool) {
	switch {
	case params.Units.Sign() > 0:
		if params.Units.GreaterThan(outstanding) {
			return outstanding, true
		}
		return params.Units, true
	case validFraction(params.Fraction):
		return outstanding.Mul(params.Fraction), true
	default:
		return decimal.Zero, false
	}
}

// RepayFromCollateral гасит долг продажей залога. Два режима:
// рыночная продажа через модель комиссий, либо seizure с бонусом ликвидатора.
func RepayFromCollateral(p *models.Position, params RepayParams, marketRefPriceUSD decimal.Decimal) bool {
	if p == nil {
		return false
	}
	debt := p.Borrow(params.DebtSymbol)
	if debt == nil || debt.Asset == nil || debt.Total.Sign() <= 0 {
		return false
	}
	coll := p.Reserve(params.CollateralSymbol)
	if coll == nil || coll.Asset == nil || coll.Balance.Sign() <= 0 {
		return false
	}

	targetUnits, ok := repayTarget(debt.Total, params)
	if !ok || targetUnits.Sign() <= 0 {
		return false
	}

	debtPrice := priceOrOne(debt.Asset.PriceUSD)
	collPrice := priceOrOne(coll.Asset.PriceUSD)
	targetUSD := targetUnits.Mul(debtPrice)

	var soldUnits, reducedUnits decimal.Decimal

	if params.BonusBps > 0 {
		// ликвидатор забирает залог с премией, комиссии не применяются
		bonusMult := one.Add(bpsFraction(params.BonusBps))
		seizeUnits := targetUSD.Mul(bonusMult).Div(collPrice)
		if seizeUnits.GreaterThan(coll.Balance) {
			seizeUnits = coll.Balance
		}
		soldUnits = seizeUnits
		reducedUnits = seizeUnits.Mul(collPrice).Div(bonusMult).Div(debtPrice)
	} else {
		neededUnits := CollateralNeededFor(targetUSD, params.SlippageBps).Div(collPrice)
		if neededUnits.GreaterThan(coll.Balance) {
			neededUnits = coll.Balance
		}
		soldUnits = neededUnits
		soldUSD := neededUnits.Mul(collPrice)
		reducedUnits = SwapBreakdown(soldUSD, params.SlippageBps).ReceiveUSD.Div(debtPrice)
	}

	if reducedUnits.GreaterThan(debt.Total) {
		reducedUnits = debt.Total
	}

	coll.Balance = coll.Balance.Sub(soldUnits)
	debt.Total = debt.Total.Sub(reducedUnits)
	if debt.Total.Sign() < 0 {
		debt.Total = decimal.Zero
	}

	Recompute(p, marketRefPriceUSD)
	return true
}
