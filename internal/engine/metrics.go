package engine

import (
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// effectiveRiskParams возвращает LTV и порог ликвидации (доли 0..1) с учётом
// e-mode: параметры e-mode берём только когда категория актива совпадает с
// активной категорией позиции. Вынесено отдельно, чтобы условие было в одном
// месте, а не размазано по агрегатору.
func effectiveRiskParams(a *models.Asset, positionEMode int) (ltv, threshold decimal.Decimal) {
	if positionEMode != 0 && a.EModeCategoryID == positionEMode {
		return bpsFraction(a.EModeLTVBps), bpsFraction(a.EModeLiqThresholdBps)
	}
	return bpsFraction(a.LTVBps), bpsFraction(a.LiqThresholdBps)
}

// Recompute пересчитывает все derived-поля позиции из строк supply/borrow и
// цены reference-валюты. Чистая функция от line items: вызов дважды подряд
// даёт побитово тот же результат.
func Recompute(p *models.Position, marketRefPriceUSD decimal.Decimal) {
	if p == nil {
		return
	}
	if marketRefPriceUSD.Sign() <= 0 {
		marketRefPriceUSD = one
	}
	p.MarketRefPriceUSD = marketRefPriceUSD

	collateralMRC := decimal.Zero
	weightedThreshold := decimal.Zero
	weightedLTV := decimal.Zero

	for _, r := range p.Reserves {
		if r.Asset == nil {
			continue
		}
		priceMRC := r.Asset.PriceUSD.Div(marketRefPriceUSD)
		r.Asset.PriceMRC = priceMRC
		r.BalanceMRC = r.Balance.Mul(priceMRC)
		r.BalanceUSD = r.Balance.Mul(r.Asset.PriceUSD)

		if !r.UsageAsCollateral {
			continue
		}
		ltv, threshold := effectiveRiskParams(r.Asset, p.EModeCategoryID)
		collateralMRC = collateralMRC.Add(r.BalanceMRC)
		weightedThreshold = weightedThreshold.Add(threshold.Mul(r.BalanceMRC))
		weightedLTV = weightedLTV.Add(ltv.Mul(r.BalanceMRC))
	}

	debtMRC := decimal.Zero
	debtUSD := decimal.Zero
	for _, b := range p.Borrows {
		if b.Asset == nil {
			continue
		}
		priceMRC := b.Asset.PriceUSD.Div(marketRefPriceUSD)
		b.Asset.PriceMRC = priceMRC
		b.TotalMRC = b.Total.Mul(priceMRC)
		b.TotalUSD = b.Total.Mul(b.Asset.PriceUSD)
		debtMRC = debtMRC.Add(b.TotalMRC)
		debtUSD = debtUSD.Add(b.TotalUSD)
	}

	p.TotalCollateralMRC = collateralMRC
	p.TotalBorrowsMRC = debtMRC
	p.TotalBorrowsUSD = debtUSD

	if collateralMRC.Sign() > 0 {
		p.LiquidationThreshold = weightedThreshold.Div(collateralMRC)
		p.LoanToValue = weightedLTV.Div(collateralMRC)
	} else {
		p.LiquidationThreshold = decimal.Zero
		p.LoanToValue = decimal.Zero
	}

	switch {
	case debtMRC.Sign() == 0:
		p.HealthFactor = models.HealthFactorInfinite
	default:
		p.HealthFactor = collateralMRC.Mul(p.LiquidationThreshold).Div(debtMRC)
	}

	available := collateralMRC.Mul(p.LoanToValue).Sub(debtMRC)
	if available.Sign() < 0 {
		available = decimal.Zero
	}
	p.AvailableBorrowsMRC = available
	p.AvailableBorrowsUSD = available.Mul(marketRefPriceUSD)
}
