package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func btcAsset() *models.Asset {
	return &models.Asset{
		Symbol:            "cbBTC",
		PriceUSD:          dec("60000"),
		LTVBps:            7500,
		LiqThresholdBps:   7800,
		CollateralEnabled: true,
		BorrowingEnabled:  true,
		Active:            true,
	}
}

func usdcAsset() *models.Asset {
	return &models.Asset{
		Symbol:            "USDC",
		PriceUSD:          dec("1"),
		LTVBps:            7700,
		LiqThresholdBps:   7800,
		CollateralEnabled: true,
		BorrowingEnabled:  true,
		Active:            true,
	}
}

func daiAsset() *models.Asset {
	return &models.Asset{
		Symbol:            "DAI",
		PriceUSD:          dec("1"),
		LTVBps:            7500,
		LiqThresholdBps:   7700,
		CollateralEnabled: true,
		BorrowingEnabled:  true,
		Active:            true,
	}
}

// позиция из спеки: 1 cbBTC по $60k против 40k USDC, MRC = $1
func btcUsdcPosition() *models.Position {
	return &models.Position{
		Address: "0xabc",
		Market:  "core",
		Reserves: []*models.ReserveItem{
			{Asset: btcAsset(), Balance: dec("1"), UsageAsCollateral: true},
		},
		Borrows: []*models.BorrowItem{
			{Asset: usdcAsset(), Total: dec("40000")},
		},
	}
}

func TestRecomputeBaseline(t *testing.T) {
	p := btcUsdcPosition()
	Recompute(p, dec("1"))

	if !p.TotalCollateralMRC.Equal(dec("60000")) {
		t.Fatalf("collateral MRC = %s, want 60000", p.TotalCollateralMRC)
	}
	if !p.LiquidationThreshold.Equal(dec("0.78")) {
		t.Fatalf("liquidation threshold = %s, want 0.78", p.LiquidationThreshold)
	}
	if !p.TotalBorrowsMRC.Equal(dec("40000")) {
		t.Fatalf("borrows MRC = %s, want 40000", p.TotalBorrowsMRC)
	}
	if !p.HealthFactor.Equal(dec("1.17")) {
		t.Fatalf("health factor = %s, want 1.17", p.HealthFactor)
	}
	if !p.AvailableBorrowsMRC.Equal(dec("5000")) {
		t.Fatalf("available borrows MRC = %s, want 5000", p.AvailableBorrowsMRC)
	}
	if !p.AvailableBorrowsUSD.Equal(dec("5000")) {
		t.Fatalf("available borrows USD = %s, want 5000", p.AvailableBorrowsUSD)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	p := btcUsdcPosition()
	Recompute(p, dec("1"))
	first := p.Clone()
	Recompute(p, dec("1"))

	if !p.HealthFactor.Equal(first.HealthFactor) ||
		!p.TotalCollateralMRC.Equal(first.TotalCollateralMRC) ||
		!p.TotalBorrowsMRC.Equal(first.TotalBorrowsMRC) ||
		!p.LiquidationThreshold.Equal(first.LiquidationThreshold) ||
		!p.LoanToValue.Equal(first.LoanToValue) ||
		!p.AvailableBorrowsUSD.Equal(first.AvailableBorrowsUSD) {
		t.Fatalf("second recompute diverged: %+v vs %+v", p, first)
	}
}

func TestRecomputeNoDebt(t *testing.T) {
	p := btcUsdcPosition()
	p.Borrows = nil
	Recompute(p, dec("1"))

	if !p.HealthFactorIsInfinite() {
		t.Fatalf("health factor = %s, want infinite sentinel", p.HealthFactor)
	}
	// весь headroom = collateral × LTV × цена MRC
	if !p.AvailableBorrowsUSD.Equal(dec("45000")) {
		t.Fatalf("available borrows = %s, want 45000", p.AvailableBorrowsUSD)
	}
}

func TestRecomputeNoCollateralWithDebt(t *testing.T) {
	p := btcUsdcPosition()
	p.Reserves = nil
	Recompute(p, dec("1"))

	if !p.LiquidationThreshold.Equal(decimal.Zero) {
		t.Fatalf("liquidation threshold = %s, want 0", p.LiquidationThreshold)
	}
	if !p.HealthFactor.Equal(decimal.Zero) {
		t.Fatalf("health factor = %s, want 0", p.HealthFactor)
	}
	if !p.AvailableBorrowsUSD.Equal(decimal.Zero) {
		t.Fatalf("available borrows = %s, want 0", p.AvailableBorrowsUSD)
	}
}

func TestRecomputeEmptyPosition(t *testing.T) {
	p := &models.Position{Address: "0xabc", Market: "core"}
	Recompute(p, dec("1"))

	if !p.TotalCollateralMRC.Equal(decimal.Zero) || !p.TotalBorrowsMRC.Equal(decimal.Zero) {
		t.Fatalf("empty position got collateral=%s debt=%s", p.TotalCollateralMRC, p.TotalBorrowsMRC)
	}
	if !p.HealthFactorIsInfinite() {
		t.Fatalf("health factor = %s, want infinite sentinel", p.HealthFactor)
	}
}

func TestRecomputeMarketReferencePrice(t *testing.T) {
	p := btcUsdcPosition()
	// MRC = ETH по $3000: 1 BTC = 20 ETH
	Recompute(p, dec("3000"))

	if !p.TotalCollateralMRC.Equal(dec("20")) {
		t.Fatalf("collateral MRC = %s, want 20", p.TotalCollateralMRC)
	}
	if !p.Reserves[0].BalanceUSD.Equal(dec("60000")) {
		t.Fatalf("balance USD = %s, want 60000", p.Reserves[0].BalanceUSD)
	}
	// headroom: (20×0.75 − 40000/3000) MRC × 3000 = 5000 USD
	if !p.AvailableBorrowsUSD.Round(6).Equal(dec("5000")) {
		t.Fatalf("available borrows USD = %s, want 5000", p.AvailableBorrowsUSD)
	}
}

func TestEffectiveRiskParamsEMode(t *testing.T) {
	a := btcAsset()
	a.EModeCategoryID = 2
	a.EModeLTVBps = 9000
	a.EModeLiqThresholdBps = 9300

	ltv, threshold := effectiveRiskParams(a, 2)
	if !ltv.Equal(dec("0.9")) || !threshold.Equal(dec("0.93")) {
		t.Fatalf("e-mode params = %s/%s, want 0.9/0.93", ltv, threshold)
	}

	// категория позиции не совпадает — базовые параметры
	ltv, threshold = effectiveRiskParams(a, 1)
	if !ltv.Equal(dec("0.75")) || !threshold.Equal(dec("0.78")) {
		t.Fatalf("base params = %s/%s, want 0.75/0.78", ltv, threshold)
	}
}

func TestRecomputeEModeWeighting(t *testing.T) {
	p := btcUsdcPosition()
	p.EModeCategoryID = 2
	p.Reserves[0].Asset.EModeCategoryID = 2
	p.Reserves[0].Asset.EModeLTVBps = 9000
	p.Reserves[0].Asset.EModeLiqThresholdBps = 9300
	Recompute(p, dec("1"))

	if !p.LiquidationThreshold.Equal(dec("0.93")) {
		t.Fatalf("threshold = %s, want 0.93", p.LiquidationThreshold)
	}
	if !p.HealthFactor.Equal(dec("1.395")) {
		t.Fatalf("health factor = %s, want 1.395", p.HealthFactor)
	}
}

func TestRecomputeSkipsDisabledCollateral(t *testing.T) {
	p := btcUsdcPosition()
	p.Reserves[0].UsageAsCollateral = false
	Recompute(p, dec("1"))

	if !p.TotalCollateralMRC.Equal(decimal.Zero) {
		t.Fatalf("collateral = %s, want 0 (disabled)", p.TotalCollateralMRC)
	}
	// баланс всё равно пересчитан
	if !p.Reserves[0].BalanceUSD.Equal(dec("60000")) {
		t.Fatalf("balance USD = %s, want 60000", p.Reserves[0].BalanceUSD)
	}
	if !p.HealthFactor.Equal(decimal.Zero) {
		t.Fatalf("health factor = %s, want 0", p.HealthFactor)
	}
}
