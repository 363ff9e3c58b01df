package engine

import (
	"testing"

	"lending_sim/internal/models"
)

func TestIsStablecoin(t *testing.T) {
	cases := map[string]bool{
		"USDC":   true,
		"usdt":   true,
		"aUSDC":  true, // обёртки матчатся подстрокой
		"USDbC":  true,
		"EURC":   true,
		"GHO":    true,
		"WETH":   false,
		"cbBTC":  false,
		"wstETH": false,
	}
	for sym, want := range cases {
		if got := IsStablecoin(sym); got != want {
			t.Fatalf("IsStablecoin(%q) = %v, want %v", sym, got, want)
		}
	}
}

func TestAssetPredicates(t *testing.T) {
	a := btcAsset()
	if !IsActive(a) || !IsBorrowable(a) || !IsSuppliable(a) {
		t.Fatalf("healthy asset failed predicates")
	}

	frozen := btcAsset()
	frozen.Frozen = true
	if IsActive(frozen) || IsBorrowable(frozen) {
		t.Fatalf("frozen asset should not be active")
	}

	paused := btcAsset()
	paused.Paused = true
	if IsActive(paused) {
		t.Fatalf("paused asset should not be active")
	}

	noBorrow := btcAsset()
	noBorrow.BorrowingEnabled = false
	if IsBorrowable(noBorrow) {
		t.Fatalf("borrowing disabled asset is borrowable")
	}

	fl := btcAsset()
	if IsFlashloanable(fl) {
		t.Fatalf("flashloan flag off, predicate true")
	}
	fl.FlashLoanEnabled = true
	if !IsFlashloanable(fl) {
		t.Fatalf("flashloan flag on, predicate false")
	}
}

func TestEligibleReservesHappyPath(t *testing.T) {
	p := btcUsdcPosition()
	Recompute(p, dec("1"))

	got := EligibleLiquidationReserves(p)
	if len(got) != 1 || got[0].Asset.Symbol != "cbBTC" {
		t.Fatalf("eligible = %v, want [cbBTC]", got)
	}
}

func TestEligibleReservesNonStableBorrow(t *testing.T) {
	p := btcUsdcPosition()
	weth := &models.Asset{Symbol: "WETH", PriceUSD: dec("3000"), Active: true, BorrowingEnabled: true}
	p.Borrows = append(p.Borrows, &models.BorrowItem{Asset: weth, Total: dec("1")})
	Recompute(p, dec("1"))

	if got := EligibleLiquidationReserves(p); got != nil {
		t.Fatalf("non-stable borrow must disable scenario, got %v", got)
	}
}

func TestEligibleReservesNoBorrows(t *testing.T) {
	p := btcUsdcPosition()
	p.Borrows = nil
	Recompute(p, dec("1"))

	if got := EligibleLiquidationReserves(p); got != nil {
		t.Fatalf("no borrows must disable scenario, got %v", got)
	}
}

func TestEligibleReservesDustCollateral(t *testing.T) {
	p := btcUsdcPosition()
	// $48 волатильного залога — ниже порога $50
	p.Reserves[0].Balance = dec("0.0008")
	p.Borrows[0].Total = dec("10")
	Recompute(p, dec("1"))

	if got := EligibleLiquidationReserves(p); got != nil {
		t.Fatalf("dust collateral must disable scenario, got %v", got)
	}
}

func TestEligibleReservesSmallShare(t *testing.T) {
	p := btcUsdcPosition()
	// волатильный залог $600 при $60600 общего — меньше 5%
	p.Reserves[0].Balance = dec("0.01")
	p.Reserves = append(p.Reserves, &models.ReserveItem{
		Asset:             usdcAsset(),
		Balance:           dec("60000"),
		UsageAsCollateral: true,
	})
	Recompute(p, dec("1"))

	if got := EligibleLiquidationReserves(p); got != nil {
		t.Fatalf("sub-5%% share must disable scenario, got %v", got)
	}
}

func TestEligibleReservesCollateralDisabled(t *testing.T) {
	p := btcUsdcPosition()
	p.Reserves[0].UsageAsCollateral = false
	Recompute(p, dec("1"))

	if got := EligibleLiquidationReserves(p); got != nil {
		t.Fatalf("disabled collateral must disable scenario, got %v", got)
	}
}
