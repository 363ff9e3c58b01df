package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
	provider "lending_sim/internal/modules/provider/service"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func snapshot(btcPrice, btcBalance, debt string) *provider.Snapshot {
	btc := &models.Asset{
		Symbol:            "cbBTC",
		PriceUSD:          dec(btcPrice),
		LTVBps:            7500,
		LiqThresholdBps:   7800,
		CollateralEnabled: true,
		BorrowingEnabled:  true,
		Active:            true,
	}
	usdc := &models.Asset{
		Symbol:            "USDC",
		PriceUSD:          dec("1"),
		LTVBps:            8000,
		LiqThresholdBps:   8500,
		CollateralEnabled: true,
		BorrowingEnabled:  true,
		Active:            true,
	}
	p := &models.Position{
		Reserves: []*models.ReserveItem{
			{Asset: btc, Balance: dec(btcBalance), UsageAsCollateral: true},
		},
		Borrows: []*models.BorrowItem{
			{Asset: usdc, Total: dec(debt)},
		},
	}
	return &provider.Snapshot{
		Position:          p,
		Catalog:           models.Catalog{"cbBTC": btc, "USDC": usdc},
		MarketRefPriceUSD: dec("1"),
	}
}

func testKey() models.PositionKey {
	return models.PositionKey{Address: "0xabc", Market: "core"}
}

func TestMergeUpdatesUntouchedPrice(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	s.Merge(snapshot("50000", "1", "40000"))

	w := s.Working()
	if got := w.Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("50000")) {
		t.Fatalf("working price = %s, want 50000", got)
	}
	b := s.Baseline()
	if got := b.Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("50000")) {
		t.Fatalf("baseline price = %s, want 50000", got)
	}
}

func TestMergeKeepsUserPriceOverride(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	if !s.OverridePrice("cbBTC", dec("30000")) {
		t.Fatal("override did not apply")
	}
	s.Merge(snapshot("50000", "1", "40000"))

	w := s.Working()
	if got := w.Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("30000")) {
		t.Fatalf("working price = %s, want user override 30000", got)
	}
	b := s.Baseline()
	if got := b.Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("50000")) {
		t.Fatalf("baseline price = %s, want 50000", got)
	}
}

func TestMergeKeepsUserBalanceEdit(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	if !s.SetReserveBalance("cbBTC", dec("2")) {
		t.Fatal("set balance did not apply")
	}
	s.Merge(snapshot("60000", "1.5", "41000"))

	w := s.Working()
	if got := w.Reserve("cbBTC").Balance; !got.Equal(dec("2")) {
		t.Fatalf("working balance = %s, want user edit 2", got)
	}
	// долг пользователь не трогал, берём провайдерский
	if got := w.Borrow("USDC").Total; !got.Equal(dec("41000")) {
		t.Fatalf("working debt = %s, want 41000", got)
	}
}

func TestMergeSkipsUserAddedLines(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	if !s.AddBorrow("USDC") {
		// уже есть строка USDC, дубль молча не применяется
		t.Log("duplicate borrow rejected as expected")
	}
	s.mu.Lock()
	s.working.Borrows = append(s.working.Borrows, &models.BorrowItem{
		Asset:     &models.Asset{Symbol: "DAI", PriceUSD: dec("1"), Active: true, BorrowingEnabled: true},
		Total:     dec("100"),
		UserAdded: true,
	})
	s.mu.Unlock()

	s.Merge(snapshot("60000", "1", "40000"))

	w := s.Working()
	if got := w.Borrow("DAI"); got == nil || !got.Total.Equal(dec("100")) {
		t.Fatalf("user-added DAI line lost in merge: %+v", got)
	}
}

func TestApplyPriceRespectsOverride(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	s.ApplyPrice("cbBTC", dec("61000"))
	if got := s.Working().Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("61000")) {
		t.Fatalf("working price = %s, want stream update 61000", got)
	}

	s.OverridePrice("cbBTC", dec("30000"))
	s.ApplyPrice("cbBTC", dec("62000"))

	if got := s.Working().Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("30000")) {
		t.Fatalf("working price = %s, want override 30000", got)
	}
	if got := s.Baseline().Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("62000")) {
		t.Fatalf("baseline price = %s, want 62000", got)
	}
}

func TestResetRestoresBaseline(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	s.OverridePrice("cbBTC", dec("30000"))
	s.SetBorrowTotal("USDC", dec("10000"))
	s.Reset()

	w := s.Working()
	if got := w.Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("60000")) {
		t.Fatalf("price after reset = %s, want 60000", got)
	}
	if got := w.Borrow("USDC").Total; !got.Equal(dec("40000")) {
		t.Fatalf("debt after reset = %s, want 40000", got)
	}
}

func TestWorkingIsACopy(t *testing.T) {
	s := NewSession(testKey(), snapshot("60000", "1", "40000"))

	w := s.Working()
	w.Reserve("cbBTC").Asset.PriceUSD = dec("1")

	if got := s.Working().Reserve("cbBTC").Asset.PriceUSD; !got.Equal(dec("60000")) {
		t.Fatalf("session mutated through Working() copy: %s", got)
	}
}
