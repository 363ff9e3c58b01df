package service

import (
	"sync"

	"github.com/shopspring/decimal"

	"lending_sim/internal/engine"
	"lending_sim/internal/models"
	provider "lending_sim/internal/modules/provider/service"
)

// Session держит две копии позиции: baseline — как её видит провайдер,
// working — с правками пользователя. Все расчёты идут по working.
type Session struct {
	mu sync.Mutex

	key      models.PositionKey
	baseline *models.Position
	working  *models.Position
	catalog  models.Catalog
	mrc      decimal.Decimal

	alerted bool
}

func NewSession(key models.PositionKey, snap *provider.Snapshot) *Session {
	s := &Session{
		key:     key,
		catalog: snap.Catalog,
		mrc:     snap.MarketRefPriceUSD,
	}
	s.baseline = snap.Position.Clone()
	s.working = snap.Position.Clone()
	engine.Recompute(s.baseline, s.mrc)
	engine.Recompute(s.working, s.mrc)
	return s
}

func (s *Session) Key() models.PositionKey { return s.key }

// Working отдаёт копию рабочей позиции.
func (s *Session) Working() *models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

func (s *Session) Baseline() *models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

func (s *Session) HealthFactor() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.HealthFactor
}

// Reset сбрасывает правки: working снова равен baseline.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = s.baseline.Clone()
}

// Merge вливает свежий снапшот провайдера. Baseline обновляется целиком.
// В working провайдерские цены, флаги и балансы попадают только там, где
// пользователь их не трогал: текущее значение working совпадает со старым
// baseline. Добавленные пользователем строки не трогаем.
func (s *Session) Merge(snap *provider.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.baseline
	fresh := snap.Position.Clone()
	engine.Recompute(fresh, snap.MarketRefPriceUSD)

	for _, r := range s.working.Reserves {
		if r.UserAdded {
			continue
		}
		or := old.Reserve(r.Asset.Symbol)
		nr := fresh.Reserve(r.Asset.Symbol)
		if or == nil || nr == nil {
			continue
		}
		if r.Balance.Equal(or.Balance) {
			r.Balance = nr.Balance
		}
		if r.UsageAsCollateral == or.UsageAsCollateral {
			r.UsageAsCollateral = nr.UsageAsCollateral
		}
		mergeAsset(r.Asset, or.Asset, nr.Asset)
	}
	for _, b := range s.working.Borrows {
		if b.UserAdded {
			continue
		}
		ob := old.Borrow(b.Asset.Symbol)
		nb := fresh.Borrow(b.Asset.Symbol)
		if ob == nil || nb == nil {
			continue
		}
		if b.Total.Equal(ob.Total) {
			b.Total = nb.Total
		}
		b.APY = nb.APY
		mergeAsset(b.Asset, ob.Asset, nb.Asset)
	}

	s.baseline = fresh
	s.catalog = snap.Catalog
	if s.mrc.Equal(snap.MarketRefPriceUSD) || s.workingMRCUntouched(old) {
		s.mrc = snap.MarketRefPriceUSD
	}
	engine.Recompute(s.working, s.mrc)
}

func (s *Session) workingMRCUntouched(old *models.Position) bool {
	return s.working.MarketRefPriceUSD.Equal(old.MarketRefPriceUSD)
}

// mergeAsset переносит свежие параметры актива там, где working не переопределён.
func mergeAsset(w, old, fresh *models.Asset) {
	if w.PriceUSD.Equal(old.PriceUSD) {
		w.PriceUSD = fresh.PriceUSD
		w.PriceMRC = fresh.PriceMRC
	}
	w.LTVBps = fresh.LTVBps
	w.LiqThresholdBps = fresh.LiqThresholdBps
	w.Active = fresh.Active
	w.Frozen = fresh.Frozen
	w.Paused = fresh.Paused
	w.CollateralEnabled = fresh.CollateralEnabled
	w.BorrowingEnabled = fresh.BorrowingEnabled
	w.FlashLoanEnabled = fresh.FlashLoanEnabled
}

// ApplyPrice — апдейт цены из стрима. Попадает и в baseline, и (если не
// переопределена руками) в working.
func (s *Session) ApplyPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overridden := false
	if br := s.baseline.Reserve(symbol); br != nil {
		wr := s.working.Reserve(symbol)
		if wr != nil && !wr.Asset.PriceUSD.Equal(br.Asset.PriceUSD) {
			overridden = true
		}
	}
	if bb := s.baseline.Borrow(symbol); bb != nil {
		wb := s.working.Borrow(symbol)
		if wb != nil && !wb.Asset.PriceUSD.Equal(bb.Asset.PriceUSD) {
			overridden = true
		}
	}

	engine.OverrideAssetPrice(s.baseline, symbol, price, s.mrc)
	if a := s.catalog.Lookup(symbol); a != nil {
		a.PriceUSD = price
	}
	if !overridden {
		engine.OverrideAssetPrice(s.working, symbol, price, s.mrc)
	} else {
		engine.Recompute(s.working, s.mrc)
	}
}

// Обёртки над движком: мутации применяются к working под локом.

func (s *Session) SwapDebt(p engine.SwapParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.SwapDebt(s.working, s.catalog, p, s.mrc)
}

func (s *Session) SwapCollateral(p engine.SwapParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.SwapCollateral(s.working, s.catalog, p, s.mrc)
}

func (s *Session) RepayDebt(symbol string, units decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.RepayDebt(s.working, symbol, units, s.mrc)
}

func (s *Session) RepayFromCollateral(p engine.RepayParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.RepayFromCollateral(s.working, p, s.mrc)
}

func (s *Session) BorrowMore(symbol string, units decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.BorrowMore(s.working, s.catalog, symbol, units, s.mrc)
}

func (s *Session) ApplyLoopState(st engine.LoopState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ApplyLoopState(s.working, s.catalog, st, s.mrc)
}

func (s *Session) AddReserve(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.catalog.Lookup(symbol)
	if a == nil {
		return false
	}
	return engine.AddReserve(s.working, a, s.mrc)
}

func (s *Session) AddBorrow(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.catalog.Lookup(symbol)
	if a == nil {
		return false
	}
	return engine.AddBorrow(s.working, a, s.mrc)
}

func (s *Session) RemoveReserve(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.RemoveReserve(s.working, symbol, s.mrc)
}

func (s *Session) RemoveBorrow(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.RemoveBorrow(s.working, symbol, s.mrc)
}

func (s *Session) SetReserveBalance(symbol string, balance decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.SetReserveBalance(s.working, symbol, balance, s.mrc)
}

func (s *Session) SetBorrowTotal(symbol string, total decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.SetBorrowTotal(s.working, symbol, total, s.mrc)
}

func (s *Session) OverridePrice(symbol string, price decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.OverrideAssetPrice(s.working, symbol, price, s.mrc)
}

func (s *Session) ToggleCollateralUsage(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ToggleCollateralUsage(s.working, symbol, s.mrc)
}

func (s *Session) LiquidationScenario() []*models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.LiquidationScenario(s.working, s.mrc)
}

func (s *Session) ProjectSwapDebt(p engine.SwapParams) *engine.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ProjectSwapDebt(s.working, s.catalog, p, s.mrc)
}

func (s *Session) ProjectSwapCollateral(p engine.SwapParams) *engine.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ProjectSwapCollateral(s.working, s.catalog, p, s.mrc)
}

func (s *Session) ProjectRepayDebt(symbol string, units decimal.Decimal) *engine.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ProjectRepayDebt(s.working, symbol, units, s.mrc)
}

func (s *Session) ProjectRepayFromCollateral(p engine.RepayParams) *engine.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ProjectRepayFromCollateral(s.working, p, s.mrc)
}

func (s *Session) ProjectBorrowMore(symbol string, units decimal.Decimal) *engine.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.ProjectBorrowMore(s.working, s.catalog, symbol, units, s.mrc)
}
