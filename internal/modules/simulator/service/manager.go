package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"lending_sim/internal/engine"
	"lending_sim/internal/models"
	"lending_sim/internal/modules/config"
	history "lending_sim/internal/modules/history/service"
	provider "lending_sim/internal/modules/provider/service"
	quotes "lending_sim/internal/modules/quotes/service"
	"lending_sim/internal/notify"
	"lending_sim/pkg/logger"
)

// Manager владеет сессиями симуляции, по одной на (адрес, рынок).
type Manager struct {
	mu       sync.RWMutex
	sessions map[models.PositionKey]*Session

	provider *provider.Client
	history  *history.Store
	quotes   *quotes.Client
	notifier notify.Notifier
	cfg      *config.Config

	onRefresh func(time.Time)
}

func NewManager(p *provider.Client, h *history.Store, q *quotes.Client, cfg *config.Config) *Manager {
	return &Manager{
		sessions: make(map[models.PositionKey]*Session),
		provider: p,
		history:  h,
		quotes:   q,
		cfg:      cfg,
	}
}

// SetNotifier подключается после старта, чтобы разорвать цикл DI.
func (m *Manager) SetNotifier(n notify.Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// SetOnRefresh — хук после полного цикла рефреша (для health-стейта).
func (m *Manager) SetOnRefresh(fn func(time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRefresh = fn
}

// Session отдаёт существующую сессию или nil.
func (m *Manager) Session(key models.PositionKey) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[key]
}

// Open создаёт сессию из свежего снапшота провайдера. Повторный вызов по
// тому же ключу возвращает существующую сессию без перезагрузки.
func (m *Manager) Open(ctx context.Context, key models.PositionKey) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	snap, err := m.provider.GetSnapshot(ctx, key.Address, key.Market)
	if err != nil {
		return nil, fmt.Errorf("simulator.Open %s/%s: %w", key.Address, key.Market, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[key]; ok {
		return s, nil
	}
	s = NewSession(key, snap)
	m.sessions[key] = s

	m.touchHistory(ctx, s)
	return s, nil
}

// PreloadRecent переоткрывает сессии из недавней истории при старте.
// Ошибки отдельных адресов не фатальны: провайдер мог забыть позицию.
func (m *Manager) PreloadRecent(ctx context.Context) {
	if m.history == nil {
		return
	}
	entries, err := m.history.Recent(ctx)
	if err != nil {
		logger.Error("history preload: %v", err)
		return
	}
	for _, e := range entries {
		key := models.PositionKey{Address: e.Address, Market: e.Market}
		if _, err := m.Open(ctx, key); err != nil {
			logger.Error("preload session %s/%s: %v", e.Address, e.Market, err)
		}
	}
}

// Close убирает сессию из менеджера.
func (m *Manager) Close(key models.PositionKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; !ok {
		return false
	}
	delete(m.sessions, key)
	return true
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RefreshAll перечитывает снапшоты всех сессий и вливает их по merge-политике.
func (m *Manager) RefreshAll(ctx context.Context) {
	m.mu.RLock()
	keys := make([]models.PositionKey, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	for _, key := range keys {
		if err := m.refreshOne(ctx, key); err != nil {
			logger.Error("refresh position %s/%s: %v", key.Address, key.Market, err)
		}
	}

	m.mu.RLock()
	fn := m.onRefresh
	m.mu.RUnlock()
	if fn != nil {
		fn(time.Now())
	}
}

func (m *Manager) refreshOne(ctx context.Context, key models.PositionKey) error {
	s := m.Session(key)
	if s == nil {
		return nil
	}
	snap, err := m.provider.GetSnapshot(ctx, key.Address, key.Market)
	if err != nil {
		return err
	}
	s.Merge(snap)
	m.touchHistory(ctx, s)
	m.checkAlert(s)
	return nil
}

// ApplyPriceUpdate разносит цену из стрима по сессиям этого рынка.
func (m *Manager) ApplyPriceUpdate(upd provider.PriceUpdate) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, s := range m.sessions {
		if upd.Market != "" && key.Market != upd.Market {
			continue
		}
		s.ApplyPrice(upd.Symbol, upd.PriceUSD)
		m.checkAlert(s)
	}
}

// checkAlert — алерт при падении baseline health factor ниже порога,
// один раз на пересечение.
func (m *Manager) checkAlert(s *Session) {
	if m.notifier == nil || m.cfg.AlertHealthFactor <= 0 {
		return
	}
	threshold := decimal.NewFromFloat(m.cfg.AlertHealthFactor)

	s.mu.Lock()
	hf := s.baseline.HealthFactor
	infinite := s.baseline.HealthFactorIsInfinite()
	below := !infinite && hf.LessThan(threshold)
	fire := below && !s.alerted
	s.alerted = below
	s.mu.Unlock()

	if fire {
		m.notifier.Sendf("⚠️ %s / %s: health factor %s ниже порога %s",
			s.key.Address, s.key.Market, hf.Round(4), threshold)
	}
}

func (m *Manager) touchHistory(ctx context.Context, s *Session) {
	if m.history == nil {
		return
	}
	s.mu.Lock()
	hf := s.baseline.HealthFactor
	coll := s.baseline.TotalCollateralMRC.Mul(s.mrc)
	debt := s.baseline.TotalBorrowsUSD
	s.mu.Unlock()

	err := m.history.Touch(ctx, &history.Entry{
		Address:  s.key.Address,
		Market:   s.key.Market,
		LastSeen: time.Now().UTC(),
		Meta: history.EntryMeta{
			HealthFactor:  hf.String(),
			CollateralUSD: coll.Round(2).String(),
			DebtUSD:       debt.Round(2).String(),
		},
	})
	if err != nil {
		logger.Error("history touch %s/%s: %v", s.key.Address, s.key.Market, err)
	}
}

// fillSlippage подставляет слиппедж из оракула, если вызывающий не задал свой.
// Пара передаётся тикерами, см. quotes.SlippageBps.
func (m *Manager) fillSlippage(ctx context.Context, bps int64, symbolIn, symbolOut string) int64 {
	if bps > 0 || m.quotes == nil {
		return bps
	}
	if quoted, ok := m.quotes.SlippageBps(ctx, symbolIn, symbolOut); ok {
		return quoted
	}
	return bps
}

// SwapDebt — своп долга в сессии key со слиппеджем из оракула.
func (m *Manager) SwapDebt(ctx context.Context, key models.PositionKey, p engine.SwapParams) bool {
	s := m.Session(key)
	if s == nil {
		return false
	}
	p.SlippageBps = m.fillSlippage(ctx, p.SlippageBps, p.Source, p.Target)
	return s.SwapDebt(p)
}

// SwapCollateral — своп залога в сессии key со слиппеджем из оракула.
func (m *Manager) SwapCollateral(ctx context.Context, key models.PositionKey, p engine.SwapParams) bool {
	s := m.Session(key)
	if s == nil {
		return false
	}
	p.SlippageBps = m.fillSlippage(ctx, p.SlippageBps, p.Source, p.Target)
	return s.SwapCollateral(p)
}

// RepayFromCollateral — погашение с продажей залога, слиппедж из оракула.
func (m *Manager) RepayFromCollateral(ctx context.Context, key models.PositionKey, p engine.RepayParams) bool {
	s := m.Session(key)
	if s == nil {
		return false
	}
	if p.BonusBps <= 0 {
		p.SlippageBps = m.fillSlippage(ctx, p.SlippageBps, p.CollateralSymbol, p.DebtSymbol)
	}
	return s.RepayFromCollateral(p)
}

// Summaries — строки для команды /health, отсортированы по ключу.
func (m *Manager) Summaries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.sessions))
	for key, s := range m.sessions {
		var hf string
		s.mu.Lock()
		if s.working.HealthFactorIsInfinite() {
			hf = "∞"
		} else {
			hf = s.working.HealthFactor.Round(4).String()
		}
		s.mu.Unlock()
		out = append(out, fmt.Sprintf("%s / %s: HF %s", key.Address, key.Market, hf))
	}
	sort.Strings(out)
	return out
}

// Run — фоновый воркер: тикер периодического рефреша + события из стрима цен.
func (m *Manager) Run(ctx context.Context, updates <-chan provider.PriceUpdate) {
	interval := m.cfg.RefreshInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RefreshAll(ctx)
		case upd, ok := <-updates:
			if !ok {
				return
			}
			m.ApplyPriceUpdate(upd)
		}
	}
}
