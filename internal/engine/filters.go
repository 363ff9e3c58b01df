package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// тикеры стейблов (USD и EUR): матчим подстрокой без регистра,
// чтобы ловить обёртки вроде aUSDC / USDbC.
var stablecoinTickers = []string{
	"USDT", "USDC", "USDBC", "DAI", "USDS", "LUSD", "GUSD", "USDP",
	"TUSD", "FDUSD", "PYUSD", "GHO", "CRVUSD", "SUSD", "USDE",
	"EURS", "EURC", "AGEUR",
}

var (
	// минимальная совокупная стоимость кандидатов для сценария ликвидации
	scenarioMinUSD = decimal.NewFromInt(50)
	// и минимальная доля от всего залога (5%)
	scenarioMinShare = decimal.NewFromFloat(0.05)
)

func IsStablecoin(symbol string) bool {
	s := strings.ToUpper(symbol)
	for _, t := range stablecoinTickers {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func IsActive(a *models.Asset) bool {
	return a != nil && a.Active && !a.Paused && !a.Frozen
}

func IsBorrowable(a *models.Asset) bool {
	return IsActive(a) && a.BorrowingEnabled
}

func IsSuppliable(a *models.Asset) bool {
	return IsActive(a) && a.CollateralEnabled
}

func IsFlashloanable(a *models.Asset) bool {
	return IsActive(a) && a.FlashLoanEnabled
}

// EligibleLiquidationReserves отбирает строки залога, по которым имеет смысл
// искать цены ликвидации. Пустой список = сценарий не показываем (это не
// значит "позиция безопасна").
func EligibleLiquidationReserves(p *models.Position) []*models.ReserveItem {
	if p == nil {
		return nil
	}

	// сценарий моделируем только для чисто стейблового долга:
	// волатильный долг двигается вместе с залогом и чистого триггера нет
	for _, b := range p.Borrows {
		if b.Asset == nil || !IsStablecoin(b.Asset.Symbol) {
			return nil
		}
	}
	if len(p.Borrows) == 0 {
		return nil
	}

	candidates := make([]*models.ReserveItem, 0, len(p.Reserves))
	sumUSD := decimal.Zero
	sumMRC := decimal.Zero
	for _, r := range p.Reserves {
		if r.Asset == nil || IsStablecoin(r.Asset.Symbol) || !r.UsageAsCollateral {
			continue
		}
		candidates = append(candidates, r)
		sumUSD = sumUSD.Add(r.BalanceUSD)
		sumMRC = sumMRC.Add(r.BalanceMRC)
	}
	if len(candidates) == 0 {
		return nil
	}

	if sumUSD.LessThanOrEqual(scenarioMinUSD) {
		return nil
	}
	if p.TotalCollateralMRC.Sign() <= 0 ||
		sumMRC.LessThanOrEqual(p.TotalCollateralMRC.Mul(scenarioMinShare)) {
		return nil
	}

	// нужен хотя бы один долг вне кандидатов, иначе движение цены
	// двигает обе ноги сразу
	hasOutsideBorrow := false
	for _, b := range p.Borrows {
		found := false
		for _, c := range candidates {
			if c.Asset.Symbol == b.Asset.Symbol {
				found = true
				break
			}
		}
		if !found {
			hasOutsideBorrow = true
			break
		}
	}
	if !hasOutsideBorrow {
		return nil
	}

	return candidates
}
