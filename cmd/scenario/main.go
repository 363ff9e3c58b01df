package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"lending_sim/internal/engine"
	"lending_sim/internal/models"
)

// Офлайн-прогон сценария: файл с позицией и списком операций, на выходе
// метрики и цены ликвидации. Удобно для разбора инцидентов без провайдера.

type assetDef struct {
	Symbol            string `mapstructure:"symbol"`
	PriceUSD          string `mapstructure:"price_usd"`
	LTVBps            int64  `mapstructure:"ltv_bps"`
	LiqThresholdBps   int64  `mapstructure:"liq_threshold_bps"`
	CollateralEnabled bool   `mapstructure:"collateral_enabled"`
	BorrowingEnabled  bool   `mapstructure:"borrowing_enabled"`
	Active            bool   `mapstructure:"active"`
	Frozen            bool   `mapstructure:"frozen"`
	Paused            bool   `mapstructure:"paused"`
}

type reserveDef struct {
	Symbol            string `mapstructure:"symbol"`
	Balance           string `mapstructure:"balance"`
	UsageAsCollateral bool   `mapstructure:"usage_as_collateral"`
}

type borrowDef struct {
	Symbol string `mapstructure:"symbol"`
	Total  string `mapstructure:"total"`
}

type opDef struct {
	Op          string `mapstructure:"op"`
	Symbol      string `mapstructure:"symbol"`
	Source      string `mapstructure:"source"`
	Target      string `mapstructure:"target"`
	Debt        string `mapstructure:"debt"`
	Collateral  string `mapstructure:"collateral"`
	Fraction    string `mapstructure:"fraction"`
	Units       string `mapstructure:"units"`
	Price       string `mapstructure:"price"`
	Amount      string `mapstructure:"amount"`
	SlippageBps int64  `mapstructure:"slippage_bps"`
	BonusBps    int64  `mapstructure:"bonus_bps"`
}

type scenarioFile struct {
	MarketReferencePriceUSD string       `mapstructure:"market_reference_price_usd"`
	Assets                  []assetDef   `mapstructure:"assets"`
	Reserves                []reserveDef `mapstructure:"reserves"`
	Borrows                 []borrowDef  `mapstructure:"borrows"`
	Operations              []opDef      `mapstructure:"operations"`
}

func parseDec(s, def string) decimal.Decimal {
	if s == "" {
		s = def
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func loadScenario(path string) (*scenarioFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	var sc scenarioFile
	if err := v.Unmarshal(&sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	return &sc, nil
}

func buildPosition(sc *scenarioFile) (*models.Position, models.Catalog, decimal.Decimal, error) {
	catalog := models.Catalog{}
	for _, a := range sc.Assets {
		if a.Symbol == "" {
			return nil, nil, decimal.Zero, errors.New("asset without symbol")
		}
		catalog[a.Symbol] = &models.Asset{
			Symbol:            a.Symbol,
			PriceUSD:          parseDec(a.PriceUSD, "0"),
			LTVBps:            a.LTVBps,
			LiqThresholdBps:   a.LiqThresholdBps,
			CollateralEnabled: a.CollateralEnabled,
			BorrowingEnabled:  a.BorrowingEnabled,
			Active:            a.Active,
			Frozen:            a.Frozen,
			Paused:            a.Paused,
		}
	}

	p := &models.Position{}
	for _, r := range sc.Reserves {
		a := catalog.Lookup(r.Symbol)
		if a == nil {
			return nil, nil, decimal.Zero, errors.Errorf("reserve refers to unknown asset %q", r.Symbol)
		}
		p.Reserves = append(p.Reserves, &models.ReserveItem{
			Asset:             a.Clone(),
			Balance:           parseDec(r.Balance, "0"),
			UsageAsCollateral: r.UsageAsCollateral,
		})
	}
	for _, b := range sc.Borrows {
		a := catalog.Lookup(b.Symbol)
		if a == nil {
			return nil, nil, decimal.Zero, errors.Errorf("borrow refers to unknown asset %q", b.Symbol)
		}
		p.Borrows = append(p.Borrows, &models.BorrowItem{
			Asset: a.Clone(),
			Total: parseDec(b.Total, "0"),
		})
	}

	mrc := parseDec(sc.MarketReferencePriceUSD, "1")
	engine.Recompute(p, mrc)
	return p, catalog, mrc, nil
}

func applyOp(p *models.Position, catalog models.Catalog, op opDef, mrc decimal.Decimal) bool {
	switch op.Op {
	case "swap_debt":
		return engine.SwapDebt(p, catalog, engine.SwapParams{
			Source:      op.Source,
			Target:      op.Target,
			Fraction:    parseDec(op.Fraction, "0"),
			Units:       parseDec(op.Units, "0"),
			SlippageBps: op.SlippageBps,
		}, mrc)
	case "swap_collateral":
		return engine.SwapCollateral(p, catalog, engine.SwapParams{
			Source:      op.Source,
			Target:      op.Target,
			Fraction:    parseDec(op.Fraction, "0"),
			Units:       parseDec(op.Units, "0"),
			SlippageBps: op.SlippageBps,
		}, mrc)
	case "repay_debt":
		return engine.RepayDebt(p, op.Symbol, parseDec(op.Amount, "0"), mrc)
	case "repay_from_collateral":
		return engine.RepayFromCollateral(p, engine.RepayParams{
			DebtSymbol:       op.Debt,
			CollateralSymbol: op.Collateral,
			Units:            parseDec(op.Units, "0"),
			Fraction:         parseDec(op.Fraction, "0"),
			SlippageBps:      op.SlippageBps,
			BonusBps:         op.BonusBps,
		}, mrc)
	case "borrow_more":
		return engine.BorrowMore(p, catalog, op.Symbol, parseDec(op.Units, "0"), mrc)
	case "override_price":
		return engine.OverrideAssetPrice(p, op.Symbol, parseDec(op.Price, "0"), mrc)
	case "set_balance":
		return engine.SetReserveBalance(p, op.Symbol, parseDec(op.Units, "0"), mrc)
	case "set_debt":
		return engine.SetBorrowTotal(p, op.Symbol, parseDec(op.Units, "0"), mrc)
	case "toggle_collateral":
		return engine.ToggleCollateralUsage(p, op.Symbol, mrc)
	default:
		return false
	}
}

func printReport(p *models.Position, mrc decimal.Decimal) {
	fmt.Println("=== position ===")
	for _, r := range p.Reserves {
		fmt.Printf("reserve %-8s balance=%s priceUSD=%s collateral=%v\n",
			r.Asset.Symbol, r.Balance, r.Asset.PriceUSD, r.UsageAsCollateral)
	}
	for _, b := range p.Borrows {
		fmt.Printf("borrow  %-8s total=%s priceUSD=%s\n", b.Asset.Symbol, b.Total, b.Asset.PriceUSD)
	}

	fmt.Println("=== metrics ===")
	fmt.Printf("collateral (MRC):    %s\n", p.TotalCollateralMRC)
	fmt.Printf("debt (MRC):          %s\n", p.TotalBorrowsMRC)
	fmt.Printf("debt (USD):          %s\n", p.TotalBorrowsUSD)
	fmt.Printf("liq threshold:       %s\n", p.LiquidationThreshold)
	fmt.Printf("loan-to-value:       %s\n", p.LoanToValue)
	fmt.Printf("available borrows:   %s MRC / %s USD\n", p.AvailableBorrowsMRC, p.AvailableBorrowsUSD)
	if p.HealthFactorIsInfinite() {
		fmt.Println("health factor:       ∞")
	} else {
		fmt.Printf("health factor:       %s\n", p.HealthFactor)
	}

	scenario := engine.LiquidationScenario(p, mrc)
	if len(scenario) == 0 {
		fmt.Println("liquidation prices:  n/a")
		return
	}
	fmt.Println("=== liquidation prices ===")
	for _, a := range scenario {
		fmt.Printf("%-8s %s\n", a.Symbol, a.PriceUSD)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return errors.New("usage: scenario <scenario.yaml>")
	}

	sc, err := loadScenario(os.Args[1])
	if err != nil {
		return err
	}
	p, catalog, mrc, err := buildPosition(sc)
	if err != nil {
		return err
	}

	for i, op := range sc.Operations {
		if !applyOp(p, catalog, op, mrc) {
			fmt.Fprintf(os.Stderr, "op %d (%s): skipped, invalid input\n", i, op.Op)
		}
	}

	printReport(p, mrc)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
