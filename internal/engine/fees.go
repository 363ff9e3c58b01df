package engine

import "github.com/shopspring/decimal"

// комиссии свопа в bps
const (
	SwapFeeBps         = 25
	ExecutionFeeBps    = 5
	DefaultSlippageBps = 150
)

var (
	bpsDenominator = decimal.NewFromInt(10_000)
	one            = decimal.NewFromInt(1)
)

// FeeBreakdown — разложение номинала свопа на комиссии и фактически полученное.
type FeeBreakdown struct {
	SwapFeeUSD      decimal.Decimal
	ExecutionFeeUSD decimal.Decimal
	SlippageUSD     decimal.Decimal
	TotalFeeUSD     decimal.Decimal
	ReceiveUSD      decimal.Decimal
	SlippageBps     int64 // фактически применённый
}

func bpsFraction(bps int64) decimal.Decimal {
	return decimal.NewFromInt(bps).Div(bpsDenominator)
}

// effectiveSlippage: <=0 означает "оракул ничего не вернул", берём дефолт.
func effectiveSlippage(slippageBps int64) int64 {
	if slippageBps <= 0 {
		return DefaultSlippageBps
	}
	return slippageBps
}

// SwapBreakdown считает комиссии и нетто-выход для номинала в USD.
func SwapBreakdown(notionalUSD decimal.Decimal, slippageBps int64) FeeBreakdown {
	slip := effectiveSlippage(slippageBps)

	swapFee := notionalUSD.Mul(bpsFraction(SwapFeeBps))
	execFee := notionalUSD.Mul(bpsFraction(ExecutionFeeBps))
	afterFees := notionalUSD.Sub(swapFee).Sub(execFee)
	slippage := afterFees.Mul(bpsFraction(slip))

	return FeeBreakdown{
		SwapFeeUSD:      swapFee,
		ExecutionFeeUSD: execFee,
		SlippageUSD:     slippage,
		TotalFeeUSD:     swapFee.Add(execFee).Add(slippage),
		ReceiveUSD:      afterFees.Sub(slippage),
		SlippageBps:     slip,
	}
}

// CollateralNeededFor — обратная задача: сколько залога продать, чтобы после
// комиссий и слиппеджа получить targetReceiveUSD.
func CollateralNeededFor(targetReceiveUSD decimal.Decimal, slippageBps int64) decimal.Decimal {
	slip := effectiveSlippage(slippageBps)

	multiplier := one.Sub(bpsFraction(SwapFeeBps + ExecutionFeeBps)).
		Mul(one.Sub(bpsFraction(slip)))
	if multiplier.Sign() <= 0 {
		return decimal.Zero
	}
	return targetReceiveUSD.Div(multiplier)
}
