package service

// Ответы провайдера: числа приходят строками, парсим в decimal на границе.
type snapshotResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Market                  string `json:"market"`
		MarketReferencePriceUsd string `json:"marketReferencePriceUsd"`
		UserEmodeCategoryId     int    `json:"userEmodeCategoryId"`

		Assets []struct {
			Symbol                      string `json:"symbol"`
			PriceInUsd                  string `json:"priceInUsd"`
			BaseLTVasCollateral         string `json:"baseLTVasCollateral"`         // bps
			ReserveLiquidationThreshold string `json:"reserveLiquidationThreshold"` // bps
			UsageAsCollateralEnabled    bool   `json:"usageAsCollateralEnabled"`
			BorrowingEnabled            bool   `json:"borrowingEnabled"`
			IsActive                    bool   `json:"isActive"`
			IsFrozen                    bool   `json:"isFrozen"`
			IsPaused                    bool   `json:"isPaused"`
			FlashLoanEnabled            bool   `json:"flashLoanEnabled"`
			EModeCategoryId             int    `json:"eModeCategoryId"`
			EModeLtv                    string `json:"eModeLtv"`
			EModeLiquidationThreshold   string `json:"eModeLiquidationThreshold"`
			EModeLabel                  string `json:"eModeLabel"`
		} `json:"assets"`

		Reserves []struct {
			Symbol                         string `json:"symbol"`
			UnderlyingBalance              string `json:"underlyingBalance"`
			UsageAsCollateralEnabledOnUser bool   `json:"usageAsCollateralEnabledOnUser"`
		} `json:"reserves"`

		Borrows []struct {
			Symbol       string `json:"symbol"`
			TotalBorrows string `json:"totalBorrows"`
			BorrowAPY    string `json:"borrowAPY"`
		} `json:"borrows"`
	} `json:"data"`
}

type priceEvent struct {
	Channel  string `json:"channel"`
	Market   string `json:"market"`
	Symbol   string `json:"symbol"`
	PriceUsd string `json:"priceUsd"`
}
