package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"lending_sim/internal/modules/config"
	"lending_sim/pkg/logger"
)

// Client — оракул слиппеджа: по паре токенов возвращает bps или ничего.
// "Ничего" — нормальный ответ, движок подставит дефолтные 150 bps.
type Client struct {
	http    *http.Client
	baseURL string
	chainID int64
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: cfg.Quotes.BaseURL,
		chainID: cfg.Quotes.ChainID,
	}
}

type quoteResponse struct {
	Code string `json:"code"`
	Data struct {
		SlippageBps int64 `json:"slippageBps"`
	} `json:"data"`
}

// SlippageBps возвращает (bps, true) либо (0, false), если котировки нет.
// Сетевые ошибки тоже сводятся к "нет котировки": оракул опционален.
// Пару идентифицируем тикерами: резолва тикер→адрес контракта у нас нет,
// оракул принимает символы в tokenIn/tokenOut наряду с адресами.
func (c *Client) SlippageBps(ctx context.Context, symbolIn, symbolOut string) (int64, bool) {
	if c.baseURL == "" || symbolIn == "" || symbolOut == "" {
		return 0, false
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/api/v1/slippage?chainId=%d&tokenIn=%s&tokenOut=%s",
			c.baseURL, c.chainID, url.QueryEscape(symbolIn), url.QueryEscape(symbolOut)),
		nil,
	)
	if err != nil {
		return 0, false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("slippage quote: %v", err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false
	}
	var payload quoteResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		logger.Error("slippage quote decode: %v", err)
		return 0, false
	}
	if payload.Code != "0" || payload.Data.SlippageBps <= 0 {
		return 0, false
	}

	return payload.Data.SlippageBps, true
}
