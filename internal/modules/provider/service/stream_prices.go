package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"lending_sim/pkg/logger"
)

// PriceUpdate — событие фида цен.
type PriceUpdate struct {
	Market   string
	Symbol   string
	PriceUSD decimal.Decimal
}

// StreamPrices подключается к ws-фиду и шлёт обновления цен в out.
// Переподключается сам, пока жив ctx. Если stream_url не задан — выход сразу.
func (c *Client) StreamPrices(ctx context.Context, markets []string, out chan<- PriceUpdate) {
	if c.streamURL == "" {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.runStream(ctx, markets, out); err != nil {
			logger.Error("price stream: %v", err)
		}

		// пауза перед redial
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *Client) runStream(ctx context.Context, markets []string, out chan<- PriceUpdate) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if c.OnStreamState != nil {
		c.OnStreamState(true)
		defer c.OnStreamState(false)
	}

	sub := struct {
		Op   string `json:"op"`
		Args []struct {
			Channel string `json:"channel"`
			Market  string `json:"market"`
		} `json:"args"`
	}{Op: "subscribe"}
	for _, m := range markets {
		sub.Args = append(sub.Args, struct {
			Channel string `json:"channel"`
			Market  string `json:"market"`
		}{Channel: "prices", Market: m})
	}
	raw, err := sonic.Marshal(sub)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var ev priceEvent
		if err := sonic.Unmarshal(msg, &ev); err != nil {
			logger.Error("price stream decode: %v", err)
			continue
		}
		if ev.Channel != "prices" || ev.Symbol == "" {
			continue
		}
		price, err := decimal.NewFromString(ev.PriceUsd)
		if err != nil || price.Sign() <= 0 {
			continue
		}

		select {
		case out <- PriceUpdate{Market: ev.Market, Symbol: ev.Symbol, PriceUSD: price}:
		case <-ctx.Done():
			return nil
		}
	}
}
