package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"

	"lending_sim/internal/models"
)

// Snapshot — сырые данные позиции от провайдера: позиция, каталог активов
// рынка и цена reference-валюты.
type Snapshot struct {
	Position          *models.Position
	Catalog           models.Catalog
	MarketRefPriceUSD decimal.Decimal
}

func parseDec(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s parse: %w (%q)", name, err, s)
	}
	return d, nil
}

func parseBps(name, s string) (int64, error) {
	d, err := parseDec(name, s)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

// GetSnapshot тянет позицию (address, market). Ошибка здесь — ошибка
// коллаборатора: движок при ней данных не видит и ничего не считает.
func (c *Client) GetSnapshot(ctx context.Context, address, market string) (*Snapshot, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "provider.GetSnapshot")
	defer span.Finish()
	span.SetTag("address", address)
	span.SetTag("market", market)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/api/v1/positions?address="+url.QueryEscape(address)+"&market="+url.QueryEscape(market),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload snapshotResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return nil, fmt.Errorf("provider error %s: %s", payload.Code, payload.Msg)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("position %s@%s not found", address, market)
	}

	data := payload.Data[0]

	refPrice, err := parseDec("marketReferencePriceUsd", data.MarketReferencePriceUsd)
	if err != nil {
		return nil, err
	}

	catalog := make(models.Catalog, len(data.Assets))
	for _, a := range data.Assets {
		price, err := parseDec("priceInUsd", a.PriceInUsd)
		if err != nil {
			return nil, err
		}
		ltv, err := parseBps("baseLTVasCollateral", a.BaseLTVasCollateral)
		if err != nil {
			return nil, err
		}
		threshold, err := parseBps("reserveLiquidationThreshold", a.ReserveLiquidationThreshold)
		if err != nil {
			return nil, err
		}
		emodeLtv, err := parseBps("eModeLtv", a.EModeLtv)
		if err != nil {
			return nil, err
		}
		emodeThreshold, err := parseBps("eModeLiquidationThreshold", a.EModeLiquidationThreshold)
		if err != nil {
			return nil, err
		}

		catalog[a.Symbol] = &models.Asset{
			Symbol:               a.Symbol,
			PriceUSD:             price,
			LTVBps:               ltv,
			LiqThresholdBps:      threshold,
			CollateralEnabled:    a.UsageAsCollateralEnabled,
			BorrowingEnabled:     a.BorrowingEnabled,
			Active:               a.IsActive,
			Frozen:               a.IsFrozen,
			Paused:               a.IsPaused,
			FlashLoanEnabled:     a.FlashLoanEnabled,
			EModeCategoryID:      a.EModeCategoryId,
			EModeLTVBps:          emodeLtv,
			EModeLiqThresholdBps: emodeThreshold,
			EModeLabel:           a.EModeLabel,
		}
	}

	position := &models.Position{
		Address:         address,
		Market:          market,
		EModeCategoryID: data.UserEmodeCategoryId,
	}
	for _, r := range data.Reserves {
		asset := catalog.Lookup(r.Symbol)
		if asset == nil {
			return nil, fmt.Errorf("reserve %s missing from asset catalog", r.Symbol)
		}
		balance, err := parseDec("underlyingBalance", r.UnderlyingBalance)
		if err != nil {
			return nil, err
		}
		position.Reserves = append(position.Reserves, &models.ReserveItem{
			Asset:             asset.Clone(),
			Balance:           balance,
			UsageAsCollateral: r.UsageAsCollateralEnabledOnUser,
		})
	}
	for _, b := range data.Borrows {
		asset := catalog.Lookup(b.Symbol)
		if asset == nil {
			return nil, fmt.Errorf("borrow %s missing from asset catalog", b.Symbol)
		}
		total, err := parseDec("totalBorrows", b.TotalBorrows)
		if err != nil {
			return nil, err
		}
		apy, err := parseDec("borrowAPY", b.BorrowAPY)
		if err != nil {
			return nil, err
		}
		position.Borrows = append(position.Borrows, &models.BorrowItem{
			Asset: asset.Clone(),
			Total: total,
			APY:   apy,
		})
	}

	return &Snapshot{
		Position:          position,
		Catalog:           catalog,
		MarketRefPriceUSD: refPrice,
	}, nil
}
