package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

func TestTradeFlags_Request(t *testing.T) {
	f := &tradeFlags{
		symbol:     "btcusdt",
		side:       "long",
		orderType:  "limit",
		entry:      "27050",
		slMode:     "point",
		slValue:    "15",
		tp1:        "28000",
		tp1Percent: "40",
		tp2:        "29000",
		quantity:   "0.5",
		leverage:   10,
		margin:     "cross",
	}

	req, err := f.request()
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", req.Symbol)
	assert.Equal(t, domain.Long, req.Side)
	assert.Equal(t, domain.Limit, req.OrderType)
	assert.Equal(t, domain.Cross, req.MarginMode)
	assert.Equal(t, domain.StopPoints, req.StopLoss.Mode)
	assert.True(t, req.StopLoss.Value.Equal(decimal.NewFromInt(15)))
	assert.True(t, req.EntryPrice.Equal(decimal.NewFromInt(27050)))

	require.Len(t, req.TakeProfits, 2)
	assert.True(t, req.TakeProfits[0].Percent.Equal(decimal.NewFromInt(40)))
	assert.True(t, req.TakeProfits[1].Percent.Equal(decimal.NewFromInt(60)))

	require.NotNil(t, req.Override.Quantity)
	assert.True(t, req.Override.Quantity.Equal(decimal.RequireFromString("0.5")))
	require.NotNil(t, req.Override.Leverage)
	assert.Equal(t, 10, *req.Override.Leverage)
}

func TestTradeFlags_RequestDefaults(t *testing.T) {
	f := &tradeFlags{
		symbol:     "ETHUSDT",
		side:       string(domain.Short),
		orderType:  string(domain.Market),
		slMode:     string(domain.StopPercent),
		slValue:    "0.5",
		tp1Percent: "50",
		margin:     string(domain.Isolated),
	}

	req, err := f.request()
	require.NoError(t, err)
	assert.True(t, req.EntryPrice.IsZero())
	assert.Nil(t, req.TakeProfits)
	assert.Nil(t, req.Override.Quantity)
	assert.Nil(t, req.Override.Leverage)
}

func TestTradeFlags_RequestRejectsBadNumber(t *testing.T) {
	f := &tradeFlags{symbol: "BTCUSDT", slMode: "PERCENT", slValue: "abc"}

	_, err := f.request()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--sl")
}

func TestRenderOutcome_Unprotected(t *testing.T) {
	sl := decimal.RequireFromString("26914.8")
	outcome := &domain.TradeOutcome{
		Record: &domain.TradeRecord{
			ID:            "trade-1",
			Timestamp:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			Symbol:        "BTCUSDT",
			Side:          domain.Long,
			OrderType:     domain.Market,
			MarginMode:    domain.Isolated,
			EntryPrice:    decimal.NewFromInt(27050),
			Quantity:      decimal.RequireFromString("0.052"),
			Leverage:      2,
			StopLossPrice: &sl,
		},
		LegStatus: domain.LegStatus{
			Entry:    domain.LegPlaced,
			StopLoss: domain.LegFailed,
			TP1:      domain.LegSkipped,
			TP2:      domain.LegSkipped,
		},
		Severity: domain.SeverityUnprotected,
		Errors: []*domain.TradeError{
			domain.NewTradeError(domain.KindProtectiveLegFailed, "BTCUSDT", "place_stop_loss", nil),
		},
	}

	out := renderOutcome(outcome)
	assert.Contains(t, out, "UNPROTECTED")
	assert.Contains(t, out, "trade-1")
	assert.Contains(t, out, "26914.8")
	assert.Contains(t, out, "손절 FAILED")
	assert.Contains(t, out, "ProtectiveLegFailed")
}

func TestRenderStats_SortsSymbols(t *testing.T) {
	out := renderStats(domain.GovernanceState{
		Date:      "2024-05-01",
		Total:     3,
		PerSymbol: map[string]int{"ETHUSDT": 1, "BTCUSDT": 2},
	}, 4, 2)

	assert.Contains(t, out, "3 / 4")
	btc := strings.Index(out, "BTCUSDT")
	eth := strings.Index(out, "ETHUSDT")
	require.True(t, btc >= 0 && eth >= 0)
	assert.Less(t, btc, eth)
}

func TestRenderTradeLog_Empty(t *testing.T) {
	assert.Contains(t, renderTradeLog(nil), "거래 기록이 없습니다")
}
