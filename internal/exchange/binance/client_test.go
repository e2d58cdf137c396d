package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

const exchangeInfoJSON = `{
  "symbols": [
    {"symbol": "BTCUSDT", "status": "TRADING", "filters": [
      {"filterType": "PRICE_FILTER", "tickSize": "0.10"},
      {"filterType": "LOT_SIZE", "stepSize": "0.001"},
      {"filterType": "MIN_NOTIONAL", "notional": "100"}
    ]},
    {"symbol": "OLDUSDT", "status": "SETTLING", "filters": [
      {"filterType": "PRICE_FILTER", "tickSize": "0.0001"},
      {"filterType": "LOT_SIZE", "stepSize": "1"}
    ]}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("key", "secret", WithBaseURL(srv.URL))
}

func TestClient_GetSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		_, _ = w.Write([]byte(exchangeInfoJSON))
	})

	rules, err := client.GetSymbols(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)

	btc := rules[0]
	assert.Equal(t, "BTCUSDT", btc.Symbol)
	assert.True(t, btc.Tradable)
	assert.True(t, btc.QuantityStep.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, btc.PriceTick.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, btc.MinNotional.Equal(decimal.NewFromInt(100)))
	assert.True(t, btc.IsUsable())

	assert.False(t, rules[1].Tradable)
	assert.False(t, rules[1].IsUsable())
}

func TestClient_GetSymbolRules_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exchangeInfoJSON))
	})

	_, err := client.GetSymbolRules(context.Background(), "ETHUSDT")
	assert.Error(t, err)

	rules, err := client.GetSymbolRules(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", rules.Symbol)
}

func TestClient_PlaceOrder_SignsRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))

		raw := r.URL.RawQuery
		idx := strings.LastIndex(raw, "&signature=")
		require.Greater(t, idx, 0)
		payload, signature := raw[:idx], raw[idx+len("&signature="):]

		mac := hmac.New(sha256.New, []byte("secret"))
		mac.Write([]byte(payload))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)

		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "SELL", q.Get("side"))
		assert.Equal(t, "STOP_MARKET", q.Get("type"))
		assert.Equal(t, "26900.1", q.Get("stopPrice"))
		assert.Equal(t, "true", q.Get("closePosition"))
		assert.Empty(t, q.Get("quantity"))
		assert.Empty(t, q.Get("reduceOnly"))

		_, _ = w.Write([]byte(`{"orderId": 42, "symbol": "BTCUSDT", "status": "NEW", "avgPrice": "0.00", "origQty": "0", "executedQty": "0", "type": "STOP_MARKET", "side": "SELL"}`))
	})

	resp, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          domain.Sell,
		Type:          domain.StopMarket,
		StopPrice:     decimal.RequireFromString("26900.1"),
		ClosePosition: true,
		ReduceOnly:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, domain.StopMarket, resp.Type)
}

func TestClient_PlaceOrder_Market(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Equal(t, "0.528", q.Get("quantity"))
		assert.Equal(t, "BOTH", q.Get("positionSide"))
		_, _ = w.Write([]byte(`{"orderId": 7, "symbol": "BTCUSDT", "status": "FILLED", "avgPrice": "27051.30", "origQty": "0.528", "executedQty": "0.528", "type": "MARKET", "side": "BUY"}`))
	})

	resp, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:       "BTCUSDT",
		Side:         domain.Buy,
		PositionSide: domain.BothPosition,
		Type:         domain.Market,
		Quantity:     decimal.RequireFromString("0.528"),
	})
	require.NoError(t, err)
	assert.True(t, resp.AvgPrice.Equal(decimal.RequireFromString("27051.3")))
	assert.True(t, resp.ExecutedQuantity.Equal(decimal.RequireFromString("0.528")))
}

func TestClient_APIErrorMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": -4059, "msg": "No need to change position side."}`))
	})

	err := client.SetPositionMode(context.Background(), false)
	require.Error(t, err)
	assert.True(t, exchange.IsNoChange(err))

	var apiErr *exchange.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, exchange.CodePositionNoChange, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestClient_FilterErrorMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": -1111, "msg": "Precision is over the maximum defined for this asset."}`))
	})

	_, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.Buy,
		Type:     domain.Market,
		Quantity: decimal.RequireFromString("0.5283"),
	})
	require.Error(t, err)
	assert.True(t, exchange.IsFilterViolation(err))
}

func TestClient_GetAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v2/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"assets": [
			{"asset": "BNB", "walletBalance": "1.0", "initialMargin": "0"},
			{"asset": "USDT", "walletBalance": "10000.00", "initialMargin": "2500.50"}
		]}`))
	})

	acct, err := client.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USDT", acct.Asset)
	assert.True(t, acct.TotalBalance.Equal(decimal.NewFromInt(10000)))
	assert.True(t, acct.Unutilized().Equal(decimal.RequireFromString("7499.5")))
}

func TestClient_GetPositions_FiltersEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol": "BTCUSDT", "positionAmt": "0.528", "entryPrice": "27050", "markPrice": "27060", "unRealizedProfit": "5.28", "leverage": "100", "positionSide": "BOTH"},
			{"symbol": "ETHUSDT", "positionAmt": "0", "entryPrice": "0", "markPrice": "1600", "unRealizedProfit": "0", "leverage": "20", "positionSide": "BOTH"}
		]`))
	})

	positions, err := client.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "BTCUSDT", positions[0].Symbol)
	assert.Equal(t, 100, positions[0].Leverage)
}

func TestClient_GetMarkPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol": "BTCUSDT", "markPrice": "27050.12"}`))
	})

	price, err := client.GetMarkPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("27050.12")))
}
