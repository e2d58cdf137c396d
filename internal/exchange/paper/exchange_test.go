package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

func newBTC() *Exchange {
	p := New(decimal.NewFromInt(10000))
	p.AddSymbol(domain.SymbolRules{
		Symbol:       "BTCUSDT",
		QuantityStep: decimal.RequireFromString("0.001"),
		PriceTick:    decimal.RequireFromString("0.1"),
		Tradable:     true,
	}, decimal.NewFromInt(27050))
	return p
}

func TestPaper_MarketFillOpensPosition(t *testing.T) {
	ctx := context.Background()
	p := newBTC()
	require.NoError(t, p.SetLeverage(ctx, "BTCUSDT", 10))

	resp, err := p.PlaceOrder(ctx, domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.Buy,
		Type:     domain.Market,
		Quantity: decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "FILLED", resp.Status)
	assert.True(t, resp.AvgPrice.Equal(decimal.NewFromInt(27050)))

	positions, err := p.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity.Equal(decimal.RequireFromString("0.1")))

	acct, err := p.GetAccount(ctx)
	require.NoError(t, err)
	assert.True(t, acct.UsedMargin.Equal(decimal.RequireFromString("270.5")))
}

func TestPaper_NoChangeResponses(t *testing.T) {
	ctx := context.Background()
	p := newBTC()

	err := p.SetPositionMode(ctx, false)
	assert.True(t, exchange.IsNoChange(err))

	require.NoError(t, p.SetMarginMode(ctx, "BTCUSDT", domain.Isolated))
	assert.True(t, exchange.IsNoChange(p.SetMarginMode(ctx, "BTCUSDT", domain.Isolated)))
}

func TestPaper_ConditionalOrdersDoNotFill(t *testing.T) {
	ctx := context.Background()
	p := newBTC()

	resp, err := p.PlaceOrder(ctx, domain.OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          domain.Sell,
		Type:          domain.StopMarket,
		StopPrice:     decimal.NewFromInt(26900),
		ClosePosition: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW", resp.Status)

	positions, err := p.GetPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Len(t, p.Orders(), 1)
}
