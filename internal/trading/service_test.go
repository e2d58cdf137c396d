package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
	exmock "github.com/salonikashyap7899/RISK-MANAGER/internal/exchange/mock"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange/paper"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/governance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/market"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/metrics"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/position"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/risk"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/storage/memory"
)

var (
	btcRules = domain.SymbolRules{
		Symbol:       "BTCUSDT",
		QuantityStep: decimal.RequireFromString("0.001"),
		PriceTick:    decimal.RequireFromString("0.1"),
		MinNotional:  decimal.NewFromInt(100),
		Tradable:     true,
	}
	tradeDay = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
)

type recordingNotifier struct {
	notification.NopNotifier
	trades []notification.TradeInfo
}

func (n *recordingNotifier) SendTradeInfo(info notification.TradeInfo) error {
	n.trades = append(n.trades, info)
	return nil
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	notifier *recordingNotifier
}

func newFixture(t *testing.T, ex exchange.Exchange, cfg Config) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	svc := NewService(
		cfg,
		risk.NewCalculator(risk.DefaultConfig()),
		governance.NewLedger(store, governance.DefaultLimits(), nil),
		journal.New(store, nil),
		market.NewSymbolProvider(ex, time.Hour, nil),
		market.NewDataCache(ex, 5*time.Second, 15*time.Second, nil),
		position.NewSequencer(ex, nil),
		WithNotifier(notifier),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
		WithClock(func() time.Time { return tradeDay }),
	)
	return &fixture{svc: svc, store: store, notifier: notifier}
}

func fixedCapital() Config {
	return Config{TotalCapital: decimal.NewFromInt(10000), RequestTimeout: 5 * time.Second}
}

func marketRequest() domain.TradeRequest {
	return domain.TradeRequest{
		Symbol:     "btcusdt",
		Side:       domain.Long,
		OrderType:  domain.Market,
		EntryPrice: decimal.NewFromInt(27050),
		StopLoss:   domain.StopLoss{Mode: domain.StopPercent, Value: decimal.RequireFromString("0.5")},
		TakeProfits: domain.NewTakeProfits(
			decimal.NewFromInt(28000), decimal.NewFromInt(50), decimal.NewFromInt(29000),
		),
		MarginMode: domain.Isolated,
	}
}

func TestPreviewSizing(t *testing.T) {
	f := newFixture(t, &exmock.Exchange{}, fixedCapital())

	res, err := f.svc.PreviewSizing(context.Background(), decimal.NewFromInt(10000), decimal.NewFromInt(27050),
		domain.StopLoss{Mode: domain.StopPercent, Value: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	assert.Equal(t, "0.528", res.SuggestedQuantity.StringFixed(3))
	assert.Equal(t, 100, res.WireLeverage)

	res, err = f.svc.PreviewSizing(context.Background(), decimal.NewFromInt(10000), decimal.Zero,
		domain.StopLoss{Mode: domain.StopPercent, Value: decimal.RequireFromString("0.5")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, res.IsZero())
}

func TestPlaceTrade_RejectsWithoutExchangeCalls(t *testing.T) {
	overQty := decimal.RequireFromString("0.79218") // 제안 수량 0.52812 × 1.5
	overLev := 150

	tests := []struct {
		name   string
		mutate func(*domain.TradeRequest)
		kind   error
	}{
		{"limit without entry", func(r *domain.TradeRequest) {
			r.OrderType = domain.Limit
			r.EntryPrice = decimal.Zero
		}, domain.ErrInvalidInput},
		{"zero stop loss", func(r *domain.TradeRequest) { r.StopLoss.Value = decimal.Zero }, domain.ErrInvalidInput},
		{"negative stop loss", func(r *domain.TradeRequest) { r.StopLoss.Value = decimal.NewFromInt(-1) }, domain.ErrInvalidInput},
		{"unknown side", func(r *domain.TradeRequest) { r.Side = "UP" }, domain.ErrInvalidInput},
		{"stop order as entry", func(r *domain.TradeRequest) { r.OrderType = domain.StopMarket }, domain.ErrInvalidInput},
		{"three targets", func(r *domain.TradeRequest) {
			r.TakeProfits = append(r.TakeProfits, domain.TakeProfit{Price: decimal.NewFromInt(30000), Percent: decimal.NewFromInt(10)})
		}, domain.ErrInvalidInput},
		{"target below long entry", func(r *domain.TradeRequest) {
			r.TakeProfits = domain.NewTakeProfits(decimal.NewFromInt(26000), decimal.NewFromInt(100), decimal.Zero)
		}, domain.ErrInvalidInput},
		{"priced target without percent", func(r *domain.TradeRequest) {
			r.TakeProfits = []domain.TakeProfit{
				{Price: decimal.NewFromInt(28000), Percent: decimal.Zero},
				{Price: decimal.NewFromInt(29000)},
			}
		}, domain.ErrInvalidInput},
		{"points stop beyond entry", func(r *domain.TradeRequest) {
			r.StopLoss = domain.StopLoss{Mode: domain.StopPoints, Value: decimal.NewFromInt(30000)}
		}, domain.ErrInvalidInput},
		{"quantity override x1.5", func(r *domain.TradeRequest) { r.Override.Quantity = &overQty }, domain.ErrRiskCeilingExceeded},
		{"leverage override above suggested", func(r *domain.TradeRequest) { r.Override.Leverage = &overLev }, domain.ErrRiskCeilingExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &exmock.Exchange{}
			f := newFixture(t, ex, fixedCapital())

			req := marketRequest()
			tt.mutate(&req)
			outcome, err := f.svc.PlaceTrade(context.Background(), req)

			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.True(t, errors.Is(err, tt.kind), err.Error())
			assert.Empty(t, ex.Calls, "거래소 호출이 없어야 함")

			stats, err := f.svc.GetDailyStats(context.Background(), "")
			require.NoError(t, err)
			assert.Zero(t, stats.Total)
		})
	}
}

func TestPlaceTrade_GovernanceLimits(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	f := newFixture(t, ex, fixedCapital())

	date := governance.DateOf(tradeDay)
	require.NoError(t, f.store.Increment(ctx, date, "BTCUSDT"))
	require.NoError(t, f.store.Increment(ctx, date, "BTCUSDT"))

	_, err := f.svc.PlaceTrade(ctx, marketRequest())
	assert.True(t, errors.Is(err, domain.ErrSymbolLimitExceeded))

	require.NoError(t, f.store.Increment(ctx, date, "ETHUSDT"))
	require.NoError(t, f.store.Increment(ctx, date, "SOLUSDT"))

	req := marketRequest()
	req.Symbol = "XRPUSDT"
	_, err = f.svc.PlaceTrade(ctx, req)
	assert.True(t, errors.Is(err, domain.ErrDailyLimitExceeded))
	assert.Empty(t, ex.Calls)
}

// expectReadyAccount는 원웨이 모드가 이미 설정된 계정과 심볼 정보를 흉내 냅니다
func expectReadyAccount(ex *exmock.Exchange) {
	ex.On("GetSymbols", mock.Anything).Return([]domain.SymbolRules{btcRules}, nil)
	ex.On("SetPositionMode", mock.Anything, false).
		Return(&exchange.APIError{StatusCode: 400, Code: exchange.CodePositionNoChange, Message: "No need to change position side."})
	ex.On("SetMarginMode", mock.Anything, "BTCUSDT", domain.Isolated).Return(nil)
	ex.On("SetLeverage", mock.Anything, "BTCUSDT", 100).Return(nil)
	ex.On("GetPositions", mock.Anything).Return([]domain.Position{}, nil)
}

func TestPlaceTrade_StopLossFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	expectReadyAccount(ex)
	ex.On("PlaceOrder", mock.Anything, exmock.OrderForLeg("en")).
		Return(&domain.OrderResponse{OrderID: 11, Symbol: "BTCUSDT", Status: "FILLED", AvgPrice: decimal.NewFromInt(27050)}, nil)
	ex.On("PlaceOrder", mock.Anything, exmock.OrderForLeg("sl")).
		Return(nil, &exchange.APIError{StatusCode: 400, Code: -2021, Message: "Order would immediately trigger."})
	ex.On("PlaceOrder", mock.Anything, exmock.OrderForLeg("tp1")).
		Return(&domain.OrderResponse{OrderID: 13, Symbol: "BTCUSDT", Status: "NEW"}, nil)
	ex.On("PlaceOrder", mock.Anything, exmock.OrderForLeg("tp2")).
		Return(&domain.OrderResponse{OrderID: 14, Symbol: "BTCUSDT", Status: "NEW"}, nil)

	f := newFixture(t, ex, fixedCapital())
	outcome, err := f.svc.PlaceTrade(ctx, marketRequest())
	require.NoError(t, err)
	require.NotNil(t, outcome.Record)

	rec := outcome.Record
	assert.Equal(t, domain.TradeOpen, rec.Status)
	assert.Equal(t, domain.LegPlaced, rec.LegStatus.Entry)
	assert.Equal(t, domain.LegFailed, rec.LegStatus.StopLoss)
	assert.Equal(t, domain.LegPlaced, rec.LegStatus.TP1)
	assert.Equal(t, domain.LegPlaced, rec.LegStatus.TP2)
	assert.Equal(t, domain.SeverityUnprotected, outcome.Severity)
	assert.False(t, rec.IsProtected())
	assert.Equal(t, "0.528", rec.Quantity.String())
	assert.Equal(t, 100, rec.Leverage)
	assert.Equal(t, "2024-05-01", rec.Date)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, errors.Is(outcome.Errors[0], domain.ErrProtectiveLegFailed))

	stats, err := f.svc.GetDailyStats(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.PerSymbol["BTCUSDT"])

	log, err := f.svc.TradeLog(ctx, "")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, rec.ID, log[0].ID)
	assert.Equal(t, domain.LegFailed, log[0].LegStatus.StopLoss)

	require.Len(t, f.notifier.trades, 1)
	assert.Equal(t, domain.SeverityUnprotected, f.notifier.trades[0].Severity)
}

func TestPlaceTrade_EntryFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	expectReadyAccount(ex)
	ex.On("PlaceOrder", mock.Anything, exmock.OrderForLeg("en")).
		Return(nil, &exchange.APIError{StatusCode: 400, Code: -2019, Message: "Margin is insufficient."})

	f := newFixture(t, ex, fixedCapital())
	outcome, err := f.svc.PlaceTrade(ctx, marketRequest())
	require.NoError(t, err)

	assert.Nil(t, outcome.Record)
	assert.Equal(t, domain.SeverityFailed, outcome.Severity)
	assert.Equal(t, domain.LegFailed, outcome.LegStatus.Entry)
	assert.Equal(t, domain.LegSkipped, outcome.LegStatus.StopLoss)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, errors.Is(outcome.Errors[0], domain.ErrEntrySubmissionFailed))

	stats, err := f.svc.GetDailyStats(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	log, err := f.svc.TradeLog(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, log)
	assert.Empty(t, f.notifier.trades)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestPlaceTrade_QuantityTooSmall(t *testing.T) {
	rules := btcRules
	rules.MinNotional = decimal.NewFromInt(1000)
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return([]domain.SymbolRules{rules}, nil)

	// 자본 100 → 0.005 BTC, 명목가 135.25
	f := newFixture(t, ex, Config{TotalCapital: decimal.NewFromInt(100), RequestTimeout: time.Second})
	_, err := f.svc.PlaceTrade(context.Background(), marketRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuantityTooSmall))
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestPlaceTrade_TakeProfitRoundsToZero(t *testing.T) {
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return([]domain.SymbolRules{btcRules}, nil)

	// 0.528 × 0.1% = 0.000528 → 0.001 단위 내림 0
	req := marketRequest()
	req.TakeProfits = domain.NewTakeProfits(
		decimal.NewFromInt(28000), decimal.RequireFromString("0.1"), decimal.NewFromInt(29000),
	)

	f := newFixture(t, ex, fixedCapital())
	outcome, err := f.svc.PlaceTrade(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, domain.ErrQuantityTooSmall), err.Error())
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	ex.AssertNotCalled(t, "SetLeverage", mock.Anything, mock.Anything, mock.Anything)

	stats, err := f.svc.GetDailyStats(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestPlaceTrade_PaperExchange(t *testing.T) {
	ctx := context.Background()
	ex := paper.New(decimal.NewFromInt(10000))
	ex.AddSymbol(btcRules, decimal.NewFromInt(27050))

	f := newFixture(t, ex, Config{RequestTimeout: 5 * time.Second})

	req := marketRequest()
	req.EntryPrice = decimal.Zero // 현재가 사용
	outcome, err := f.svc.PlaceTrade(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, outcome.Record)

	assert.Equal(t, domain.SeverityOK, outcome.Severity)
	assert.Equal(t, domain.LegStatus{
		Entry: domain.LegPlaced, StopLoss: domain.LegPlaced, TP1: domain.LegPlaced, TP2: domain.LegPlaced,
	}, outcome.LegStatus)
	assert.Equal(t, []string{
		"PENDING", "ENTRY_SUBMITTED", "ENTRY_ACCEPTED",
		"SL_ATTEMPTED", "TP1_ATTEMPTED", "TP2_ATTEMPTED", "DONE",
	}, outcome.Trace)

	rec := outcome.Record
	assert.True(t, rec.EntryPrice.Equal(decimal.NewFromInt(27050)))
	assert.Equal(t, "0.528", rec.Quantity.String())
	require.NotNil(t, rec.StopLossPrice)
	assert.Equal(t, "26914.8", rec.StopLossPrice.String())
	require.NotNil(t, rec.TakeProfit1)
	assert.Equal(t, "0.264", rec.TakeProfit1.Quantity.String())
	assert.Len(t, rec.OrderIDs, 4)
	assert.True(t, outcome.Sizing.RiskAmount.Equal(decimal.NewFromInt(100)))

	orders := ex.Orders()
	require.Len(t, orders, 4)
	assert.Equal(t, domain.Market, orders[0].Type)
	assert.Equal(t, domain.StopMarket, orders[1].Type)
	assert.Equal(t, domain.TakeProfitMarket, orders[2].Type)
	assert.Equal(t, domain.TakeProfitMarket, orders[3].Type)

	stats, err := f.svc.GetDailyStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}
