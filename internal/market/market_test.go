package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
	exmock "github.com/salonikashyap7899/RISK-MANAGER/internal/exchange/mock"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func noRetry() RetryConfig { return RetryConfig{} }

var symbols = []domain.SymbolRules{
	{Symbol: "ETHUSDT", QuantityStep: decimal.RequireFromString("0.001"), PriceTick: decimal.RequireFromString("0.01"), Tradable: true},
	{Symbol: "BTCUSDT", QuantityStep: decimal.RequireFromString("0.001"), PriceTick: decimal.RequireFromString("0.1"), Tradable: true},
	{Symbol: "BADUSDT", QuantityStep: decimal.Zero, PriceTick: decimal.RequireFromString("0.1"), Tradable: true},
	{Symbol: "OLDUSDT", QuantityStep: decimal.RequireFromString("1"), PriceTick: decimal.RequireFromString("0.1"), Tradable: false},
}

func TestSymbolProvider_CachesForTTL(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return(symbols, nil)

	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	p := NewSymbolProvider(ex, time.Hour, nil)
	p.now = clock.now

	r, err := p.Rules(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, r.PriceTick.Equal(decimal.RequireFromString("0.1")))

	clock.advance(30 * time.Minute)
	_, err = p.Rules(ctx, "ETHUSDT")
	require.NoError(t, err)
	ex.AssertNumberOfCalls(t, "GetSymbols", 1)

	clock.advance(31 * time.Minute)
	list, err := p.TradableSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, list)
	ex.AssertNumberOfCalls(t, "GetSymbols", 2)
}

func TestSymbolProvider_RejectsUnusableSymbols(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return(symbols, nil)
	p := NewSymbolProvider(ex, time.Hour, nil)

	for _, sym := range []string{"BADUSDT", "OLDUSDT", "NOPEUSDT"} {
		_, err := p.Rules(ctx, sym)
		require.Error(t, err, sym)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), sym)
	}
}

func TestSymbolProvider_UnavailableWithoutCache(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
	p := NewSymbolProvider(ex, time.Hour, nil)
	p.retry = noRetry()

	_, err := p.Rules(ctx, "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMarketDataUnavailable))
}

func TestSymbolProvider_ServesStaleCacheOnRefreshFailure(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetSymbols", mock.Anything).Return(symbols, nil).Once()
	ex.On("GetSymbols", mock.Anything).Return(nil, errors.New("boom"))

	clock := &fakeClock{t: time.Now()}
	p := NewSymbolProvider(ex, time.Hour, nil)
	p.now = clock.now
	p.retry = noRetry()

	require.NoError(t, p.Refresh(ctx))
	clock.advance(2 * time.Hour)

	_, err := p.Rules(ctx, "BTCUSDT")
	assert.NoError(t, err)
}

func TestDataCache_PriceTTL(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetMarkPrice", mock.Anything, "BTCUSDT").Return(decimal.NewFromInt(27050), nil).Once()
	ex.On("GetMarkPrice", mock.Anything, "BTCUSDT").Return(decimal.NewFromInt(27100), nil).Once()

	clock := &fakeClock{t: time.Now()}
	c := NewDataCache(ex, 5*time.Second, 15*time.Second, nil)
	c.now = clock.now

	p, err := c.Price(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(27050)))

	clock.advance(4 * time.Second)
	p, err = c.Price(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(27050)))

	clock.advance(2 * time.Second)
	p, err = c.Price(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(27100)))
	ex.AssertNumberOfCalls(t, "GetMarkPrice", 2)
}

func TestDataCache_BalanceAndInvalidate(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetAccount", mock.Anything).Return(&domain.AccountSnapshot{
		Asset:        "USDT",
		TotalBalance: decimal.NewFromInt(10000),
		UsedMargin:   decimal.NewFromInt(2500),
	}, nil)

	c := NewDataCache(ex, 0, 0, nil)

	capital, err := c.UnutilizedCapital(ctx)
	require.NoError(t, err)
	assert.True(t, capital.Equal(decimal.NewFromInt(7500)))

	_, err = c.Balance(ctx)
	require.NoError(t, err)
	ex.AssertNumberOfCalls(t, "GetAccount", 1)

	c.Invalidate("BTCUSDT")
	_, err = c.Balance(ctx)
	require.NoError(t, err)
	ex.AssertNumberOfCalls(t, "GetAccount", 2)
}

func TestDataCache_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	ex := &exmock.Exchange{}
	ex.On("GetMarkPrice", mock.Anything, "ETHUSDT").
		Return(decimal.Zero, &exchange.APIError{StatusCode: 503, Code: -1001, Message: "Internal error"}).Once()
	ex.On("GetMarkPrice", mock.Anything, "ETHUSDT").Return(decimal.NewFromInt(1650), nil).Once()

	c := NewDataCache(ex, time.Second, time.Second, nil)
	c.retry = RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1}

	p, err := c.Price(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(1650)))
}

func TestDataCache_PriceUnavailable(t *testing.T) {
	ex := &exmock.Exchange{}
	ex.On("GetMarkPrice", mock.Anything, "BTCUSDT").
		Return(decimal.Zero, &exchange.APIError{StatusCode: 400, Code: -1121, Message: "Invalid symbol."})

	c := NewDataCache(ex, time.Second, time.Second, nil)
	_, err := c.Price(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMarketDataUnavailable))
	// 재시도 불가 오류는 한 번만 호출
	ex.AssertNumberOfCalls(t, "GetMarkPrice", 1)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&exchange.APIError{StatusCode: 429, Code: -1003}))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(&exchange.APIError{StatusCode: 400, Code: -1121}))
	assert.False(t, IsRetryableError(nil))
}
