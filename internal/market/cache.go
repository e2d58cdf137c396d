package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

type priceEntry struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// DataCache는 마크 가격과 계정 잔고를 짧은 TTL로 캐시합니다
// 동시에 갱신되면 마지막 쓰기가 남습니다
type DataCache struct {
	exchange   exchange.Exchange
	priceTTL   time.Duration
	balanceTTL time.Duration
	retry      RetryConfig
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.RWMutex
	prices  map[string]priceEntry
	account *domain.AccountSnapshot
}

// NewDataCache는 새로운 DataCache를 생성합니다
func NewDataCache(ex exchange.Exchange, priceTTL, balanceTTL time.Duration, logger *zap.Logger) *DataCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if priceTTL <= 0 {
		priceTTL = 5 * time.Second
	}
	if balanceTTL <= 0 {
		balanceTTL = 15 * time.Second
	}
	return &DataCache{
		exchange:   ex,
		priceTTL:   priceTTL,
		balanceTTL: balanceTTL,
		retry:      DefaultRetryConfig(),
		logger:     logger.Named("cache"),
		now:        time.Now,
		prices:     make(map[string]priceEntry),
	}
}

// Price는 심볼의 마크 가격을 반환합니다
func (c *DataCache) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	c.mu.RLock()
	entry, ok := c.prices[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.priceTTL {
		return entry.price, nil
	}

	var price decimal.Decimal
	err := withRetry(ctx, c.logger, c.retry, "가격 조회", func() error {
		var err error
		price, err = c.exchange.GetMarkPrice(ctx, symbol)
		return err
	})
	if err != nil {
		return decimal.Zero, domain.NewTradeError(domain.KindMarketDataUnavailable, symbol, "mark_price", err)
	}
	if !price.IsPositive() {
		return decimal.Zero, domain.Invalidf(symbol, "mark_price", "유효하지 않은 가격: %s", price)
	}

	c.mu.Lock()
	c.prices[symbol] = priceEntry{price: price, fetchedAt: c.now()}
	c.mu.Unlock()
	return price, nil
}

// Balance는 계정 잔고 스냅샷을 반환합니다
func (c *DataCache) Balance(ctx context.Context) (*domain.AccountSnapshot, error) {
	c.mu.RLock()
	acct := c.account
	c.mu.RUnlock()
	if acct != nil && c.now().Sub(acct.FetchedAt) < c.balanceTTL {
		snap := *acct
		return &snap, nil
	}

	var fetched *domain.AccountSnapshot
	err := withRetry(ctx, c.logger, c.retry, "잔고 조회", func() error {
		var err error
		fetched, err = c.exchange.GetAccount(ctx)
		return err
	})
	if err != nil {
		return nil, domain.NewTradeError(domain.KindMarketDataUnavailable, "", "account_balance", err)
	}

	snap := *fetched
	snap.FetchedAt = c.now()

	c.mu.Lock()
	c.account = &snap
	c.mu.Unlock()

	c.logger.Debug("잔고 갱신",
		zap.String("total", snap.TotalBalance.String()),
		zap.String("usedMargin", snap.UsedMargin.String()),
	)
	out := snap
	return &out, nil
}

// UnutilizedCapital은 총 잔고에서 사용 중인 증거금을 뺀 금액을 반환합니다
func (c *DataCache) UnutilizedCapital(ctx context.Context) (decimal.Decimal, error) {
	acct, err := c.Balance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Unutilized(), nil
}

// Invalidate는 거래 후 심볼 가격과 잔고 캐시를 비웁니다
func (c *DataCache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if symbol != "" {
		delete(c.prices, symbol)
	}
	c.account = nil
}
