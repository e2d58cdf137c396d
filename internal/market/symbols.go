package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// SymbolProvider는 거래소 심볼 규칙을 TTL 동안 캐시합니다
// 수량 단위나 가격 단위가 0 이하인 심볼은 캐시하지 않습니다
type SymbolProvider struct {
	exchange exchange.Exchange
	ttl      time.Duration
	retry    RetryConfig
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	rules     map[string]domain.SymbolRules
	fetchedAt time.Time
}

// NewSymbolProvider는 새로운 SymbolProvider를 생성합니다
func NewSymbolProvider(ex exchange.Exchange, ttl time.Duration, logger *zap.Logger) *SymbolProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SymbolProvider{
		exchange: ex,
		ttl:      ttl,
		retry:    DefaultRetryConfig(),
		logger:   logger.Named("symbols"),
		now:      time.Now,
		rules:    make(map[string]domain.SymbolRules),
	}
}

// Refresh는 거래소에서 심볼 규칙을 다시 읽어 캐시를 교체합니다
func (p *SymbolProvider) Refresh(ctx context.Context) error {
	var all []domain.SymbolRules
	err := withRetry(ctx, p.logger, p.retry, "심볼 정보 조회", func() error {
		var err error
		all, err = p.exchange.GetSymbols(ctx)
		return err
	})
	if err != nil {
		return domain.NewTradeError(domain.KindMarketDataUnavailable, "", "refresh_symbols", err)
	}

	fresh := make(map[string]domain.SymbolRules, len(all))
	skipped := 0
	for _, r := range all {
		if !r.IsUsable() {
			skipped++
			continue
		}
		fresh[r.Symbol] = r
	}

	p.mu.Lock()
	p.rules = fresh
	p.fetchedAt = p.now()
	p.mu.Unlock()

	p.logger.Info("심볼 정보 갱신",
		zap.Int("tradable", len(fresh)),
		zap.Int("skipped", skipped),
	)
	return nil
}

// ensureFresh는 캐시가 만료되었으면 갱신합니다
// 갱신에 실패해도 이전 캐시가 있으면 그대로 사용합니다
func (p *SymbolProvider) ensureFresh(ctx context.Context) error {
	p.mu.RLock()
	fresh := !p.fetchedAt.IsZero() && p.now().Sub(p.fetchedAt) < p.ttl
	hasCache := !p.fetchedAt.IsZero()
	p.mu.RUnlock()

	if fresh {
		return nil
	}
	if err := p.Refresh(ctx); err != nil {
		if hasCache {
			p.logger.Warn("심볼 정보 갱신 실패, 이전 캐시 사용", zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// Rules는 심볼의 거래 규칙을 반환합니다
func (p *SymbolProvider) Rules(ctx context.Context, symbol string) (domain.SymbolRules, error) {
	if err := p.ensureFresh(ctx); err != nil {
		return domain.SymbolRules{}, err
	}

	p.mu.RLock()
	r, ok := p.rules[symbol]
	p.mu.RUnlock()
	if !ok {
		return domain.SymbolRules{}, domain.NewTradeError(domain.KindInvalidInput, symbol, "symbol_rules",
			fmt.Errorf("거래할 수 없는 심볼입니다: %s", symbol))
	}
	return r, nil
}

// TradableSymbols는 거래 가능한 심볼 목록을 정렬해 반환합니다
func (p *SymbolProvider) TradableSymbols(ctx context.Context) ([]string, error) {
	if err := p.ensureFresh(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	out := make([]string, 0, len(p.rules))
	for s := range p.rules {
		out = append(out, s)
	}
	p.mu.RUnlock()

	sort.Strings(out)
	return out, nil
}
