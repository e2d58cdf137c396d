package trading

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// SymbolSource는 심볼 양자화 규칙을 제공합니다
type SymbolSource interface {
	Rules(ctx context.Context, symbol string) (domain.SymbolRules, error)
}

// MarketData는 현재가와 미사용 자본을 제공합니다
type MarketData interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	UnutilizedCapital(ctx context.Context) (decimal.Decimal, error)
	Invalidate(symbol string)
}

// Config는 서비스 설정입니다
type Config struct {
	// 0보다 크면 거래소 잔고 대신 기준 자본으로 사용
	TotalCapital   decimal.Decimal
	RequestTimeout time.Duration
}

// DefaultConfig는 기본 서비스 설정을 반환합니다
func DefaultConfig() Config {
	return Config{
		TotalCapital:   decimal.Zero,
		RequestTimeout: 15 * time.Second,
	}
}
