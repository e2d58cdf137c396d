// internal/exchange/exchange.go
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// Exchange는 거래소 커넥터가 제공해야 하는 기능을 정의합니다
type Exchange interface {
	// 시장 데이터 조회
	GetSymbols(ctx context.Context) ([]domain.SymbolRules, error)
	GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error)
	GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// 계정 데이터 조회
	GetAccount(ctx context.Context) (*domain.AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)

	// 설정 기능
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginMode(ctx context.Context, symbol string, mode domain.MarginMode) error
	SetPositionMode(ctx context.Context, hedgeMode bool) error

	// SyncTime은 서명 요청에 사용할 서버 시간 오프셋을 맞춥니다
	SyncTime(ctx context.Context) error
}
