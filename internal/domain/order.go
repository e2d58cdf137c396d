package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest는 거래소에 제출하는 주문 요청입니다
type OrderRequest struct {
	Symbol        string          // 심볼 (예: BTCUSDT)
	Side          OrderSide       // 매수/매도
	PositionSide  PositionSide    // 원웨이 모드에서는 BOTH
	Type          OrderType       // 주문 유형
	Quantity      decimal.Decimal // 수량
	Price         decimal.Decimal // 지정가 (LIMIT)
	StopPrice     decimal.Decimal // 트리거 가격 (STOP_MARKET, TAKE_PROFIT_MARKET)
	TimeInForce   string          // GTC, IOC 등
	ReduceOnly    bool            // 포지션 축소 전용
	ClosePosition bool            // 전체 포지션 청산
	ClientOrderID string          // 클라이언트 측 주문 ID
}

// OrderResponse는 주문 응답입니다
type OrderResponse struct {
	OrderID          int64
	Symbol           string
	Status           string
	ClientOrderID    string
	Price            decimal.Decimal
	AvgPrice         decimal.Decimal // 평균 체결 가격 (미체결 시 0)
	OrigQuantity     decimal.Decimal
	ExecutedQuantity decimal.Decimal
	Side             OrderSide
	PositionSide     PositionSide
	Type             OrderType
	CreateTime       time.Time
}

// Position은 거래소에 열려 있는 포지션 정보입니다
type Position struct {
	Symbol        string
	PositionSide  PositionSide
	Quantity      decimal.Decimal // 양수: 롱, 음수: 숏
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	Leverage      int
	UnrealizedPnL decimal.Decimal
}

// SymbolRules는 심볼별 수량/가격 양자화 규칙입니다
type SymbolRules struct {
	Symbol       string
	QuantityStep decimal.Decimal // LOT_SIZE stepSize
	PriceTick    decimal.Decimal // PRICE_FILTER tickSize
	MinNotional  decimal.Decimal // MIN_NOTIONAL notional
	Tradable     bool            // status == TRADING
}

// IsUsable는 주문에 사용할 수 있는 규칙인지 확인합니다
func (r SymbolRules) IsUsable() bool {
	return r.Tradable && r.QuantityStep.IsPositive() && r.PriceTick.IsPositive()
}
