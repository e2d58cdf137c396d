package domain

// Side는 트레이더가 요청한 포지션 방향을 정의합니다
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// IsValid는 정의된 방향인지 확인합니다
func (s Side) IsValid() bool {
	return s == Long || s == Short
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionSide는 거래소 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
	BothPosition  PositionSide = "BOTH" // 원웨이 모드
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market           OrderType = "MARKET"
	Limit            OrderType = "LIMIT"
	StopMarket       OrderType = "STOP_MARKET"
	TakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// IsEntryType은 진입 주문으로 허용되는 유형인지 확인합니다
func (t OrderType) IsEntryType() bool {
	return t == Market || t == Limit
}

// MarginMode는 마진 모드를 정의합니다
type MarginMode string

const (
	Isolated MarginMode = "ISOLATED"
	Cross    MarginMode = "CROSSED"
)

// IsValid는 정의된 마진 모드인지 확인합니다
func (m MarginMode) IsValid() bool {
	return m == Isolated || m == Cross
}

// StopLossMode는 손절 거리 표현 방식을 정의합니다
type StopLossMode string

const (
	StopPoints  StopLossMode = "POINTS"  // 가격 단위 절대 거리
	StopPercent StopLossMode = "PERCENT" // 진입가 대비 퍼센트
)

// IsValid는 정의된 손절 모드인지 확인합니다
func (m StopLossMode) IsValid() bool {
	return m == StopPoints || m == StopPercent
}

// LegState는 주문 레그의 처리 결과를 정의합니다
type LegState string

const (
	LegPlaced  LegState = "PLACED"
	LegFailed  LegState = "FAILED"
	LegSkipped LegState = "SKIPPED"
)

// TradeStatus는 거래 기록의 생명주기 상태를 정의합니다
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// DateLayout은 거버넌스와 거래 로그의 UTC 날짜 키 형식입니다
const DateLayout = "2006-01-02"
