package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StopLoss는 요청된 손절 사양입니다
type StopLoss struct {
	Mode  StopLossMode
	Value decimal.Decimal
}

// TakeProfit은 익절 레그 사양입니다
type TakeProfit struct {
	Price   decimal.Decimal
	Percent decimal.Decimal // 포지션 대비 청산 비율 (0, 100]
}

// NewTakeProfits는 폼 입력을 익절 레그로 정규화합니다
// TP2 비율은 항상 100 - TP1 비율입니다
func NewTakeProfits(tp1Price, tp1Percent, tp2Price decimal.Decimal) []TakeProfit {
	hundred := decimal.NewFromInt(100)
	if !tp1Price.IsPositive() || !tp1Percent.IsPositive() {
		tp1Price, tp1Percent = decimal.Zero, decimal.Zero
	}
	remaining := hundred.Sub(tp1Percent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	tps := []TakeProfit{{Price: tp1Price, Percent: tp1Percent}}
	if tp2Price.IsPositive() && remaining.IsPositive() {
		tps = append(tps, TakeProfit{Price: tp2Price, Percent: remaining})
	}
	if !tp1Price.IsPositive() && len(tps) == 1 {
		return nil
	}
	return tps
}

// Override는 사용자가 직접 지정한 수량/레버리지입니다 (nil이면 제안값 사용)
type Override struct {
	Quantity *decimal.Decimal
	Leverage *int
}

// TradeRequest는 호출자가 전달하는 정규화된 거래 요청입니다
type TradeRequest struct {
	Symbol      string
	Side        Side
	OrderType   OrderType
	EntryPrice  decimal.Decimal // LIMIT 필수, MARKET에서는 참고값 (0이면 현재가 사용)
	StopLoss    StopLoss
	TakeProfits []TakeProfit // [0]=TP1, [1]=TP2, 가격 0은 미지정
	Override    Override
	MarginMode  MarginMode
}

// SizingResult는 리스크 기반 포지션 계산 결과입니다. 독립적으로 저장되지 않습니다
type SizingResult struct {
	CapitalBase           decimal.Decimal // 계산 기준 자본
	RiskAmount            decimal.Decimal // 리스크 금액 (통화 단위)
	DistancePercent       decimal.Decimal // 버퍼 포함 손절 거리 (%)
	StopPercent           decimal.Decimal // 버퍼 미포함 손절 거리 (%), 손절 주문 가격에 사용
	EffectiveStopDistance decimal.Decimal // 버퍼 포함 손절 거리 (가격 단위)
	SuggestedQuantity     decimal.Decimal // 제안 수량 (기초자산 단위)
	SuggestedLeverage     decimal.Decimal // 0.5 단위로 올림한 제안 레버리지
	WireLeverage          int             // 거래소에 전송되는 정수 레버리지
	Notional              decimal.Decimal // 제안 수량 × 진입가
}

// IsZero는 모든 수치 필드가 0인지 확인합니다
func (s SizingResult) IsZero() bool {
	return s.CapitalBase.IsZero() &&
		s.RiskAmount.IsZero() &&
		s.DistancePercent.IsZero() &&
		s.StopPercent.IsZero() &&
		s.EffectiveStopDistance.IsZero() &&
		s.SuggestedQuantity.IsZero() &&
		s.SuggestedLeverage.IsZero() &&
		s.WireLeverage == 0 &&
		s.Notional.IsZero()
}

// LegStatus는 주문 레그별 결과입니다
type LegStatus struct {
	Entry    LegState `json:"entry"`
	StopLoss LegState `json:"stopLoss"`
	TP1      LegState `json:"tp1"`
	TP2      LegState `json:"tp2"`
}

// NewLegStatus는 모든 레그가 SKIPPED인 상태를 생성합니다
func NewLegStatus() LegStatus {
	return LegStatus{
		Entry:    LegSkipped,
		StopLoss: LegSkipped,
		TP1:      LegSkipped,
		TP2:      LegSkipped,
	}
}

// TargetLeg는 확정된 익절 레그입니다
type TargetLeg struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// TradeRecord는 진입이 수락된 거래의 기록입니다
type TradeRecord struct {
	ID            string           `json:"id"`
	Timestamp     time.Time        `json:"timestamp"`
	Date          string           `json:"date"`
	Symbol        string           `json:"symbol"`
	Side          Side             `json:"side"`
	OrderType     OrderType        `json:"orderType"`
	MarginMode    MarginMode       `json:"marginMode"`
	EntryPrice    decimal.Decimal  `json:"entryPrice"` // 체결 기준가
	Quantity      decimal.Decimal  `json:"quantity"`
	Leverage      int              `json:"leverage"`
	StopLossMode  StopLossMode     `json:"stopLossMode"`
	StopLossValue decimal.Decimal  `json:"stopLossValue"`
	StopLossPrice *decimal.Decimal `json:"stopLossPrice,omitempty"`
	TakeProfit1   *TargetLeg       `json:"takeProfit1,omitempty"`
	TakeProfit2   *TargetLeg       `json:"takeProfit2,omitempty"`
	LegStatus     LegStatus        `json:"legStatus"`
	OrderIDs      map[string]int64 `json:"orderIds"`
	RiskAmount    decimal.Decimal  `json:"riskAmount"`
	Notional      decimal.Decimal  `json:"notional"`
	Status        TradeStatus      `json:"status"`
}

// IsProtected는 손절 주문이 걸려 있는지 확인합니다
func (r *TradeRecord) IsProtected() bool {
	return r.LegStatus.StopLoss == LegPlaced
}

// GovernanceState는 특정 UTC 날짜의 거래 횟수 스냅샷입니다
type GovernanceState struct {
	Date      string         `json:"date"`
	Total     int            `json:"total"`
	PerSymbol map[string]int `json:"perSymbol"`
}

// TradeOutcome은 PlaceTrade의 결과입니다
// Record는 진입이 수락된 경우에만 존재합니다
type TradeOutcome struct {
	Record    *TradeRecord
	LegStatus LegStatus
	Sizing    SizingResult
	Severity  Severity
	Errors    []*TradeError
	Trace     []string
}

// Degraded는 진입은 성공했지만 보호 레그 중 일부가 실패했는지 확인합니다
func (o *TradeOutcome) Degraded() bool {
	return o.Record != nil && len(o.Errors) > 0
}
