package position

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// State는 주문 시퀀서의 진행 단계입니다
type State string

const (
	StatePending        State = "PENDING"
	StateEntrySubmitted State = "ENTRY_SUBMITTED"
	StateEntryFailed    State = "ENTRY_FAILED"
	StateEntryAccepted  State = "ENTRY_ACCEPTED"
	StateSLAttempted    State = "SL_ATTEMPTED"
	StateTP1Attempted   State = "TP1_ATTEMPTED"
	StateTP2Attempted   State = "TP2_ATTEMPTED"
	StateDone           State = "DONE"
)

// Plan은 검증과 양자화를 마친 주문 계획입니다
type Plan struct {
	Symbol      string
	Side        domain.Side
	OrderType   domain.OrderType
	EntryPrice  decimal.Decimal // LIMIT 주문가 (양자화됨), MARKET에서는 체결 기준가 대체값
	Quantity    decimal.Decimal // 양자화된 수량
	Leverage    int
	MarginMode  domain.MarginMode
	StopPercent decimal.Decimal // 버퍼를 제외한 손절 거리 (%)
	TakeProfits []domain.TakeProfit
	Rules       domain.SymbolRules
}

// Result는 시퀀서 실행 결과입니다. 저장되는 상태는 없습니다
type Result struct {
	State         State
	Trace         []string
	Legs          domain.LegStatus
	Entry         *domain.OrderResponse
	FillPrice     decimal.Decimal // 체결 기준가
	StopLossPrice *decimal.Decimal
	TakeProfit1   *domain.TargetLeg
	TakeProfit2   *domain.TargetLeg
	OrderIDs      map[string]int64 // key: "entry", "sl", "tp1", "tp2"
	Errors        []*domain.TradeError

	// 진입 결과를 알 수 없을 때 한 번 조회한 포지션 존재 여부
	Indeterminate   bool
	PositionVisible bool
}

// EntryAccepted는 진입 주문이 거래소에 수락되었는지 확인합니다
func (r *Result) EntryAccepted() bool {
	return r.Legs.Entry == domain.LegPlaced
}

// Severity는 결과의 심각도를 계산합니다
func (r *Result) Severity() domain.Severity {
	if !r.EntryAccepted() {
		return domain.SeverityFailed
	}
	worst := domain.SeverityOK
	for _, err := range r.Errors {
		if err.Severity.Rank() > worst.Rank() {
			worst = err.Severity
		}
	}
	return worst
}

// Manager는 주문 계획을 거래소에 제출하는 인터페이스입니다
type Manager interface {
	// Execute는 사전 설정, 진입, 손절, 익절 순서로 주문을 제출합니다
	Execute(ctx context.Context, plan *Plan) *Result
}
