package position

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// Sequencer는 진입, 손절, 익절 주문을 고정된 순서로 제출합니다
// 이미 제출된 레그는 되돌리지 않으며 레그별 실패를 결과에 기록합니다
type Sequencer struct {
	exchange exchange.Exchange
	logger   *zap.Logger
}

var _ Manager = (*Sequencer)(nil)

// NewSequencer는 새로운 주문 시퀀서를 생성합니다
func NewSequencer(ex exchange.Exchange, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		exchange: ex,
		logger:   logger.Named("sequencer"),
	}
}

func (r *Result) enter(state State) {
	r.State = state
	r.Trace = append(r.Trace, string(state))
}

func (r *Result) fail(err *domain.TradeError) {
	r.Errors = append(r.Errors, err)
}

// Execute는 주문 계획을 실행합니다
func (s *Sequencer) Execute(ctx context.Context, plan *Plan) *Result {
	res := &Result{
		Legs:     domain.NewLegStatus(),
		OrderIDs: make(map[string]int64),
	}
	res.enter(StatePending)

	log := s.logger.With(
		zap.String("symbol", plan.Symbol),
		zap.String("side", string(plan.Side)),
		zap.String("quantity", plan.Quantity.String()),
		zap.Int("leverage", plan.Leverage),
	)

	// 1. 사전 설정
	if err := s.prepare(ctx, plan); err != nil {
		log.Warn("사전 설정 실패", zap.Error(err))
		res.fail(err)
		res.Legs.Entry = domain.LegFailed
		res.enter(StateEntryFailed)
		return res
	}

	// 2. 진입
	// 결과를 알 수 없는 진입을 판별하기 위해 제출 전 포지션을 기록합니다
	baseline := s.positionBefore(ctx, plan, log)
	res.enter(StateEntrySubmitted)
	if !s.submitEntry(ctx, plan, baseline, res, log) {
		res.enter(StateEntryFailed)
		return res
	}
	res.enter(StateEntryAccepted)

	// 포지션이 열린 뒤에는 호출자가 취소해도 보호 주문을 끝까지 제출합니다
	ctx = context.WithoutCancel(ctx)

	// 3. 손절 (필수)
	s.placeStopLoss(ctx, plan, res, log)
	res.enter(StateSLAttempted)

	// 4. 익절
	tp1, tp2 := SplitTakeProfits(plan.Rules, plan.Quantity, plan.TakeProfits)
	res.TakeProfit1, res.TakeProfit2 = tp1, tp2

	res.Legs.TP1 = s.placeTakeProfit(ctx, plan, res, "tp1", tp1, log)
	res.enter(StateTP1Attempted)
	res.Legs.TP2 = s.placeTakeProfit(ctx, plan, res, "tp2", tp2, log)
	res.enter(StateTP2Attempted)

	res.enter(StateDone)
	log.Info("주문 시퀀스 완료",
		zap.String("entry", string(res.Legs.Entry)),
		zap.String("stopLoss", string(res.Legs.StopLoss)),
		zap.String("tp1", string(res.Legs.TP1)),
		zap.String("tp2", string(res.Legs.TP2)),
	)
	return res
}

func (s *Sequencer) prepare(ctx context.Context, plan *Plan) *domain.TradeError {
	steps := []func() error{
		func() error { return EnsurePositionMode(ctx, s.exchange, plan.Symbol) },
		func() error { return EnsureMarginMode(ctx, s.exchange, plan.Symbol, plan.MarginMode) },
		func() error { return EnsureLeverage(ctx, s.exchange, plan.Symbol, plan.Leverage) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			var te *domain.TradeError
			if errors.As(err, &te) {
				return te
			}
			return domain.NewTradeError(domain.KindPreconditionFailed, plan.Symbol, "prepare", err)
		}
	}
	return nil
}

// submitEntry는 진입 주문을 제출하고 수락 여부를 반환합니다
func (s *Sequencer) submitEntry(ctx context.Context, plan *Plan, baseline *domain.Position, res *Result, log *zap.Logger) bool {
	order := domain.OrderRequest{
		Symbol:        plan.Symbol,
		Side:          GetOrderSideForEntry(plan.Side),
		PositionSide:  domain.BothPosition,
		Type:          plan.OrderType,
		Quantity:      plan.Quantity,
		ClientOrderID: newClientOrderID("en"),
	}
	if plan.OrderType == domain.Limit {
		order.Price = plan.EntryPrice
		order.TimeInForce = "GTC"
	}

	resp, err := s.exchange.PlaceOrder(ctx, order)
	if err == nil {
		res.Entry = resp
		res.Legs.Entry = domain.LegPlaced
		res.OrderIDs["entry"] = resp.OrderID
		res.FillPrice = s.fillReference(ctx, plan, resp.AvgPrice)
		log.Info("진입 주문 수락",
			zap.Int64("orderId", resp.OrderID),
			zap.String("status", resp.Status),
			zap.String("fillRef", res.FillPrice.String()),
		)
		return true
	}

	if exchange.IsIndeterminate(err) {
		return s.reconcile(ctx, plan, baseline, res, err, log)
	}

	kind := domain.KindEntrySubmissionFailed
	if exchange.IsFilterViolation(err) {
		kind = domain.KindFilterViolation
	}
	log.Error("진입 주문 실패", zap.Error(err))
	res.Legs.Entry = domain.LegFailed
	res.fail(domain.NewTradeError(kind, plan.Symbol, "place_entry_order", err))
	return false
}

// positionBefore는 진입 전 심볼의 포지션을 반환합니다. 포지션이 없으면 수량 0을 반환합니다
// 조회에 실패하면 nil을 반환하며 진입은 계속 진행합니다
func (s *Sequencer) positionBefore(ctx context.Context, plan *Plan, log *zap.Logger) *domain.Position {
	positions, err := s.exchange.GetPositions(ctx)
	if err != nil {
		log.Warn("진입 전 포지션 조회 실패", zap.Error(err))
		return nil
	}
	if pos := FindPosition(positions, plan.Symbol); pos != nil {
		return pos
	}
	return &domain.Position{Symbol: plan.Symbol}
}

// reconcile은 결과를 알 수 없는 진입 후 포지션을 한 번 조회합니다. 재시도하지 않습니다
// 진입 방향으로 포지션이 주문 수량만큼 늘어난 경우에만 진입이 수락된 것으로 봅니다
func (s *Sequencer) reconcile(ctx context.Context, plan *Plan, baseline *domain.Position, res *Result, cause error, log *zap.Logger) bool {
	res.Indeterminate = true
	te := domain.NewTradeError(domain.KindIndeterminate, plan.Symbol, "place_entry_order", cause)

	// 원래 요청의 기한이 지났을 수 있으므로 조회는 취소되지 않는 컨텍스트로 합니다
	ctx = context.WithoutCancel(ctx)
	positions, err := s.exchange.GetPositions(ctx)
	if err != nil {
		log.Error("진입 결과 불명, 포지션 조회 실패", zap.Error(cause), zap.NamedError("reconcileError", err))
		res.Legs.Entry = domain.LegFailed
		te.Err = fmt.Errorf("%w (포지션 조회 실패: %v)", cause, err)
		res.fail(te)
		return false
	}

	before := domain.Position{Symbol: plan.Symbol}
	if baseline != nil {
		before = *baseline
	}
	after := domain.Position{Symbol: plan.Symbol}
	if pos := FindPosition(positions, plan.Symbol); pos != nil {
		after = *pos
	}

	added := EntryGrowth(plan.Side, before.Quantity, after.Quantity)
	if !LandedEntry(plan.Rules, plan.Quantity, added) {
		log.Error("진입 결과 불명, 이번 주문의 포지션 없음",
			zap.Error(cause),
			zap.String("before", before.Quantity.String()),
			zap.String("after", after.Quantity.String()),
		)
		res.Legs.Entry = domain.LegFailed
		res.fail(te)
		return false
	}

	// 포지션이 늘어났으면 보호 주문을 걸기 위해 수락된 것으로 진행합니다
	log.Warn("진입 결과 불명, 포지션 증가 확인",
		zap.Error(cause),
		zap.String("before", before.Quantity.String()),
		zap.String("after", after.Quantity.String()),
	)
	res.PositionVisible = true
	res.Legs.Entry = domain.LegPlaced
	te.Severity = domain.SeverityDegraded
	res.fail(te)

	res.FillPrice = s.fillReference(ctx, plan, AddedEntryPrice(before, after, added))
	return true
}

// fillReference는 손절 가격 계산의 기준가를 정합니다
// 체결 평균가가 있으면 그 값을 씁니다. 미체결 LIMIT은 주문가를 쓰고
// MARKET은 현재 마크 가격, 요청 진입가 순서로 사용합니다
func (s *Sequencer) fillReference(ctx context.Context, plan *Plan, avgPrice decimal.Decimal) decimal.Decimal {
	if avgPrice.IsPositive() {
		return avgPrice
	}
	if plan.OrderType == domain.Limit {
		return plan.EntryPrice
	}
	if mark, err := s.exchange.GetMarkPrice(ctx, plan.Symbol); err == nil && mark.IsPositive() {
		return mark
	}
	return plan.EntryPrice
}

func (s *Sequencer) placeStopLoss(ctx context.Context, plan *Plan, res *Result, log *zap.Logger) {
	stopPrice := StopPrice(plan.Rules, plan.Side, res.FillPrice, plan.StopPercent)
	res.StopLossPrice = &stopPrice

	order := domain.OrderRequest{
		Symbol:        plan.Symbol,
		Side:          GetOrderSideForExit(plan.Side),
		PositionSide:  domain.BothPosition,
		Type:          domain.StopMarket,
		StopPrice:     stopPrice,
		ClosePosition: true,
		ClientOrderID: newClientOrderID("sl"),
	}

	var err error
	if !stopPrice.IsPositive() {
		err = fmt.Errorf("손절 가격이 0 이하입니다: %s", stopPrice)
	} else {
		var resp *domain.OrderResponse
		if resp, err = s.exchange.PlaceOrder(ctx, order); err == nil {
			res.Legs.StopLoss = domain.LegPlaced
			res.OrderIDs["sl"] = resp.OrderID
			log.Info("손절 주문 성공", zap.String("stopPrice", stopPrice.String()), zap.Int64("orderId", resp.OrderID))
			return
		}
	}

	log.Error("손절 주문 실패, 포지션이 보호되지 않습니다", zap.String("stopPrice", stopPrice.String()), zap.Error(err))
	res.Legs.StopLoss = domain.LegFailed
	te := domain.NewTradeError(domain.KindProtectiveLegFailed, plan.Symbol, "place_stop_loss", err)
	te.Severity = domain.SeverityUnprotected
	res.fail(te)
}

func (s *Sequencer) placeTakeProfit(ctx context.Context, plan *Plan, res *Result, name string, leg *domain.TargetLeg, log *zap.Logger) domain.LegState {
	if leg == nil {
		return domain.LegSkipped
	}

	var err error
	if !leg.Quantity.IsPositive() {
		err = fmt.Errorf("%w: 익절 수량이 수량 단위(%s)보다 작습니다", domain.ErrQuantityTooSmall, plan.Rules.QuantityStep)
	} else {
		order := domain.OrderRequest{
			Symbol:        plan.Symbol,
			Side:          GetOrderSideForExit(plan.Side),
			PositionSide:  domain.BothPosition,
			Type:          domain.TakeProfitMarket,
			Quantity:      leg.Quantity,
			StopPrice:     leg.Price,
			ReduceOnly:    true,
			ClientOrderID: newClientOrderID(name),
		}
		var resp *domain.OrderResponse
		if resp, err = s.exchange.PlaceOrder(ctx, order); err == nil {
			res.OrderIDs[name] = resp.OrderID
			log.Info("익절 주문 성공",
				zap.String("leg", name),
				zap.String("price", leg.Price.String()),
				zap.String("quantity", leg.Quantity.String()),
			)
			return domain.LegPlaced
		}
	}

	log.Error("익절 주문 실패", zap.String("leg", name), zap.Error(err))
	res.fail(domain.NewTradeError(domain.KindProtectiveLegFailed, plan.Symbol, "place_"+name, err))
	return domain.LegFailed
}

// newClientOrderID는 거래소 제한(36자) 안에서 레그를 구분할 수 있는 주문 ID를 만듭니다
func newClientOrderID(leg string) string {
	return leg + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
