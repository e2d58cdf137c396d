package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/events"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/governance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/metrics"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/position"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/risk"
)

// notifyTimeout은 거래 후 알림과 이벤트 발행에 허용하는 시간입니다
const notifyTimeout = 5 * time.Second

// Service는 거래 요청을 검증하고 주문 시퀀서로 실행합니다
type Service struct {
	cfg        Config
	calculator *risk.Calculator
	ledger     *governance.Ledger
	journal    *journal.Journal
	symbols    SymbolSource
	market     MarketData
	manager    position.Manager

	notifier  notification.Notifier
	publisher events.Publisher
	metrics   *metrics.Recorder
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// Option은 서비스 설정 함수입니다
type Option func(*Service)

// WithNotifier는 거래 알림 전송기를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPublisher는 거래 이벤트 발행기를 설정합니다
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics는 지표 기록기를 설정합니다
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock은 현재 시각 함수를 설정합니다
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService는 새로운 거래 서비스를 생성합니다
func NewService(
	cfg Config,
	calculator *risk.Calculator,
	ledger *governance.Ledger,
	tradeLog *journal.Journal,
	symbols SymbolSource,
	market MarketData,
	manager position.Manager,
	opts ...Option,
) *Service {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	s := &Service{
		cfg:        cfg,
		calculator: calculator,
		ledger:     ledger,
		journal:    tradeLog,
		symbols:    symbols,
		market:     market,
		manager:    manager,
		notifier:   notification.NopNotifier{},
		publisher:  events.NopPublisher{},
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("trading")
	return s
}

// PreviewSizing은 부수 효과 없이 제안 수량과 레버리지를 계산합니다
func (s *Service) PreviewSizing(ctx context.Context, capitalBase, entryPrice decimal.Decimal, sl domain.StopLoss) (domain.SizingResult, error) {
	return s.calculator.Size(capitalBase, entryPrice, sl)
}

// CapitalBase는 사이징 기준 자본을 반환합니다
// 설정된 총 자본이 있으면 그 값을, 없으면 거래소의 미사용 잔고를 사용합니다
func (s *Service) CapitalBase(ctx context.Context) (decimal.Decimal, error) {
	if s.cfg.TotalCapital.IsPositive() {
		return s.cfg.TotalCapital, nil
	}
	return s.market.UnutilizedCapital(ctx)
}

// GetDailyStats는 날짜의 거래 횟수를 반환합니다. date가 비어 있으면 오늘(UTC)입니다
func (s *Service) GetDailyStats(ctx context.Context, date string) (domain.GovernanceState, error) {
	if date == "" {
		date = governance.DateOf(s.now())
	}
	return s.ledger.Stats(ctx, date)
}

// TradeLog는 날짜의 거래 기록을 반환합니다. date가 비어 있으면 오늘(UTC)입니다
func (s *Service) TradeLog(ctx context.Context, date string) ([]domain.TradeRecord, error) {
	if date == "" {
		date = governance.DateOf(s.now())
	}
	return s.journal.List(ctx, date)
}

// PlaceTrade는 거래 요청을 검증하고 주문을 제출합니다
//
// 검증 단계의 실패는 거래소 주문 없이 error로 반환합니다.
// 진입이 수락된 뒤의 레그 실패는 기록과 함께 TradeOutcome.Errors에 담깁니다.
// 진입이 수락되지 않은 경우 Record는 nil이고 Severity는 FAILED입니다.
func (s *Service) PlaceTrade(ctx context.Context, req domain.TradeRequest) (*domain.TradeOutcome, error) {
	start := s.now()
	defer s.metrics.ObserveDuration(time.Now())

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.MarginMode == "" {
		req.MarginMode = domain.Isolated
	}
	if err := validateRequest(req); err != nil {
		s.metrics.ObserveRejection(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	date := governance.DateOf(start)
	unlock := s.ledger.Lock(date, req.Symbol)
	defer unlock()

	log := s.logger.With(
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.OrderType)),
	)

	plan, sizing, err := s.buildPlan(ctx, date, req)
	if err != nil {
		log.Info("거래 요청 거부", zap.Error(err))
		s.metrics.ObserveRejection(err)
		return nil, err
	}

	log.Info("주문 계획 확정",
		zap.String("quantity", plan.Quantity.String()),
		zap.Int("leverage", plan.Leverage),
		zap.String("riskAmount", sizing.RiskAmount.String()),
	)

	result := s.manager.Execute(ctx, plan)

	outcome := &domain.TradeOutcome{
		LegStatus: result.Legs,
		Sizing:    sizing,
		Severity:  result.Severity(),
		Errors:    result.Errors,
		Trace:     result.Trace,
	}

	if !result.EntryAccepted() {
		// 진입 실패: 아무 것도 기록하지 않음
		for _, e := range result.Errors {
			s.metrics.ObserveRejection(e)
		}
		s.metrics.ObserveOutcome(req.Symbol, outcome)
		return outcome, nil
	}

	// 포지션이 열렸으므로 요청 기한과 무관하게 기록을 남깁니다
	persistCtx := context.WithoutCancel(ctx)
	record := s.newRecord(start, date, req, plan, sizing, result)
	outcome.Record = record

	if err := s.ledger.Commit(persistCtx, date, req.Symbol); err != nil {
		log.Error("거래 횟수 기록 실패", zap.String("tradeId", record.ID), zap.Error(err))
		s.reportError(err)
	}
	if err := s.journal.Append(persistCtx, *record); err != nil {
		log.Error("거래 기록 실패", zap.String("tradeId", record.ID), zap.Error(err))
		s.reportError(err)
	}
	s.market.Invalidate(req.Symbol)

	s.metrics.ObserveOutcome(req.Symbol, outcome)
	s.announce(persistCtx, outcome)

	log.Info("거래 실행 완료",
		zap.String("tradeId", record.ID),
		zap.String("severity", string(outcome.Severity)),
		zap.Strings("trace", outcome.Trace),
	)
	return outcome, nil
}

// buildPlan은 거래소 주문 전의 모든 검증을 수행하고 주문 계획을 만듭니다
func (s *Service) buildPlan(ctx context.Context, date string, req domain.TradeRequest) (*position.Plan, domain.SizingResult, error) {
	var zero domain.SizingResult

	// 1. 거래 횟수 제한
	if err := s.ledger.CheckAndReserve(ctx, date, req.Symbol); err != nil {
		return nil, zero, err
	}

	// 2. 기준 자본
	capital, err := s.CapitalBase(ctx)
	if err != nil {
		return nil, zero, err
	}

	// 3. 기준가: LIMIT 또는 MARKET 참고가, 없으면 현재가
	reference := req.EntryPrice
	if req.OrderType == domain.Market && !reference.IsPositive() {
		if reference, err = s.market.Price(ctx, req.Symbol); err != nil {
			return nil, zero, err
		}
	}
	if err := validateTargets(req, reference); err != nil {
		return nil, zero, err
	}

	// 4. 사이징과 사용자 지정값 상한 검사
	sizing, err := s.calculator.Size(capital, reference, req.StopLoss)
	if err != nil {
		return nil, zero, withSymbol(err, req.Symbol)
	}
	decision, err := s.calculator.CheckOverride(sizing, req.Override)
	if err != nil {
		return nil, zero, withSymbol(err, req.Symbol)
	}

	// 5. 양자화
	rules, err := s.symbols.Rules(ctx, req.Symbol)
	if err != nil {
		return nil, zero, err
	}

	entryPrice := reference
	if req.OrderType == domain.Limit {
		entryPrice = position.RoundPrice(rules, reference)
		if err := position.CheckPrice(rules, entryPrice); err != nil {
			return nil, zero, err
		}
	}

	quantity := position.RoundQuantity(rules, decision.Quantity)
	if err := position.CheckQuantity(rules, quantity, entryPrice); err != nil {
		return nil, zero, err
	}
	if tp1, _ := position.SplitTakeProfits(rules, quantity, req.TakeProfits); tp1 != nil && !tp1.Quantity.IsPositive() {
		return nil, zero, domain.NewTradeError(domain.KindQuantityTooSmall, req.Symbol, "split_take_profits",
			fmt.Errorf("TP1 수량이 수량 단위(%s)보다 작습니다", rules.QuantityStep))
	}

	plan := &position.Plan{
		Symbol:      req.Symbol,
		Side:        req.Side,
		OrderType:   req.OrderType,
		EntryPrice:  entryPrice,
		Quantity:    quantity,
		Leverage:    decision.Leverage,
		MarginMode:  req.MarginMode,
		StopPercent: sizing.StopPercent,
		TakeProfits: req.TakeProfits,
		Rules:       rules,
	}
	return plan, sizing, nil
}

func (s *Service) newRecord(ts time.Time, date string, req domain.TradeRequest, plan *position.Plan, sizing domain.SizingResult, result *position.Result) *domain.TradeRecord {
	orderIDs := make(map[string]int64, len(result.OrderIDs))
	for k, v := range result.OrderIDs {
		orderIDs[k] = v
	}
	return &domain.TradeRecord{
		ID:            s.newID(),
		Timestamp:     ts.UTC(),
		Date:          date,
		Symbol:        plan.Symbol,
		Side:          plan.Side,
		OrderType:     plan.OrderType,
		MarginMode:    plan.MarginMode,
		EntryPrice:    result.FillPrice,
		Quantity:      plan.Quantity,
		Leverage:      plan.Leverage,
		StopLossMode:  req.StopLoss.Mode,
		StopLossValue: req.StopLoss.Value,
		StopLossPrice: result.StopLossPrice,
		TakeProfit1:   result.TakeProfit1,
		TakeProfit2:   result.TakeProfit2,
		LegStatus:     result.Legs,
		OrderIDs:      orderIDs,
		RiskAmount:    sizing.RiskAmount,
		Notional:      plan.Quantity.Mul(result.FillPrice),
		Status:        domain.TradeOpen,
	}
}

// announce는 거래 결과를 알림과 이벤트로 내보냅니다. 실패는 기록만 합니다
func (s *Service) announce(ctx context.Context, outcome *domain.TradeOutcome) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.publisher.PublishTrade(ctx, events.NewTradeEvent(outcome)); err != nil {
		s.logger.Warn("거래 이벤트 발행 실패", zap.Error(err))
	}
	if err := s.notifier.SendTradeInfo(notification.NewTradeInfo(outcome)); err != nil {
		s.logger.Warn("거래 알림 전송 실패", zap.Error(err))
	}
}

func (s *Service) reportError(err error) {
	if nerr := s.notifier.SendError(err); nerr != nil {
		s.logger.Warn("에러 알림 전송 실패", zap.Error(nerr))
	}
}

// withSymbol은 심볼이 비어 있는 TradeError에 심볼을 채웁니다
func withSymbol(err error, symbol string) error {
	var te *domain.TradeError
	if errors.As(err, &te) && te.Symbol == "" {
		cp := *te
		cp.Symbol = symbol
		return &cp
	}
	return err
}

// validateRequest는 거래소 호출 없이 확인할 수 있는 요청 형식을 검사합니다
func validateRequest(req domain.TradeRequest) error {
	invalid := func(format string, args ...any) error {
		return domain.Invalidf(req.Symbol, "validate_request", format, args...)
	}

	if req.Symbol == "" {
		return invalid("심볼이 비어 있습니다")
	}
	if !req.Side.IsValid() {
		return invalid("알 수 없는 방향: %q", req.Side)
	}
	if !req.OrderType.IsEntryType() {
		return invalid("진입 주문은 MARKET 또는 LIMIT만 가능합니다: %q", req.OrderType)
	}
	if !req.MarginMode.IsValid() {
		return invalid("알 수 없는 마진 모드: %q", req.MarginMode)
	}
	if req.EntryPrice.IsNegative() {
		return invalid("진입가는 음수일 수 없습니다: %s", req.EntryPrice)
	}
	if req.OrderType == domain.Limit && !req.EntryPrice.IsPositive() {
		return invalid("LIMIT 주문에는 0보다 큰 진입가가 필요합니다")
	}
	if !req.StopLoss.Mode.IsValid() {
		return invalid("알 수 없는 손절 모드: %q", req.StopLoss.Mode)
	}
	if !req.StopLoss.Value.IsPositive() {
		return invalid("손절 값은 0보다 커야 합니다: %s", req.StopLoss.Value)
	}

	if len(req.TakeProfits) > 2 {
		return invalid("익절 레그는 최대 2개입니다: %d", len(req.TakeProfits))
	}
	hundred := decimal.NewFromInt(100)
	total := decimal.Zero
	for i, tp := range req.TakeProfits {
		if tp.Price.IsNegative() {
			return invalid("TP%d 가격은 음수일 수 없습니다: %s", i+1, tp.Price)
		}
		if tp.Percent.IsNegative() || tp.Percent.GreaterThan(hundred) {
			return invalid("TP%d 비율은 0~100 사이여야 합니다: %s", i+1, tp.Percent)
		}
		// TP2는 나머지 수량을 가지므로 비율은 TP1에만 필요합니다
		if i == 0 && tp.Price.IsPositive() && !tp.Percent.IsPositive() {
			return invalid("TP1 가격이 지정되면 비율은 0보다 커야 합니다")
		}
		if tp.Price.IsPositive() {
			total = total.Add(tp.Percent)
		}
	}
	if total.GreaterThan(hundred) {
		return invalid("익절 비율의 합이 100%%를 넘습니다: %s", total)
	}
	return nil
}

// validateTargets는 익절 가격이 기준가의 이익 방향에 있는지 확인합니다
func validateTargets(req domain.TradeRequest, reference decimal.Decimal) error {
	for i, tp := range req.TakeProfits {
		if !tp.Price.IsPositive() {
			continue
		}
		wrongSide := (req.Side == domain.Long && !tp.Price.GreaterThan(reference)) ||
			(req.Side == domain.Short && !tp.Price.LessThan(reference))
		if wrongSide {
			return domain.Invalidf(req.Symbol, "validate_request",
				"TP%d 가격(%s)이 %s 기준가(%s)의 이익 방향에 있지 않습니다", i+1, tp.Price, req.Side, reference)
		}
	}
	return nil
}
