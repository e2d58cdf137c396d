package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// OverrideEpsilon은 사용자 지정값이 제안값을 초과했는지 판단할 때 허용하는 오차입니다
var OverrideEpsilon = decimal.New(1, -6)

// Config는 포지션 사이즈 계산을 위한 프로세스 전역 설정입니다
type Config struct {
	RiskPercent   decimal.Decimal // 거래당 리스크 비율 (%, 기본 1)
	PointsBuffer  decimal.Decimal // POINTS 모드 슬리피지 여유분 (가격 단위, 기본 20)
	PercentBuffer decimal.Decimal // PERCENT 모드 슬리피지 여유분 (%p, 기본 0.2)
	MaxLeverage   int             // 거래소 최대 레버리지 (기본 100)
}

// DefaultConfig는 기본 설정을 반환합니다
func DefaultConfig() Config {
	return Config{
		RiskPercent:   decimal.NewFromInt(1),
		PointsBuffer:  decimal.NewFromInt(20),
		PercentBuffer: decimal.RequireFromString("0.2"),
		MaxLeverage:   100,
	}
}

// Calculator는 리스크 기반 포지션 크기와 레버리지를 계산합니다
type Calculator struct {
	cfg Config
}

// NewCalculator는 새 계산기를 생성합니다. 비어 있는 값은 기본값으로 채웁니다
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if !cfg.RiskPercent.IsPositive() {
		cfg.RiskPercent = def.RiskPercent
	}
	if cfg.PointsBuffer.IsNegative() {
		cfg.PointsBuffer = def.PointsBuffer
	}
	if cfg.PercentBuffer.IsNegative() {
		cfg.PercentBuffer = def.PercentBuffer
	}
	if cfg.MaxLeverage < 1 {
		cfg.MaxLeverage = def.MaxLeverage
	}
	return &Calculator{cfg: cfg}
}

// Config는 계산기 설정을 반환합니다
func (c *Calculator) Config() Config {
	return c.cfg
}

// Size는 자본, 진입가, 손절 사양으로 제안 수량과 레버리지를 계산합니다
//
// 손절 거리는 진입가 대비 퍼센트로 통일합니다:
//   - POINTS:  distance% = (value + pointsBuffer) / entry × 100
//   - PERCENT: distance% = value + percentBuffer
//
// 수량 = riskAmount / (entry × distance% / 100),
// 레버리지 = 100 / distance% 를 0.5 단위로 올림한 뒤 [1, MaxLeverage]로 제한합니다.
// 입력이 잘못되면 모든 수치가 0인 결과와 InvalidInput 에러를 반환합니다.
func (c *Calculator) Size(capitalBase, entryPrice decimal.Decimal, sl domain.StopLoss) (domain.SizingResult, error) {
	if !entryPrice.IsPositive() {
		return domain.SizingResult{}, domain.Invalidf("", "size", "진입가는 0보다 커야 합니다: %s", entryPrice)
	}
	if !sl.Value.IsPositive() {
		return domain.SizingResult{}, domain.Invalidf("", "size", "손절 값은 0보다 커야 합니다: %s", sl.Value)
	}
	if !capitalBase.IsPositive() {
		return domain.SizingResult{}, domain.Invalidf("", "size", "기준 자본은 0보다 커야 합니다: %s", capitalBase)
	}

	stopPercent, distancePercent, err := c.distances(entryPrice, sl)
	if err != nil {
		return domain.SizingResult{}, err
	}

	riskAmount := capitalBase.Mul(c.cfg.RiskPercent).Div(hundred)
	stopDistance := entryPrice.Mul(distancePercent).Div(hundred)
	quantity := riskAmount.Div(stopDistance)

	suggested := c.suggestLeverage(distancePercent)

	return domain.SizingResult{
		CapitalBase:           capitalBase,
		RiskAmount:            riskAmount,
		DistancePercent:       distancePercent,
		StopPercent:           stopPercent,
		EffectiveStopDistance: stopDistance,
		SuggestedQuantity:     quantity,
		SuggestedLeverage:     suggested,
		WireLeverage:          c.WireLeverage(suggested),
		Notional:              quantity.Mul(entryPrice),
	}, nil
}

// StopPercent는 버퍼를 제외한 손절 거리(%)를 반환합니다
func StopPercent(entryPrice decimal.Decimal, sl domain.StopLoss) (decimal.Decimal, error) {
	switch sl.Mode {
	case domain.StopPoints:
		if !entryPrice.IsPositive() {
			return decimal.Zero, domain.Invalidf("", "stop_percent", "진입가는 0보다 커야 합니다: %s", entryPrice)
		}
		return sl.Value.Div(entryPrice).Mul(hundred), nil
	case domain.StopPercent:
		return sl.Value, nil
	default:
		return decimal.Zero, domain.Invalidf("", "stop_percent", "알 수 없는 손절 모드: %q", sl.Mode)
	}
}

func (c *Calculator) distances(entryPrice decimal.Decimal, sl domain.StopLoss) (stop, distance decimal.Decimal, err error) {
	stop, err = StopPercent(entryPrice, sl)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	switch sl.Mode {
	case domain.StopPoints:
		distance = sl.Value.Add(c.cfg.PointsBuffer).Div(entryPrice).Mul(hundred)
	case domain.StopPercent:
		distance = sl.Value.Add(c.cfg.PercentBuffer)
	}

	if stop.GreaterThanOrEqual(hundred) {
		return decimal.Zero, decimal.Zero, domain.Invalidf("", "size", "손절 거리가 진입가 이상입니다: %s%%", stop.StringFixed(4))
	}
	return stop, distance, nil
}

// suggestLeverage는 100/distance%를 0.5 단위로 올림하고 [1, MaxLeverage]로 제한합니다
func (c *Calculator) suggestLeverage(distancePercent decimal.Decimal) decimal.Decimal {
	raw := hundred.Div(distancePercent)
	stepped := raw.Mul(two).Ceil().Div(two)

	maxLev := decimal.NewFromInt(int64(c.cfg.MaxLeverage))
	if stepped.GreaterThan(maxLev) {
		return maxLev
	}
	if stepped.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return stepped
}

// WireLeverage는 제안 레버리지를 거래소가 받는 정수로 변환합니다
// 낮은 레버리지는 사용자가 동의한 리스크 비율을 바꾸므로 항상 올림합니다
func (c *Calculator) WireLeverage(leverage decimal.Decimal) int {
	n := int(leverage.Ceil().IntPart())
	if n > c.cfg.MaxLeverage {
		n = c.cfg.MaxLeverage
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Decision은 실제 주문에 사용할 수량과 레버리지입니다
type Decision struct {
	Quantity  decimal.Decimal
	Leverage  int
	Overrides bool
}

// CheckOverride는 사용자 지정값이 제안 상한을 넘지 않는지 검증합니다
// 초과 시 값을 깎지 않고 RiskCeilingExceeded를 반환합니다
func (c *Calculator) CheckOverride(sizing domain.SizingResult, override domain.Override) (Decision, error) {
	d := Decision{
		Quantity: sizing.SuggestedQuantity,
		Leverage: sizing.WireLeverage,
	}

	if q := override.Quantity; q != nil {
		if !q.IsPositive() {
			return Decision{}, domain.Invalidf("", "override", "사용자 수량은 0보다 커야 합니다: %s", q)
		}
		if q.GreaterThan(sizing.SuggestedQuantity.Add(OverrideEpsilon)) {
			return Decision{}, domain.NewTradeError(domain.KindRiskCeilingExceeded, "", "override",
				fmt.Errorf("수량(%s)이 리스크 기준 최대 제안 수량(%s)을 초과합니다",
					q.StringFixed(6), sizing.SuggestedQuantity.StringFixed(6)))
		}
		d.Quantity = *q
		d.Overrides = true
	}

	if l := override.Leverage; l != nil {
		if *l < 1 {
			return Decision{}, domain.Invalidf("", "override", "사용자 레버리지는 1 이상이어야 합니다: %d", *l)
		}
		// 상한은 거래소에 실제로 보내는 정수 레버리지입니다 (제안 7.5x → 8x)
		if *l > sizing.WireLeverage {
			return Decision{}, domain.NewTradeError(domain.KindRiskCeilingExceeded, "", "override",
				fmt.Errorf("레버리지(%dx)가 최대 제안 레버리지(%dx, 계산값 %sx)를 초과합니다",
					*l, sizing.WireLeverage, sizing.SuggestedLeverage.StringFixed(1)))
		}
		d.Leverage = *l
		d.Overrides = true
	}

	return d, nil
}
