package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// RoundQuantity는 수량을 QuantityStep의 배수로 내림합니다
// 결과는 항상 입력 이하이며, 같은 값에 다시 적용해도 변하지 않습니다
func RoundQuantity(rules domain.SymbolRules, quantity decimal.Decimal) decimal.Decimal {
	step := rules.QuantityStep
	if !step.IsPositive() || !quantity.IsPositive() {
		return decimal.Zero
	}
	return quantity.Div(step).Floor().Mul(step)
}

// RoundPrice는 가격을 가장 가까운 PriceTick 배수로 반올림합니다
func RoundPrice(rules domain.SymbolRules, price decimal.Decimal) decimal.Decimal {
	tick := rules.PriceTick
	if !tick.IsPositive() {
		return price
	}
	return price.Div(tick).Round(0).Mul(tick)
}

// CheckQuantity는 양자화된 수량이 주문 가능한지 확인합니다
func CheckQuantity(rules domain.SymbolRules, quantity, refPrice decimal.Decimal) error {
	if !quantity.IsPositive() {
		return domain.NewTradeError(domain.KindQuantityTooSmall, rules.Symbol, "check_quantity",
			fmt.Errorf("수량 단위(%s) 적용 후 수량이 0입니다", rules.QuantityStep))
	}
	if rules.MinNotional.IsPositive() && refPrice.IsPositive() {
		notional := quantity.Mul(refPrice)
		if notional.LessThan(rules.MinNotional) {
			return domain.NewTradeError(domain.KindQuantityTooSmall, rules.Symbol, "check_quantity",
				fmt.Errorf("주문 가치(%s)가 최소 주문 가치(%s)보다 작습니다",
					notional.StringFixed(2), rules.MinNotional))
		}
	}
	return nil
}

// CheckPrice는 가격이 PriceTick의 정확한 배수인지 확인합니다
func CheckPrice(rules domain.SymbolRules, price decimal.Decimal) error {
	if !price.IsPositive() {
		return domain.Invalidf(rules.Symbol, "check_price", "가격은 0보다 커야 합니다: %s", price)
	}
	if rules.PriceTick.IsPositive() && !price.Mod(rules.PriceTick).IsZero() {
		return domain.NewTradeError(domain.KindFilterViolation, rules.Symbol, "check_price",
			fmt.Errorf("가격(%s)이 가격 단위(%s)의 배수가 아닙니다", price, rules.PriceTick))
	}
	return nil
}

// StopPrice는 체결 기준가에서 손절 트리거 가격을 계산합니다 (롱은 아래, 숏은 위)
func StopPrice(rules domain.SymbolRules, side domain.Side, fillRef, stopPercent decimal.Decimal) decimal.Decimal {
	offset := fillRef.Mul(stopPercent).Div(decimal.NewFromInt(100))
	if side == domain.Long {
		return RoundPrice(rules, fillRef.Sub(offset))
	}
	return RoundPrice(rules, fillRef.Add(offset))
}

// SplitTakeProfits는 익절 레그 수량을 나눕니다
// tps[0]은 TP1, tps[1]은 TP2이며 가격이 0인 레그는 지정되지 않은 것으로 봅니다.
// TP1은 비율만큼 내림하고 TP2는 나머지를 가집니다. TP1이 없으면 TP2가 전체 수량입니다
func SplitTakeProfits(rules domain.SymbolRules, quantity decimal.Decimal, tps []domain.TakeProfit) (tp1, tp2 *domain.TargetLeg) {
	var first, second *domain.TakeProfit
	if len(tps) > 0 && tps[0].Price.IsPositive() {
		first = &tps[0]
	}
	if len(tps) > 1 && tps[1].Price.IsPositive() {
		second = &tps[1]
	}

	remaining := quantity
	if first != nil {
		q1 := RoundQuantity(rules, quantity.Mul(first.Percent).Div(decimal.NewFromInt(100)))
		tp1 = &domain.TargetLeg{
			Price:    RoundPrice(rules, first.Price),
			Quantity: q1,
		}
		remaining = quantity.Sub(q1)
	}

	if second != nil && remaining.IsPositive() {
		tp2 = &domain.TargetLeg{
			Price:    RoundPrice(rules, second.Price),
			Quantity: remaining,
		}
	}
	return tp1, tp2
}
