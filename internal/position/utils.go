package position

import (
	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// GetOrderSideForEntry는 포지션 진입을 위한 주문 사이드를 반환합니다
func GetOrderSideForEntry(side domain.Side) domain.OrderSide {
	if side == domain.Long {
		return domain.Buy
	}
	return domain.Sell
}

// GetOrderSideForExit는 포지션 청산을 위한 주문 사이드를 반환합니다
func GetOrderSideForExit(side domain.Side) domain.OrderSide {
	if side == domain.Long {
		return domain.Sell
	}
	return domain.Buy
}

// FindPosition은 원웨이 모드에서 심볼의 열린 포지션을 찾습니다
func FindPosition(positions []domain.Position, symbol string) *domain.Position {
	for i := range positions {
		pos := positions[i]
		if pos.Symbol == symbol && !pos.Quantity.IsZero() {
			return &pos
		}
	}
	return nil
}

// EntryGrowth는 진입 방향으로 늘어난 포지션 수량을 반환합니다 (숏은 음수 수량)
func EntryGrowth(side domain.Side, before, after decimal.Decimal) decimal.Decimal {
	delta := after.Sub(before)
	if side == domain.Short {
		delta = delta.Neg()
	}
	return delta
}

// LandedEntry는 늘어난 수량이 주문 수량과 한 수량 단위 안에서 일치하는지 확인합니다
func LandedEntry(rules domain.SymbolRules, ordered, added decimal.Decimal) bool {
	if !added.IsPositive() {
		return false
	}
	return added.GreaterThanOrEqual(ordered.Sub(rules.QuantityStep))
}

// AddedEntryPrice는 진입 전후 포지션 평균가로 이번 진입분의 평균가를 역산합니다
// 계산할 수 없으면 0을 반환합니다
func AddedEntryPrice(before, after domain.Position, added decimal.Decimal) decimal.Decimal {
	if !added.IsPositive() {
		return decimal.Zero
	}
	if before.Quantity.IsZero() {
		return after.EntryPrice
	}
	if before.Quantity.Sign() != after.Quantity.Sign() {
		return decimal.Zero
	}
	afterCost := after.EntryPrice.Mul(after.Quantity.Abs())
	beforeCost := before.EntryPrice.Mul(before.Quantity.Abs())
	price := afterCost.Sub(beforeCost).Div(added)
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price
}
