package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountSnapshot은 계정 잔고와 사용 중인 마진의 스냅샷입니다
type AccountSnapshot struct {
	Asset        string          // 마진 자산 (예: USDT)
	TotalBalance decimal.Decimal // 지갑 총 잔고
	UsedMargin   decimal.Decimal // 열린 포지션/주문에 묶인 마진
	FetchedAt    time.Time
}

// Unutilized는 사용되지 않은 자본(총 잔고 - 사용 마진)을 반환합니다
// 음수가 되지 않도록 0에서 자릅니다
func (a AccountSnapshot) Unutilized() decimal.Decimal {
	free := a.TotalBalance.Sub(a.UsedMargin)
	if free.IsNegative() {
		return decimal.Zero
	}
	return free
}
