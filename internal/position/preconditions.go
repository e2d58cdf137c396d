package position

import (
	"context"
	"fmt"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// 아래 설정 함수들은 멱등입니다. 거래소가 "변경 불필요"로 응답하면 성공으로 처리합니다

// EnsurePositionMode는 계정을 원웨이 포지션 모드로 맞춥니다
func EnsurePositionMode(ctx context.Context, ex exchange.Exchange, symbol string) error {
	if err := ex.SetPositionMode(ctx, false); err != nil && !exchange.IsNoChange(err) {
		return domain.NewTradeError(domain.KindPreconditionFailed, symbol, "set_position_mode",
			fmt.Errorf("원웨이 모드 설정 실패: %w", err))
	}
	return nil
}

// EnsureMarginMode는 심볼의 마진 모드를 설정합니다
func EnsureMarginMode(ctx context.Context, ex exchange.Exchange, symbol string, mode domain.MarginMode) error {
	if err := ex.SetMarginMode(ctx, symbol, mode); err != nil && !exchange.IsNoChange(err) {
		return domain.NewTradeError(domain.KindPreconditionFailed, symbol, "set_margin_mode",
			fmt.Errorf("마진 모드(%s) 설정 실패: %w", mode, err))
	}
	return nil
}

// EnsureLeverage는 심볼의 레버리지를 설정합니다
func EnsureLeverage(ctx context.Context, ex exchange.Exchange, symbol string, leverage int) error {
	if err := ex.SetLeverage(ctx, symbol, leverage); err != nil && !exchange.IsNoChange(err) {
		return domain.NewTradeError(domain.KindPreconditionFailed, symbol, "set_leverage",
			fmt.Errorf("레버리지(%dx) 설정 실패: %w", leverage, err))
	}
	return nil
}
