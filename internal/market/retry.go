package market

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// RetryConfig는 재시도 설정을 정의합니다
// 조회 요청에만 사용합니다. 주문 제출은 절대 재시도하지 않습니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// DefaultRetryConfig는 기본 재시도 설정을 반환합니다
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Factor:     2,
	}
}

// IsRetryableError는 일시적인 오류인지 확인합니다
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *exchange.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return exchange.IsIndeterminate(err)
}

// withRetry는 재시도 로직을 구현한 래퍼 함수입니다
func withRetry(ctx context.Context, logger *zap.Logger, cfg RetryConfig, operation string, fn func() error) error {
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) || attempt == cfg.MaxRetries {
			return lastErr
		}

		logger.Warn("조회 실패, 재시도합니다",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("maxRetries", cfg.MaxRetries),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Factor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return lastErr
}
