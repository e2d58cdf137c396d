package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// 바이낸스 선물 API 에러 코드
const (
	CodeTimeout             = -1007 // 백엔드 응답 대기 시간 초과 (실행 여부 불명)
	CodeFilterFailure       = -1013 // 필터 실패 (LOT_SIZE, PRICE_FILTER 등)
	CodeBadPrecision        = -1111 // 허용 정밀도 초과
	CodeQuantityNonPositive = -4003 // 수량이 0 이하
	CodePriceNotTick        = -4014 // 가격이 tick 단위가 아님
	CodeQtyNotStep          = -4023 // 수량이 step 단위가 아님
	CodeMarginNoChange      = -4046 // 마진 모드 변경 불필요
	CodePositionNoChange    = -4059 // 포지션 모드 변경 불필요
	CodeMinNotional         = -4164 // 최소 주문 가치 미달
)

// APIError는 거래소가 반환한 에러 응답입니다
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

// Error는 error 인터페이스를 구현합니다
func (e *APIError) Error() string {
	return fmt.Sprintf("API 에러(HTTP %d, 코드: %d): %s", e.StatusCode, e.Code, e.Message)
}

// IsNoChange는 "이미 요청한 상태"를 뜻하는 응답인지 확인합니다
func IsNoChange(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeMarginNoChange, CodePositionNoChange:
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "no need to change")
}

// IsFilterViolation은 거래소 수량/가격 필터 위반인지 확인합니다
func IsFilterViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeFilterFailure, CodeBadPrecision, CodeQuantityNonPositive,
		CodePriceNotTick, CodeQtyNotStep, CodeMinNotional:
		return true
	}
	return false
}

// IsIndeterminate는 요청이 거래소에 도달했는지 알 수 없는 에러인지 확인합니다
// 타임아웃, 컨텍스트 마감, 게이트웨이 오류가 해당합니다
func IsIndeterminate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == CodeTimeout {
			return true
		}
		// 5xx 응답은 실행 여부가 불명확합니다
		return apiErr.StatusCode >= 500
	}
	return false
}
