package domain

import (
	"errors"
	"fmt"
)

// ErrorKind는 거래 처리 중 발생하는 에러의 분류입니다
type ErrorKind string

const (
	KindInvalidInput          ErrorKind = "InvalidInput"
	KindRiskCeilingExceeded   ErrorKind = "RiskCeilingExceeded"
	KindDailyLimitExceeded    ErrorKind = "DailyLimitExceeded"
	KindSymbolLimitExceeded   ErrorKind = "SymbolLimitExceeded"
	KindQuantityTooSmall      ErrorKind = "QuantityTooSmall"
	KindPreconditionFailed    ErrorKind = "PreconditionFailed"
	KindEntrySubmissionFailed ErrorKind = "EntrySubmissionFailed"
	KindProtectiveLegFailed   ErrorKind = "ProtectiveLegFailed"
	KindIndeterminate         ErrorKind = "Indeterminate"
	KindFilterViolation       ErrorKind = "FilterViolation"
	KindMarketDataUnavailable ErrorKind = "MarketDataUnavailable"
)

// 분류별 센티널 에러 (errors.Is 비교용)
var (
	ErrInvalidInput          = errors.New("잘못된 입력입니다")
	ErrRiskCeilingExceeded   = errors.New("리스크 상한을 초과했습니다")
	ErrDailyLimitExceeded    = errors.New("일일 최대 거래 횟수에 도달했습니다")
	ErrSymbolLimitExceeded   = errors.New("심볼별 일일 최대 거래 횟수에 도달했습니다")
	ErrQuantityTooSmall      = errors.New("주문 수량이 너무 작습니다")
	ErrPreconditionFailed    = errors.New("주문 사전 설정에 실패했습니다")
	ErrEntrySubmissionFailed = errors.New("진입 주문 제출에 실패했습니다")
	ErrProtectiveLegFailed   = errors.New("보호 주문 제출에 실패했습니다")
	ErrIndeterminate         = errors.New("진입 주문 결과를 확인할 수 없습니다")
	ErrFilterViolation       = errors.New("거래소 수량/가격 필터를 위반했습니다")
	ErrMarketDataUnavailable = errors.New("시장 데이터를 가져올 수 없습니다")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidInput:          ErrInvalidInput,
	KindRiskCeilingExceeded:   ErrRiskCeilingExceeded,
	KindDailyLimitExceeded:    ErrDailyLimitExceeded,
	KindSymbolLimitExceeded:   ErrSymbolLimitExceeded,
	KindQuantityTooSmall:      ErrQuantityTooSmall,
	KindPreconditionFailed:    ErrPreconditionFailed,
	KindEntrySubmissionFailed: ErrEntrySubmissionFailed,
	KindProtectiveLegFailed:   ErrProtectiveLegFailed,
	KindIndeterminate:         ErrIndeterminate,
	KindFilterViolation:       ErrFilterViolation,
	KindMarketDataUnavailable: ErrMarketDataUnavailable,
}

// Severity는 거래 결과의 심각도입니다
type Severity string

const (
	SeverityOK          Severity = "OK"          // 모든 레그 성공
	SeverityDegraded    Severity = "DEGRADED"    // 손절은 걸렸으나 익절 레그 실패
	SeverityUnprotected Severity = "UNPROTECTED" // 포지션이 열렸으나 손절 없음
	SeverityFailed      Severity = "FAILED"      // 진입 실패 또는 검증 거부
)

// Rank는 심각도 비교용 순위를 반환합니다
func (s Severity) Rank() int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityDegraded:
		return 1
	case SeverityUnprotected:
		return 2
	case SeverityFailed:
		return 3
	default:
		return 0
	}
}

// TradeError는 거래 처리 에러를 확장한 구조체입니다
type TradeError struct {
	Kind     ErrorKind
	Symbol   string
	Op       string
	Severity Severity
	Err      error
}

// Error는 error 인터페이스를 구현합니다
func (e *TradeError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s [%s, 작업: %s]: %v", e.Kind, e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("%s [작업: %s]: %v", e.Kind, e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *TradeError) Unwrap() error {
	return e.Err
}

// Is는 같은 분류의 센티널 에러와 일치하는지 확인합니다
func (e *TradeError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// NewTradeError는 새로운 TradeError를 생성합니다
// 보호 레그 실패를 제외한 모든 분류는 FAILED 심각도를 가집니다
func NewTradeError(kind ErrorKind, symbol, op string, err error) *TradeError {
	if err == nil {
		err = kindSentinels[kind]
	}
	severity := SeverityFailed
	if kind == KindProtectiveLegFailed {
		severity = SeverityDegraded
	}
	return &TradeError{
		Kind:     kind,
		Symbol:   symbol,
		Op:       op,
		Severity: severity,
		Err:      err,
	}
}

// Invalidf는 InvalidInput 에러를 포맷 문자열로 생성합니다
func Invalidf(symbol, op, format string, args ...any) *TradeError {
	return NewTradeError(KindInvalidInput, symbol, op, fmt.Errorf(format, args...))
}

// KindOf는 에러 체인에서 TradeError의 분류를 찾습니다
func KindOf(err error) (ErrorKind, bool) {
	var te *TradeError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}
