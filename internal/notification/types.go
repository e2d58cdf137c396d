package notification

import (
	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

const (
	ColorSuccess     = 0x00FF00 // 녹색
	ColorError       = 0xFF0000 // 빨간색
	ColorInfo        = 0x0000FF // 파란색
	ColorWarning     = 0xFFA500 // 주황색
	ColorUnprotected = 0x8B0000 // 진한 빨간색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 결과를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	TradeID       string
	Symbol        string
	Side          domain.Side
	Quantity      decimal.Decimal
	EntryPrice    decimal.Decimal
	Leverage      int
	StopLoss      *decimal.Decimal
	TakeProfit1   *decimal.Decimal
	TakeProfit2   *decimal.Decimal
	RiskAmount    decimal.Decimal
	Notional      decimal.Decimal
	Legs          domain.LegStatus
	Severity      domain.Severity
	FailureReason string // 실패한 레그의 에러 요약
}

// NewTradeInfo는 거래 결과에서 알림 정보를 만듭니다
func NewTradeInfo(outcome *domain.TradeOutcome) TradeInfo {
	info := TradeInfo{
		Legs:     outcome.LegStatus,
		Severity: outcome.Severity,
	}
	if rec := outcome.Record; rec != nil {
		info.TradeID = rec.ID
		info.Symbol = rec.Symbol
		info.Side = rec.Side
		info.Quantity = rec.Quantity
		info.EntryPrice = rec.EntryPrice
		info.Leverage = rec.Leverage
		info.StopLoss = rec.StopLossPrice
		info.RiskAmount = rec.RiskAmount
		info.Notional = rec.Notional
		if rec.TakeProfit1 != nil {
			p := rec.TakeProfit1.Price
			info.TakeProfit1 = &p
		}
		if rec.TakeProfit2 != nil {
			p := rec.TakeProfit2.Price
			info.TakeProfit2 = &p
		}
	}
	for i, err := range outcome.Errors {
		if i > 0 {
			info.FailureReason += "\n"
		}
		info.FailureReason += err.Error()
	}
	return info
}

// GetColorForSeverity는 결과 심각도에 따른 색상을 반환합니다
func GetColorForSeverity(severity domain.Severity) int {
	switch severity {
	case domain.SeverityOK:
		return ColorSuccess
	case domain.SeverityDegraded:
		return ColorWarning
	case domain.SeverityUnprotected:
		return ColorUnprotected
	case domain.SeverityFailed:
		return ColorError
	default:
		return ColorInfo
	}
}

// NopNotifier는 아무 것도 전송하지 않는 Notifier입니다
type NopNotifier struct{}

func (NopNotifier) SendError(error) error { return nil }
func (NopNotifier) SendInfo(string) error { return nil }
func (NopNotifier) SendTradeInfo(TradeInfo) error { return nil }
