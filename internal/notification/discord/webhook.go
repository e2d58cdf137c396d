package discord

import (
	"fmt"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification"
)

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := newEmbed(notification.ColorError, footerText)
	embed.Title = "에러 발생"
	embed.Description = codeBlock(err.Error())

	return c.sendToWebhook(c.errorWebhook, embed.message(""))
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := newEmbed(notification.ColorInfo, footerText)
	embed.Description = message

	return c.sendToWebhook(c.infoWebhook, embed.message(""))
}

// SendTradeInfo는 거래 실행 결과를 전송합니다
// 손절이 걸리지 않은 포지션은 에러 웹훅으로도 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	embed := newEmbed(notification.GetColorForSeverity(info.Severity), fmt.Sprintf("%s · %s", footerText, info.TradeID))
	embed.Title = fmt.Sprintf("%s 거래 실행: %s %s", severityEmoji(info.Severity), info.Symbol, info.Side)
	embed.Description = fmt.Sprintf(
		"**수량**: %s\n**진입가**: $%s\n**레버리지**: %dx\n**리스크**: $%s\n**포지션 가치**: $%s",
		info.Quantity, info.EntryPrice.StringFixed(2), info.Leverage,
		info.RiskAmount.StringFixed(2), info.Notional.StringFixed(2),
	)
	embed.legField("손절가", info.StopLoss, info.Legs.StopLoss).
		legField("TP1", info.TakeProfit1, info.Legs.TP1).
		legField("TP2", info.TakeProfit2, info.Legs.TP2)
	if info.FailureReason != "" {
		embed.codeField("실패 사유", info.FailureReason)
	}

	msg := embed.message("")
	if err := c.sendToWebhook(c.tradeWebhook, msg); err != nil {
		return err
	}
	if info.Severity == domain.SeverityUnprotected {
		msg.Content = fmt.Sprintf("⚠️ %s 포지션에 손절 주문이 없습니다. 즉시 확인하세요.", info.Symbol)
		return c.sendToWebhook(c.errorWebhook, msg)
	}
	return nil
}

func severityEmoji(severity domain.Severity) string {
	switch severity {
	case domain.SeverityOK:
		return "✅"
	case domain.SeverityDegraded:
		return "⚠️"
	case domain.SeverityUnprotected:
		return "🚨"
	default:
		return "❌"
	}
}
