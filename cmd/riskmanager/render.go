package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	boxStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6B7280")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF")).
		Width(14)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#EF4444"))
)

// severityStyle은 심각도별 출력 스타일을 반환합니다
func severityStyle(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeverityOK:
		return infoStyle
	case domain.SeverityDegraded:
		return warnStyle
	default:
		return errorStyle
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderSizing(symbol string, entry decimal.Decimal, s domain.SizingResult) string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%s 포지션 계산", symbol)),
		row("기준 자본", s.CapitalBase.StringFixed(2)),
		row("리스크 금액", s.RiskAmount.StringFixed(2)),
		row("기준가", entry.String()),
		row("손절 거리", fmt.Sprintf("%s%% (버퍼 포함 %s%%)", s.StopPercent.StringFixed(4), s.DistancePercent.StringFixed(4))),
		row("제안 수량", s.SuggestedQuantity.String()),
		row("제안 레버리지", fmt.Sprintf("%sx (주문 %dx)", s.SuggestedLeverage.String(), s.WireLeverage)),
		row("명목 가치", s.Notional.StringFixed(2)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderOutcome(o *domain.TradeOutcome) string {
	style := severityStyle(o.Severity)
	lines := []string{style.Render(fmt.Sprintf("결과: %s", o.Severity))}

	if r := o.Record; r != nil {
		lines = append(lines,
			row("거래 ID", r.ID),
			row("심볼", fmt.Sprintf("%s %s %s", r.Symbol, r.Side, r.OrderType)),
			row("수량", r.Quantity.String()),
			row("진입가", r.EntryPrice.String()),
			row("레버리지", fmt.Sprintf("%dx %s", r.Leverage, r.MarginMode)),
		)
		if r.StopLossPrice != nil {
			lines = append(lines, row("손절가", r.StopLossPrice.String()))
		}
		if r.TakeProfit1 != nil {
			lines = append(lines, row("TP1", fmt.Sprintf("%s × %s", r.TakeProfit1.Price, r.TakeProfit1.Quantity)))
		}
		if r.TakeProfit2 != nil {
			lines = append(lines, row("TP2", fmt.Sprintf("%s × %s", r.TakeProfit2.Price, r.TakeProfit2.Quantity)))
		}
	}

	legs := o.LegStatus
	lines = append(lines, row("레그", fmt.Sprintf("진입 %s | 손절 %s | TP1 %s | TP2 %s",
		legs.Entry, legs.StopLoss, legs.TP1, legs.TP2)))

	if o.Severity == domain.SeverityUnprotected {
		lines = append(lines, errorStyle.Render("⚠️ 포지션에 손절 주문이 없습니다. 즉시 확인하세요."))
	}
	for _, e := range o.Errors {
		lines = append(lines, severityStyle(e.Severity).Render("- "+e.Error()))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderStats(st domain.GovernanceState, maxTotal, maxPerSymbol int) string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%s 거래 횟수 (UTC)", st.Date)),
		row("전체", fmt.Sprintf("%d / %d", st.Total, maxTotal)),
	}

	symbols := make([]string, 0, len(st.PerSymbol))
	for s := range st.PerSymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		lines = append(lines, row(s, fmt.Sprintf("%d / %d", st.PerSymbol[s], maxPerSymbol)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTradeLog(records []domain.TradeRecord) string {
	if len(records) == 0 {
		return infoStyle.Render("거래 기록이 없습니다.")
	}
	lines := []string{headerStyle.Render(fmt.Sprintf("거래 기록 %d건", len(records)))}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-10s %-5s %s @ %s  %dx  SL:%s TP1:%s TP2:%s",
			r.Timestamp.UTC().Format("15:04:05"),
			r.Symbol, r.Side, r.Quantity, r.EntryPrice, r.Leverage,
			r.LegStatus.StopLoss, r.LegStatus.TP1, r.LegStatus.TP2)
		if !r.IsProtected() {
			line = errorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
