// Package metrics는 주문 실행 흐름의 Prometheus 지표를 제공합니다
//
//   - riskmanager_trades_total{symbol,severity}   진입이 수락된 거래 수
//   - riskmanager_legs_total{leg,state}           레그별 처리 결과
//   - riskmanager_rejections_total{kind}          거래소 호출 전후 거부 사유
//   - riskmanager_trade_duration_seconds          PlaceTrade 소요 시간
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// Recorder는 거래 지표를 기록합니다
type Recorder struct {
	trades     *prometheus.CounterVec
	legs       *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New는 지표를 생성하고 reg에 등록합니다. reg가 nil이면 등록하지 않습니다
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskmanager_trades_total",
				Help: "Trades whose entry order was accepted, by resulting severity",
			},
			[]string{"symbol", "severity"},
		),
		legs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskmanager_legs_total",
				Help: "Order legs by final state",
			},
			[]string{"leg", "state"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskmanager_rejections_total",
				Help: "Trade requests rejected, by error kind",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "riskmanager_trade_duration_seconds",
				Help:    "End-to-end PlaceTrade latency",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
		),
	}
	if reg != nil {
		reg.MustRegister(r.trades, r.legs, r.rejections, r.duration)
	}
	return r
}

// ObserveOutcome은 거래 결과의 심각도와 레그 상태를 기록합니다
func (r *Recorder) ObserveOutcome(symbol string, outcome *domain.TradeOutcome) {
	if r == nil || outcome == nil {
		return
	}
	if outcome.Record != nil {
		r.trades.WithLabelValues(symbol, string(outcome.Severity)).Inc()
	}
	legs := outcome.LegStatus
	r.legs.WithLabelValues("entry", string(legs.Entry)).Inc()
	r.legs.WithLabelValues("stop_loss", string(legs.StopLoss)).Inc()
	r.legs.WithLabelValues("tp1", string(legs.TP1)).Inc()
	r.legs.WithLabelValues("tp2", string(legs.TP2)).Inc()
}

// ObserveRejection은 거부 사유를 기록합니다
func (r *Recorder) ObserveRejection(err error) {
	if r == nil || err == nil {
		return
	}
	kind, ok := domain.KindOf(err)
	if !ok {
		kind = "Unknown"
	}
	r.rejections.WithLabelValues(string(kind)).Inc()
}

// ObserveDuration은 시작 시각부터의 소요 시간을 기록합니다
func (r *Recorder) ObserveDuration(start time.Time) {
	if r == nil {
		return
	}
	r.duration.Observe(time.Since(start).Seconds())
}
