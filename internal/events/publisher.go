package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// DefaultTopic은 거래 이벤트 기본 토픽입니다
const DefaultTopic = "riskmanager.trades"

// TradeEvent는 진입이 수락된 거래마다 발행되는 이벤트입니다
type TradeEvent struct {
	TradeID    string           `json:"tradeId"`
	Timestamp  time.Time        `json:"timestamp"`
	Date       string           `json:"date"`
	Symbol     string           `json:"symbol"`
	Side       domain.Side      `json:"side"`
	OrderType  domain.OrderType `json:"orderType"`
	Quantity   decimal.Decimal  `json:"quantity"`
	EntryPrice decimal.Decimal  `json:"entryPrice"`
	Leverage   int              `json:"leverage"`
	RiskAmount decimal.Decimal  `json:"riskAmount"`
	Legs       domain.LegStatus `json:"legs"`
	Severity   domain.Severity  `json:"severity"`
	ErrorKinds []string         `json:"errorKinds,omitempty"`
}

// NewTradeEvent는 거래 결과에서 이벤트를 만듭니다. 기록이 없으면 nil을 반환합니다
func NewTradeEvent(outcome *domain.TradeOutcome) *TradeEvent {
	rec := outcome.Record
	if rec == nil {
		return nil
	}
	ev := &TradeEvent{
		TradeID:    rec.ID,
		Timestamp:  rec.Timestamp,
		Date:       rec.Date,
		Symbol:     rec.Symbol,
		Side:       rec.Side,
		OrderType:  rec.OrderType,
		Quantity:   rec.Quantity,
		EntryPrice: rec.EntryPrice,
		Leverage:   rec.Leverage,
		RiskAmount: rec.RiskAmount,
		Legs:       outcome.LegStatus,
		Severity:   outcome.Severity,
	}
	for _, e := range outcome.Errors {
		ev.ErrorKinds = append(ev.ErrorKinds, string(e.Kind))
	}
	return ev
}

// Publisher는 거래 이벤트 발행 인터페이스입니다
type Publisher interface {
	PublishTrade(ctx context.Context, ev *TradeEvent) error
	Close() error
}

// MessageWriter는 kafka.Writer가 만족하는 최소 인터페이스입니다
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher는 Kafka로 거래 이벤트를 발행합니다
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter는 거래 이벤트용 kafka.Writer를 생성합니다
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// NewKafkaPublisher는 새로운 KafkaPublisher를 생성합니다
func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logger.Named("events"),
	}
}

// PublishTrade는 심볼을 키로 이벤트를 발행합니다
func (p *KafkaPublisher) PublishTrade(ctx context.Context, ev *TradeEvent) error {
	if ev == nil {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("이벤트 직렬화 실패: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Symbol),
		Value: value,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "severity", Value: []byte(ev.Severity)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("이벤트 발행 실패 (trade=%s): %w", ev.TradeID, err)
	}

	p.logger.Debug("거래 이벤트 발행",
		zap.String("tradeId", ev.TradeID),
		zap.String("symbol", ev.Symbol),
		zap.String("severity", string(ev.Severity)),
	)
	return nil
}

// Close는 writer를 닫습니다
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher는 이벤트를 버립니다
type NopPublisher struct{}

func (NopPublisher) PublishTrade(context.Context, *TradeEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
