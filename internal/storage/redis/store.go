// Package redis는 Redis에 거래 카운터와 거래 기록을 보관합니다.
//
// 키 구조:
//
//	{prefix}stats:{date}   해시, 필드 _total 과 심볼별 카운트
//	{prefix}trade:{id}     거래 기록 JSON
//	{prefix}trades:{date}  리스트, 날짜별 거래 ID (기록 순서)
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/governance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
)

const (
	totalField = "_total"
	defaultTTL = 30 * 24 * time.Hour
)

// Store는 governance.Store와 journal.Log를 구현합니다
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var (
	_ governance.Store = (*Store)(nil)
	_ journal.Log      = (*Store)(nil)
)

// Option은 Store 설정 함수입니다
type Option func(*Store)

// WithPrefix는 키 접두사를 설정합니다
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL은 카운터와 기록의 보관 기간을 설정합니다
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New는 기존 클라이언트로 Store를 생성합니다
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "riskmanager:",
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("redis")
	return s
}

// Dial은 주소로 클라이언트를 만들고 연결을 확인합니다
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis 연결 실패 (%s): %w", addr, err)
	}
	return New(client, opts...), nil
}

// Close는 클라이언트를 닫습니다
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) statsKey(date string) string { return s.prefix + "stats:" + date }
func (s *Store) tradeKey(id string) string { return s.prefix + "trade:" + id }
func (s *Store) tradesKey(date string) string { return s.prefix + "trades:" + date }

func (s *Store) Counts(ctx context.Context, date string) (domain.GovernanceState, error) {
	fields, err := s.client.HGetAll(ctx, s.statsKey(date)).Result()
	if err != nil {
		return domain.GovernanceState{}, fmt.Errorf("카운터 조회 실패: %w", err)
	}

	state := domain.GovernanceState{Date: date, PerSymbol: make(map[string]int)}
	for field, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.GovernanceState{}, fmt.Errorf("카운터 값 파싱 실패 (%s=%q): %w", field, raw, err)
		}
		if field == totalField {
			state.Total = n
			continue
		}
		state.PerSymbol[field] = n
	}
	return state, nil
}

func (s *Store) Increment(ctx context.Context, date, symbol string) error {
	key := s.statsKey(date)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, totalField, 1)
		pipe.HIncrBy(ctx, key, symbol, 1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("카운터 증가 실패: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, record domain.TradeRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("거래 기록 직렬화 실패: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.tradeKey(record.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("거래 기록 저장 실패: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", journal.ErrDuplicateRecord, record.ID)
	}

	listKey := s.tradesKey(record.Date)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, listKey, record.ID)
	pipe.Expire(ctx, listKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("거래 목록 갱신 실패: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, date string) ([]domain.TradeRecord, error) {
	ids, err := s.client.LRange(ctx, s.tradesKey(date), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("거래 목록 조회 실패: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.tradeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("거래 기록 조회 실패: %w", err)
	}

	records := make([]domain.TradeRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// 만료된 기록
			s.logger.Warn("거래 기록 없음", zap.String("id", ids[i]), zap.String("date", date))
			continue
		}
		var rec domain.TradeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("거래 기록 파싱 실패 (%s): %w", ids[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.TradeRecord, error) {
	raw, err := s.client.Get(ctx, s.tradeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", journal.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("거래 기록 조회 실패: %w", err)
	}

	var rec domain.TradeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("거래 기록 파싱 실패 (%s): %w", id, err)
	}
	return &rec, nil
}
