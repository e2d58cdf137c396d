// Package journal은 수락된 거래의 추가 전용 기록을 관리합니다
package journal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

var (
	ErrRecordNotFound  = errors.New("거래 기록을 찾을 수 없습니다")
	ErrDuplicateRecord = errors.New("이미 존재하는 거래 기록입니다")
)

// Log는 거래 기록 저장소입니다
type Log interface {
	Append(ctx context.Context, record domain.TradeRecord) error
	List(ctx context.Context, date string) ([]domain.TradeRecord, error)
	Get(ctx context.Context, id string) (*domain.TradeRecord, error)
}

// Journal은 저장소 앞에서 기록 조건을 확인합니다
type Journal struct {
	log    Log
	logger *zap.Logger
}

// New는 새로운 Journal을 생성합니다
func New(log Log, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{log: log, logger: logger.Named("journal")}
}

// Append는 진입이 수락된 거래만 기록합니다
func (j *Journal) Append(ctx context.Context, record domain.TradeRecord) error {
	if record.ID == "" {
		return fmt.Errorf("거래 기록 ID가 비어 있습니다")
	}
	if record.LegStatus.Entry != domain.LegPlaced {
		return fmt.Errorf("진입이 수락되지 않은 거래는 기록하지 않습니다: %s", record.ID)
	}
	if record.Date == "" {
		record.Date = record.Timestamp.UTC().Format(domain.DateLayout)
	}

	if err := j.log.Append(ctx, record); err != nil {
		return fmt.Errorf("거래 기록 저장 실패: %w", err)
	}

	j.logger.Info("거래 기록 저장",
		zap.String("id", record.ID),
		zap.String("symbol", record.Symbol),
		zap.String("date", record.Date),
		zap.Bool("protected", record.IsProtected()),
	)
	return nil
}

// List는 날짜의 거래 기록을 기록 순서대로 반환합니다
func (j *Journal) List(ctx context.Context, date string) ([]domain.TradeRecord, error) {
	records, err := j.log.List(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("거래 기록 조회 실패: %w", err)
	}
	return records, nil
}

// Get은 ID로 거래 기록을 조회합니다
func (j *Journal) Get(ctx context.Context, id string) (*domain.TradeRecord, error) {
	return j.log.Get(ctx, id)
}
