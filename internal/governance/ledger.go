// Package governance는 UTC 날짜 기준 일일 거래 횟수 제한을 관리합니다.
//
// 카운터는 진입 주문이 수락된 뒤에만 증가합니다. 같은 (날짜, 심볼)에 대한
// 확인부터 커밋까지는 Lock으로 직렬화되며, 서로 다른 심볼은 병렬로 진행합니다.
// 따라서 심볼이 다른 동시 거래 하나만큼 전체 한도를 넘을 수 있습니다.
package governance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// Store는 날짜별 거래 카운터 저장소입니다
type Store interface {
	// Counts는 날짜의 카운터를 반환합니다. 기록이 없으면 0입니다
	Counts(ctx context.Context, date string) (domain.GovernanceState, error)
	// Increment는 전체와 심볼 카운터를 함께 1 증가시킵니다
	Increment(ctx context.Context, date, symbol string) error
}

// Limits는 일일 거래 제한입니다
type Limits struct {
	MaxTrades    int // 하루 전체 최대 거래 수
	MaxPerSymbol int // 하루 심볼별 최대 거래 수
}

// DefaultLimits는 기본 제한을 반환합니다
func DefaultLimits() Limits {
	return Limits{MaxTrades: 4, MaxPerSymbol: 2}
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Ledger는 거래 빈도 제한을 적용합니다
type Ledger struct {
	store  Store
	limits Limits
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewLedger는 새로운 Ledger를 생성합니다
func NewLedger(store Store, limits Limits, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultLimits()
	if limits.MaxTrades < 1 {
		limits.MaxTrades = def.MaxTrades
	}
	if limits.MaxPerSymbol < 1 {
		limits.MaxPerSymbol = def.MaxPerSymbol
	}
	return &Ledger{
		store:  store,
		limits: limits,
		logger: logger.Named("governance"),
		locks:  make(map[string]*keyLock),
	}
}

// Limits는 설정된 제한을 반환합니다
func (l *Ledger) Limits() Limits {
	return l.limits
}

// DateOf는 시각의 UTC 날짜 키를 반환합니다
func DateOf(t time.Time) string {
	return t.UTC().Format(domain.DateLayout)
}

// Lock은 (날짜, 심볼) 단위 뮤텍스를 잡고 해제 함수를 반환합니다
func (l *Ledger) Lock(date, symbol string) (unlock func()) {
	key := date + "|" + symbol

	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			kl.mu.Unlock()

			l.mu.Lock()
			kl.refs--
			if kl.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// CheckAndReserve는 새 거래를 허용할 수 있는지 확인합니다
// 호출자는 커밋까지 Lock을 잡고 있어야 같은 심볼의 동시 요청이 한도를 넘지 않습니다
func (l *Ledger) CheckAndReserve(ctx context.Context, date, symbol string) error {
	state, err := l.store.Counts(ctx, date)
	if err != nil {
		return fmt.Errorf("거래 횟수 조회 실패: %w", err)
	}

	if state.Total >= l.limits.MaxTrades {
		l.logger.Info("일일 거래 한도 도달",
			zap.String("date", date),
			zap.String("symbol", symbol),
			zap.Int("total", state.Total),
		)
		return domain.NewTradeError(domain.KindDailyLimitExceeded, symbol, "governance_check",
			fmt.Errorf("%s 거래 %d/%d회", date, state.Total, l.limits.MaxTrades))
	}

	if n := state.PerSymbol[symbol]; n >= l.limits.MaxPerSymbol {
		l.logger.Info("심볼 일일 거래 한도 도달",
			zap.String("date", date),
			zap.String("symbol", symbol),
			zap.Int("count", n),
		)
		return domain.NewTradeError(domain.KindSymbolLimitExceeded, symbol, "governance_check",
			fmt.Errorf("%s %s 거래 %d/%d회", date, symbol, n, l.limits.MaxPerSymbol))
	}

	return nil
}

// Commit은 수락된 진입 한 건을 기록합니다
func (l *Ledger) Commit(ctx context.Context, date, symbol string) error {
	if err := l.store.Increment(ctx, date, symbol); err != nil {
		return fmt.Errorf("거래 횟수 기록 실패: %w", err)
	}
	l.logger.Debug("거래 횟수 기록", zap.String("date", date), zap.String("symbol", symbol))
	return nil
}

// Stats는 날짜의 카운터 스냅샷을 반환합니다
func (l *Ledger) Stats(ctx context.Context, date string) (domain.GovernanceState, error) {
	state, err := l.store.Counts(ctx, date)
	if err != nil {
		return domain.GovernanceState{}, fmt.Errorf("거래 횟수 조회 실패: %w", err)
	}
	if state.PerSymbol == nil {
		state.PerSymbol = make(map[string]int)
	}
	state.Date = date
	return state, nil
}
