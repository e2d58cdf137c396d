// Package memory는 프로세스 메모리에 거래 카운터와 거래 기록을 보관합니다
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/governance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
)

// Store는 governance.Store와 journal.Log를 구현합니다
type Store struct {
	mu      sync.RWMutex
	counts  map[string]*domain.GovernanceState
	records []domain.TradeRecord
	index   map[string]int
}

var (
	_ governance.Store = (*Store)(nil)
	_ journal.Log      = (*Store)(nil)
)

// New는 빈 저장소를 생성합니다
func New() *Store {
	return &Store{
		counts: make(map[string]*domain.GovernanceState),
		index:  make(map[string]int),
	}
}

func (s *Store) Counts(ctx context.Context, date string) (domain.GovernanceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.GovernanceState{Date: date, PerSymbol: make(map[string]int)}
	if st, ok := s.counts[date]; ok {
		out.Total = st.Total
		for k, v := range st.PerSymbol {
			out.PerSymbol[k] = v
		}
	}
	return out, nil
}

func (s *Store) Increment(ctx context.Context, date, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.counts[date]
	if !ok {
		st = &domain.GovernanceState{Date: date, PerSymbol: make(map[string]int)}
		s.counts[date] = st
	}
	st.Total++
	st.PerSymbol[symbol]++
	return nil
}

func (s *Store) Append(ctx context.Context, record domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[record.ID]; ok {
		return fmt.Errorf("%w: %s", journal.ErrDuplicateRecord, record.ID)
	}
	s.index[record.ID] = len(s.records)
	s.records = append(s.records, cloneRecord(record))
	return nil
}

func (s *Store) List(ctx context.Context, date string) ([]domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TradeRecord
	for _, r := range s.records {
		if date == "" || r.Date == date {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", journal.ErrRecordNotFound, id)
	}
	r := cloneRecord(s.records[i])
	return &r, nil
}

// cloneRecord는 호출자가 저장된 기록을 바꾸지 못하도록 맵을 복사합니다
func cloneRecord(r domain.TradeRecord) domain.TradeRecord {
	if r.OrderIDs != nil {
		ids := make(map[string]int64, len(r.OrderIDs))
		for k, v := range r.OrderIDs {
			ids[k] = v
		}
		r.OrderIDs = ids
	}
	return r
}
