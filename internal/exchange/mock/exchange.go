// Package mock은 테스트용 거래소 커넥터 목입니다
package mock

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// Exchange는 testify/mock 기반 거래소 커넥터입니다
type Exchange struct {
	mock.Mock
}

var _ exchange.Exchange = (*Exchange)(nil)

func (m *Exchange) GetSymbols(ctx context.Context) ([]domain.SymbolRules, error) {
	args := m.Called(ctx)
	rules, _ := args.Get(0).([]domain.SymbolRules)
	return rules, args.Error(1)
}

func (m *Exchange) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	args := m.Called(ctx, symbol)
	rules, _ := args.Get(0).(*domain.SymbolRules)
	return rules, args.Error(1)
}

func (m *Exchange) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	price, _ := args.Get(0).(decimal.Decimal)
	return price, args.Error(1)
}

func (m *Exchange) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	args := m.Called(ctx)
	acct, _ := args.Get(0).(*domain.AccountSnapshot)
	return acct, args.Error(1)
}

func (m *Exchange) GetPositions(ctx context.Context) ([]domain.Position, error) {
	args := m.Called(ctx)
	positions, _ := args.Get(0).([]domain.Position)
	return positions, args.Error(1)
}

func (m *Exchange) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	args := m.Called(ctx, order)
	resp, _ := args.Get(0).(*domain.OrderResponse)
	return resp, args.Error(1)
}

func (m *Exchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return m.Called(ctx, symbol, leverage).Error(0)
}

func (m *Exchange) SetMarginMode(ctx context.Context, symbol string, mode domain.MarginMode) error {
	return m.Called(ctx, symbol, mode).Error(0)
}

func (m *Exchange) SetPositionMode(ctx context.Context, hedgeMode bool) error {
	return m.Called(ctx, hedgeMode).Error(0)
}

func (m *Exchange) SyncTime(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// OrderOfType은 주문 유형으로 PlaceOrder 인자를 매칭합니다
func OrderOfType(t domain.OrderType) any {
	return mock.MatchedBy(func(o domain.OrderRequest) bool { return o.Type == t })
}

// OrderForLeg는 클라이언트 주문 ID 접두사(en, sl, tp1, tp2)로 PlaceOrder 인자를 매칭합니다
func OrderForLeg(leg string) any {
	return mock.MatchedBy(func(o domain.OrderRequest) bool {
		return strings.HasPrefix(o.ClientOrderID, leg+"-")
	})
}
