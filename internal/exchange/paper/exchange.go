// Package paper는 실제 거래소를 호출하지 않는 메모리 기반 커넥터입니다.
//
// 마지막으로 설정된 가격으로 시장가 주문을 즉시 체결한 것으로 처리하고,
// 손절/익절 주문은 접수만 기록합니다. 드라이런과 CLI 점검에 사용합니다.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

// Exchange는 단일 가격표와 잔고로 체결을 흉내 내는 커넥터입니다
type Exchange struct {
	mu         sync.Mutex
	rules      map[string]domain.SymbolRules
	prices     map[string]decimal.Decimal
	balance    decimal.Decimal
	usedMargin decimal.Decimal
	leverage   map[string]int
	margin     map[string]domain.MarginMode
	hedgeMode  bool
	positions  map[string]decimal.Decimal
	orders     []domain.OrderResponse
	nextID     int64
}

var _ exchange.Exchange = (*Exchange)(nil)

// New는 주어진 지갑 잔고로 페이퍼 커넥터를 생성합니다
func New(balance decimal.Decimal) *Exchange {
	return &Exchange{
		rules:     make(map[string]domain.SymbolRules),
		prices:    make(map[string]decimal.Decimal),
		balance:   balance,
		leverage:  make(map[string]int),
		margin:    make(map[string]domain.MarginMode),
		positions: make(map[string]decimal.Decimal),
		nextID:    1,
	}
}

// AddSymbol은 심볼 규칙과 초기 가격을 등록합니다
func (p *Exchange) AddSymbol(rules domain.SymbolRules, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules[rules.Symbol] = rules
	p.prices[rules.Symbol] = price
}

// SetPrice는 심볼의 현재가를 변경합니다
func (p *Exchange) SetPrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// Orders는 접수된 주문 목록의 복사본을 반환합니다
func (p *Exchange) Orders() []domain.OrderResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderResponse, len(p.orders))
	copy(out, p.orders)
	return out
}

func (p *Exchange) GetSymbols(ctx context.Context) ([]domain.SymbolRules, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.SymbolRules, 0, len(p.rules))
	for _, r := range p.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (p *Exchange) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rules[symbol]
	if !ok {
		return nil, fmt.Errorf("심볼 정보를 찾을 수 없음: %s", symbol)
	}
	return &r, nil
}

func (p *Exchange) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.prices[symbol]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("가격 정보 없음: %s", symbol)
	}
	return price, nil
}

func (p *Exchange) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &domain.AccountSnapshot{
		Asset:        "USDT",
		TotalBalance: p.balance,
		UsedMargin:   p.usedMargin,
		FetchedAt:    time.Now(),
	}, nil
}

func (p *Exchange) GetPositions(ctx context.Context) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Position
	for symbol, qty := range p.positions {
		if qty.IsZero() {
			continue
		}
		out = append(out, domain.Position{
			Symbol:       symbol,
			PositionSide: domain.BothPosition,
			Quantity:     qty,
			MarkPrice:    p.prices[symbol],
			Leverage:     p.leverage[symbol],
		})
	}
	return out, nil
}

// PlaceOrder는 시장가/지정가 주문을 즉시 체결하고 조건부 주문은 NEW 상태로 접수합니다
func (p *Exchange) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[order.Symbol]
	if !ok {
		return nil, fmt.Errorf("가격 정보 없음: %s", order.Symbol)
	}

	resp := domain.OrderResponse{
		OrderID:       p.nextID,
		Symbol:        order.Symbol,
		Status:        "NEW",
		ClientOrderID: order.ClientOrderID,
		OrigQuantity:  order.Quantity,
		Side:          order.Side,
		PositionSide:  order.PositionSide,
		Type:          order.Type,
		CreateTime:    time.Now().UTC(),
	}
	if resp.ClientOrderID == "" {
		resp.ClientOrderID = uuid.New().String()
	}
	p.nextID++

	switch order.Type {
	case domain.Market, domain.Limit:
		if !order.Quantity.IsPositive() {
			return nil, &exchange.APIError{StatusCode: 400, Code: exchange.CodeQuantityNonPositive, Message: "Quantity less than or equal to zero."}
		}
		fill := price
		if order.Type == domain.Limit {
			fill = order.Price
		}
		resp.Status = "FILLED"
		resp.Price = order.Price
		resp.AvgPrice = fill
		resp.ExecutedQuantity = order.Quantity

		signed := order.Quantity
		if order.Side == domain.Sell {
			signed = signed.Neg()
		}
		p.positions[order.Symbol] = p.positions[order.Symbol].Add(signed)

		lev := p.leverage[order.Symbol]
		if lev < 1 {
			lev = 1
		}
		p.usedMargin = p.usedMargin.Add(order.Quantity.Mul(fill).Div(decimal.NewFromInt(int64(lev))))
	default:
		resp.Price = order.StopPrice
	}

	p.orders = append(p.orders, resp)
	return &resp, nil
}

func (p *Exchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if leverage < 1 || leverage > 125 {
		return &exchange.APIError{StatusCode: 400, Code: -4028, Message: "Leverage is not valid"}
	}
	p.leverage[symbol] = leverage
	return nil
}

func (p *Exchange) SetMarginMode(ctx context.Context, symbol string, mode domain.MarginMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.margin[symbol] == mode {
		return &exchange.APIError{StatusCode: 400, Code: exchange.CodeMarginNoChange, Message: "No need to change margin type."}
	}
	p.margin[symbol] = mode
	return nil
}

func (p *Exchange) SetPositionMode(ctx context.Context, hedgeMode bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hedgeMode == hedgeMode {
		return &exchange.APIError{StatusCode: 400, Code: exchange.CodePositionNoChange, Message: "No need to change position side."}
	}
	p.hedgeMode = hedgeMode
	return nil
}

// SyncTime은 로컬 시계를 그대로 사용하므로 아무 것도 하지 않습니다
func (p *Exchange) SyncTime(ctx context.Context) error {
	return nil
}
