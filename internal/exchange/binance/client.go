// internal/exchange/binance/client.go
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
)

const (
	mainnetURL = "https://fapi.binance.com"
	testnetURL = "https://testnet.binancefuture.com"
)

// Client는 바이낸스 USDT-M 선물 API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	baseURL          string
	recvWindow       int64
	marginAsset      string
	http             *resty.Client
	serverTimeOffset int64 // 서버 시간과의 차이를 저장
	mu               sync.RWMutex
}

var _ exchange.Exchange = (*Client)(nil)

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = testnetURL
		} else {
			c.baseURL = mainnetURL
		}
	}
}

// WithRecvWindow는 서명 요청의 recvWindow(ms)를 설정합니다
func WithRecvWindow(ms int64) ClientOption {
	return func(c *Client) {
		c.recvWindow = ms
	}
}

// WithMarginAsset은 잔고 계산에 사용할 마진 자산을 설정합니다
func WithMarginAsset(asset string) ClientOption {
	return func(c *Client) {
		c.marginAsset = asset
	}
}

// NewClient는 새로운 바이낸스 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:      apiKey,
		secretKey:   secretKey,
		baseURL:     mainnetURL,
		recvWindow:  5000,
		marginAsset: "USDT",
		http:        resty.New().SetTimeout(10 * time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest는 HTTP 요청을 실행하고 응답 본문을 반환합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	if needSign {
		params.Set("timestamp", strconv.FormatInt(c.getServerTime(), 10))
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}

	// 서명은 전송되는 쿼리 문자열과 정확히 같은 순서여야 하므로 직접 조립합니다
	query := params.Encode()
	if needSign {
		query = query + "&signature=" + c.sign(query)
	}

	reqURL := c.baseURL + endpoint
	if query != "" {
		reqURL = reqURL + "?" + query
	}

	req := c.http.R().SetContext(ctx)
	if needSign {
		req.SetHeader("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := req.Execute(method, reqURL)
	if err != nil {
		return nil, fmt.Errorf("API 요청 실패: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return nil, &exchange.APIError{StatusCode: resp.StatusCode(), Message: string(body)}
		}
		return nil, &exchange.APIError{StatusCode: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}

	return body, nil
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// getServerTime은 현재 서버 시간을 반환합니다
func (c *Client) getServerTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}

// GetServerTime은 서버 시간을 조회합니다
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return time.Time{}, err
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return time.Time{}, fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	return time.UnixMilli(result.ServerTime), nil
}

// SyncTime은 바이낸스 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	serverTime, err := c.GetServerTime(ctx)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = serverTime.UnixMilli() - time.Now().UnixMilli()
	c.mu.Unlock()
	return nil
}

// GetSymbols는 전체 심볼의 거래 규칙을 조회합니다
func (c *Client) GetSymbols(ctx context.Context) ([]domain.SymbolRules, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return nil, fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}

	var exchangeInfo struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Status  string `json:"status"`
			Filters []struct {
				FilterType  string `json:"filterType"`
				StepSize    string `json:"stepSize,omitempty"`
				TickSize    string `json:"tickSize,omitempty"`
				MinNotional string `json:"notional,omitempty"`
			} `json:"filters"`
		} `json:"symbols"`
	}

	if err := json.Unmarshal(resp, &exchangeInfo); err != nil {
		return nil, fmt.Errorf("심볼 정보 파싱 실패: %w", err)
	}

	rules := make([]domain.SymbolRules, 0, len(exchangeInfo.Symbols))
	for _, s := range exchangeInfo.Symbols {
		r := domain.SymbolRules{
			Symbol:   s.Symbol,
			Tradable: s.Status == "TRADING",
		}

		// 필터 정보 추출
		for _, filter := range s.Filters {
			switch filter.FilterType {
			case "LOT_SIZE": // 수량 단위 필터
				if v, err := decimal.NewFromString(filter.StepSize); err == nil {
					r.QuantityStep = v
				}
			case "PRICE_FILTER": // 가격 단위 필터
				if v, err := decimal.NewFromString(filter.TickSize); err == nil {
					r.PriceTick = v
				}
			case "MIN_NOTIONAL": // 최소 주문 가치 필터
				if v, err := decimal.NewFromString(filter.MinNotional); err == nil {
					r.MinNotional = v
				}
			}
		}
		rules = append(rules, r)
	}

	return rules, nil
}

// GetSymbolRules는 특정 심볼의 거래 규칙을 조회합니다
func (c *Client) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	all, err := c.GetSymbols(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if r.Symbol == symbol {
			rules := r
			return &rules, nil
		}
	}
	return nil, fmt.Errorf("심볼 정보를 찾을 수 없음: %s", symbol)
}

// GetMarkPrice는 심볼의 마크 가격을 조회합니다
func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/premiumIndex", params, false)
	if err != nil {
		return decimal.Zero, fmt.Errorf("마크 가격 조회 실패: %w", err)
	}

	var result struct {
		Symbol    string          `json:"symbol"`
		MarkPrice decimal.Decimal `json:"markPrice"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return decimal.Zero, fmt.Errorf("마크 가격 파싱 실패: %w", err)
	}
	if !result.MarkPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("유효하지 않은 마크 가격: %s", result.MarkPrice)
	}

	return result.MarkPrice, nil
}

// GetAccount는 마진 자산의 총 잔고와 사용 중인 마진을 조회합니다
func (c *Client) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return nil, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	var result struct {
		Assets []struct {
			Asset                  string          `json:"asset"`
			WalletBalance          decimal.Decimal `json:"walletBalance"`
			InitialMargin          decimal.Decimal `json:"initialMargin"`
			PositionInitialMargin  decimal.Decimal `json:"positionInitialMargin"`
			OpenOrderInitialMargin decimal.Decimal `json:"openOrderInitialMargin"`
		} `json:"assets"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	for _, asset := range result.Assets {
		if asset.Asset != c.marginAsset {
			continue
		}
		used := asset.InitialMargin
		if used.IsZero() {
			used = asset.PositionInitialMargin.Add(asset.OpenOrderInitialMargin)
		}
		return &domain.AccountSnapshot{
			Asset:        asset.Asset,
			TotalBalance: asset.WalletBalance,
			UsedMargin:   used,
			FetchedAt:    time.Now(),
		}, nil
	}

	return nil, fmt.Errorf("%s 잔고가 없습니다", c.marginAsset)
}

// GetPositions는 현재 열린 포지션을 조회합니다
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var positionsRaw []struct {
		Symbol           string          `json:"symbol"`
		PositionAmt      decimal.Decimal `json:"positionAmt"`
		EntryPrice       decimal.Decimal `json:"entryPrice"`
		MarkPrice        decimal.Decimal `json:"markPrice"`
		UnrealizedProfit decimal.Decimal `json:"unRealizedProfit"`
		Leverage         string          `json:"leverage"`
		PositionSide     string          `json:"positionSide"`
	}

	if err := json.Unmarshal(resp, &positionsRaw); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 활성 포지션만 필터링 (수량이 0이 아닌 포지션)
	var positions []domain.Position
	for _, p := range positionsRaw {
		if p.PositionAmt.IsZero() {
			continue
		}
		leverage, _ := strconv.Atoi(p.Leverage)
		positions = append(positions, domain.Position{
			Symbol:        p.Symbol,
			PositionSide:  domain.PositionSide(p.PositionSide),
			Quantity:      p.PositionAmt,
			EntryPrice:    p.EntryPrice,
			MarkPrice:     p.MarkPrice,
			Leverage:      leverage,
			UnrealizedPnL: p.UnrealizedProfit,
		})
	}

	return positions, nil
}

// PlaceOrder는 새로운 주문을 생성합니다
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Add("symbol", order.Symbol)
	params.Add("side", string(order.Side))
	params.Add("type", string(order.Type))
	params.Add("newOrderRespType", "RESULT")

	if order.PositionSide != "" {
		params.Add("positionSide", string(order.PositionSide))
	}

	switch order.Type {
	case domain.Market:
		params.Add("quantity", order.Quantity.String())

	case domain.Limit:
		tif := order.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Add("timeInForce", tif)
		params.Add("quantity", order.Quantity.String())
		params.Add("price", order.Price.String())

	case domain.StopMarket, domain.TakeProfitMarket:
		params.Add("stopPrice", order.StopPrice.String())
		params.Add("workingType", "MARK_PRICE")
		if order.ClosePosition {
			// closePosition 주문은 수량/reduceOnly를 함께 보낼 수 없습니다
			params.Add("closePosition", "true")
		} else {
			params.Add("quantity", order.Quantity.String())
		}

	default:
		return nil, fmt.Errorf("지원하지 않는 주문 유형: %s", order.Type)
	}

	if order.ReduceOnly && !order.ClosePosition {
		params.Add("reduceOnly", "true")
	}

	if order.ClientOrderID != "" {
		params.Add("newClientOrderId", order.ClientOrderID)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return nil, fmt.Errorf("주문 실행 실패 [심볼: %s, 타입: %s, 수량: %s]: %w",
			order.Symbol, order.Type, order.Quantity, err)
	}

	var result struct {
		OrderID       int64           `json:"orderId"`
		Symbol        string          `json:"symbol"`
		Status        string          `json:"status"`
		ClientOrderID string          `json:"clientOrderId"`
		Price         decimal.Decimal `json:"price"`
		AvgPrice      decimal.Decimal `json:"avgPrice"`
		OrigQty       decimal.Decimal `json:"origQty"`
		ExecutedQty   decimal.Decimal `json:"executedQty"`
		Side          string          `json:"side"`
		PositionSide  string          `json:"positionSide"`
		Type          string          `json:"type"`
		UpdateTime    int64           `json:"updateTime"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	return &domain.OrderResponse{
		OrderID:          result.OrderID,
		Symbol:           result.Symbol,
		Status:           result.Status,
		ClientOrderID:    result.ClientOrderID,
		Price:            result.Price,
		AvgPrice:         result.AvgPrice,
		OrigQuantity:     result.OrigQty,
		ExecutedQuantity: result.ExecutedQty,
		Side:             domain.OrderSide(result.Side),
		PositionSide:     domain.PositionSide(result.PositionSide),
		Type:             domain.OrderType(result.Type),
		CreateTime:       time.UnixMilli(result.UpdateTime),
	}, nil
}

// SetLeverage는 레버리지를 설정합니다
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("leverage", strconv.Itoa(leverage))

	if _, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params, true); err != nil {
		return fmt.Errorf("레버리지 설정 실패: %w", err)
	}
	return nil
}

// SetMarginMode는 심볼의 마진 모드를 설정합니다
func (c *Client) SetMarginMode(ctx context.Context, symbol string, mode domain.MarginMode) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("marginType", string(mode))

	if _, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/marginType", params, true); err != nil {
		return fmt.Errorf("마진 모드 설정 실패: %w", err)
	}
	return nil
}

// SetPositionMode는 포지션 모드를 설정합니다
// "변경 불필요" 응답의 해석은 호출자에게 맡깁니다 (exchange.IsNoChange)
func (c *Client) SetPositionMode(ctx context.Context, hedgeMode bool) error {
	params := url.Values{}
	params.Add("dualSidePosition", strconv.FormatBool(hedgeMode))

	if _, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/positionSide/dual", params, true); err != nil {
		return fmt.Errorf("포지션 모드 설정 실패: %w", err)
	}
	return nil
}
