package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/scheduler"
)

// tradeFlags는 거래 요청 플래그 값입니다
type tradeFlags struct {
	symbol     string
	side       string
	orderType  string
	entry      string
	slMode     string
	slValue    string
	tp1        string
	tp1Percent string
	tp2        string
	quantity   string
	leverage   int
	margin     string
	capital    string
	yes        bool
}

func (f *tradeFlags) bindSizing(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.symbol, "symbol", "s", "", "심볼 (예: BTCUSDT)")
	cmd.Flags().StringVar(&f.entry, "entry", "", "진입가 (MARKET은 비우면 현재가)")
	cmd.Flags().StringVar(&f.slMode, "sl-mode", string(domain.StopPercent), "손절 방식 (POINTS|PERCENT)")
	cmd.Flags().StringVar(&f.slValue, "sl", "", "손절 값 (POINTS: 가격 거리, PERCENT: %)")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("sl")
}

func (f *tradeFlags) bindOrder(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.side, "side", string(domain.Long), "방향 (LONG|SHORT)")
	cmd.Flags().StringVar(&f.orderType, "type", string(domain.Market), "진입 주문 유형 (MARKET|LIMIT)")
	cmd.Flags().StringVar(&f.tp1, "tp1", "", "TP1 가격")
	cmd.Flags().StringVar(&f.tp1Percent, "tp1-pct", "50", "TP1 청산 비율 (%)")
	cmd.Flags().StringVar(&f.tp2, "tp2", "", "TP2 가격 (나머지 수량)")
	cmd.Flags().StringVar(&f.quantity, "qty", "", "사용자 지정 수량 (제안값 이하)")
	cmd.Flags().IntVar(&f.leverage, "leverage", 0, "사용자 지정 레버리지 (제안값 이하)")
	cmd.Flags().StringVar(&f.margin, "margin", string(domain.Isolated), "마진 모드 (ISOLATED|CROSSED)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "확인 없이 주문 제출")
}

// stopLoss는 손절 플래그를 해석합니다
func (f *tradeFlags) stopLoss() (domain.StopLoss, error) {
	value, err := parseDecimal("sl", f.slValue)
	if err != nil {
		return domain.StopLoss{}, err
	}
	mode := domain.StopLossMode(strings.ToUpper(f.slMode))
	if mode == "POINT" {
		mode = domain.StopPoints
	}
	return domain.StopLoss{Mode: mode, Value: value}, nil
}

// request는 플래그로 거래 요청을 만듭니다. 값의 범위 검증은 서비스가 합니다
func (f *tradeFlags) request() (domain.TradeRequest, error) {
	sl, err := f.stopLoss()
	if err != nil {
		return domain.TradeRequest{}, err
	}
	req := domain.TradeRequest{
		Symbol:     strings.ToUpper(f.symbol),
		Side:       domain.Side(strings.ToUpper(f.side)),
		OrderType:  domain.OrderType(strings.ToUpper(f.orderType)),
		StopLoss:   sl,
		MarginMode: domain.MarginMode(strings.ToUpper(f.margin)),
	}
	if req.MarginMode == "CROSS" {
		req.MarginMode = domain.Cross
	}

	if req.EntryPrice, err = parseDecimal("entry", f.entry); err != nil {
		return domain.TradeRequest{}, err
	}

	tp1, err := parseDecimal("tp1", f.tp1)
	if err != nil {
		return domain.TradeRequest{}, err
	}
	tp1Pct, err := parseDecimal("tp1-pct", f.tp1Percent)
	if err != nil {
		return domain.TradeRequest{}, err
	}
	tp2, err := parseDecimal("tp2", f.tp2)
	if err != nil {
		return domain.TradeRequest{}, err
	}
	req.TakeProfits = domain.NewTakeProfits(tp1, tp1Pct, tp2)

	if f.quantity != "" {
		q, err := parseDecimal("qty", f.quantity)
		if err != nil {
			return domain.TradeRequest{}, err
		}
		req.Override.Quantity = &q
	}
	if f.leverage != 0 {
		lev := f.leverage
		req.Override.Leverage = &lev
	}
	return req, nil
}

// parseDecimal은 빈 문자열을 0으로 해석합니다
func parseDecimal(name, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.Invalidf("", "parse_flag", "--%s 값이 숫자가 아닙니다: %q", name, s)
	}
	return d, nil
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	f := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "주문 없이 제안 수량과 레버리지를 계산",
		Example: `  riskmanager preview -s BTCUSDT --entry 27050 --sl 0.5
  riskmanager preview -s ETHUSDT --sl-mode POINTS --sl 15 --capital 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app

			sl, err := f.stopLoss()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(f.symbol)
			entry, err := parseDecimal("entry", f.entry)
			if err != nil {
				return err
			}
			if !entry.IsPositive() {
				if err := a.preparePaper(ctx, symbol); err != nil {
					return err
				}
				if entry, err = a.cache.Price(ctx, symbol); err != nil {
					return err
				}
			}

			capital, err := parseDecimal("capital", f.capital)
			if err != nil {
				return err
			}
			if !capital.IsPositive() {
				if capital, err = a.service.CapitalBase(ctx); err != nil {
					return err
				}
			}

			sizing, err := a.service.PreviewSizing(ctx, capital, entry, sl)
			if err != nil {
				return err
			}
			fmt.Println(renderSizing(symbol, entry, sizing))
			return nil
		},
	}
	f.bindSizing(cmd)
	cmd.Flags().StringVar(&f.capital, "capital", "", "기준 자본 (비우면 설정값 또는 미사용 잔고)")
	return cmd
}

func newTradeCmd(opts *rootOptions) *cobra.Command {
	f := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "리스크 기준으로 진입, 손절, 익절 주문 제출",
		Example: `  riskmanager trade -s BTCUSDT --side LONG --sl 0.5 --tp1 28000 --tp1-pct 50 --tp2 29000
  riskmanager trade -s ETHUSDT --side SHORT --type LIMIT --entry 1650 --sl-mode POINTS --sl 12 -y`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app

			req, err := f.request()
			if err != nil {
				return err
			}
			if err := a.preparePaper(ctx, req.Symbol); err != nil {
				return err
			}

			if !f.yes {
				ok, err := confirmTrade(ctx, a, req)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(infoStyle.Render("주문을 취소했습니다."))
					return nil
				}
			}

			outcome, err := a.service.PlaceTrade(ctx, req)
			if err != nil {
				return err
			}
			fmt.Println(renderOutcome(outcome))
			if outcome.Severity == domain.SeverityFailed {
				return errors.New("진입 주문이 수락되지 않았습니다")
			}
			return nil
		},
	}
	f.bindSizing(cmd)
	f.bindOrder(cmd)
	return cmd
}

// confirmTrade는 제안 수량을 보여주고 제출 여부를 묻습니다
func confirmTrade(ctx context.Context, a *app, req domain.TradeRequest) (bool, error) {
	entry := req.EntryPrice
	if !entry.IsPositive() {
		price, err := a.cache.Price(ctx, req.Symbol)
		if err != nil {
			return false, err
		}
		entry = price
	}
	capital, err := a.service.CapitalBase(ctx)
	if err != nil {
		return false, err
	}
	sizing, err := a.service.PreviewSizing(ctx, capital, entry, req.StopLoss)
	if err != nil {
		return false, err
	}
	fmt.Println(renderSizing(req.Symbol, entry, sizing))

	confirmed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s %s %s 주문을 제출할까요?", req.Symbol, req.Side, req.OrderType),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, fmt.Errorf("확인 입력 실패: %w", err)
	}
	return confirmed, nil
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "일일 거래 횟수 조회",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.app.service.GetDailyStats(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Println(renderStats(stats, opts.cfg.Governance.DailyMaxTrades, opts.cfg.Governance.DailyMaxPerSymbol))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "조회 날짜 YYYY-MM-DD (UTC, 비우면 오늘)")
	return cmd
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "거래 기록 조회",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.app.service.TradeLog(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Println(renderTradeLog(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "조회 날짜 YYYY-MM-DD (UTC, 비우면 오늘)")
	return cmd
}

func newSymbolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "거래 가능한 심볼 목록",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := opts.app.preparePaper(ctx); err != nil {
				return err
			}
			symbols, err := opts.app.symbols.TradableSymbols(ctx)
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("거래 가능 심볼 %d개", len(symbols))))
			fmt.Println(strings.Join(symbols, " "))
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "지표 엔드포인트와 심볼 정보 갱신 작업 실행",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app
			logger := opts.logger

			if err := a.preparePaper(ctx); err != nil {
				return err
			}
			if err := a.symbols.Refresh(ctx); err != nil {
				logger.Warn("초기 심볼 정보 조회 실패", zap.Error(err))
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:              opts.cfg.App.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("지표 서버 종료", zap.Error(err))
				}
			}()

			// 심볼 정보 주기 갱신
			refresh := scheduler.NewScheduler("symbol-refresh", opts.cfg.App.SymbolRefresh,
				scheduler.TaskFunc(a.symbols.Refresh), logger)

			if err := a.notifier.SendInfo("🚀 리스크 매니저가 시작되었습니다."); err != nil {
				logger.Warn("시작 알림 전송 실패", zap.Error(err))
			}
			fmt.Println(infoStyle.Render(fmt.Sprintf("지표 서버: %s/metrics", opts.cfg.App.MetricsAddr)))

			err := refresh.Start(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("지표 서버 종료 실패", zap.Error(serr))
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
