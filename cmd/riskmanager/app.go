package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/config"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/events"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange"
	eBinance "github.com/salonikashyap7899/RISK-MANAGER/internal/exchange/binance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/exchange/paper"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/governance"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/market"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/metrics"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification/discord"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/position"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/risk"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/storage/memory"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/storage/redis"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/trading"
)

// store는 거래 횟수와 거래 기록을 함께 저장하는 저장소입니다
type store interface {
	governance.Store
	journal.Log
}

// app은 명령 실행에 필요한 구성 요소를 묶습니다
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	exchange exchange.Exchange
	quotes   *eBinance.Client // 페이퍼 모드의 시세 출처
	paper    *paper.Exchange
	symbols  *market.SymbolProvider
	cache    *market.DataCache
	notifier notification.Notifier
	service  *trading.Service
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// 바이낸스 클라이언트 생성
	binanceClient := eBinance.NewClient(
		cfg.Binance.APIKey,
		cfg.Binance.SecretKey,
		eBinance.WithTimeout(10*time.Second),
		eBinance.WithTestnet(cfg.Binance.UseTestnet),
	)
	if cfg.Binance.Paper {
		// 시세는 실제 거래소에서, 주문은 메모리에서 처리
		a.paper = paper.New(cfg.Binance.PaperBalance)
		a.quotes = binanceClient
		a.exchange = a.paper
	} else {
		// 바이낸스 서버와 시간 동기화
		if err := binanceClient.SyncTime(ctx); err != nil {
			return nil, fmt.Errorf("바이낸스 서버 시간 동기화 실패: %w", err)
		}
		a.exchange = binanceClient
	}

	// 저장소
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	// 알림
	a.notifier = notification.NopNotifier{}
	if cfg.Discord.TradeWebhook != "" || cfg.Discord.ErrorWebhook != "" || cfg.Discord.InfoWebhook != "" {
		a.notifier = discord.NewClient(
			cfg.Discord.TradeWebhook,
			cfg.Discord.ErrorWebhook,
			cfg.Discord.InfoWebhook,
			discord.WithTimeout(10*time.Second),
		)
	}

	// 이벤트
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		publisher = kp
		a.closers = append(a.closers, kp.Close)
	}

	a.symbols = market.NewSymbolProvider(a.exchange, cfg.Cache.SymbolTTL, logger)
	a.cache = market.NewDataCache(a.exchange, cfg.Cache.PriceTTL, cfg.Cache.BalanceTTL, logger)

	calculator := risk.NewCalculator(risk.Config{
		RiskPercent:   cfg.Risk.RiskPercent,
		PointsBuffer:  cfg.Risk.PointsBuffer,
		PercentBuffer: cfg.Risk.PercentBuffer,
		MaxLeverage:   cfg.Risk.MaxLeverage,
	})
	ledger := governance.NewLedger(st, governance.Limits{
		MaxTrades:    cfg.Governance.DailyMaxTrades,
		MaxPerSymbol: cfg.Governance.DailyMaxPerSymbol,
	}, logger)

	a.service = trading.NewService(
		trading.Config{
			TotalCapital:   cfg.Risk.TotalCapital,
			RequestTimeout: cfg.App.RequestTimeout,
		},
		calculator,
		ledger,
		journal.New(st, logger),
		a.symbols,
		a.cache,
		position.NewSequencer(a.exchange, logger),
		trading.WithNotifier(a.notifier),
		trading.WithPublisher(publisher),
		trading.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
		trading.WithLogger(logger),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store, error) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Warn("REDIS_ADDR가 없어 메모리 저장소를 사용합니다. 거래 횟수는 프로세스 종료 시 사라집니다")
		return memory.New(), nil
	}
	rs, err := redis.Dial(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB,
		redis.WithPrefix(a.cfg.Redis.Prefix),
		redis.WithTTL(a.cfg.Redis.TradeTTL),
		redis.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

// preparePaper는 페이퍼 커넥터에 심볼 규칙과 현재가를 실제 거래소에서 가져와 등록합니다
// 심볼을 지정하지 않으면 가격 없이 규칙만 등록합니다
func (a *app) preparePaper(ctx context.Context, symbols ...string) error {
	if a.paper == nil {
		return nil
	}
	all, err := a.quotes.GetSymbols(ctx)
	if err != nil {
		return fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	for _, rules := range all {
		if len(want) == 0 {
			a.paper.AddSymbol(rules, decimal.Zero)
			continue
		}
		if !want[rules.Symbol] {
			continue
		}
		price, err := a.quotes.GetMarkPrice(ctx, rules.Symbol)
		if err != nil {
			return fmt.Errorf("%s 현재가 조회 실패: %w", rules.Symbol, err)
		}
		a.paper.AddSymbol(rules, price)
	}
	return nil
}

// Close는 열린 연결을 닫습니다
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("종료 처리 실패", zap.Error(err))
		}
	}
}
