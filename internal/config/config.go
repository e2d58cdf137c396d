package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey     string `envconfig:"BINANCE_API_KEY"`
		SecretKey  string `envconfig:"BINANCE_SECRET_KEY"`
		UseTestnet bool   `envconfig:"BINANCE_USE_TESTNET" default:"false"`
		Paper      bool   `envconfig:"PAPER_TRADING" default:"false"`
		// 페이퍼 모드의 가상 지갑 잔고
		PaperBalance decimal.Decimal `envconfig:"PAPER_BALANCE" default:"10000"`
	}

	// 리스크 계산 설정
	Risk struct {
		RiskPercent   decimal.Decimal `envconfig:"RISK_PERCENT" default:"1"`
		PointsBuffer  decimal.Decimal `envconfig:"POINTS_BUFFER" default:"20"`
		PercentBuffer decimal.Decimal `envconfig:"PERCENT_BUFFER" default:"0.2"`
		MaxLeverage   int             `envconfig:"MAX_LEVERAGE" default:"100"`
		// 0이면 거래소의 미사용 잔고를 자본으로 사용
		TotalCapital decimal.Decimal `envconfig:"TOTAL_CAPITAL" default:"0"`
	}

	// 거래 횟수 제한
	Governance struct {
		DailyMaxTrades    int `envconfig:"DAILY_MAX_TRADES" default:"4"`
		DailyMaxPerSymbol int `envconfig:"DAILY_MAX_PER_SYMBOL" default:"2"`
	}

	// 캐시 TTL
	Cache struct {
		SymbolTTL  time.Duration `envconfig:"SYMBOL_CACHE_TTL" default:"1h"`
		PriceTTL   time.Duration `envconfig:"PRICE_CACHE_TTL" default:"5s"`
		BalanceTTL time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"15s"`
	}

	// 레디스 설정 (주소가 비어 있으면 메모리 저장소 사용)
	Redis struct {
		Addr     string        `envconfig:"REDIS_ADDR"`
		Password string        `envconfig:"REDIS_PASSWORD"`
		DB       int           `envconfig:"REDIS_DB" default:"0"`
		Prefix   string        `envconfig:"REDIS_PREFIX" default:"riskmanager:"`
		TradeTTL time.Duration `envconfig:"REDIS_TRADE_TTL" default:"720h"`
	}

	// 카프카 설정 (브로커가 비어 있으면 이벤트 발행 안 함)
	Kafka struct {
		Brokers []string `envconfig:"KAFKA_BROKERS"`
		Topic   string   `envconfig:"KAFKA_TRADE_TOPIC" default:"riskmanager.trades"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 전송 안 함)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		Env            string        `envconfig:"APP_ENV" default:"development"`
		RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
		SymbolRefresh  time.Duration `envconfig:"SYMBOL_REFRESH" default:"1h"`
		MetricsAddr    string        `envconfig:"METRICS_ADDR" default:":9090"`
	}
}

// IsProduction은 운영 환경인지 확인합니다
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	hundred := decimal.NewFromInt(100)
	if !cfg.Risk.RiskPercent.IsPositive() || cfg.Risk.RiskPercent.GreaterThan(hundred) {
		return fmt.Errorf("RISK_PERCENT는 0 초과 100 이하이어야 합니다")
	}

	if cfg.Risk.PointsBuffer.IsNegative() || cfg.Risk.PercentBuffer.IsNegative() {
		return fmt.Errorf("손절 버퍼는 0 이상이어야 합니다")
	}

	if cfg.Risk.MaxLeverage < 1 || cfg.Risk.MaxLeverage > 125 {
		return fmt.Errorf("MAX_LEVERAGE는 1 이상 125 이하이어야 합니다")
	}

	if cfg.Risk.TotalCapital.IsNegative() {
		return fmt.Errorf("TOTAL_CAPITAL은 0 이상이어야 합니다")
	}

	if cfg.Governance.DailyMaxTrades < 1 || cfg.Governance.DailyMaxPerSymbol < 1 {
		return fmt.Errorf("일일 거래 제한은 1 이상이어야 합니다")
	}

	if cfg.Cache.SymbolTTL <= 0 || cfg.Cache.PriceTTL <= 0 || cfg.Cache.BalanceTTL <= 0 {
		return fmt.Errorf("캐시 TTL은 0보다 커야 합니다")
	}

	if cfg.App.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT은 0보다 커야 합니다")
	}

	if !cfg.Binance.Paper && (cfg.Binance.APIKey == "" || cfg.Binance.SecretKey == "") {
		return fmt.Errorf("실거래 모드에는 BINANCE_API_KEY와 BINANCE_SECRET_KEY가 필요합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일이 없으면 환경변수만 사용합니다
func LoadConfig(files ...string) (*Config, error) {
	// .env 파일 로드
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
