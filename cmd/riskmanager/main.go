package main

import (
	"context"
	"fmt"
	"os"
	osSignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/config"
)

func main() {
	// 컨텍스트 생성 (SIGINT/SIGTERM 시 취소)
	ctx, stop := osSignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// rootOptions는 모든 하위 명령이 공유하는 상태입니다
type rootOptions struct {
	envFile string
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
	app    *app
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "riskmanager",
		Short: "리스크 기반 선물 주문 실행기",
		Long: `riskmanager는 허용 리스크와 손절 거리로 수량과 레버리지를 계산하고
일일 거래 횟수 제한을 지키며 진입, 손절, 익절 주문을 순서대로 제출합니다.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.envFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, opts.debug)
			if err != nil {
				return fmt.Errorf("로거 생성 실패: %w", err)
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			opts.cfg, opts.logger, opts.app = cfg, logger, a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app != nil {
				opts.app.Close()
			}
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "환경변수 파일 경로")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "디버그 로그 출력")

	rootCmd.AddCommand(newPreviewCmd(opts))
	rootCmd.AddCommand(newTradeCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newLogCmd(opts))
	rootCmd.AddCommand(newSymbolsCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

// newLogger는 APP_ENV에 따라 운영/개발용 로거를 생성합니다
func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		// CLI 출력과 섞이지 않도록 경고 이상만 표시
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}
