/*
 * @author: sun977
 * @date: 2025.11.12
 * @description: Server 模式子命令
 */

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

var shutdownTimeout time.Duration

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 HTTP 服务与定时采集",
	Long: `以守护进程方式启动采集服务: 对外提供健康检查与手动触发接口，
按数据源配置的频率定时采集，并监听配置文件变更。

示例:
  taxsale server --config configs/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := collector.NewApp(ctx, appConfig, cfgFile, storeMode)
		if err != nil {
			return err
		}
		if err := app.Start(ctx); err != nil {
			_ = app.Stop(context.Background())
			return err
		}

		<-ctx.Done()
		logger.Info("Shutting down collector server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.Stop(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "优雅关闭等待时间")
}
