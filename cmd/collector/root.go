/*
 * @author: sun977
 * @date: 2025.11.12
 * @description: Cobra Root Command 定义
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/setup"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

var (
	cfgFile   string
	storeMode string
	logLevel  string

	// 由 PersistentPreRunE 加载
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taxsale",
	Short: "税拍房产数据采集服务",
	Long: `从县级税拍公告抓取房产记录，经标准化管线写入存储，并提供健康检查。

示例:
  1.启动服务模式(HTTP + 定时采集)
	taxsale server --config configs/config.yaml
  2.单次运行某个采集器
	taxsale run st-marys-md --store memory
  3.并发批量采集
	taxsale batch --sources md-st-marys --concurrency 2
  4.检查管线健康
	taxsale health --lookback 48h
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initRuntime()
	},
}

// Execute 执行根命令
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] taxsale crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeMode, "store", setup.StoreMongo, "存储模式 (mongo, memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
}

// initRuntime 加载配置并初始化日志
func initRuntime() error {
	cfg, err := config.NewConfigLoader(cfgFile, config.DefaultEnvPrefix).LoadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if cfg.Log.Level == "debug" {
		pterm.EnableDebugMessages()
	}

	if _, err := logger.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	appConfig = cfg
	return nil
}

// withCore 构建采集核心，执行 fn 后释放连接
func withCore(ctx context.Context, fn func(core *setup.CoreModule) error) error {
	core, err := setup.SetupCore(ctx, appConfig, storeMode)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(context.Background()); err != nil {
			logger.Warnf("Failed to close stores: %v", err)
		}
	}()
	return fn(core)
}
