package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/setup"
)

var (
	batchSources     []string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "分批并发运行多个数据源",
	Long: `按并发上限分批运行数据源，单个数据源失败不影响其它数据源。
未指定 --sources 时运行全部活跃数据源。

示例:
  taxsale batch
  taxsale batch --sources md-st-marys,md-calvert --concurrency 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *setup.CoreModule) error {
			results, err := core.Manager.ExecuteParallelCollections(cmd.Context(), batchSources, batchConcurrency)
			if len(results) > 0 {
				if rerr := renderResults(results); rerr != nil {
					return rerr
				}
			} else if err == nil {
				pterm.Info.Println("No sources to collect")
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringSliceVar(&batchSources, "sources", nil, "数据源ID列表，逗号分隔")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "每批并发数 (0 使用配置值)")
}
