package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/setup"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

var healthLookback time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "检查采集管线健康状态",
	Long: `汇总数据源状态、采集器注册情况与近期采集结果，输出健康等级与问题列表。
状态为 unhealthy 时以非零码退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *setup.CoreModule) error {
			res := core.Manager.CheckHealth(cmd.Context(), healthLookback)

			pterm.DefaultSection.Println("Pipeline health: " + string(res.Status))
			pterm.Printfln("Sources: %d total, %d active, %d warning, %d error",
				res.Sources.Total, res.Sources.Active, res.Sources.Warning, res.Sources.Error)
			pterm.Printfln("Collectors: %d registered, %d active", res.Collectors.Total, res.Collectors.Active)
			pterm.Printfln("Recent collections: %d total, %d successful, %d failed",
				res.RecentCollections.Total, res.RecentCollections.Successful, res.RecentCollections.Failed)

			if len(res.Issues) > 0 {
				data := pterm.TableData{{"Severity", "Source", "Message"}}
				for _, issue := range res.Issues {
					data = append(data, []string{string(issue.Severity), issue.SourceID, issue.Message})
				}
				if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			if res.Status == colModel.HealthStatusUnhealthy {
				return fmt.Errorf("pipeline is unhealthy")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().DurationVar(&healthLookback, "lookback", 0, "近期采集回看窗口 (0 使用配置值)")
}
