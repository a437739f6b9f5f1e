package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/setup"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

var runCmd = &cobra.Command{
	Use:   "run <collector>",
	Short: "运行单个采集器",
	Long: `运行指定采集器一次，结果写入存储并回写数据源状态。

示例:
  taxsale run st-marys-md
  taxsale run st-marys-md --store memory --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *setup.CoreModule) error {
			res, err := core.Manager.RunCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := renderResults(map[string]*colModel.CollectionResult{res.SourceID: res}); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("collection failed: %s", res.Message)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// renderResults 以表格输出采集结果，按数据源ID排序
func renderResults(results map[string]*colModel.CollectionResult) error {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := pterm.TableData{{"Source", "Status", "Fetched", "Saved", "Created", "Updated", "Invalid", "Failed", "Message"}}
	for _, id := range ids {
		r := results[id]
		data = append(data, []string{
			id,
			resultStatus(r),
			strconv.Itoa(r.Stats.Fetched),
			strconv.Itoa(r.Stats.Saved),
			strconv.Itoa(r.Stats.Created),
			strconv.Itoa(r.Stats.Updated),
			strconv.Itoa(r.Stats.Invalid),
			strconv.Itoa(r.Stats.Failed),
			r.Message,
		})
	}

	if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func resultStatus(r *colModel.CollectionResult) string {
	switch {
	case !r.Success:
		return pterm.Red(string(colModel.RunStatusError))
	case r.Partial:
		return pterm.Yellow(string(colModel.RunStatusPartial))
	case r.Synthetic:
		return pterm.Yellow("synthetic")
	default:
		return pterm.Green(string(colModel.RunStatusSuccess))
	}
}
