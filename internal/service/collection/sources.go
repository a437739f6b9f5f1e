package collection

import (
	"context"
	"fmt"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// SourcesFromConfig 将配置中的数据源种子转换为模型
func SourcesFromConfig(cfgs []config.SourceConfig) []*colModel.Source {
	out := make([]*colModel.Source, 0, len(cfgs))
	for _, c := range cfgs {
		kind := c.Kind
		if kind == "" {
			kind = "county-website"
		}
		freq := colModel.Frequency(c.Frequency)
		if freq == "" {
			freq = colModel.FrequencyManual
		}
		out = append(out, &colModel.Source{
			ID:            c.ID,
			Name:          c.Name,
			Kind:          kind,
			URL:           c.URL,
			Region:        colModel.Region{State: c.State, County: c.County},
			CollectorType: c.CollectorType,
			Schedule: colModel.Schedule{
				Frequency:  freq,
				DayOfWeek:  c.DayOfWeek,
				DayOfMonth: c.DayOfMonth,
				Hour:       c.Hour,
			},
			Metadata: c.Metadata,
		})
	}
	return out
}

// SeedSources 写入配置中的数据源，已有数据源保留运行状态
func SeedSources(ctx context.Context, seeder SourceSeeder, sources []*colModel.Source) error {
	for _, s := range sources {
		if err := seeder.Seed(ctx, s); err != nil {
			return fmt.Errorf("failed to seed source %s: %w", s.ID, err)
		}
	}
	return nil
}
