/**
 * 采集器:马里兰州圣玛丽县税务拍卖
 * @author: sun977
 * @date: 2025.11.08
 * @description: 抓取县财政局拍卖列表,逐条到州评估系统(SDAT)补齐房产属性,原始数据落盘归档
 * @func: 列表抓取 -> 行映射 -> 评估补齐 -> 快照归档
 */
package stmarys

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/client"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/ingestor"
)

// Name 采集器类型名
const Name = "st-marys-md"

const (
	DefaultAssessmentURL = "https://sdat.dat.maryland.gov/RealProperty/Pages/viewdetails.aspx"
	DefaultCountyCode    = "19" // SDAT 县代码: St. Mary's

	MetaAssessmentURL = "sdat_base_url"
	MetaCountyCode    = "sdat_county_code"
)

// Options 采集器参数
type Options struct {
	Client         *client.HTTPClient // 已绑定限速与重试
	Archiver       ingestor.SnapshotArchiver
	SampleFallback bool
	SampleSize     int
}

// Collector 圣玛丽县采集器
type Collector struct {
	client         *client.HTTPClient
	archiver       ingestor.SnapshotArchiver
	sampleFallback bool
	sampleSize     int
	now            func() time.Time
}

var _ collector.Collector = (*Collector)(nil)

// New 创建采集器
func New(opts Options) *Collector {
	if opts.Client == nil {
		opts.Client = client.NewHTTPClient(client.Options{})
	}
	if opts.Archiver == nil {
		opts.Archiver = ingestor.NopArchiver{}
	}
	return &Collector{
		client:         opts.Client,
		archiver:       opts.Archiver,
		sampleFallback: opts.SampleFallback,
		sampleSize:     opts.SampleSize,
		now:            time.Now,
	}
}

// Name 采集器名称
func (c *Collector) Name() string {
	return Name
}

// snapshot 归档内容
type snapshot struct {
	SourceID  string                 `json:"sourceId"`
	URL       string                 `json:"url"`
	FetchedAt time.Time              `json:"fetchedAt"`
	Synthetic bool                   `json:"synthetic"`
	Rows      []ListingRow           `json:"rows,omitempty"`
	Records   []collection.RawRecord `json:"records"`
}

// Execute 执行一次采集
func (c *Collector) Execute(ctx context.Context, src *collection.Source) (*collection.CollectionResult, error) {
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	started := c.now()

	result := &collection.CollectionResult{
		SourceID:  src.ID,
		Timestamp: started,
	}

	rows, fetchErr := c.fetchListing(ctx, src)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !c.sampleFallback {
			return nil, fetchErr
		}
		logger.WithFields(map[string]interface{}{
			"source_id": src.ID,
			"collector": Name,
			"error":     fetchErr.Error(),
		}).Warn("Listing fetch failed, falling back to synthetic sample data")

		result.Data = collector.SampleRecords(src, c.sampleSize)
		result.Synthetic = true
	} else {
		result.Data = make([]collection.RawRecord, 0, len(rows))
		for _, row := range rows {
			result.Data = append(result.Data, ToRecord(row, src))
		}
		if err := c.enrichAll(ctx, src, result); err != nil {
			return nil, err
		}
	}
	result.Stats.Fetched = len(result.Data)

	snap := snapshot{
		SourceID:  src.ID,
		URL:       src.URL,
		FetchedAt: started,
		Synthetic: result.Synthetic,
		Rows:      rows,
		Records:   result.Data,
	}
	path, err := ingestor.ArchiveJSON(ctx, c.archiver, ingestor.SnapshotKey(src.ID, "listing", started), snap)
	if err != nil {
		logger.WithField("source_id", src.ID).Warnf("Failed to archive listing snapshot: %v", err)
	}
	result.RawDataPath = path

	result.Success = true
	result.Message = c.describe(src, result, fetchErr)
	return result, nil
}

// fetchListing 抓取并解析列表页，空列表视为失败
func (c *Collector) fetchListing(ctx context.Context, src *collection.Source) ([]ListingRow, error) {
	if src.URL == "" {
		return nil, fmt.Errorf("source %s has no url", src.ID)
	}
	body, err := c.client.GetBody(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", src.URL, err)
	}
	rows, err := ParseListing(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, collector.ErrEmptyListing
	}
	return rows, nil
}

// enrichAll 逐条补齐评估信息，重试耗尽的记录保留原样并将结果标记为部分成功
func (c *Collector) enrichAll(ctx context.Context, src *collection.Source, result *collection.CollectionResult) error {
	base := DefaultAssessmentURL
	if v, ok := src.Metadata[MetaAssessmentURL].(string); ok && v != "" {
		base = v
	}
	county := DefaultCountyCode
	if v, ok := src.Metadata[MetaCountyCode].(string); ok && v != "" {
		county = v
	}

	for _, rec := range result.Data {
		district, account, ok := SplitAccount(rec.String(collection.FieldParcelID))
		if !ok {
			continue
		}

		body, err := c.client.GetBody(ctx, AssessmentURL(base, county, district, account))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.Stats.EnrichmentFailed++
			result.Partial = true
			logger.WithFields(map[string]interface{}{
				"source_id": src.ID,
				"parcel_id": rec.String(collection.FieldParcelID),
				"error":     err.Error(),
			}).Warn("Assessment enrichment failed, keeping listing data")
			continue
		}

		details, err := ParseAssessment(body)
		if err != nil {
			result.Stats.EnrichmentFailed++
			result.Partial = true
			continue
		}
		MergeAssessment(rec, details)
		result.Stats.Enriched++
	}
	return nil
}

func (c *Collector) describe(src *collection.Source, result *collection.CollectionResult, fetchErr error) string {
	if result.Synthetic {
		return fmt.Sprintf("Listing unavailable (%v); generated %d synthetic sample records for %s",
			fetchErr, len(result.Data), src.Name)
	}
	msg := fmt.Sprintf("Collected %d records from %s", len(result.Data), src.Name)
	if result.Stats.EnrichmentFailed > 0 {
		msg += fmt.Sprintf(" (%d enriched, %d enrichment failures)", result.Stats.Enriched, result.Stats.EnrichmentFailed)
	}
	return msg
}

// SplitAccount 将 "01-123456" 形式的税号拆成区号与账号
func SplitAccount(acct string) (district, account string, ok bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, acct)
	if len(digits) < 8 {
		return "", "", false
	}
	return digits[:2], digits[2:], true
}

// AssessmentURL 评估系统详情页地址
func AssessmentURL(base, county, district, account string) string {
	q := url.Values{}
	q.Set("County", county)
	q.Set("SearchType", "ACCT")
	q.Set("District", district)
	q.Set("AccountNumber", account)
	return base + "?" + q.Encode()
}
