package collector

import (
	"fmt"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// DefaultSampleSize 合成样本默认条数
const DefaultSampleSize = 5

var (
	sampleStreets = []string{"Main St", "Three Notch Rd", "Point Lookout Rd", "Great Mills Rd", "Budds Creek Rd", "Hollywood Rd"}
	sampleOwners  = []string{"DOE JOHN", "SMITH MARY A", "JOHNSON ROBERT", "WILLIAMS PATRICIA", "BROWN FAMILY TRUST", "DAVIS LLC"}
	sampleTypes   = []string{"Single Family Dwelling", "Vacant Lot", "Townhouse", "Commercial", "Farm", "Condo Unit"}
)

// SampleRecords 为数据源生成确定性的合成记录
// 仅在显式开启回退时使用，调用方必须将结果标记为 Synthetic
func SampleRecords(src *collection.Source, n int) []collection.RawRecord {
	if n <= 0 {
		n = DefaultSampleSize
	}

	prefix := strings.ToUpper(src.ID)
	records := make([]collection.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		street := sampleStreets[i%len(sampleStreets)]
		records = append(records, collection.RawRecord{
			collection.FieldParcelID:        fmt.Sprintf("SAMPLE-%s-%03d", prefix, i+1),
			collection.FieldOwnerName:       sampleOwners[i%len(sampleOwners)],
			collection.FieldPropertyAddress: fmt.Sprintf("%d %s", 100+i*25, street),
			collection.FieldState:           src.Region.State,
			collection.FieldCounty:          src.Region.County,
			collection.FieldPropertyType:    sampleTypes[i%len(sampleTypes)],
			collection.FieldPropertyDetails: map[string]interface{}{
				"landArea":  fmt.Sprintf("%.2f acres", 0.25*float64(i+1)),
				"yearBuilt": fmt.Sprintf("%d", 1970+i*7),
			},
			collection.FieldTaxInfo: map[string]interface{}{
				"assessedValue": fmt.Sprintf("$%d,500", 150+i*20),
				"taxDue":        fmt.Sprintf("$%d.75", 1200+i*310),
				"taxStatus":     "DELINQUENT",
			},
			collection.FieldSaleInfo: map[string]interface{}{
				"saleType":   "TAX_SALE",
				"saleAmount": fmt.Sprintf("$%d.75", 1200+i*310),
			},
		})
	}
	return records
}
