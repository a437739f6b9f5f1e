package stmarys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/transform"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// 公告原始行经映射与标准化管线后的结果
func TestToRecord_ThroughPipeline(t *testing.T) {
	row := ListingRow{
		"Tax Acct#":  "08-00001",
		"Owner":      "Jane Doe",
		"Address":    "123 Main St, Town, MD 20650",
		"Amount Due": "1,200.50",
	}

	rec := ToRecord(row, testSource())
	out, err := transform.NewPipeline().Process(rec)
	require.NoError(t, err)

	assert.Equal(t, "08-00001", out[collection.FieldParcelID])
	assert.Equal(t, "Jane Doe", out[collection.FieldOwnerName])
	assert.Equal(t, "123 MAIN STREET, TOWN, MD 20650", out[collection.FieldPropertyAddress])
	assert.Equal(t, 1200.50, out.Nested(collection.FieldSaleInfo)["saleAmount"])

	prop, err := transform.ToProperty(out)
	require.NoError(t, err)
	assert.Equal(t, "08-00001", prop.ParcelID)
	assert.Equal(t, "Jane Doe", prop.OwnerName)
	assert.Equal(t, 1200.50, prop.SaleInfo.SaleAmount)
	assert.Equal(t, "parcel:08-00001", prop.IdentityKey)
}
