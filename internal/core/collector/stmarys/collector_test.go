package stmarys

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/retry"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/client"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/ingestor"
)

const (
	countyBase = "http://county.test"
	sdatBase   = "http://sdat.test"
)

const listingHTML = `<html><body>
<h2>2025 Tax Sale</h2>
<table class="nav"><tr><td>menu</td></tr></table>
<table id="taxsale">
  <tr><th>Tax Acct#</th><th>Owner</th><th>Address</th><th>Description</th><th>Amount Due</th></tr>
  <tr><td>01-123456</td><td>DOE  JOHN</td><td>123 Main St, Leonardtown</td><td>Single Family Dwelling</td><td>$1,234.56</td></tr>
  <tr><td>08-654321</td><td>SMITH MARY</td><td>45 Three Notch Rd</td><td>Vacant Lot</td><td>$987.00</td></tr>
  <tr><td></td><td></td><td></td><td></td><td></td></tr>
</table>
</body></html>`

const assessmentHTML = `<html><body>
<span id="cphMain_ucDetails_lblUse_0">RESIDENTIAL</span>
<span id="cphMain_ucDetails_lblYearBuilt_0">1987</span>
<span id="cphMain_ucDetails_lblAboveGradeLivingArea_0">1,820 SF</span>
<span id="cphMain_ucDetails_lblBaseTotal_0">245,300</span>
<span id="cphMain_ucDetails_lblPremisesZip_0">20650-0000</span>
</body></html>`

func testSource() *collection.Source {
	return &collection.Source{
		ID:            "md-st-marys",
		Name:          "St. Mary's County Tax Sale",
		URL:           countyBase + "/taxsale",
		Region:        collection.Region{State: "MD", County: "St. Mary's"},
		CollectorType: Name,
		Status:        collection.SourceStatusActive,
		Metadata:      map[string]interface{}{MetaAssessmentURL: sdatBase + "/details"},
	}
}

func newTestCollector(t *testing.T, fallback bool, archiver ingestor.SnapshotArchiver) *Collector {
	t.Helper()
	c := client.NewHTTPClient(client.Options{Timeout: time.Second, Retry: retry.NewPolicy(2, 0)})
	gock.InterceptClient(c.HTTP())
	t.Cleanup(func() {
		gock.RestoreClient(c.HTTP())
		gock.Off()
	})
	return New(Options{Client: c, Archiver: archiver, SampleFallback: fallback, SampleSize: 3})
}

func TestParseListing(t *testing.T) {
	rows, err := ParseListing([]byte(listingHTML))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "01-123456", rows[0]["Tax Acct#"])
	assert.Equal(t, "DOE JOHN", rows[0]["Owner"])
	assert.Equal(t, "$987.00", rows[1]["Amount Due"])

	_, err = ParseListing([]byte(`<html><body><p>Sale postponed</p></body></html>`))
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	rec := ToRecord(ListingRow{
		"Tax Acct#":  "01-123456",
		"Owner":      "DOE JOHN",
		"Address":    "123 Main St",
		"Amount Due": "$1,234.56",
		"Unknown":    "ignored",
	}, testSource())

	assert.Equal(t, "01-123456", rec[collection.FieldParcelID])
	assert.Equal(t, "DOE JOHN", rec[collection.FieldOwnerName])
	assert.Equal(t, "MD", rec[collection.FieldState])
	assert.Equal(t, "St. Mary's", rec[collection.FieldCounty])
	assert.Equal(t, "$1,234.56", rec.Nested(collection.FieldSaleInfo)["saleAmount"])
	assert.NotContains(t, rec, "Unknown")
}

func TestSplitAccount(t *testing.T) {
	tests := []struct {
		in       string
		district string
		account  string
		ok       bool
	}{
		{"01-123456", "01", "123456", true},
		{"08 012345", "08", "012345", true},
		{"0112345678", "01", "12345678", true},
		{"123", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		d, a, ok := SplitAccount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.district, d, tt.in)
		assert.Equal(t, tt.account, a, tt.in)
	}
}

func TestExecute_ListingWithEnrichment(t *testing.T) {
	dir := t.TempDir()
	c := newTestCollector(t, false, ingestor.NewFileArchiver(dir))

	gock.New(countyBase).Get("/taxsale").Reply(200).BodyString(listingHTML)
	gock.New(sdatBase).Get("/details").
		MatchParam("District", "01").MatchParam("AccountNumber", "123456").MatchParam("County", "19").
		Reply(200).BodyString(assessmentHTML)
	gock.New(sdatBase).Get("/details").
		MatchParam("AccountNumber", "654321").
		Times(2).
		Reply(500)

	res, err := c.Execute(context.Background(), testSource())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.Partial, "exhausted enrichment retries mark the run partial")
	assert.False(t, res.Synthetic)
	assert.Equal(t, 2, res.Stats.Fetched)
	assert.Equal(t, 1, res.Stats.Enriched)
	assert.Equal(t, 1, res.Stats.EnrichmentFailed)
	assert.Equal(t, collection.RunStatusPartial, res.Status())
	require.Len(t, res.Data, 2)

	first := res.Data[0]
	assert.Equal(t, "Single Family Dwelling", first[collection.FieldPropertyType], "listing value wins over assessment")
	assert.Equal(t, "1987", first.Nested(collection.FieldPropertyDetails)["yearBuilt"])
	assert.Equal(t, "245,300", first.Nested(collection.FieldTaxInfo)["assessedValue"])
	assert.Equal(t, "20650-0000", first[collection.FieldZipCode])

	second := res.Data[1]
	assert.Nil(t, second.Nested(collection.FieldPropertyDetails))

	require.NotEmpty(t, res.RawDataPath)
	data, err := os.ReadFile(res.RawDataPath)
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Len(t, snap.Rows, 2)
	assert.Len(t, snap.Records, 2)
	assert.True(t, gock.IsDone())
}

func TestExecute_FetchFailureWithoutFallback(t *testing.T) {
	c := newTestCollector(t, false, nil)

	gock.New(countyBase).Get("/taxsale").Times(2).Reply(503)

	res, err := c.Execute(context.Background(), testSource())
	require.Error(t, err)
	assert.Nil(t, res)
	var se *client.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestExecute_EmptyListingFallsBackToSample(t *testing.T) {
	c := newTestCollector(t, true, nil)

	gock.New(countyBase).Get("/taxsale").Reply(200).
		BodyString(`<table><tr><th>Tax Acct#</th><th>Owner</th></tr></table>`)

	res, err := c.Execute(context.Background(), testSource())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Synthetic)
	assert.Len(t, res.Data, 3)
	assert.Contains(t, res.Message, "synthetic")
	assert.Equal(t, collection.RunStatusPartial, res.Status())
}

func TestExecute_EmptyListingWithoutFallback(t *testing.T) {
	c := newTestCollector(t, false, nil)

	gock.New(countyBase).Get("/taxsale").Reply(200).
		BodyString(`<table><tr><th>Tax Acct#</th></tr></table>`)

	_, err := c.Execute(context.Background(), testSource())
	assert.ErrorIs(t, err, collector.ErrEmptyListing)
}
