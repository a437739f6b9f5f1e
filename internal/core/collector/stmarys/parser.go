package stmarys

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// ListingRow 列表页的一行，键为表头原文
type ListingRow map[string]string

var (
	listingTableExpr = xpath.MustCompile(`//table[.//th[contains(normalize-space(.), 'Tax Acct')]]`)
	headerCellExpr   = xpath.MustCompile(`.//tr[th]/th`)
	dataRowExpr      = xpath.MustCompile(`.//tr[td]`)
	dataCellExpr     = xpath.MustCompile(`./td`)
)

// columnFields 表头到规范化草稿键的映射，点号表示嵌套
var columnFields = map[string]string{
	"Tax Acct#":            collection.FieldParcelID,
	"Owner":                collection.FieldOwnerName,
	"Address":              collection.FieldPropertyAddress,
	"City":                 collection.FieldCity,
	"Zip":                  collection.FieldZipCode,
	"Description":          collection.FieldPropertyType,
	"Amount Due":           "saleInfo.saleAmount",
	"Sale Date":            "saleInfo.saleDate",
	"Assessed Value":       "taxInfo.assessedValue",
	"Taxes Due":            "taxInfo.taxDue",
	"Land Area":            "propertyDetails.landArea",
	"Property Description": collection.FieldPropertyType,
}

// ParseListing 解析税务拍卖列表页
// 找不到列表表格时返回错误，表格存在但无数据行时返回空切片
func ParseListing(body []byte) ([]ListingRow, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	table := htmlquery.QuerySelector(doc, listingTableExpr)
	if table == nil {
		return nil, fmt.Errorf("listing table not found")
	}

	headers := make([]string, 0)
	for _, th := range htmlquery.QuerySelectorAll(table, headerCellExpr) {
		headers = append(headers, cellText(th))
	}

	rows := make([]ListingRow, 0)
	for _, tr := range htmlquery.QuerySelectorAll(table, dataRowExpr) {
		cells := htmlquery.QuerySelectorAll(tr, dataCellExpr)
		row := make(ListingRow, len(cells))
		empty := true
		for i, td := range cells {
			if i >= len(headers) {
				break
			}
			v := cellText(td)
			if v != "" {
				empty = false
			}
			row[headers[i]] = v
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func cellText(n *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}

// ToRecord 将列表行映射为草稿记录，州与县取自数据源
func ToRecord(row ListingRow, src *collection.Source) collection.RawRecord {
	rec := collection.RawRecord{
		collection.FieldState:  src.Region.State,
		collection.FieldCounty: src.Region.County,
		collection.FieldTaxInfo: map[string]interface{}{
			"taxStatus": "DELINQUENT",
		},
		collection.FieldSaleInfo: map[string]interface{}{
			"saleType": "TAX_SALE",
		},
	}
	for header, value := range row {
		field, ok := columnFields[header]
		if !ok || value == "" {
			continue
		}
		setPath(rec, field, value, true)
	}
	return rec
}

// setPath 按点号路径写入，overwrite 为 false 时只填充空字段
func setPath(rec collection.RawRecord, path, value string, overwrite bool) {
	parts := strings.SplitN(path, ".", 2)
	if len(parts) == 1 {
		if !overwrite && rec.String(path) != "" {
			return
		}
		rec[path] = value
		return
	}
	nested := rec.EnsureNested(parts[0])
	if existing, ok := nested[parts[1]]; ok && !overwrite && existing != "" {
		return
	}
	nested[parts[1]] = value
}

// detailFields 评估系统详情页字段，按span id片段定位
var detailFields = []struct {
	expr  *xpath.Expr
	field string
}{
	{xpath.MustCompile(`//span[contains(@id, 'lblUse_')]`), collection.FieldPropertyType},
	{xpath.MustCompile(`//span[contains(@id, 'lblYearBuilt_')]`), "propertyDetails.yearBuilt"},
	{xpath.MustCompile(`//span[contains(@id, 'lblLandArea_')]`), "propertyDetails.landArea"},
	{xpath.MustCompile(`//span[contains(@id, 'lblAboveGradeLivingArea_')]`), "propertyDetails.buildingArea"},
	{xpath.MustCompile(`//span[contains(@id, 'lblZoning_')]`), "propertyDetails.zoning"},
	{xpath.MustCompile(`//span[contains(@id, 'lblBaseTotal_')]`), "taxInfo.assessedValue"},
	{xpath.MustCompile(`//span[contains(@id, 'lblMarketTotal_')]`), "taxInfo.marketValue"},
	{xpath.MustCompile(`//span[contains(@id, 'lblPremisesCity_')]`), collection.FieldCity},
	{xpath.MustCompile(`//span[contains(@id, 'lblPremisesZip_')]`), collection.FieldZipCode},
}

// ParseAssessment 解析评估系统详情页，返回草稿键路径到原始文本
func ParseAssessment(body []byte) (map[string]string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse assessment html: %w", err)
	}

	out := make(map[string]string)
	for _, f := range detailFields {
		n := htmlquery.QuerySelector(doc, f.expr)
		if n == nil {
			continue
		}
		if v := cellText(n); v != "" {
			out[f.field] = v
		}
	}
	return out, nil
}

// MergeAssessment 以补齐方式合并详情字段，列表页已有的值优先
func MergeAssessment(rec collection.RawRecord, details map[string]string) {
	for path, v := range details {
		setPath(rec, path, v, false)
	}
}
