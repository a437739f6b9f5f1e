package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

var (
	currencyStrip = strings.NewReplacer("$", "", ",", "", " ", "", "USD", "")
	leadingNumber = regexp.MustCompile(`^\s*([0-9][0-9,]*(?:\.[0-9]+)?|\.[0-9]+)`)
)

// numericField 嵌套对象中的数值字段
type numericField struct {
	parent string
	key    string
	parse  func(v interface{}) (interface{}, bool)
}

var numericFields = []numericField{
	{collection.FieldSaleInfo, "saleAmount", parseCurrency},
	{collection.FieldTaxInfo, "assessedValue", parseCurrency},
	{collection.FieldTaxInfo, "marketValue", parseCurrency},
	{collection.FieldTaxInfo, "taxDue", parseCurrency},
	{collection.FieldPropertyDetails, "landArea", parseArea},
	{collection.FieldPropertyDetails, "buildingArea", parseArea},
	{collection.FieldPropertyDetails, "yearBuilt", parseYear},
}

// ExtractNumeric 将货币、面积、年份字段转换为数值
// 已是数值的保持不变，无法解析的字段被移除
func ExtractNumeric(rec collection.RawRecord) error {
	for _, f := range numericFields {
		parent := rec.Nested(f.parent)
		if parent == nil {
			continue
		}
		raw, ok := parent[f.key]
		if !ok {
			continue
		}
		if v, ok := f.parse(raw); ok {
			parent[f.key] = v
		} else {
			delete(parent, f.key)
		}
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ParseCurrency 解析 "$1,200.50" 形式的金额
func ParseCurrency(s string) (float64, bool) {
	cleaned := currencyStrip.Replace(strings.ToUpper(strings.TrimSpace(s)))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseArea 解析 "1,200 sq ft" 形式的面积，取前导数字
func ParseArea(s string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseCurrency(v interface{}) (interface{}, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return ParseCurrency(s)
	}
	return nil, false
}

func parseArea(v interface{}) (interface{}, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return ParseArea(s)
	}
	return nil, false
}

func parseYear(v interface{}) (interface{}, bool) {
	if f, ok := asFloat(v); ok {
		return int(f), true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return year, true
}
