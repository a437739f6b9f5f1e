package transform

import (
	"regexp"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// propertyTypeRules 按优先级排列的匹配表，先命中先生效
// LAND/LOT 按整词匹配，避免 HIGHLAND、ISLAND、PILOT 之类误判
var propertyTypeRules = []struct {
	kind collection.PropertyType
	re   *regexp.Regexp
}{
	{collection.PropertyTypeCondominium, regexp.MustCompile(`CONDO`)},
	{collection.PropertyTypeTownhome, regexp.MustCompile(`TOWN ?HOUSE|TOWNHOME|ROW ?HOUSE`)},
	{collection.PropertyTypeMultiFamily, regexp.MustCompile(`MULTI|DUPLEX|TRIPLEX|FOURPLEX|APARTMENT`)},
	{collection.PropertyTypeVacantLand, regexp.MustCompile(`VACANT|\bLAND\b|\bLOTS?\b`)},
	{collection.PropertyTypeCommercial, regexp.MustCompile(`COMMERCIAL|RETAIL|OFFICE|INDUSTRIAL`)},
	{collection.PropertyTypeAgricultural, regexp.MustCompile(`AGRICULTUR|\bFARM`)},
	{collection.PropertyTypeSingleFamily, regexp.MustCompile(`SINGLE|DETACHED|RESIDENTIAL|DWELLING|HOUSE`)},
}

// ClassifyPropertyType 将自由文本描述映射为枚举，未命中返回 false
func ClassifyPropertyType(desc string) (collection.PropertyType, bool) {
	upper := strings.ToUpper(strings.TrimSpace(desc))
	if upper == "" {
		return "", false
	}
	if t := collection.PropertyType(upper); t.IsValid() {
		return t, true
	}
	for _, rule := range propertyTypeRules {
		if rule.re.MatchString(upper) {
			return rule.kind, true
		}
	}
	return "", false
}

// StandardizePropertyType 标准化房产类型，未命中时保持原值
func StandardizePropertyType(rec collection.RawRecord) error {
	desc, ok := rec[collection.FieldPropertyType].(string)
	if !ok {
		return nil
	}
	if t, ok := ClassifyPropertyType(desc); ok {
		rec[collection.FieldPropertyType] = string(t)
	}
	return nil
}
