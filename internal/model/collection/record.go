package collection

// RawRecord 采集器输出的未类型化记录
// 键为规范化草稿键(驼峰)，嵌套对象使用 map[string]interface{}
type RawRecord map[string]interface{}

// 规范化草稿键
const (
	FieldParcelID         = "parcelId"
	FieldTaxAccountNumber = "taxAccountNumber"
	FieldOwnerName        = "ownerName"
	FieldPropertyAddress  = "propertyAddress"
	FieldCity             = "city"
	FieldState            = "state"
	FieldCounty           = "county"
	FieldZipCode          = "zipCode"
	FieldPropertyType     = "propertyType"
	FieldPropertyDetails  = "propertyDetails"
	FieldTaxInfo          = "taxInfo"
	FieldSaleInfo         = "saleInfo"
	FieldLocation         = "location"
)

// Nested 返回嵌套对象，不存在或类型不符时返回nil
func (r RawRecord) Nested(key string) map[string]interface{} {
	switch v := r[key].(type) {
	case map[string]interface{}:
		return v
	case RawRecord:
		return v
	default:
		return nil
	}
}

// EnsureNested 返回嵌套对象，不存在时创建
func (r RawRecord) EnsureNested(key string) map[string]interface{} {
	if m := r.Nested(key); m != nil {
		return m
	}
	m := make(map[string]interface{})
	r[key] = m
	return m
}

// String 读取字符串字段
func (r RawRecord) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}
