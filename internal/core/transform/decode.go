package transform

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// ToProperty 将规范化后的记录解码为类型化的 Property
// 未知键被忽略；State/County 缺失或无法构造身份键时返回 ValidationError
func ToProperty(rec collection.RawRecord) (*collection.Property, error) {
	var p collection.Property
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, fmt.Errorf("create property decoder: %w", err)
	}
	if err := decoder.Decode(map[string]interface{}(rec)); err != nil {
		return nil, fmt.Errorf("decode property: %w", err)
	}

	var missing []string
	if p.State == "" {
		missing = append(missing, collection.FieldState)
	}
	if p.County == "" {
		missing = append(missing, collection.FieldCounty)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	key, err := p.ComputeIdentityKey()
	if err != nil {
		return nil, &ValidationError{Missing: []string{collection.FieldParcelID + "|" + collection.FieldTaxAccountNumber + "|" + collection.FieldPropertyAddress}}
	}
	p.IdentityKey = key

	return &p, nil
}
