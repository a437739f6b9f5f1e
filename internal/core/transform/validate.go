package transform

import (
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// requiredFields 必填字段，顺序即报告顺序
var requiredFields = []string{
	collection.FieldPropertyAddress,
	collection.FieldCounty,
	collection.FieldState,
}

// ValidateRequired 校验必填字段存在且非空白
func ValidateRequired(rec collection.RawRecord) error {
	var missing []string
	for _, f := range requiredFields {
		if strings.TrimSpace(rec.String(f)) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
