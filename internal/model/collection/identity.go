package collection

import (
	"errors"
	"strings"
)

// ErrNoIdentity 无法构造身份键
var ErrNoIdentity = errors.New("property has no parcel id, tax account number or address")

// ComputeIdentityKey 身份键: parcelId > taxAccountNumber > address+county+state
// 前缀区分键的来源
func (p *Property) ComputeIdentityKey() (string, error) {
	norm := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

	state := norm(p.State)
	county := norm(p.County)

	switch {
	case norm(p.ParcelID) != "":
		return "parcel:" + norm(p.ParcelID), nil
	case norm(p.TaxAccountNumber) != "":
		return "account:" + norm(p.TaxAccountNumber), nil
	case norm(p.PropertyAddress) != "" && county != "" && state != "":
		return "address:" + state + ":" + county + ":" + norm(p.PropertyAddress), nil
	default:
		return "", ErrNoIdentity
	}
}
