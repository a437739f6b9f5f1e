package transform

import (
	"regexp"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// streetSuffixRe 街道后缀缩写，缩写后必须是空白、逗号或结尾(句点可选)
// "ST.MARYS"、"DR.KING" 这类紧贴下一词的缩写不展开
var streetSuffixRe = regexp.MustCompile(`\b(ST|RD|AVE|BLVD|LN|CT|DR|CIR)\.?(\s|,|$)`)

// streetSuffixes 街道后缀缩写展开表
var streetSuffixes = map[string]string{
	"ST":   "STREET",
	"RD":   "ROAD",
	"AVE":  "AVENUE",
	"BLVD": "BOULEVARD",
	"LN":   "LANE",
	"CT":   "COURT",
	"DR":   "DRIVE",
	"CIR":  "CIRCLE",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	zipRe        = regexp.MustCompile(`^(\d{5})`)
)

// stateCodes 州全称到两位代码
var stateCodes = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR", "CALIFORNIA": "CA",
	"COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE", "DISTRICT OF COLUMBIA": "DC",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID", "ILLINOIS": "IL",
	"INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA",
	"MAINE": "ME", "MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN",
	"MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK", "OREGON": "OR",
	"PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD",
	"TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA",
	"WASHINGTON": "WA", "WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
}

// NormalizeAddress 地址字段规范化
// - 地址、城市: 去首尾空白、压缩空白、大写
// - 街道后缀: 仅在第一个逗号之前的街道段内展开缩写
// - 州: 大写，全称转两位代码
// - 邮编: 截取前5位数字
func NormalizeAddress(rec collection.RawRecord) error {
	if addr, ok := rec[collection.FieldPropertyAddress].(string); ok {
		rec[collection.FieldPropertyAddress] = normalizeStreetAddress(addr)
	}

	if city, ok := rec[collection.FieldCity].(string); ok {
		rec[collection.FieldCity] = collapse(city)
	}

	if county, ok := rec[collection.FieldCounty].(string); ok {
		rec[collection.FieldCounty] = whitespaceRe.ReplaceAllString(strings.TrimSpace(county), " ")
	}

	if state, ok := rec[collection.FieldState].(string); ok {
		rec[collection.FieldState] = NormalizeState(state)
	}

	if zip, ok := rec[collection.FieldZipCode].(string); ok {
		zip = strings.TrimSpace(zip)
		if m := zipRe.FindStringSubmatch(zip); m != nil {
			zip = m[1]
		}
		rec[collection.FieldZipCode] = zip
	}

	return nil
}

// NormalizeState 州名规范化
func NormalizeState(state string) string {
	s := collapse(state)
	if code, ok := stateCodes[s]; ok {
		return code
	}
	return s
}

func normalizeStreetAddress(addr string) string {
	addr = collapse(addr)
	street, rest, hasComma := strings.Cut(addr, ",")
	street = ExpandStreetSuffixes(street)
	if !hasComma {
		return street
	}
	return street + "," + rest
}

// ExpandStreetSuffixes 展开街道后缀缩写，输入需已大写
func ExpandStreetSuffixes(street string) string {
	return streetSuffixRe.ReplaceAllStringFunc(street, func(m string) string {
		sub := streetSuffixRe.FindStringSubmatch(m)
		return streetSuffixes[sub[1]] + sub[2]
	})
}

func collapse(s string) string {
	return strings.ToUpper(whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " "))
}
