package collection

import (
	"time"
)

// PropertyType 标准化房产类型
type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "SINGLE_FAMILY"
	PropertyTypeTownhome     PropertyType = "TOWNHOME"
	PropertyTypeCondominium  PropertyType = "CONDOMINIUM"
	PropertyTypeMultiFamily  PropertyType = "MULTI_FAMILY"
	PropertyTypeVacantLand   PropertyType = "VACANT_LAND"
	PropertyTypeCommercial   PropertyType = "COMMERCIAL"
	PropertyTypeAgricultural PropertyType = "AGRICULTURAL"
)

// PropertyTypes 全部枚举值
var PropertyTypes = []PropertyType{
	PropertyTypeSingleFamily,
	PropertyTypeTownhome,
	PropertyTypeCondominium,
	PropertyTypeMultiFamily,
	PropertyTypeVacantLand,
	PropertyTypeCommercial,
	PropertyTypeAgricultural,
}

// IsValid 是否为已知枚举值
func (t PropertyType) IsValid() bool {
	for _, v := range PropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PropertyDetails 房产物理属性
type PropertyDetails struct {
	LandArea     float64 `json:"landArea,omitempty" bson:"landArea,omitempty" mapstructure:"landArea"`
	BuildingArea float64 `json:"buildingArea,omitempty" bson:"buildingArea,omitempty" mapstructure:"buildingArea"`
	YearBuilt    int     `json:"yearBuilt,omitempty" bson:"yearBuilt,omitempty" mapstructure:"yearBuilt"`
	Zoning       string  `json:"zoning,omitempty" bson:"zoning,omitempty" mapstructure:"zoning"`
}

// TaxInfo 税务信息
type TaxInfo struct {
	AssessedValue float64 `json:"assessedValue,omitempty" bson:"assessedValue,omitempty" mapstructure:"assessedValue"`
	MarketValue   float64 `json:"marketValue,omitempty" bson:"marketValue,omitempty" mapstructure:"marketValue"`
	TaxDue        float64 `json:"taxDue,omitempty" bson:"taxDue,omitempty" mapstructure:"taxDue"`
	TaxStatus     string  `json:"taxStatus,omitempty" bson:"taxStatus,omitempty" mapstructure:"taxStatus"`
}

// SaleInfo 拍卖信息
type SaleInfo struct {
	SaleType   string  `json:"saleType,omitempty" bson:"saleType,omitempty" mapstructure:"saleType"`
	SaleAmount float64 `json:"saleAmount,omitempty" bson:"saleAmount,omitempty" mapstructure:"saleAmount"`
	SaleStatus string  `json:"saleStatus,omitempty" bson:"saleStatus,omitempty" mapstructure:"saleStatus"`
	SaleDate   string  `json:"saleDate,omitempty" bson:"saleDate,omitempty" mapstructure:"saleDate"`
}

// Location 地理坐标
type Location struct {
	Latitude    float64 `json:"latitude" bson:"latitude" mapstructure:"latitude"`
	Longitude   float64 `json:"longitude" bson:"longitude" mapstructure:"longitude"`
	Approximate bool    `json:"approximate,omitempty" bson:"approximate,omitempty" mapstructure:"approximate"`
}

// Property 标准化房产记录
// 不变量: State、County 非空，且 ParcelID / TaxAccountNumber / (PropertyAddress+County+State) 至少一组可用作身份键
type Property struct {
	ParcelID         string          `json:"parcelId,omitempty" bson:"parcelId,omitempty" mapstructure:"parcelId"`
	TaxAccountNumber string          `json:"taxAccountNumber,omitempty" bson:"taxAccountNumber,omitempty" mapstructure:"taxAccountNumber"`
	OwnerName        string          `json:"ownerName,omitempty" bson:"ownerName,omitempty" mapstructure:"ownerName"`
	PropertyAddress  string          `json:"propertyAddress" bson:"propertyAddress" mapstructure:"propertyAddress"`
	City             string          `json:"city,omitempty" bson:"city,omitempty" mapstructure:"city"`
	State            string          `json:"state" bson:"state" mapstructure:"state"`
	County           string          `json:"county" bson:"county" mapstructure:"county"`
	ZipCode          string          `json:"zipCode,omitempty" bson:"zipCode,omitempty" mapstructure:"zipCode"`
	PropertyType     PropertyType    `json:"propertyType,omitempty" bson:"propertyType,omitempty" mapstructure:"propertyType"`
	PropertyDetails  PropertyDetails `json:"propertyDetails" bson:"propertyDetails" mapstructure:"propertyDetails"`
	TaxInfo          TaxInfo         `json:"taxInfo" bson:"taxInfo" mapstructure:"taxInfo"`
	SaleInfo         SaleInfo        `json:"saleInfo" bson:"saleInfo" mapstructure:"saleInfo"`
	Location         *Location       `json:"location,omitempty" bson:"location,omitempty" mapstructure:"location"`
	SourceID         string          `json:"sourceId" bson:"sourceId" mapstructure:"sourceId"`
	IdentityKey      string          `json:"identityKey" bson:"identityKey" mapstructure:"-"`
	LastUpdated      time.Time       `json:"lastUpdated" bson:"lastUpdated" mapstructure:"-"`
}
