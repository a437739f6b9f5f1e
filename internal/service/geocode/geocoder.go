/**
 * 地理编码服务
 * @author: sun977
 * @date: 2025.11.08
 * @description: 地址到坐标的解析,失败不影响入库,由调用方决定回退策略
 */
package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/client"
)

// Geocoder 地理编码接口
// 未找到时返回 nil, nil
type Geocoder interface {
	Geocode(ctx context.Context, address, city, state string) (*collection.Location, error)
}

// searchHit 搜索接口单条结果(坐标为字符串)
type searchHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// HTTPGeocoder 基于搜索接口的地理编码器
// 请求形如 GET {baseURL}/search?format=json&limit=1&q=<地址>
type HTTPGeocoder struct {
	client  *client.HTTPClient
	baseURL string
}

// NewHTTPGeocoder 创建HTTP地理编码器
func NewHTTPGeocoder(c *client.HTTPClient, baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{client: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// Geocode 解析地址
func (g *HTTPGeocoder) Geocode(ctx context.Context, address, city, state string) (*collection.Location, error) {
	q := joinNonEmpty(address, city, state)
	if q == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "us")
	params.Set("q", q)

	var hits []searchHit
	if err := g.client.GetJSON(ctx, g.baseURL+"/search?"+params.Encode(), &hits); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", q, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: invalid latitude %q", q, hits[0].Lat)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: invalid longitude %q", q, hits[0].Lon)
	}

	return &collection.Location{Latitude: lat, Longitude: lon}, nil
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
