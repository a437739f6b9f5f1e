/**
 * 外部站点HTTP客户端
 * @author: sun977
 * @date: 2025.11.07
 * @description: 所有对政府站点、评估系统与地理编码服务的出站请求都经过限速与重试
 */
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/qos"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/retry"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/version"
)

// maxBodyBytes 单个响应体上限
const maxBodyBytes = 16 << 20

// StatusError 非2xx/3xx响应
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http request %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Options 客户端参数
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   *qos.WindowLimiter // 可为空，为空时不限速
	Retry     *retry.Policy      // 可为空，为空时只尝试一次
	Transport http.RoundTripper
}

// HTTPClient 限速+重试的HTTP客户端
type HTTPClient struct {
	client    *http.Client
	userAgent string
	limiter   *qos.WindowLimiter
	retry     *retry.Policy
}

// NewHTTPClient 创建HTTP客户端实例
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.GetUserAgent()
	}
	if opts.Retry == nil {
		opts.Retry = retry.NewPolicy(1, 0)
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		retry:     opts.Retry,
	}
}

// HTTP 底层 *http.Client
func (c *HTTPClient) HTTP() *http.Client {
	return c.client
}

// GetBody 获取URL内容，每次尝试前先取得限速许可
func (c *HTTPClient) GetBody(ctx context.Context, url string) ([]byte, error) {
	return retry.DoValue(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}
		return c.doGet(ctx, url)
	})
}

// GetJSON 获取并解码JSON
func (c *HTTPClient) GetJSON(ctx context.Context, url string, v interface{}) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// doGet 执行单次GET请求
func (c *HTTPClient) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: snippet}
	}

	return body, nil
}
