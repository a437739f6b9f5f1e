/**
 * 采集服务配置管理
 * @author: sun977
 * @date: 2025.11.04
 * @description: 税务拍卖数据采集管线的配置结构定义
 */
package config

import (
	"time"
)

// Config 采集服务配置
type Config struct {
	// 应用配置
	App *AppConfig `yaml:"app" mapstructure:"app"`

	// 服务器配置
	Server *ServerConfig `yaml:"server" mapstructure:"server"`

	// 日志配置
	Log *LogConfig `yaml:"log" mapstructure:"log"`

	// MongoDB配置
	Mongo *MongoConfig `yaml:"mongo" mapstructure:"mongo"`

	// Redis配置
	Redis *RedisConfig `yaml:"redis" mapstructure:"redis"`

	// 采集器配置
	Collector *CollectorConfig `yaml:"collector" mapstructure:"collector"`

	// 地理编码配置
	Geocoder *GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`

	// 健康检查配置
	Health *HealthConfig `yaml:"health" mapstructure:"health"`

	// 调度器配置
	Scheduler *SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`

	// 数据源种子
	Sources []SourceConfig `yaml:"sources" mapstructure:"sources"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Version     string `yaml:"version" mapstructure:"version"`         // 应用版本
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`                   // 监听地址
	Port         int           `yaml:"port" mapstructure:"port"`                   // 监听端口
	Mode         string        `yaml:"mode" mapstructure:"mode"`                   // 运行模式 (debug/release/test)
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`   // 读取超时时间
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"` // 写入超时时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// MongoConfig MongoDB配置
type MongoConfig struct {
	URI            string        `yaml:"uri" mapstructure:"uri"`                         // 连接串
	Database       string        `yaml:"database" mapstructure:"database"`               // 数据库名
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"` // 连接超时
	MaxPoolSize    uint64        `yaml:"max_pool_size" mapstructure:"max_pool_size"`     // 连接池上限
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`     // 是否启用
	Addr     string `yaml:"addr" mapstructure:"addr"`           // 地址 host:port
	Password string `yaml:"password" mapstructure:"password"`   // 密码
	DB       int    `yaml:"db" mapstructure:"db"`               // 库编号
	PoolSize int    `yaml:"pool_size" mapstructure:"pool_size"` // 连接池大小
}

// RateLimitConfig 单个外部站点的限速窗口
type RateLimitConfig struct {
	Window      time.Duration `yaml:"window" mapstructure:"window"`             // 窗口长度
	MaxRequests int           `yaml:"max_requests" mapstructure:"max_requests"` // 窗口内最大请求数
}

// RetryConfig 重试策略
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"` // 最大尝试次数
	DelayUnit   time.Duration `yaml:"delay_unit" mapstructure:"delay_unit"`     // 线性退避单位
}

// CollectorConfig 采集器配置
type CollectorConfig struct {
	RateLimits       map[string]RateLimitConfig `yaml:"rate_limits" mapstructure:"rate_limits"`             // 按采集器类型配置的限速
	DefaultRateLimit RateLimitConfig            `yaml:"default_rate_limit" mapstructure:"default_rate_limit"` // 缺省限速
	Retry            RetryConfig                `yaml:"retry" mapstructure:"retry"`                         // 重试
	ConcurrencyLimit int                        `yaml:"concurrency_limit" mapstructure:"concurrency_limit"` // 批量采集并发上限
	SampleFallback   bool                       `yaml:"sample_fallback" mapstructure:"sample_fallback"`     // 抓取失败时是否回退到合成样本
	ArchiveDir       string                     `yaml:"archive_dir" mapstructure:"archive_dir"`             // 原始快照目录
	SourcesFile      string                     `yaml:"sources_file" mapstructure:"sources_file"`           // 额外数据源清单文件(yaml)
	HTTPTimeout      time.Duration              `yaml:"http_timeout" mapstructure:"http_timeout"`           // 单次请求超时
	UserAgent        string                     `yaml:"user_agent" mapstructure:"user_agent"`               // 请求UA
}

// RateLimitFor 返回指定采集器类型的限速配置
func (c *CollectorConfig) RateLimitFor(collectorType string) RateLimitConfig {
	if rl, ok := c.RateLimits[collectorType]; ok && rl.MaxRequests > 0 && rl.Window > 0 {
		return rl
	}
	return c.DefaultRateLimit
}

// GeocoderConfig 地理编码配置
type GeocoderConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`     // 是否启用
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`   // 服务地址
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"` // 缓存有效期
}

// HealthConfig 健康检查配置
type HealthConfig struct {
	Lookback     time.Duration `yaml:"lookback" mapstructure:"lookback"`           // 近期采集回看窗口
	StaleAfter   time.Duration `yaml:"stale_after" mapstructure:"stale_after"`     // 数据源陈旧阈值
	WarningRatio float64       `yaml:"warning_ratio" mapstructure:"warning_ratio"` // 告警占比降级阈值
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`   // 是否启用定时采集
	Timezone string `yaml:"timezone" mapstructure:"timezone"` // 调度时区
}

// SourceConfig 数据源种子配置
type SourceConfig struct {
	ID            string                 `yaml:"id" mapstructure:"id"`
	Name          string                 `yaml:"name" mapstructure:"name"`
	Kind          string                 `yaml:"kind" mapstructure:"kind"`
	URL           string                 `yaml:"url" mapstructure:"url"`
	State         string                 `yaml:"state" mapstructure:"state"`
	County        string                 `yaml:"county" mapstructure:"county"`
	CollectorType string                 `yaml:"collector_type" mapstructure:"collector_type"`
	Frequency     string                 `yaml:"frequency" mapstructure:"frequency"`
	DayOfWeek     *int                   `yaml:"day_of_week" mapstructure:"day_of_week"`
	DayOfMonth    *int                   `yaml:"day_of_month" mapstructure:"day_of_month"`
	Hour          int                    `yaml:"hour" mapstructure:"hour"`
	Metadata      map[string]interface{} `yaml:"metadata" mapstructure:"metadata"`
}
