package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix 环境变量前缀
const DefaultEnvPrefix = "TAXSALE"

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configPath string
	envPrefix  string
	viper      *viper.Viper
	env        *EnvLoader
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		viper:      viper.New(),
		env:        NewEnvLoader(envFiles(configPath)...),
	}
}

// envFiles 待加载的.env文件: 配置目录优先，其次工作目录
// 先加载的值不会被后加载的文件覆盖
func envFiles(configPath string) []string {
	files := make([]string, 0, 2)
	if configPath != "" {
		dir := configPath
		if ext := filepath.Ext(configPath); ext == ".yaml" || ext == ".yml" {
			dir = filepath.Dir(configPath)
		}
		files = append(files, filepath.Join(dir, ".env"))
	}
	if len(files) == 0 || filepath.Clean(files[0]) != ".env" {
		files = append(files, ".env")
	}
	return files
}

// LoadConfig 加载配置
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	// .env 需在 viper 读取环境变量之前写入进程环境
	if err := cl.env.Load(); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.bindEnvVars()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.loadSourcesFile(&config); err != nil {
		return nil, err
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		cl.configPath = cl.env.GetString(cl.envPrefix+"_CONFIG_PATH", "./configs")
	}

	// 直接指定了文件
	if ext := filepath.Ext(cl.configPath); ext == ".yaml" || ext == ".yml" {
		cl.viper.SetConfigFile(cl.configPath)
		if err := cl.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config file not found: %w", err)
		}
		return nil
	}

	cl.viper.AddConfigPath(cl.configPath)
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")

	// 优先环境特定的配置文件
	cl.viper.SetConfigName(fmt.Sprintf("config.%s", cl.getEnvironment()))
	if err := cl.viper.ReadInConfig(); err != nil {
		cl.viper.SetConfigName("config")
		if err := cl.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	return nil
}

// loadSourcesFile 合并独立的数据源清单
func (cl *ConfigLoader) loadSourcesFile(config *Config) error {
	if config.Collector == nil || config.Collector.SourcesFile == "" {
		return nil
	}

	path := config.Collector.SourcesFile
	if !filepath.IsAbs(path) && cl.viper.ConfigFileUsed() != "" {
		path = filepath.Join(filepath.Dir(cl.viper.ConfigFileUsed()), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var doc struct {
		Sources []SourceConfig `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	config.Sources = append(config.Sources, doc.Sources...)
	return nil
}

// getEnvironment 获取运行环境
func (cl *ConfigLoader) getEnvironment() string {
	return cl.env.GetString(cl.envPrefix+"_ENV", cl.env.GetString("GO_ENV", "development"))
}

// bindEnvVars 绑定环境变量
func (cl *ConfigLoader) bindEnvVars() {
	p := cl.envPrefix

	cl.viper.BindEnv("app.environment", p+"_APP_ENVIRONMENT")

	cl.viper.BindEnv("server.host", p+"_SERVER_HOST")
	cl.viper.BindEnv("server.port", p+"_SERVER_PORT")
	cl.viper.BindEnv("server.mode", p+"_SERVER_MODE")

	cl.viper.BindEnv("mongo.uri", p+"_MONGO_URI")
	cl.viper.BindEnv("mongo.database", p+"_MONGO_DATABASE")

	cl.viper.BindEnv("redis.enabled", p+"_REDIS_ENABLED")
	cl.viper.BindEnv("redis.addr", p+"_REDIS_ADDR")
	cl.viper.BindEnv("redis.password", p+"_REDIS_PASSWORD")

	cl.viper.BindEnv("collector.sample_fallback", p+"_COLLECTOR_SAMPLE_FALLBACK")
	cl.viper.BindEnv("collector.concurrency_limit", p+"_COLLECTOR_CONCURRENCY_LIMIT")
	cl.viper.BindEnv("collector.archive_dir", p+"_COLLECTOR_ARCHIVE_DIR")

	cl.viper.BindEnv("geocoder.enabled", p+"_GEOCODER_ENABLED")
	cl.viper.BindEnv("geocoder.base_url", p+"_GEOCODER_BASE_URL")

	cl.viper.BindEnv("log.level", p+"_LOG_LEVEL")
	cl.viper.BindEnv("log.file_path", p+"_LOG_FILE_PATH")
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	SetDefaults(cl.viper)
}

// SetDefaults 在给定viper实例上写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "TaxSaleCollector")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "./logs/collector.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.caller", false)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "taxsale")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 20)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("collector.default_rate_limit.window", "60s")
	v.SetDefault("collector.default_rate_limit.max_requests", 20)
	v.SetDefault("collector.retry.max_attempts", 3)
	v.SetDefault("collector.retry.delay_unit", "2s")
	v.SetDefault("collector.concurrency_limit", 3)
	v.SetDefault("collector.sample_fallback", false)
	v.SetDefault("collector.archive_dir", "./data/raw")
	v.SetDefault("collector.http_timeout", "30s")
	v.SetDefault("collector.user_agent", "")

	v.SetDefault("geocoder.enabled", false)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.cache_ttl", "720h")

	v.SetDefault("health.lookback", "24h")
	v.SetDefault("health.stale_after", "168h")
	v.SetDefault("health.warning_ratio", 0.2)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.timezone", "America/New_York")
}

// ValidateConfig 验证配置
func ValidateConfig(config *Config) error {
	if config.Server == nil || config.Log == nil || config.Mongo == nil || config.Collector == nil || config.Health == nil {
		return fmt.Errorf("incomplete config: server, log, mongo, collector and health sections are required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}

	c := config.Collector
	if c.DefaultRateLimit.Window <= 0 || c.DefaultRateLimit.MaxRequests <= 0 {
		return fmt.Errorf("default rate limit must have positive window and max_requests")
	}
	for name, rl := range c.RateLimits {
		if rl.Window <= 0 || rl.MaxRequests <= 0 {
			return fmt.Errorf("rate limit for %s must have positive window and max_requests", name)
		}
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max_attempts must be positive: %d", c.Retry.MaxAttempts)
	}
	if c.Retry.DelayUnit < 0 {
		return fmt.Errorf("retry delay_unit must not be negative")
	}
	if c.ConcurrencyLimit <= 0 {
		return fmt.Errorf("concurrency_limit must be positive: %d", c.ConcurrencyLimit)
	}

	if config.Health.WarningRatio < 0 || config.Health.WarningRatio > 1 {
		return fmt.Errorf("health warning_ratio must be within [0,1]: %v", config.Health.WarningRatio)
	}

	seen := make(map[string]struct{}, len(config.Sources))
	for _, s := range config.Sources {
		if s.ID == "" || s.CollectorType == "" {
			return fmt.Errorf("source %q requires id and collector_type", s.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate source id: %s", s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	return nil
}

// GetConfigPath 获取实际使用的配置文件路径
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// LoadConfigFromFile 从指定文件加载配置
func LoadConfigFromFile(configFile string) (*Config, error) {
	loader := NewConfigLoader(configFile, DefaultEnvPrefix)
	return loader.LoadConfig()
}
