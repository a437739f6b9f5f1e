// 日志管理器
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
)

// timestampFormat 毫秒精度，无时区
const timestampFormat = "2006-01-02 15:04:05.000"

// LoggerManager 日志管理器
type LoggerManager struct {
	mu     sync.Mutex
	logger *logrus.Logger
	config *config.LogConfig
	closer io.Closer
}

// LoggerInstance 全局日志实例
var LoggerInstance *LoggerManager

// InitLogger 初始化日志管理器并设置为全局实例
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	lm, err := NewLoggerManager(cfg)
	if err != nil {
		return nil, err
	}
	LoggerInstance = lm
	return lm, nil
}

// NewLoggerManager 创建独立的日志管理器(不替换全局实例)
func NewLoggerManager(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("Invalid log level '%s', using 'info' as default", cfg.Level)
	}
	l.SetLevel(level)

	if err := setLogFormatter(l, cfg); err != nil {
		return nil, fmt.Errorf("failed to set log formatter: %w", err)
	}

	closer, err := setLogOutput(l, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}

	l.SetReportCaller(cfg.Caller)

	return &LoggerManager{logger: l, config: cfg, closer: closer}, nil
}

// setLogFormatter 设置日志格式化器
func setLogFormatter(l *logrus.Logger, cfg *config.LogConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return nil
}

// setLogOutput 设置日志输出目标，文件输出时返回轮转器以便关闭
func setLogOutput(l *logrus.Logger, cfg *config.LogConfig) (io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		l.SetOutput(os.Stdout)
		return nil, nil
	case "stderr":
		l.SetOutput(os.Stderr)
		return nil, nil
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path is required when output is %s", cfg.Output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // 天
			Compress:   cfg.Compress,
		}

		if strings.ToLower(cfg.Output) == "both" {
			l.SetOutput(io.MultiWriter(os.Stdout, rotator))
		} else {
			l.SetOutput(rotator)
		}
		return rotator, nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
}

// GetLogger 获取logrus实例
func (lm *LoggerManager) GetLogger() *logrus.Logger {
	return lm.logger
}

// GetConfig 获取日志配置
func (lm *LoggerManager) GetConfig() *config.LogConfig {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.config
}

// SetOutput 替换输出目标，测试中用于捕获日志
func (lm *LoggerManager) SetOutput(w io.Writer) {
	lm.logger.SetOutput(w)
}

// UpdateConfig 运行期更新日志配置(配置热加载回调)
func (lm *LoggerManager) UpdateConfig(newCfg *config.LogConfig) error {
	if newCfg == nil {
		return fmt.Errorf("new config cannot be nil")
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	old := lm.config

	if newCfg.Level != old.Level {
		level, err := logrus.ParseLevel(newCfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		lm.logger.SetLevel(level)
		lm.logger.Infof("Log level updated from %s to %s", old.Level, newCfg.Level)
	}

	if newCfg.Format != old.Format {
		if err := setLogFormatter(lm.logger, newCfg); err != nil {
			return fmt.Errorf("failed to update log formatter: %w", err)
		}
		lm.logger.Infof("Log format updated from %s to %s", old.Format, newCfg.Format)
	}

	if newCfg.Output != old.Output || newCfg.FilePath != old.FilePath {
		closer, err := setLogOutput(lm.logger, newCfg)
		if err != nil {
			return fmt.Errorf("failed to update log output: %w", err)
		}
		if lm.closer != nil {
			_ = lm.closer.Close()
		}
		lm.closer = closer
		lm.logger.Infof("Log output updated from %s to %s", old.Output, newCfg.Output)
	}

	if newCfg.Caller != old.Caller {
		lm.logger.SetReportCaller(newCfg.Caller)
	}

	lm.config = newCfg
	return nil
}

// Close 关闭文件输出
func (lm *LoggerManager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.closer == nil {
		return nil
	}
	err := lm.closer.Close()
	lm.closer = nil
	return err
}

// 便捷方法：全局日志实例未初始化时静默

// Debugf 记录格式化调试日志
func Debugf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Debugf(format, args...)
	}
}

// Info 记录信息日志
func Info(args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Info(args...)
	}
}

// Infof 记录格式化信息日志
func Infof(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Infof(format, args...)
	}
}

// Warnf 记录格式化警告日志
func Warnf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Warnf(format, args...)
	}
}

// Errorf 记录格式化错误日志
func Errorf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Errorf(format, args...)
	}
}

// Fatalf 记录格式化致命错误日志并退出程序
func Fatalf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Fatalf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// WithField 添加单个字段
func WithField(key string, value interface{}) *logrus.Entry {
	return WithFields(logrus.Fields{key: value})
}

// WithFields 添加多个字段
func WithFields(fields logrus.Fields) *logrus.Entry {
	if LoggerInstance != nil {
		return LoggerInstance.logger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithFields(fields)
}
