// SnapshotArchiver 原始快照归档器
// 职责: 将采集到的原始行与富化后的记录落盘，作为审计与重放依据
package ingestor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SnapshotArchiver 快照归档器接口
type SnapshotArchiver interface {
	// Archive 归档数据，返回可定位的存储路径
	// key: 相对路径 (如: md-st-marys/2025-11-07/raw-1730966400-ab12cd34.json)
	Archive(ctx context.Context, key string, data []byte) (string, error)
}

// FileArchiver 本地文件系统归档器
type FileArchiver struct {
	basePath string
}

// NewFileArchiver 创建本地文件系统归档器
// basePath: 基础存储路径 (如: data/raw)
func NewFileArchiver(basePath string) *FileArchiver {
	return &FileArchiver{basePath: basePath}
}

// Archive 归档数据
func (a *FileArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid archive key: %q", key)
	}
	fullPath := filepath.Join(a.basePath, clean)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// 先写临时文件再改名，避免读到半截快照
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	return fullPath, nil
}

// NopArchiver 丢弃数据的归档器
type NopArchiver struct{}

// Archive 不做任何事
func (NopArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	return "", nil
}

// SnapshotKey 生成快照键
func SnapshotKey(sourceID, kind string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%d-%s.json",
		sourceID, at.UTC().Format("2006-01-02"), kind, at.Unix(), uuid.NewString()[:8])
}

// ArchiveJSON 序列化后归档
func ArchiveJSON(ctx context.Context, a SnapshotArchiver, key string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot %s: %w", key, err)
	}
	return a.Archive(ctx, key, data)
}
