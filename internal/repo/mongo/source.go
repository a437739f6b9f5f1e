package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// SourceCollection 数据源集合名
const SourceCollection = "data_sources"

// SourceRepository 数据源仓库
type SourceRepository struct {
	coll *mongo.Collection
}

// NewSourceRepository 创建 SourceRepository 实例
func NewSourceRepository(db *mongo.Database) *SourceRepository {
	return &SourceRepository{coll: db.Collection(SourceCollection)}
}

// EnsureIndexes 创建索引
func (r *SourceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collectorType", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_collector_status"),
	})
	if err != nil {
		return fmt.Errorf("failed to create source indexes: %w", err)
	}
	return nil
}

// List 列出全部数据源
func (r *SourceRepository) List(ctx context.Context) ([]*collection.Source, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	var sources []*collection.Source
	if err := cur.All(ctx, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}
	return sources, nil
}

// Get 根据ID获取数据源，不存在返回 nil
func (r *SourceRepository) Get(ctx context.Context, id string) (*collection.Source, error) {
	var s collection.Source
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return &s, nil
}

// UpdateStatus 回写采集后的数据源状态
func (r *SourceRepository) UpdateStatus(ctx context.Context, id string, u collection.SourceStatusUpdate) error {
	set := bson.M{
		"status":        u.Status,
		"lastCollected": u.LastCollected,
	}
	unset := bson.M{}

	if u.LastWarning != "" {
		set["metadata."+collection.MetaLastWarning] = u.LastWarning
	} else {
		unset["metadata."+collection.MetaLastWarning] = ""
	}
	if u.LastError != "" {
		set["metadata."+collection.MetaLastError] = u.LastError
	} else {
		unset["metadata."+collection.MetaLastError] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		logger.LogError(err, "", "update_source_status", "REPO", map[string]interface{}{
			"operation": "update_source_status",
			"source_id": id,
		})
		return fmt.Errorf("failed to update source %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("source %s not found", id)
	}
	return nil
}

// Seed 写入配置中的数据源定义，已有数据源的运行状态保持不变
func (r *SourceRepository) Seed(ctx context.Context, s *collection.Source) error {
	set := bson.M{
		"name":          s.Name,
		"type":          s.Kind,
		"url":           s.URL,
		"region":        s.Region,
		"collectorType": s.CollectorType,
		"schedule":      s.Schedule,
	}
	for k, v := range s.Metadata {
		set["metadata."+k] = v
	}
	status := s.Status
	if status == "" {
		status = collection.SourceStatusActive
	}

	_, err := r.coll.UpdateByID(ctx, s.ID, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"status": status},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to seed source %s: %w", s.ID, err)
	}
	return nil
}
