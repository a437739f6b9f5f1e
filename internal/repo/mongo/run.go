package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// RunCollection 采集运行记录集合名
const RunCollection = "collection_runs"

// RunRepository 采集运行记录仓库(只追加)
type RunRepository struct {
	coll *mongo.Collection
}

// NewRunRepository 创建 RunRepository 实例
func NewRunRepository(db *mongo.Database) *RunRepository {
	return &RunRepository{coll: db.Collection(RunCollection)}
}

// EnsureIndexes 创建索引
func (r *RunRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_timestamp")},
		{Keys: bson.D{{Key: "sourceId", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_source_timestamp")},
	})
	if err != nil {
		return fmt.Errorf("failed to create run indexes: %w", err)
	}
	return nil
}

// Insert 写入运行记录
func (r *RunRepository) Insert(ctx context.Context, run *collection.CollectionRun) error {
	if _, err := r.coll.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to insert collection run %s: %w", run.ID, err)
	}
	return nil
}

// ListSince 列出指定时间之后的运行记录，按时间倒序
func (r *RunRepository) ListSince(ctx context.Context, since time.Time) ([]*collection.CollectionRun, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"timestamp": bson.M{"$gte": since}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection runs: %w", err)
	}
	var runs []*collection.CollectionRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode collection runs: %w", err)
	}
	return runs, nil
}

// ListBySource 列出数据源最近的运行记录
func (r *RunRepository) ListBySource(ctx context.Context, sourceID string, limit int64) ([]*collection.CollectionRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{"sourceId": sourceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for %s: %w", sourceID, err)
	}
	var runs []*collection.CollectionRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs for %s: %w", sourceID, err)
	}
	return runs, nil
}
