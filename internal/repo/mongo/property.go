/**
 * 仓库层:房产数据访问
 * @author: sun977
 * @date: 2025.11.06
 * @description: 基于身份键唯一索引的幂等写入(存在即更新，不存在即创建)
 * @func: 单纯数据访问,不包含业务逻辑
 */
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// PropertyCollection 房产集合名
const PropertyCollection = "properties"

// PropertyRepository 房产仓库
type PropertyRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewPropertyRepository 创建 PropertyRepository 实例
func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{coll: db.Collection(PropertyCollection), now: time.Now}
}

// EnsureIndexes 创建索引，identityKey 唯一
func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identityKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_identity_key"),
		},
		{
			Keys:    bson.D{{Key: "sourceId", Value: 1}},
			Options: options.Index().SetName("idx_source_id"),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "county", Value: 1}},
			Options: options.Index().SetName("idx_state_county"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create property indexes: %w", err)
	}
	return nil
}

// Upsert 按身份键写入房产记录
// 返回 created=true 表示新建，false 表示原地更新
func (r *PropertyRepository) Upsert(ctx context.Context, p *collection.Property) (bool, error) {
	if p == nil {
		return false, errors.New("property is nil")
	}
	if p.IdentityKey == "" {
		key, err := p.ComputeIdentityKey()
		if err != nil {
			return false, err
		}
		p.IdentityKey = key
	}

	created, err := r.upsertOnce(ctx, p)
	// 并发首次写入同一键时唯一索引冲突，重试一次即转为更新
	if err != nil && mongo.IsDuplicateKeyError(err) {
		created, err = r.upsertOnce(ctx, p)
	}
	if err != nil {
		logger.LogError(err, "", "upsert_property", "REPO", map[string]interface{}{
			"operation":    "upsert_property",
			"identity_key": p.IdentityKey,
			"source_id":    p.SourceID,
		})
		return false, fmt.Errorf("failed to upsert property %s: %w", p.IdentityKey, err)
	}
	return created, nil
}

func (r *PropertyRepository) upsertOnce(ctx context.Context, p *collection.Property) (bool, error) {
	now := r.now()
	if p.LastUpdated.IsZero() {
		p.LastUpdated = now
	}

	filter := bson.M{"identityKey": p.IdentityKey}
	update, err := propertyUpdate(p, now)
	if err != nil {
		return false, err
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"_id": 1})

	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// optionalPropertyFields 带 omitempty 的顶层字段，本次为空时需显式删除旧值
var optionalPropertyFields = []string{
	"parcelId", "taxAccountNumber", "ownerName", "city", "zipCode", "propertyType", "location",
}

// propertyUpdate 构建整条替换语义的更新文档: 非空字段 $set，空字段 $unset
// 嵌套文档(propertyDetails/taxInfo/saleInfo)整体覆盖
func propertyUpdate(p *collection.Property, now time.Time) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode property %s: %w", p.IdentityKey, err)
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to encode property %s: %w", p.IdentityKey, err)
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}

	unset := bson.M{}
	for _, field := range optionalPropertyFields {
		if _, ok := set[field]; !ok {
			unset[field] = ""
		}
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// GetByIdentityKey 根据身份键获取房产，不存在返回 nil
func (r *PropertyRepository) GetByIdentityKey(ctx context.Context, key string) (*collection.Property, error) {
	var p collection.Property
	err := r.coll.FindOne(ctx, bson.M{"identityKey": key}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property %s: %w", key, err)
	}
	return &p, nil
}

// CountBySource 统计数据源下的房产数量
func (r *PropertyRepository) CountBySource(ctx context.Context, sourceID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"sourceId": sourceID})
	if err != nil {
		return 0, fmt.Errorf("failed to count properties for %s: %w", sourceID, err)
	}
	return n, nil
}
