package mongo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/database"
)

// setupDB 需要设置 TAXSALE_TEST_MONGO_URI，否则跳过
func setupDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TAXSALE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TAXSALE_TEST_MONGO_URI not set, skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := database.NewMongoConnection(ctx, &config.MongoConfig{
		URI:      uri,
		Database: "taxsale_test_" + uuid.NewString()[:8],
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func sampleProperty(amount float64) *collection.Property {
	return &collection.Property{
		ParcelID:        "01-123456",
		PropertyAddress: "123 MAIN STREET, TOWN, MD 20650",
		State:           "MD",
		County:          "St. Mary's",
		SaleInfo:        collection.SaleInfo{SaleAmount: amount},
		SourceID:        "md-st-marys",
	}
}

func TestPropertyRepository_UpsertTwiceKeepsOneRecord(t *testing.T) {
	db := setupDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	created, err := repo.Upsert(ctx, sampleProperty(1200.50))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(ctx, sampleProperty(1350))
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repo.CountBySource(ctx, "md-st-marys")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByIdentityKey(ctx, "parcel:01-123456")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1350.0, got.SaleInfo.SaleAmount)
}

func TestPropertyUpdate_ClearsOmittedFields(t *testing.T) {
	now := time.Now()
	full := sampleProperty(1200.50)
	full.OwnerName = "DOE JOHN"
	full.Location = &collection.Location{Latitude: 38.3, Longitude: -76.6}

	update, err := propertyUpdate(full, now)
	require.NoError(t, err)
	set := update["$set"].(bson.M)
	assert.Equal(t, "DOE JOHN", set["ownerName"])
	assert.Contains(t, set, "location")
	unset := update["$unset"].(bson.M)
	assert.NotContains(t, unset, "ownerName")
	assert.NotContains(t, unset, "location")
	assert.NotContains(t, unset, "parcelId")
	assert.Contains(t, unset, "city")

	sparse := sampleProperty(1350)
	update, err = propertyUpdate(sparse, now)
	require.NoError(t, err)
	set = update["$set"].(bson.M)
	assert.NotContains(t, set, "ownerName")
	assert.NotContains(t, set, "createdAt")
	unset = update["$unset"].(bson.M)
	assert.Contains(t, unset, "ownerName")
	assert.Contains(t, unset, "location")
	assert.Equal(t, bson.M{"createdAt": now}, update["$setOnInsert"])
}

func TestPropertyRepository_UpsertReplacesWholeRecord(t *testing.T) {
	db := setupDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	first := sampleProperty(1200.50)
	first.OwnerName = "DOE JOHN"
	first.Location = &collection.Location{Latitude: 38.3, Longitude: -76.6}
	_, err := repo.Upsert(ctx, first)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, sampleProperty(1350))
	require.NoError(t, err)

	got, err := repo.GetByIdentityKey(ctx, "parcel:01-123456")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.OwnerName)
	assert.Nil(t, got.Location)
	assert.Equal(t, 1350.0, got.SaleInfo.SaleAmount)
}

func TestPropertyRepository_ConcurrentFirstWrite(t *testing.T) {
	db := setupDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := repo.Upsert(ctx, sampleProperty(float64(1000+i)))
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	n, err := repo.CountBySource(ctx, "md-st-marys")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSourceAndRunRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	sources := NewSourceRepository(db)
	runs := NewRunRepository(db)
	require.NoError(t, sources.EnsureIndexes(ctx))
	require.NoError(t, runs.EnsureIndexes(ctx))

	src := &collection.Source{
		ID:            "md-st-marys",
		Name:          "St. Mary's County Tax Sale",
		CollectorType: "st-marys-md",
		Region:        collection.Region{State: "MD", County: "St. Mary's"},
		Schedule:      collection.Schedule{Frequency: collection.FrequencyWeekly},
	}
	require.NoError(t, sources.Seed(ctx, src))

	got, err := sources.Get(ctx, src.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, collection.SourceStatusActive, got.Status)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, sources.UpdateStatus(ctx, src.ID, collection.SourceStatusUpdate{
		Status:        collection.SourceStatusWarning,
		LastCollected: now,
		LastWarning:   "sample data used",
	}))

	// 再次种子不覆盖状态
	require.NoError(t, sources.Seed(ctx, src))
	got, err = sources.Get(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, collection.SourceStatusWarning, got.Status)
	assert.Equal(t, "sample data used", got.Metadata[collection.MetaLastWarning])

	missing, err := sources.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, runs.Insert(ctx, &collection.CollectionRun{
		ID: uuid.NewString(), SourceID: src.ID, Timestamp: now, Status: collection.RunStatusSuccess,
	}))
	require.NoError(t, runs.Insert(ctx, &collection.CollectionRun{
		ID: uuid.NewString(), SourceID: src.ID, Timestamp: now.Add(-48 * time.Hour), Status: collection.RunStatusError,
	}))

	recent, err := runs.ListSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, collection.RunStatusSuccess, recent[0].Status)

	bySource, err := runs.ListBySource(ctx, src.ID, 10)
	require.NoError(t, err)
	assert.Len(t, bySource, 2)
}
