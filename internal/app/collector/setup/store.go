package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/database"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/repo/memory"
	mongoRepo "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/repo/mongo"
)

// 存储模式
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// SetupStores 初始化存储
// memory 模式用于试运行，进程退出即丢弃
func SetupStores(ctx context.Context, cfg *config.Config, mode string) (*StoreModule, error) {
	switch strings.ToLower(mode) {
	case StoreMemory:
		logger.LogSystemEvent("setup", "stores", "using in-memory stores", logger.WarnLevel, nil)
		return &StoreModule{
			Properties: memory.NewPropertyRepository(),
			Sources:    memory.NewSourceRepository(),
			Runs:       memory.NewRunRepository(),
		}, nil
	case StoreMongo, "":
	default:
		return nil, fmt.Errorf("unknown store mode %q", mode)
	}

	client, db, err := database.NewMongoConnection(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	props := mongoRepo.NewPropertyRepository(db)
	sources := mongoRepo.NewSourceRepository(db)
	runs := mongoRepo.NewRunRepository(db)

	for _, ensure := range []func(context.Context) error{props.EnsureIndexes, sources.EnsureIndexes, runs.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}

	logger.LogSystemEvent("setup", "stores", "connected to mongo", logger.InfoLevel, map[string]interface{}{
		"database": cfg.Mongo.Database,
	})

	return &StoreModule{
		Properties: props,
		Sources:    sources,
		Runs:       runs,
		closers:    []func(ctx context.Context) error{client.Disconnect},
	}, nil
}
