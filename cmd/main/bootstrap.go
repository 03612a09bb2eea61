package main

import (
	"context"
	"fmt"
	"time"

	datasource "stock-dashboard/src/data_source"
	"stock-dashboard/src/data_source/yahoo"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/network"
	"stock-dashboard/src/storage"

	"github.com/redis/go-redis/v9"
)

// -----------------------------------------------------------------------------

// setupStore opens the configured store and creates its schema.
func setupStore(ctx context.Context, c *models.MConfig, log *logger.Logger) (interfaces.IStockStore, error) {
	var store interfaces.IStockStore

	switch c.Storage.DBType {
	case "postgres":
		store = storage.NewPostgresStore(c, log)
	default:
		store = storage.NewSQLiteStore(c, log)
	}

	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", c.Storage.DBType, err)
	}
	return store, nil
}

// -----------------------------------------------------------------------------

// setupProvider builds the Yahoo source, wrapped in the Redis cache when
// enabled. The returned client is nil without a cache.
func setupProvider(ctx context.Context, c *models.MConfig, log *logger.Logger) (interfaces.IQuoteProvider, *redis.Client) {
	netMgr := network.NewNetworkManager(c, logger.NewLogger("NetworkManager"))
	var provider interfaces.IQuoteProvider = yahoo.NewYahooQuoteSource(c, netMgr)

	if !c.Cache.Enabled {
		return provider, nil
	}

	client, err := datasource.NewRedisClient(ctx, c.Cache)
	if err != nil {
		log.Warning("Quote cache disabled: %v", err)
		return provider, nil
	}

	ttl := time.Duration(c.Cache.TTLSeconds) * time.Second
	log.Info("Quote cache enabled at %s (ttl %v)", c.Cache.Addr, ttl)
	return datasource.NewCachedQuoteSource(provider, client, ttl, logger.NewLogger("QuoteCache")), client
}
