package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "quote:"

// CachedQuoteSource is a read-through Redis cache in front of a provider.
// Only successful quotes are cached; cache failures fall through to the
// provider.
type CachedQuoteSource struct {
	Source interfaces.IQuoteProvider
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCachedQuoteSource(source interfaces.IQuoteProvider, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedQuoteSource {
	return &CachedQuoteSource{
		Source: source,
		Client: client,
		TTL:    ttl,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// NewRedisClient connects to the cache described by cfg and checks it with PING.
func NewRedisClient(ctx context.Context, cfg models.MCacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to PING redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// -----------------------------------------------------------------------------

func (c *CachedQuoteSource) Name() string {
	return c.Source.Name() + "+redis"
}

// -----------------------------------------------------------------------------

func CacheKey(symbol string) string {
	return cacheKeyPrefix + strings.ToUpper(symbol)
}

// -----------------------------------------------------------------------------

func (c *CachedQuoteSource) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	key := CacheKey(symbol)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var q models.MQuote
		if err := json.Unmarshal(raw, &q); err == nil {
			c.Logger.Debug("Cache hit for %s", symbol)
			return &q, nil
		}
		c.Logger.Warning("Discarding corrupt cache entry %s", key)
	case errors.Is(err, redis.Nil):
	default:
		c.Logger.Warning("Cache read failed for %s: %v", symbol, err)
	}

	quote, err := c.Source.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(quote); err == nil {
		if err := c.Client.Set(ctx, key, data, c.TTL).Err(); err != nil {
			c.Logger.Warning("Cache write failed for %s: %v", symbol, err)
		}
	}

	return quote, nil
}
