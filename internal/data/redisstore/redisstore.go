package redisstore

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/pkg/logx"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    *logx.Logger
	once      sync.Once
)

// Store is a thin wrapper over one logical Redis DB. Typed stores compose
// it instead of holding a raw client.
type Store struct {
	client *redis.Client
	DB     int
}

// GetRedisStore returns the shared store for a logical DB, nil when Redis
// is unreachable. Callers fall back to the in-memory stores on nil.
func GetRedisStore(ctx context.Context, db int) *Store {
	mu.RLock()
	instance, exists := instances[db]
	mu.RUnlock()

	if exists {
		return instance
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[db]; exists {
		return instance
	}
	return createNewStore(ctx, db)
}

func createNewStore(ctx context.Context, db int) *Store {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = config.RedisAddr
	}
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              config.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	initLogger()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline", "db", db, "error", err)
		return nil
	}

	logger.Info("Redis store ready", "db", db)

	newStore := &Store{client: newClient, DB: db}
	instances[db] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore
}

func initLogger() {
	if logger == nil {
		logger = logx.New("redis_store")
	}
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis stores")
	mu.Lock()
	defer mu.Unlock()
	for _, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "error", err)
		}
	}
}

// NewTestStore wires an externally constructed client, used with miniredis.
func NewTestStore(client *redis.Client) *Store {
	initLogger()
	return &Store{client: client}
}
