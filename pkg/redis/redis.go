package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

// IRedis caches computed insight payloads. The per-user version bumps on
// every persisted analysis so cached insights never outlive fresh KPI
// data.
type IRedis interface {
	GetCachedInsight(ctx context.Context, key string) (string, error)
	SetCachedInsight(ctx context.Context, key string, payload string, expiration time.Duration) error
	GetInsightVersion(ctx context.Context, userID string) int64
	BumpInsightVersion(ctx context.Context, userID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) GetCachedInsight(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		logrus.Error(fmt.Sprintf("Error reading cached insight %s: %v", key, err))
		return "", err
	}
	return val, nil
}

func (r *redisClient) SetCachedInsight(ctx context.Context, key string, payload string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error caching insight %s: %v", key, err))
		return err
	}
	return nil
}

func versionKey(userID string) string {
	return fmt.Sprintf("insights:version:%s", userID)
}

// GetInsightVersion returns 0 when no version exists yet or Redis is
// unreachable; a cold cache is always safe.
func (r *redisClient) GetInsightVersion(ctx context.Context, userID string) int64 {
	val, err := r.client.Get(ctx, versionKey(userID)).Int64()
	if err != nil {
		return 0
	}
	return val
}

func (r *redisClient) BumpInsightVersion(ctx context.Context, userID string) error {
	if err := r.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error bumping insight version for %s: %v", userID, err))
		return err
	}
	return nil
}
