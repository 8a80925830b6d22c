package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key templates
const (
	KeyElection        = "election:%s"           // full election document
	KeyElectionResults = "election:%s:results"   // ranked results payload
	KeyVoterStatus     = "election:%s:voter:%s"  // per-election voter ledger membership
	KeyVoteLock        = "election:%s:votelock:%s" // short-lived double-submit guard
	KeyClassWinners    = "promotion:class_winners"
)

// TTL constants
const (
	TTLElection     = 5 * time.Minute  // election document cache
	TTLResults      = 30 * time.Second // results change while voting is open
	TTLVoterStatus  = 24 * time.Hour   // voter ledger membership never un-happens
	TTLVoteLock     = 10 * time.Second // covers a double-submitted request pair
	TTLClassWinners = 5 * time.Minute
)

// NewClient creates a new Redis client
func NewClient(redisURL, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		c.log.Debug("redis_get failed", zap.String("key", key), zap.Error(err))
		return "", err
	}
	return val, nil
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("redis_set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// SetNX sets a value only if the key does not exist. Used as a cheap
// double-submit guard on vote casting.
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		c.log.Debug("redis_setnx failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// Exists checks whether the given keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		c.log.Debug("redis_exists failed", zap.Error(err))
		return 0, err
	}
	return n, nil
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Debug("redis_del failed", zap.Error(err))
		return err
	}
	return nil
}
