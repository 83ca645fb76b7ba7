package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/store"
)

const (
	recentKey       = "kaoyan:blessings:recent"
	generationKey   = "kaoyan:blessings:gen"
	opTimeout       = 300 * time.Millisecond
	defaultCacheTTL = 30 * time.Second
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect dials Redis and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// CachedStore caches recent-distinct listings in front of another store.
// Cache errors are logged and never fail a request.
type CachedStore struct {
	next   store.BlessingStore
	client *redis.Client
	ttl    time.Duration
	log    *zerolog.Logger
}

// New wraps next with a read-through cache. A nil client returns next as-is.
func New(next store.BlessingStore, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) store.BlessingStore {
	if client == nil {
		return next
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CachedStore{next: next, client: client, ttl: ttl, log: logger}
}

// opContext bounds a cache call without extending the caller's deadline.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= opTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, opTimeout)
}

// Append writes through, bumps the cache generation and drops every cached
// listing.
func (c *CachedStore) Append(ctx context.Context, content string) error {
	if err := c.next.Append(ctx, content); err != nil {
		return err
	}

	cctx, cancel := opContext(ctx)
	defer cancel()
	_, err := c.client.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(cctx, generationKey)
		pipe.Del(cctx, recentKey)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("invalidate blessing cache failed")
	}
	return nil
}

// ListRecentDistinct serves from Redis when possible. Listings are stored
// under the generation read before the database query, so a listing that
// raced with an Append is never served afterwards.
func (c *CachedStore) ListRecentDistinct(ctx context.Context, limit int) ([]string, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.next.ListRecentDistinct(ctx, limit)
	}
	field := listingField(gen, limit)

	if cached, ok := c.get(ctx, field); ok {
		return cached, nil
	}

	contents, err := c.next.ListRecentDistinct(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.put(ctx, field, contents)
	return contents, nil
}

func (c *CachedStore) generation(ctx context.Context) (int64, bool) {
	cctx, cancel := opContext(ctx)
	defer cancel()

	gen, err := c.client.Get(cctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		c.log.Warn().Err(err).Msg("read blessing cache generation failed")
		return 0, false
	}
	return gen, true
}

func listingField(gen int64, limit int) string {
	return strconv.FormatInt(gen, 10) + ":" + strconv.Itoa(limit)
}

func (c *CachedStore) get(ctx context.Context, field string) ([]string, bool) {
	cctx, cancel := opContext(ctx)
	defer cancel()

	data, err := c.client.HGet(cctx, recentKey, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("read blessing cache failed")
		}
		return nil, false
	}

	var contents []string
	if err := json.Unmarshal(data, &contents); err != nil {
		c.log.Warn().Err(err).Msg("decode blessing cache failed")
		return nil, false
	}
	return contents, true
}

func (c *CachedStore) put(ctx context.Context, field string, contents []string) {
	payload, err := json.Marshal(contents)
	if err != nil {
		c.log.Warn().Err(err).Msg("encode blessing cache failed")
		return
	}

	cctx, cancel := opContext(ctx)
	defer cancel()

	_, err = c.client.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(cctx, recentKey, field, payload)
		pipe.Expire(cctx, recentKey, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("store blessing cache failed")
	}
}

// Close closes the Redis client and the wrapped store.
func (c *CachedStore) Close() error {
	cacheErr := c.client.Close()
	if err := c.next.Close(); err != nil {
		return err
	}
	return cacheErr
}
