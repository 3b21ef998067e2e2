// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package urlcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace is the fixed key prefix for cached serving URLs.
const Namespace = "picstash:serving-url:"

// ErrCacheMiss is returned when no URL is cached under the key.
var ErrCacheMiss = errors.New("serving url not cached")

// Cache stores derived serving URLs with a TTL. Entries are not
// authoritative: a miss or eviction is repaired by re-deriving the URL.
type Cache interface {
	// Get returns the cached URL for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set caches url under key for ttl.
	Set(ctx context.Context, key string, url string, ttl time.Duration) error
}

// RedisCache implements Cache using Redis (or Dragonfly).
type RedisCache struct {
	client redis.Cmdable
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, Namespace+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, url string, ttl time.Duration) error {
	return c.client.Set(ctx, Namespace+key, url, ttl).Err()
}
