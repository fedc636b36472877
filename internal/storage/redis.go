// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisURL is used when no URL is configured.
const DefaultRedisURL = "redis://localhost:6379/0"

// RedisKV stores keys in Redis under a "coursedeck:" prefix.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
	addr   string
}

// NewRedisKV connects to url and verifies the server responds.
func NewRedisKV(url string) (*RedisKV, error) {
	if url == "" {
		url = DefaultRedisURL
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opt.Addr, err)
	}

	return &RedisKV{rdb: rdb, prefix: "coursedeck:", addr: opt.Addr}, nil
}

// Get returns the value for key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(key)
		}
		return nil, &StorageError{Message: "failed to read", Key: key, Cause: err}
	}
	return data, nil
}

// Put sets the value for key with no expiry.
func (r *RedisKV) Put(ctx context.Context, key string, data []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return &StorageError{Message: "failed to write", Key: key, Cause: err}
	}
	return nil
}

// Delete removes key.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return &StorageError{Message: "failed to delete", Key: key, Cause: err}
	}
	return nil
}

// Name returns a description including the server address.
func (r *RedisKV) Name() string {
	return "redis:" + r.addr
}

// Close closes the client.
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}
