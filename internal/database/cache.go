package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const defaultCacheTimeout = 2 * time.Second

// CacheBuilder wraps one valkey key. A nil client turns every call into a
// miss or a no-op so callers never need to special-case a missing cache.
type CacheBuilder struct {
	client CacheClient
	key    string
	value  any
	ttl    time.Duration
	ctx    context.Context
}

func NewCacheBuilder(client CacheClient, key any) *CacheBuilder {
	return &CacheBuilder{
		client: client,
		key:    fmt.Sprint(key),
		ctx:    context.Background(),
	}
}

func (b *CacheBuilder) WithStruct(value any) *CacheBuilder {
	b.value = value
	return b
}

func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.ttl = ttl
	return b
}

func (b *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

func (b *CacheBuilder) Set() error {
	if b.client == nil {
		return nil
	}

	payload, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %s: %w", b.key, err)
	}

	ctx, cancel := context.WithTimeout(b.ctx, defaultCacheTimeout)
	defer cancel()

	cmd := b.client.B().Set().Key(b.key).Value(string(payload))
	if b.ttl > 0 {
		seconds := int64(b.ttl / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		return b.client.Do(ctx, cmd.ExSeconds(seconds).Build()).Error()
	}
	return b.client.Do(ctx, cmd.Build()).Error()
}

// Get decodes the cached value into target. found is false on a miss.
func (b *CacheBuilder) Get(target any) (bool, error) {
	if b.client == nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(b.ctx, defaultCacheTimeout)
	defer cancel()

	raw, err := b.client.Do(ctx, b.client.B().Get().Key(b.key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", b.key, err)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", b.key, err)
	}

	return true, nil
}

func (b *CacheBuilder) Delete() error {
	if b.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(b.ctx, defaultCacheTimeout)
	defer cancel()

	return b.client.Do(ctx, b.client.B().Del().Key(b.key).Build()).Error()
}
