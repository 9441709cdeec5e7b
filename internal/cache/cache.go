// Package cache holds short-lived copies of public read responses.
// It is a freshness optimization only: every miss or failure falls back
// to the store.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque response bodies by key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Noop is a Cache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error { return nil }
func (Noop) Close() error { return nil }
