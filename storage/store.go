// Package storage provides the durable key/value stores the console
// persists its admin session into.
package storage

import (
	"context"
	"fmt"
)

// Store is a flat string key/value store. Get reports ok=false for a
// missing key; Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Options struct {
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the store selected by opts.Driver. The returned close func
// releases driver resources and is never nil.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }
	switch opts.Driver {
	case "", DriverFile:
		s, err := NewFileStore(opts.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case DriverRedis:
		s, err := NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case DriverMemory:
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
