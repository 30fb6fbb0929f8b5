package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy selects how the in-process cache evicts entries.
type Policy string

const (
	PolicyNone Policy = "none" // unbounded, never expires
	PolicyLRU  Policy = "lru"  // bounded by Size, least recently used evicted first
	PolicyTTL  Policy = "ttl"  // entries expire after TTL; Size optional
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyNone, PolicyLRU, PolicyTTL:
		return p, nil
	case "":
		return PolicyNone, nil
	default:
		return "", fmt.Errorf("unknown cache policy %q", s)
	}
}

// Options configures an in-process store.
type Options struct {
	Policy Policy
	Size   int
	TTL    time.Duration
}

// Store holds encoded values by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key builds a cache key from a function name and its arguments.
func Key(fn string, args ...any) string {
	var b strings.Builder
	b.WriteString(fn)
	for _, a := range args {
		b.WriteByte(':')
		fmt.Fprint(&b, a)
	}
	return b.String()
}

// Memoize returns the cached value for key, or calls load and caches its result.
// Cache failures are logged and never fail the call.
func Memoize[T any](ctx context.Context, store Store, key string, load func() (T, error)) (T, error) {
	if store == nil {
		return load()
	}

	if data, ok, err := store.Get(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache get failed")
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		} else {
			logrus.WithError(err).WithField("key", key).Warn("cache entry undecodable, reloading")
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache encode failed")
		return v, nil
	}
	if err := store.Set(ctx, key, data); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache set failed")
	}
	return v, nil
}
