package softcache

import (
	"fmt"
	"time"
)

const (
	defaultCleanupInterval   = 10 * time.Second
	defaultEvictionThreshold = 1000
	defaultNamespace         = "softcache"
	maxPutAttempts           = 3
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Clock provides the time used for recency tracking.
// The default implementation uses time.Now().
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func defaultKeyString[K comparable](k K) string {
	if s, ok := any(k).(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
