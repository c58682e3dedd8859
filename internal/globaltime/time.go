package globaltime

import (
	"sync"
	"time"
)

// TimestampLayout is the canonical persisted timestamp format: UTC, second
// precision, RFC3339 with a trailing Z.
const TimestampLayout = "2006-01-02T15:04:05Z"

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// Stamp returns the current time in the canonical persisted format.
func Stamp() string {
	return Format(UTC())
}

// Format renders t in the canonical persisted format.
func Format(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
