package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// memoryCache is an in-memory CacheService for testing
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(key string) ([]byte, error) {
	if val, ok := m.values[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *memoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func TestPlatformBlock(t *testing.T) {
	mem := newMemoryCache()

	assert.False(t, PlatformBlocked(mem, "hahow"))

	BlockPlatform(mem, "hahow", 10*time.Minute)
	assert.True(t, PlatformBlocked(mem, "hahow"))
	assert.False(t, PlatformBlocked(mem, "pressplay"))
}

func TestPlatformBlockNilService(t *testing.T) {
	// nil cache disables blocking entirely
	BlockPlatform(nil, "hahow", time.Minute)
	assert.False(t, PlatformBlocked(nil, "hahow"))
}
