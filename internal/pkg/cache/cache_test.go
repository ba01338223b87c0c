package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("marketplace")

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Set(ctx, "b", []byte("bytes"), 0))
	got, _ = c.Get(ctx, "b")
	assert.Equal(t, "bytes", got)

	require.NoError(t, c.Set(ctx, "n", 42, 0))
	got, _ = c.Get(ctx, "n")
	assert.Equal(t, "42", got)

	require.NoError(t, c.Delete(ctx, "k"))
	got, _ = c.Get(ctx, "k")
	assert.Empty(t, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("marketplace").(*memoryCache)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "session", "u1", time.Minute))

	now = now.Add(59 * time.Second)
	got, _ := c.Get(ctx, "session")
	assert.Equal(t, "u1", got)

	now = now.Add(time.Second)
	got, _ = c.Get(ctx, "session")
	assert.Empty(t, got)
}

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("marketplace").(*memoryCache)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, err := c.SetNX(ctx, "idem", "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "idem", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	got, _ := c.Get(ctx, "idem")
	assert.Equal(t, "pending", got)

	now = now.Add(time.Minute)
	ok, err = c.SetNX(ctx, "idem", "again", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = c.Get(ctx, "idem")
	assert.Equal(t, "again", got)
}

func TestMemoryCache_SetNX_OneWinner(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("marketplace")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.SetNX(ctx, "race", "x", 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "marketplace:session:abc", NewMemoryCache("marketplace").GenerateKey("session", "abc"))
	assert.Equal(t, "order:idem:k1", NewRedisCache("localhost:0", "order").GenerateKey("idem", "k1"))
}

func TestPing_MemoryIsNoop(t *testing.T) {
	assert.NoError(t, Ping(context.Background(), NewMemoryCache("x")))
}
