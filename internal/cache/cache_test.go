package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	l := NewLRU[string, int](2)
	l.Put("a", 1)
	l.Put("b", 2)
	_, _ = l.Get("a") // a is now most recent
	l.Put("c", 3)

	_, ok := l.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := l.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int64(1), l.Evicted())
}

func TestLRU_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	l := NewLRU[int, string](0)
	l.Put(1, "one")
	l.Put(1, "uno")
	v, _ := l.Get(1)
	assert.Equal(t, "uno", v)
	assert.Equal(t, 1, l.Len())

	assert.True(t, l.Delete(1))
	assert.False(t, l.Delete(1))
	l.Put(2, "two")
	l.Clear()
	assert.Zero(t, l.Len())
}

func TestTTL_ExpiresOnRead(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewTTL[[]string](time.Minute, 8, WithClock(clock.Now))

	c.Set("search:octo", []string{"octocat"})
	clock.Advance(59 * time.Second)
	v, ok := c.Get("search:octo")
	require.True(t, ok)
	assert.Equal(t, []string{"octocat"}, v)

	clock.Advance(time.Second)
	_, ok = c.Get("search:octo")
	assert.False(t, ok, "entries expire exactly at the TTL")

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Expired)
	assert.Zero(t, st.Entries, "expired entry is dropped on read")
}

func TestTTL_SetRefreshesTimestamp(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewTTL[int](10*time.Second, 0, WithClock(clock.Now))

	c.Set("k", 1)
	clock.Advance(8 * time.Second)
	c.Set("k", 2)
	clock.Advance(8 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	c.Invalidate("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTL_Defaults(t *testing.T) {
	t.Parallel()

	c := NewTTL[int](0, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, DefaultCapacity, c.lru.capacity)
}

func TestKey(t *testing.T) {
	t.Parallel()

	k1, err := Key("list", "octocat", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, `list:["octocat",2,10]`, k1)

	k2, err := Key("list", "octocat", 3, 10)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	_, err = Key("bad", func() {})
	assert.Error(t, err)
}
