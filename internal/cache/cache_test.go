package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(project, id string) Key {
	return Key{ProjectID: project, Kind: "chunk", ID: id}
}

func TestGetPut(t *testing.T) {
	c := New(4, time.Minute)

	_, ok := c.Get(key("p1", "c1"))
	assert.False(t, ok)

	c.Put(key("p1", "c1"), "value")

	got, ok := c.Get(key("p1", "c1"))
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestKindsDoNotCollide(t *testing.T) {
	c := New(4, time.Minute)

	c.Put(Key{ProjectID: "p1", Kind: "chunk", ID: "x"}, "chunk")
	c.Put(Key{ProjectID: "p1", Kind: "manifest", ID: "x"}, "manifest")

	got, ok := c.Get(Key{ProjectID: "p1", Kind: "manifest", ID: "x"})
	require.True(t, ok)
	assert.Equal(t, "manifest", got)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3, time.Minute)
	for i := 1; i <= 3; i++ {
		c.Put(key("p1", fmt.Sprintf("c%d", i)), i)
	}

	// Touch c1 so c2 becomes the eviction victim.
	_, ok := c.Get(key("p1", "c1"))
	require.True(t, ok)

	c.Put(key("p1", "c4"), 4)

	_, ok = c.Get(key("p1", "c2"))
	assert.False(t, ok)
	_, ok = c.Get(key("p1", "c1"))
	assert.True(t, ok)
	assert.Equal(t, 3, c.Len())
}

func TestExpiry(t *testing.T) {
	c := New(4, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put(key("p1", "c1"), "value")

	now = now.Add(2 * time.Minute)
	_, ok := c.Get(key("p1", "c1"))
	assert.False(t, ok)
}

func TestPutRefreshesExpiry(t *testing.T) {
	c := New(4, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put(key("p1", "c1"), "old")
	now = now.Add(50 * time.Second)
	c.Put(key("p1", "c1"), "new")
	now = now.Add(30 * time.Second)

	got, ok := c.Get(key("p1", "c1"))
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestInvalidateProject(t *testing.T) {
	c := New(8, time.Minute)
	c.Put(key("p1", "c1"), 1)
	c.Put(key("p1", "c2"), 2)
	c.Put(key("p2", "c1"), 3)

	c.Invalidate("p1")

	_, ok := c.Get(key("p1", "c1"))
	assert.False(t, ok)
	_, ok = c.Get(key("p2", "c1"))
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestStats(t *testing.T) {
	c := New(4, time.Minute)
	c.Put(key("p1", "c1"), 1)

	c.Get(key("p1", "c1"))
	c.Get(key("p1", "missing"))

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestDefaultsApplied(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, 256, c.capacity)
	assert.Equal(t, 5*time.Minute, c.ttl)
}
