package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New(Options{DefaultTTL: time.Minute})

	c.Set("key", "value")
	v, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(Options{})

	c.SetWithExpiration("short", 1, 10*time.Millisecond)
	_, ok := c.Get("short")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New(Options{})

	c.Set("forever", 1)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("forever")
	assert.True(t, ok)
}

func TestMaxItemsEvictsNearestExpiration(t *testing.T) {
	c := New(Options{MaxItems: 2})

	c.SetWithExpiration("a", 1, time.Minute)
	c.SetWithExpiration("b", 2, time.Hour)
	c.SetWithExpiration("c", 3, time.Hour)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestDeleteAndFlush(t *testing.T) {
	c := New(Options{})

	evicted := map[string]interface{}{}
	c.SetOnEvicted(func(k string, v interface{}) { evicted[k] = v })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, evicted["a"])

	c.Flush()
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 2, evicted["b"])
}
