package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("a", []byte("1"))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestLRUCache_MissReturnsFalse(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_TTLExpires(t *testing.T) {
	c := NewLRUCache(10, 10*time.Millisecond)
	c.Set("a", []byte("1"))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("search:p1:abc", []byte("1"))
	c.Set("search:p1:def", []byte("2"))
	c.Set("search:p2:xyz", []byte("3"))

	c.DeletePrefix("search:p1:")

	_, ok1 := c.Get("search:p1:abc")
	_, ok2 := c.Get("search:p1:def")
	v3, ok3 := c.Get("search:p2:xyz")

	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
	assert.Equal(t, []byte("3"), v3)
}

func TestLRUCache_Len(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	assert.Equal(t, 0, c.Len())
	c.Set("a", []byte("1"))
	assert.Equal(t, 1, c.Len())
}
