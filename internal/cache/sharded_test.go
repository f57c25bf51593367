package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 42)
	val, ok := c.Get("key1")
	if !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v, want 42, true", val, ok)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}

	c.Set("key1", 43)
	if val, _ := c.Get("key1"); val != 43 {
		t.Errorf("Get(key1) after update = %d, want 43", val)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

// sameShard returns a hasher that puts every key in shard 0.
func sameShard(string) uint64 { return 0 }

func TestShardedEviction(t *testing.T) {
	c := NewSharded[string, int](2, sameShard)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestShardedDeleteClear(t *testing.T) {
	c := NewSharded[string, int](0, StringHasher)
	for i := 0; i < 50; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if !c.Delete("7") {
		t.Error("Delete(7) = false")
	}
	if c.Delete("7") {
		t.Error("second Delete(7) = true")
	}
	if c.Len() != 49 {
		t.Errorf("Len() = %d, want 49", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := strconv.Itoa((g*31 + i) % 97)
				c.Set(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 8*DefaultShardCount {
		t.Errorf("Len() = %d exceeds total capacity", c.Len())
	}
}
