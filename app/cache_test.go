package app

import (
	"fmt"
	"testing"
)

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newResultCache(2)
	a := &LoadedResults{ResultType: "a"}
	b := &LoadedResults{ResultType: "b"}

	c.put("a", a)
	c.put("b", b)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.put("c", &LoadedResults{ResultType: "c"})

	if _, ok := c.get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if c.len() != 2 {
		t.Errorf("cache should hold 2 entries, got %d", c.len())
	}
}

func TestResultCache_PutReplacesExistingKey(t *testing.T) {
	c := newResultCache(2)
	c.put("k", &LoadedResults{ResultType: "old"})
	c.put("k", &LoadedResults{ResultType: "new"})

	hit, ok := c.get("k")
	if !ok || hit.ResultType != "new" {
		t.Errorf("replacement failed: %+v", hit)
	}
	if c.len() != 1 {
		t.Errorf("replacing a key must not grow the cache, len %d", c.len())
	}
}

func TestResultCache_ClearAndRefill(t *testing.T) {
	c := newResultCache(4)
	for i := 0; i < 4; i++ {
		c.put(fmt.Sprintf("k%d", i), &LoadedResults{})
	}
	c.clear()
	if c.len() != 0 {
		t.Fatalf("clear should empty the cache, len %d", c.len())
	}
	c.put("k0", &LoadedResults{})
	if _, ok := c.get("k0"); !ok {
		t.Error("cache should accept entries after clear")
	}
}
