package cache

import (
	"strings"
	"testing"
	"time"
)

func TestCacheKey_Normalizes(t *testing.T) {
	a := CacheKey("website", "https://Example.com/")
	b := CacheKey("website", "https://example.com")
	if a != b {
		t.Errorf("expected equal keys, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "sponsorgrader:v1:website:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	if CacheKey("other", "https://example.com") == a {
		t.Error("namespaces should not collide")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected v, got %q (found=%v)", got, ok)
	}

	got[0] = 'x'
	again, _ := c.Get("k")
	if string(again) != "v" {
		t.Error("cached value was mutated through returned slice")
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("sponsorgrader:v1:x", []byte("fresh"), time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, ok := c.Get("sponsorgrader:v1:x"); !ok || string(got) != "fresh" {
		t.Fatalf("expected fresh, got %q", got)
	}

	if err := c.Set("stale", []byte("old"), -time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, ok := c.Get("stale"); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete("never-written"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	writer := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := writer.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// Fresh memory layer, same disk
	reader := NewLayeredCache(time.Minute, dir, time.Hour)
	if got, ok := reader.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q (found=%v)", got, ok)
	}
	if got, ok := reader.memory.Get("k"); !ok || string(got) != "v" {
		t.Error("expected disk hit to be promoted to memory")
	}
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	c := NewLayeredCache(time.Minute, "", 0)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Error("expected memory hit")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("clear failed: %v", err)
	}
}

type snapshot struct {
	Title string `json:"title"`
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := SetJSON(c, "snap", snapshot{Title: "Acme"}, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	got, ok := GetJSON[snapshot](c, "snap")
	if !ok || got.Title != "Acme" {
		t.Fatalf("expected Acme, got %+v (found=%v)", got, ok)
	}

	_ = c.Set("garbage", []byte("{not json"), 0)
	if _, ok := GetJSON[snapshot](c, "garbage"); ok {
		t.Error("undecodable entry should miss")
	}

	if _, ok := GetJSON[snapshot](nil, "snap"); ok {
		t.Error("nil cache should miss")
	}
}
