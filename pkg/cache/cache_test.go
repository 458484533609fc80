package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NullCache{}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// caches returns one instance of every storing implementation.
func caches(t *testing.T) map[string]Cache {
	t.Helper()
	file, err := NewFileCache(filepath.Join(t.TempDir(), "frames"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return map[string]Cache{
		"memory": NewMemoryCache(0),
		"file":   file,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			if _, hit, _ := c.Get(ctx, "frame"); hit {
				t.Fatal("empty cache should miss")
			}
			if err := c.Set(ctx, "frame", []byte("╭─ Walls ─╮"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, hit, err := c.Get(ctx, "frame")
			if err != nil || !hit || string(data) != "╭─ Walls ─╮" {
				t.Errorf("Get = %q, %v, %v", data, hit, err)
			}

			if err := c.Delete(ctx, "frame"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, hit, _ := c.Get(ctx, "frame"); hit {
				t.Error("deleted entry should miss")
			}
			if err := c.Delete(ctx, "frame"); err != nil {
				t.Errorf("deleting a missing entry: %v", err)
			}
		})
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "short", []byte("x"), time.Millisecond); err != nil {
				t.Fatal(err)
			}
			if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
				t.Fatal(err)
			}
			time.Sleep(20 * time.Millisecond)

			if _, hit, _ := c.Get(ctx, "short"); hit {
				t.Error("expired entry should miss")
			}
			if _, hit, _ := c.Get(ctx, "forever"); !hit {
				t.Error("entry without ttl should not expire")
			}
		})
	}
}

func TestMemoryCacheLimit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Hour)
	c.Set(ctx, "c", []byte("3"), time.Hour)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("the entry closest to expiry should be evicted")
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	data := []byte("frame")
	c.Set(ctx, "k", data, 0)
	data[0] = 'X'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "frame" {
		t.Errorf("stored value changed through the caller's slice: %q", got)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("frame"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want a clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestKey(t *testing.T) {
	a := Key("frame", "hub", "watch-1", 3, 80, map[string]any{"b": 1, "a": 2})
	b := Key("frame", "hub", "watch-1", 3, 80, map[string]any{"a": 2, "b": 1})
	if a != b {
		t.Error("Key should not depend on map order")
	}
	if a == Key("frame", "hub", "watch-1", 4, 80, map[string]any{"a": 2, "b": 1}) {
		t.Error("different versions should produce different keys")
	}
	if len(a) != len("frame:")+64 {
		t.Errorf("Key length = %d", len(a))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}
