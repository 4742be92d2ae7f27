package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	keys := SortedStringKeys(map[string]int{"b": 2, "a": 1, "c": 3})
	expected := []string{"a", "b", "c"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
	if got := SortedStringKeys(map[string]struct{}{}); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "file.txt")
	if err := WriteFileWithDirs(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", string(got))
	}
}

func TestLimiterRegistry(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewLimiterRegistry(1, 2, time.Minute)
	reg.now = func() time.Time { return clock }

	if !reg.Allow("a") || !reg.Allow("a") {
		t.Fatal("expected burst of two to be allowed")
	}
	if reg.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !reg.Allow("b") {
		t.Fatal("keys must have independent buckets")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", reg.Len())
	}

	clock = clock.Add(2 * time.Minute)
	if !reg.Allow("c") {
		t.Fatal("expected fresh key to be allowed")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected idle buckets to be swept, got %d", reg.Len())
	}
}
