package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/heysubinoy/minidis/pkg/kv"
)

func TestMemStoreSetGetExists(t *testing.T) {
	s := NewMemStore()

	if err := s.Set("nome", "Lucas"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok, err := s.Get("nome")
	if err != nil || !ok || val != "Lucas" {
		t.Fatalf("Get = (%q, %v, %v), want (Lucas, true, nil)", val, ok, err)
	}

	exists, err := s.Exists("nome")
	if err != nil || !exists {
		t.Fatalf("Exists = (%v, %v), want (true, nil)", exists, err)
	}

	if _, ok, _ := s.Get("missing"); ok {
		t.Fatal("Get on missing key reported found")
	}
	if exists, _ := s.Exists("missing"); exists {
		t.Fatal("Exists on missing key reported true")
	}
}

func TestMemStoreDeleteOnce(t *testing.T) {
	s := NewMemStore()
	_ = s.Set("k", "v")

	removed, err := s.Delete("k")
	if err != nil || !removed {
		t.Fatalf("first Delete = (%v, %v), want (true, nil)", removed, err)
	}

	removed, err = s.Delete("k")
	if err != nil || removed {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", removed, err)
	}

	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("key still present after Delete")
	}
}

func TestMemStoreOverwriteIsIdempotent(t *testing.T) {
	s := NewMemStore()
	for i := 0; i < 3; i++ {
		if err := s.Set("k", "v"); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if n, _ := s.Size(); n != 1 {
		t.Fatalf("Size = %d, want 1", n)
	}
	if val, _, _ := s.Get("k"); val != "v" {
		t.Fatalf("Get = %q, want v", val)
	}

	_ = s.Set("k", "w")
	if val, _, _ := s.Get("k"); val != "w" {
		t.Fatalf("Get after overwrite = %q, want w", val)
	}
}

func TestMemStoreKeysSizeFlush(t *testing.T) {
	s := NewMemStore()
	for _, k := range []string{"key3", "key1", "key2"} {
		_ = s.Set(k, "value")
	}

	n, err := s.Size()
	if err != nil || n != 3 {
		t.Fatalf("Size = (%d, %v), want (3, nil)", n, err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if want := []string{"key1", "key2", "key3"}; !slices.Equal(keys, want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush on empty store: %v", err)
	}

	if n, _ := s.Size(); n != 0 {
		t.Fatalf("Size after Flush = %d, want 0", n)
	}
	keys, _ = s.Keys()
	if keys == nil || len(keys) != 0 {
		t.Fatalf("Keys after Flush = %#v, want empty non-nil slice", keys)
	}
}

func TestMemStoreKeysIsSnapshot(t *testing.T) {
	s := NewMemStore()
	_ = s.Set("a", "1")

	keys, _ := s.Keys()
	_ = s.Set("b", "2")

	if len(keys) != 1 {
		t.Fatalf("snapshot changed after later Set: %v", keys)
	}
}

func TestMemStoreConcurrentSets(t *testing.T) {
	const n = 200
	s := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Set(fmt.Sprintf("key-%d", i), "v"); err != nil {
				t.Errorf("Set: %v", err)
			}
			_, _, _ = s.Get(fmt.Sprintf("key-%d", i))
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != n {
		t.Fatalf("len(Keys) = %d, want %d", len(keys), n)
	}
}

func TestMemStoreSnapshotRestore(t *testing.T) {
	s := NewMemStore()
	_ = s.Set("a", "1")

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	snap["b"] = "2"
	if ok, _ := s.Exists("b"); ok {
		t.Fatal("mutating the snapshot leaked into the store")
	}

	if err := s.Restore(map[string]string{"x": "y"}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok, _ := s.Exists("a"); ok {
		t.Fatal("Restore kept old entries")
	}
	if val, _, _ := s.Get("x"); val != "y" {
		t.Fatalf("Get after Restore = %q, want y", val)
	}
}

func TestMemStorePoisonedAfterPanic(t *testing.T) {
	s := NewMemStore()
	_ = s.Set("k", "v")

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = s.write("set", func(map[string]string) { panic("boom") })
	}()

	if _, _, err := s.Get("k"); !errors.Is(err, kv.ErrLockAcquisition) {
		t.Fatalf("Get after poison err = %v, want ErrLockAcquisition", err)
	}
	if err := s.Set("k", "w"); !errors.Is(err, kv.ErrLockAcquisition) {
		t.Fatalf("Set after poison err = %v, want ErrLockAcquisition", err)
	}
	if _, err := s.Keys(); !errors.Is(err, kv.ErrLockAcquisition) {
		t.Fatalf("Keys after poison err = %v, want ErrLockAcquisition", err)
	}
}
