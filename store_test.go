package sclone

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "snapshots.db"), StoreOptions{IsTesting: true})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := openTestStore(t)

	orig := map[string]any{"n": int64(42), "tags": []any{"a", "b"}}
	if err := store.Put("doc1", orig, Options{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got := must(store.Get("doc1"))
	deepEqual(t, got, orig)
}

func TestStore_CyclePersists(t *testing.T) {
	store := openTestStore(t)

	m := map[string]any{}
	m["self"] = m
	if err := store.Put("cyclic", m, Options{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got := must(store.Get("cyclic")).(map[string]any)
	if !sameRef(got["self"], got) {
		t.Fatalf("cycle lost through the store")
	}
}

func TestStore_NotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, wanted ErrNotFound", err)
	}
}

func TestStore_Overwrite(t *testing.T) {
	store := openTestStore(t)
	ensure(store.Put("k", "v1", Options{}))
	ensure(store.Put("k", "v2", Options{}))
	if got := must(store.Get("k")); got != "v2" {
		t.Fatalf("Get after overwrite = %v", got)
	}
}

func TestStore_KeysAndDelete(t *testing.T) {
	store := openTestStore(t)
	ensure(store.Put("b", int64(2), Options{}))
	ensure(store.Put("a", int64(1), Options{}))

	deepEqual(t, must(store.Keys()), []string{"a", "b"})

	ensure(store.Delete("a"))
	deepEqual(t, must(store.Keys()), []string{"b"})

	_, err := store.Get("a")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(deleted) err = %v, wanted ErrNotFound", err)
	}
}

func TestStore_StrictPut(t *testing.T) {
	store := openTestStore(t)
	err := store.Put("bad", func() {}, Options{})
	var tnse *TypeNotSerializableError
	if !errors.As(err, &tnse) {
		t.Fatalf("Put(func) err = %v, wanted TypeNotSerializableError", err)
	}
}
