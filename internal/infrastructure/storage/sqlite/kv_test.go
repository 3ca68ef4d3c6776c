package sqlite

import (
	"path/filepath"
	"testing"
)

func TestStoreSetGet(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.SetItem("ledgersync:expenses", `{"data":[]}`); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	val, ok, err := store.GetItem("ledgersync:expenses")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !ok || val != `{"data":[]}` {
		t.Errorf("expected stored value, got ok=%v val=%q", ok, val)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	_, ok, err := store.GetItem("nope")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if ok {
		t.Error("expected missing key")
	}
}

func TestStoreOverwrite(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	store.SetItem("k", "v1")
	store.SetItem("k", "v2")

	val, ok, _ := store.GetItem("k")
	if !ok || val != "v2" {
		t.Errorf("expected v2, got ok=%v val=%q", ok, val)
	}
}

func TestStoreRemove(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	store.SetItem("k", "v")
	if err := store.RemoveItem("k"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, ok, _ := store.GetItem("k"); ok {
		t.Error("expected key removed")
	}

	// removing a missing key is not an error
	if err := store.RemoveItem("k"); err != nil {
		t.Errorf("RemoveItem on missing key failed: %v", err)
	}
}

func TestStoreKeysPrefix(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	store.SetItem("ledgersync:portfolios", "a")
	store.SetItem("ledgersync:queue", "b")
	store.SetItem("other:key", "c")

	keys, err := store.Keys("ledgersync:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d: %v", len(keys), keys)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	store.SetItem("k", "persisted")
	store.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	val, ok, _ := reopened.GetItem("k")
	if !ok || val != "persisted" {
		t.Errorf("expected value to survive reopen, got ok=%v val=%q", ok, val)
	}
}
