package kvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state", "entries.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	want := map[string]string{"b": "2", "a": "1", "c": "3"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestStoreSaveReplacesSnapshot(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "entries.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(map[string]string{"old": "1", "both": "1"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(map[string]string{"both": "2"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]string{"both": "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot not replaced (-want +got):\n%s", diff)
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatalf("expected decode error for corrupt file")
	}
}

func TestDedupSetRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "seen.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	set, err := LoadDedupSet(store)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if set.Contains("uid-1") {
		t.Fatalf("fresh set should not contain uid-1")
	}

	// Insertion order must not matter once persisted.
	for _, id := range []string{"uid-3", "uid-1", "uid-2"} {
		set.Mark(id)
	}
	if err := set.Save(); err != nil {
		t.Fatalf("save set: %v", err)
	}

	reloaded, err := LoadDedupSet(store)
	if err != nil {
		t.Fatalf("reload set: %v", err)
	}
	if reloaded.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", reloaded.Len())
	}
	for _, id := range []string{"uid-1", "uid-2", "uid-3"} {
		if !reloaded.Contains(id) {
			t.Fatalf("reloaded set missing %q", id)
		}
	}
	if reloaded.Contains("uid-4") {
		t.Fatalf("reloaded set should not contain uid-4")
	}
}

func TestTokenLogRecord(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	log, err := LoadTokenLog(store)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if err := log.Record(42, "tok-a"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := log.Record(43, "tok-b"); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Each Record persists immediately, so a fresh load sees both.
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	want := map[string]string{"42": "tok-a", "43": "tok-b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token log mismatch (-want +got):\n%s", diff)
	}
}
