package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type workspaceState struct {
	Filters  []string `json:"filters"`
	SortBy   string   `json:"sort_by"`
	Status   string   `json:"status"`
	Internal string   `json:"-"`
}

// countingKV wraps a KV and records every write.
type countingKV struct {
	KV
	sets int
	last []byte
}

func (c *countingKV) Set(key string, value []byte) error {
	c.sets++
	c.last = append([]byte(nil), value...)
	return c.KV.Set(key, value)
}

type failingKV struct{ KV }

func (failingKV) Set(key string, value []byte) error {
	return errors.New("disk full")
}

func TestWrap_SeedsFromStorage(t *testing.T) {
	kv := NewMemoryKV()
	if err := kv.Set("ws", []byte(`{"sort_by":"name_asc"}`)); err != nil {
		t.Fatal(err)
	}

	s, err := Wrap(kv, "ws", workspaceState{SortBy: "default", Status: "idle"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	got := s.Get()
	if got.SortBy != "name_asc" {
		t.Errorf("SortBy = %q, want stored value", got.SortBy)
	}
	// Fields absent from storage keep their defaults.
	if got.Status != "idle" {
		t.Errorf("Status = %q, want default preserved", got.Status)
	}
}

func TestWrap_CorruptFieldKeepsDefault(t *testing.T) {
	kv := NewMemoryKV()
	if err := kv.Set("ws", []byte(`{"sort_by":123,"status":"loading"}`)); err != nil {
		t.Fatal(err)
	}

	s, err := Wrap(kv, "ws", workspaceState{SortBy: "default"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	got := s.Get()
	if got.SortBy != "default" {
		t.Errorf("SortBy = %q, want default after corrupt field", got.SortBy)
	}
	if got.Status != "loading" {
		t.Errorf("Status = %q, want valid sibling field applied", got.Status)
	}
}

func TestUpdate_ExcludedFieldChangeSkipsWrite(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV()}
	s, err := Wrap(kv, "ws", workspaceState{}, "status")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	s.Update(func(st *workspaceState) { st.Status = "loading" })
	if kv.sets != 0 {
		t.Errorf("sets = %d, want 0 for excluded-only change", kv.sets)
	}
	if s.Get().Status != "loading" {
		t.Error("in-memory state not updated")
	}

	s.Update(func(st *workspaceState) { st.SortBy = "newest" })
	if kv.sets != 1 {
		t.Fatalf("sets = %d, want exactly 1 after persisted-field change", kv.sets)
	}

	var written map[string]json.RawMessage
	if err := json.Unmarshal(kv.last, &written); err != nil {
		t.Fatalf("written value is not a JSON object: %v", err)
	}
	if _, ok := written["status"]; ok {
		t.Error("excluded field leaked into storage")
	}
	if string(written["sort_by"]) != `"newest"` {
		t.Errorf("sort_by = %s, want \"newest\"", written["sort_by"])
	}
	if _, ok := written["filters"]; !ok {
		t.Error("write omitted a non-excluded field")
	}
}

func TestUpdate_NoopChangeSkipsWrite(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV()}
	s, err := Wrap(kv, "ws", workspaceState{SortBy: "default"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	s.Update(func(st *workspaceState) { st.SortBy = "default" })
	if kv.sets != 0 {
		t.Errorf("sets = %d, want 0 when projection is unchanged", kv.sets)
	}
}

func TestUpdate_WriteFailureKeepsInMemoryState(t *testing.T) {
	s, err := Wrap(failingKV{NewMemoryKV()}, "ws", workspaceState{})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	var notified workspaceState
	s.Subscribe(func(st workspaceState) { notified = st })

	s.Update(func(st *workspaceState) { st.SortBy = "oldest" })

	if s.Get().SortBy != "oldest" {
		t.Error("state lost after storage failure")
	}
	if notified.SortBy != "oldest" {
		t.Error("subscriber not notified after storage failure")
	}
}

func TestUpdate_DashTaggedFieldNeverPersisted(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV()}
	s, err := Wrap(kv, "ws", workspaceState{})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	s.Update(func(st *workspaceState) {
		st.Internal = "transient"
		st.SortBy = "newest"
	})

	var written map[string]json.RawMessage
	if err := json.Unmarshal(kv.last, &written); err != nil {
		t.Fatal(err)
	}
	if _, ok := written["Internal"]; ok {
		t.Error("json:\"-\" field persisted")
	}
}

func TestSQLiteKV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	kv, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Errorf("Get(missing) = %v, %v; want absent", ok, err)
	}

	if err := kv.Set("ws", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := kv.Get("ws")
	if err != nil || !ok || string(got) != `{"a":1}` {
		t.Errorf("Get = %s, %v, %v", got, ok, err)
	}

	if err := kv.Set("ws", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _, _ = kv.Get("ws")
	if string(got) != `{"a":2}` {
		t.Errorf("Get after overwrite = %s", got)
	}

	if err := kv.Remove("ws"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := kv.Get("ws"); ok {
		t.Error("key present after Remove")
	}
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("ws", []byte(`{"sort_by":"newest"}`)); err != nil {
		t.Fatal(err)
	}
	kv.Close()

	kv2, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer kv2.Close()

	got, ok, err := kv2.Get("ws")
	if err != nil || !ok {
		t.Fatalf("Get after reopen = %v, %v", ok, err)
	}
	if string(got) != `{"sort_by":"newest"}` {
		t.Errorf("value after reopen = %s", got)
	}
}

func TestOpenOrMemory_FallsBackWhenBaseDirUnusable(t *testing.T) {
	// A regular file where the base directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	kv := OpenOrMemory(blocker)
	if _, ok := kv.(*MemoryKV); !ok {
		t.Fatalf("kv = %T, want in-memory fallback", kv)
	}
	if err := kv.Set("ws", []byte(`{}`)); err != nil {
		t.Errorf("fallback KV unusable: %v", err)
	}
}
