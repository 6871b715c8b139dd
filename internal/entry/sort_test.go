package entry

import (
	"testing"
	"time"
)

func namesOf(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestSort_DefaultPreservesOrder(t *testing.T) {
	// Simulates relevance-ranked search results: the server order must
	// survive the sort pass byte-identically.
	in := []Entry{
		{ID: "r3", Name: "third"},
		{ID: "r1", Name: "first"},
		{ID: "r2", Name: "second"},
	}
	entries := make([]Entry, len(in))
	copy(entries, in)

	Sort(SortDefault, entries)

	for i := range in {
		if entries[i].ID != in[i].ID {
			t.Fatalf("position %d: id = %s, want %s", i, entries[i].ID, in[i].ID)
		}
	}
}

func TestSort_Newest(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Name: "old", CreatedAt: base},
		{Name: "new", CreatedAt: base.Add(48 * time.Hour)},
		{Name: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}

	Sort(SortNewest, entries)

	got := namesOf(entries)
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	Sort(SortOldest, entries)
	got = namesOf(entries)
	want = []string{"old", "mid", "new"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSort_NameIsCaseInsensitiveish(t *testing.T) {
	entries := []Entry{
		{Name: "banana"},
		{Name: "Apple"},
		{Name: "cherry"},
	}

	Sort(SortNameAsc, entries)

	got := namesOf(entries)
	want := []string{"Apple", "banana", "cherry"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSort_CollectionDesc(t *testing.T) {
	entries := []Entry{
		{Name: "a", Collection: Relation{Slug: "alpha"}},
		{Name: "b", Collection: Relation{Slug: "zulu"}},
	}

	Sort(SortCollectionDesc, entries)

	if entries[0].Collection.Slug != "zulu" {
		t.Errorf("first slug = %s, want zulu", entries[0].Collection.Slug)
	}
}

func TestSort_StabilityWithEqualKeys(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "a", CreatedAt: ts},
		{ID: "b", CreatedAt: ts},
		{ID: "c", CreatedAt: ts},
	}

	Sort(SortNewest, entries)

	if entries[0].ID != "a" || entries[1].ID != "b" || entries[2].ID != "c" {
		t.Errorf("equal-key order changed: %v %v %v", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestFlatten(t *testing.T) {
	pages := []Page{
		{Entries: []Entry{{ID: "1"}, {ID: "2"}}},
		{Entries: []Entry{{ID: "3"}}},
	}
	flat := Flatten(pages)
	if len(flat) != 3 || flat[2].ID != "3" {
		t.Errorf("Flatten = %v entries, want 3 ending with id 3", len(flat))
	}
}
