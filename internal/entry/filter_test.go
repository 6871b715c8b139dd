package entry

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func sampleEntries() []Entry {
	return []Entry{
		{
			ID: "e1", Name: "Q2 report", Type: TypePDF, Status: StatusCompleted,
			Collection: Relation{ID: "c1", Slug: "reports"},
			CreatedAt:  now.Add(-2 * time.Hour), UpdatedAt: now.Add(-1 * time.Hour),
		},
		{
			ID: "e2", Name: "Design doc", Type: TypeLink, Status: StatusQueued,
			Collection: Relation{ID: "c2", Slug: "design"},
			CreatedAt:  now.Add(-10 * 24 * time.Hour), UpdatedAt: now.Add(-9 * 24 * time.Hour),
		},
		{
			ID: "e3", Name: "Archive dump", Type: TypeArchive, Status: StatusFailed,
			Collection: Relation{ID: "c1", Slug: "reports"},
			CreatedAt:  now.Add(-40 * 24 * time.Hour), UpdatedAt: now.Add(-40 * 24 * time.Hour),
		},
	}
}

func matchingIDs(filters []Filter, entries []Entry) []string {
	var ids []string
	for _, e := range entries {
		if MatchesAll(filters, e, now) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestMatchesAll_EmptySetPasses(t *testing.T) {
	for _, e := range sampleEntries() {
		if !MatchesAll(nil, e, now) {
			t.Errorf("entry %s rejected by empty filter set", e.ID)
		}
	}
}

func TestMatchesAll_SingleKind(t *testing.T) {
	filters := []Filter{{Kind: FilterStatus, Value: "queued"}}
	got := matchingIDs(filters, sampleEntries())
	if len(got) != 1 || got[0] != "e2" {
		t.Errorf("matching ids = %v, want [e2]", got)
	}
}

func TestMatchesAll_SameKindIsOr(t *testing.T) {
	one := []Filter{{Kind: FilterType, Value: "pdf"}}
	both := []Filter{
		{Kind: FilterType, Value: "pdf"},
		{Kind: FilterType, Value: "link"},
	}

	gotOne := matchingIDs(one, sampleEntries())
	gotBoth := matchingIDs(both, sampleEntries())

	// Adding a second value under the same kind can only widen the match.
	if len(gotBoth) < len(gotOne) {
		t.Errorf("OR within kind reduced matches: %v -> %v", gotOne, gotBoth)
	}
	if len(gotBoth) != 2 {
		t.Errorf("matching ids = %v, want [e1 e2]", gotBoth)
	}
}

func TestMatchesAll_AcrossKindsIsAnd(t *testing.T) {
	filters := []Filter{
		{Kind: FilterCollection, Value: "c1"},
		{Kind: FilterStatus, Value: "completed"},
	}
	got := matchingIDs(filters, sampleEntries())
	if len(got) != 1 || got[0] != "e1" {
		t.Errorf("matching ids = %v, want [e1]", got)
	}
}

func TestMatchesAll_DateWindows(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		window string
		want   []string
	}{
		{WindowToday, []string{"e1"}},
		{WindowWeek, []string{"e1"}},
		{WindowMonth, []string{"e1", "e2"}},
	}

	for _, tt := range tests {
		filters := []Filter{{Kind: FilterCreatedAt, Value: tt.window}}
		got := matchingIDs(filters, entries)
		if len(got) != len(tt.want) {
			t.Errorf("window %q: matching ids = %v, want %v", tt.window, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("window %q: matching ids = %v, want %v", tt.window, got, tt.want)
			}
		}
	}
}

func TestMatchesAll_ZeroTimestampNeverMatchesWindow(t *testing.T) {
	e := Entry{ID: "e9", Type: TypeLink, Status: StatusQueued}
	filters := []Filter{{Kind: FilterLastUpdatedAt, Value: WindowMonth}}
	if MatchesAll(filters, e, now) {
		t.Error("entry with zero UpdatedAt matched a date window")
	}
}

func TestFilterEqual(t *testing.T) {
	a := Filter{Kind: FilterType, Value: "pdf"}
	b := Filter{Kind: FilterType, Value: "pdf"}
	c := Filter{Kind: FilterStatus, Value: "pdf"}

	if !a.Equal(b) {
		t.Error("identical filters not equal")
	}
	if a.Equal(c) {
		t.Error("filters with different kinds compared equal")
	}
}
