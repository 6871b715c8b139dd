package query

import "testing"

func TestKeyHasPrefix(t *testing.T) {
	tests := []struct {
		key    Key
		prefix Key
		want   bool
	}{
		{K("workspace.entries.all", "ws1"), K("workspace.entries.all"), true},
		{K("workspace.entries.all", "ws1"), K("workspace.entries.all", "ws1"), true},
		{K("workspace.entries.all"), K("workspace.entries.all", "ws1"), false},
		{K("workspace.entries.all", "ws1"), K("collection.entries.all"), false},
		{K("entry", "find", "01J"), K("entry"), true},
		{K("entry", "find", "01J"), K("entry", "list"), false},
	}

	for _, tt := range tests {
		if got := tt.key.HasPrefix(tt.prefix); got != tt.want {
			t.Errorf("%v.HasPrefix(%v) = %v, want %v", tt.key, tt.prefix, got, tt.want)
		}
	}
}

func TestFromName_SingleSegment(t *testing.T) {
	key := FromName("workspace.entries.all")
	if len(key) != 1 {
		t.Fatalf("len = %d, want 1", len(key))
	}
	// The bare name must remain a prefix of its slug-qualified variants.
	if !WorkspaceEntriesKey("ws1").HasPrefix(key) {
		t.Error("bare procedure name is not a prefix of its keyed variant")
	}
}

func TestKeyEqual(t *testing.T) {
	if !K("a", "b").Equal(K("a", "b")) {
		t.Error("identical keys not equal")
	}
	if K("a", "b").Equal(K("a")) {
		t.Error("keys of different lengths compared equal")
	}
}
