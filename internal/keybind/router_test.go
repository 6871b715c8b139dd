package keybind

import "testing"

func TestRouter_InactiveScopeDoesNotFire(t *testing.T) {
	r := NewRouter()
	fired := false
	r.Bind(ScopeEntries, MustChord("x"), func() bool { fired = true; return true })

	if r.Dispatch(MustChord("x")) {
		t.Error("chord consumed while scope inactive")
	}
	if fired {
		t.Error("handler fired while scope inactive")
	}

	r.Activate(ScopeEntries)
	if !r.Dispatch(MustChord("x")) {
		t.Error("chord not consumed while scope active")
	}
	if !fired {
		t.Error("handler did not fire")
	}
}

func TestRouter_DeactivateStopsDispatch(t *testing.T) {
	r := NewRouter()
	r.Bind(ScopeEntries, MustChord("d"), func() bool { return true })

	r.Activate(ScopeEntries)
	r.Deactivate(ScopeEntries)

	if r.Dispatch(MustChord("d")) {
		t.Error("chord dispatched after scope deactivation")
	}
	if r.Active(ScopeEntries) {
		t.Error("scope still reported active")
	}
}

func TestRouter_MostRecentScopeWins(t *testing.T) {
	r := NewRouter()
	var got string
	r.Bind(ScopeGlobal, MustChord("g"), func() bool { got = "global"; return true })
	r.Bind(ScopeEntries, MustChord("g"), func() bool { got = "entries"; return true })

	r.Activate(ScopeGlobal)
	r.Activate(ScopeEntries)
	r.Dispatch(MustChord("g"))
	if got != "entries" {
		t.Errorf("dispatched to %q, want most recently activated scope", got)
	}

	// Deactivating the top scope falls back to the one beneath.
	r.Deactivate(ScopeEntries)
	r.Dispatch(MustChord("g"))
	if got != "global" {
		t.Errorf("dispatched to %q, want fallback scope", got)
	}
}

func TestRouter_DisabledChordNeverFires(t *testing.T) {
	r := NewRouter()
	fired := false
	r.Bind(ScopeEntries, MustChord("shift+g"), func() bool { fired = true; return true })
	r.Activate(ScopeEntries)
	r.Disable([]string{"shift+g", "not a chord+"})

	if r.Dispatch(MustChord("shift+g")) || fired {
		t.Error("disabled chord fired")
	}
}
