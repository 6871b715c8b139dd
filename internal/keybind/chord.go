// Package keybind routes scoped key chords to list-navigation and
// list-state actions. A chord only fires while its owning scope is active,
// so list shortcuts never trigger while a dialog holds focus.
package keybind

import (
	"fmt"
	"strings"
)

// Chord is one key press with its modifiers, e.g. "shift+g" or "space".
type Chord struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// ParseChord parses a "+"-separated chord description. Modifier order and
// case are not significant: "Shift+X" and "x+shift" parse identically.
func ParseChord(s string) (Chord, error) {
	var c Chord
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		switch p {
		case "ctrl", "control":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		case "":
			return Chord{}, fmt.Errorf("empty segment in chord %q", s)
		default:
			if c.Key != "" {
				return Chord{}, fmt.Errorf("chord %q has more than one key", s)
			}
			c.Key = p
		}
	}
	if c.Key == "" {
		return Chord{}, fmt.Errorf("chord %q has no key", s)
	}
	return c, nil
}

// MustChord is ParseChord for compile-time-constant chord literals.
func MustChord(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the canonical form: modifiers in ctrl, alt, shift order,
// then the key.
func (c Chord) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("ctrl+")
	}
	if c.Alt {
		b.WriteString("alt+")
	}
	if c.Shift {
		b.WriteString("shift+")
	}
	b.WriteString(c.Key)
	return b.String()
}
