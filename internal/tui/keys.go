package tui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satchel-kb/satchel/internal/keybind"
)

// chordFromKey translates a terminal key event into a chord. Uppercase
// runes become shift chords, so 'G' dispatches as "shift+g". Keys the
// router has no vocabulary for report ok=false.
func chordFromKey(msg tea.KeyMsg) (keybind.Chord, bool) {
	switch msg.Type {
	case tea.KeyUp:
		return keybind.Chord{Key: "up"}, true
	case tea.KeyDown:
		return keybind.Chord{Key: "down"}, true
	case tea.KeySpace:
		return keybind.Chord{Key: "space"}, true
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return keybind.Chord{}, false
		}
		r := msg.Runes[0]
		if r == ' ' {
			return keybind.Chord{Key: "space", Alt: msg.Alt}, true
		}
		c := keybind.Chord{Alt: msg.Alt}
		if unicode.IsUpper(r) {
			c.Shift = true
			r = unicode.ToLower(r)
		}
		c.Key = string(r)
		return c, true
	}
	return keybind.Chord{}, false
}
