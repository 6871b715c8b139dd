// Package prefs defines the persisted user-preference and workspace state
// stores. Both are backed by persist.Store, so every committed change is
// mirrored to local storage with the transient fields held back.
package prefs

import (
	"github.com/satchel-kb/satchel/internal/persist"
)

// Prefs holds appearance settings plus the transient dialog flags. Dialog
// state is runtime-only: reopening the app never restores an open dialog.
type Prefs struct {
	ColorScheme string  `json:"color_scheme"`
	AccentColor string  `json:"accent_color"`
	UIScale     float64 `json:"ui_scale"`

	Dialogs Dialogs `json:"-"`
}

// Dialogs tracks which modal dialogs are open.
type Dialogs struct {
	DeleteEntries    bool
	CreateCollection bool
	ImportEntries    bool
}

// DefaultPrefs returns the out-of-the-box appearance settings.
func DefaultPrefs() Prefs {
	return Prefs{
		ColorScheme: "system",
		AccentColor: "indigo",
		UIScale:     1.0,
	}
}

// Workspace holds per-workspace view state that survives restarts. Status
// is excluded from persistence: it changes on every background sync and
// would otherwise dominate write traffic.
type Workspace struct {
	LastFocusedID string `json:"last_focused_id"`
	SortBy        string `json:"sort_by"`
	Status        string `json:"status"`
}

// Open wires both stores onto the given KV.
func Open(kv persist.KV) (*persist.Store[Prefs], *persist.Store[Workspace], error) {
	p, err := persist.Wrap(kv, "prefs", DefaultPrefs())
	if err != nil {
		return nil, nil, err
	}
	ws, err := persist.Wrap(kv, "workspace", Workspace{}, "status")
	if err != nil {
		return nil, nil, err
	}
	return p, ws, nil
}
