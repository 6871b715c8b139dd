package keybind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satchel-kb/satchel/internal/entry"
	"github.com/satchel-kb/satchel/internal/list"
	"github.com/satchel-kb/satchel/internal/notify"
)

// Scopes used by the application.
const (
	ScopeGlobal  = "global"
	ScopeEntries = "entries"
)

// FocusList is the rendered-list contract the bridge navigates. Rows are
// addressable two ways: by position in the filtered+sorted sequence and by
// stable entry id. Neither is guaranteed resolvable at all times (a
// remembered id may have been filtered out), so every lookup can fail.
type FocusList interface {
	// Focused returns the focused row's position, if any row has focus.
	Focused() (int, bool)
	// FocusIndex moves focus to the row at position i and reports whether
	// the row exists.
	FocusIndex(i int) bool
	// Count returns the number of rendered rows.
	Count() int
	// EntryAt returns the entry backing the row at position i.
	EntryAt(i int) (entry.Entry, bool)
	// IndexOf returns the position of the row with the given entry id, or
	// -1 when it is not in the rendered sequence.
	IndexOf(id string) int
	// LastFocusedID returns the remembered focus marker, or "".
	LastFocusedID() string
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Dialogs opens modal flows on behalf of chord handlers.
type Dialogs interface {
	OpenDeleteEntries()
}

// Options wires a Bridge to its collaborators.
type Options struct {
	List       FocusList
	Controller *list.Controller
	Clipboard  Clipboard
	Dialogs    Dialogs
	Notifier   notify.Notifier

	// LinkBase and Workspace form the deep-link prefix
	// {LinkBase}/{Workspace}/c/{collection}/{entry}.
	LinkBase  string
	Workspace string

	// OnFocus runs with the newly focused entry's id after every focus
	// move, so callers can persist the marker.
	OnFocus func(id string)
}

// Bridge translates chords into focus movement and controller actions.
type Bridge struct {
	opts Options
}

// New creates a bridge over the given collaborators.
func New(opts Options) *Bridge {
	return &Bridge{opts: opts}
}

// Register binds the list chords into the entries scope.
func (b *Bridge) Register(r *Router) {
	r.Bind(ScopeEntries, MustChord("g"), b.FocusFirst)
	r.Bind(ScopeEntries, MustChord("shift+g"), b.FocusLast)
	r.Bind(ScopeEntries, MustChord("j"), b.MoveDown)
	r.Bind(ScopeEntries, MustChord("down"), b.MoveDown)
	r.Bind(ScopeEntries, MustChord("k"), b.MoveUp)
	r.Bind(ScopeEntries, MustChord("up"), b.MoveUp)
	r.Bind(ScopeEntries, MustChord("x"), b.ToggleRow)
	r.Bind(ScopeEntries, MustChord("shift+x"), b.ToggleAll)
	r.Bind(ScopeEntries, MustChord("space"), b.TogglePreview)
	r.Bind(ScopeEntries, MustChord("d"), b.DeleteSelected)
	r.Bind(ScopeEntries, MustChord("y"), b.CopyLinks)
}

// FocusFirst focuses the remembered last-focused row when it is still
// rendered, otherwise the first row.
func (b *Bridge) FocusFirst() bool {
	if id := b.opts.List.LastFocusedID(); id != "" {
		if i := b.opts.List.IndexOf(id); i >= 0 {
			return b.focusTo(i, false)
		}
	}
	return b.focusTo(0, false)
}

// FocusLast focuses the last row.
func (b *Bridge) FocusLast() bool {
	return b.focusTo(b.opts.List.Count()-1, false)
}

// MoveDown moves focus to the next row. At the last row this is a no-op;
// focus never wraps.
func (b *Bridge) MoveDown() bool {
	i, ok := b.opts.List.Focused()
	if !ok {
		return false
	}
	return b.focusTo(i+1, true)
}

// MoveUp moves focus to the previous row, without wrapping.
func (b *Bridge) MoveUp() bool {
	i, ok := b.opts.List.Focused()
	if !ok {
		return false
	}
	return b.focusTo(i-1, true)
}

// focusTo moves focus to position i. When followPreview is set and a
// preview is open, the preview switches to the newly focused entry.
func (b *Bridge) focusTo(i int, followPreview bool) bool {
	if i < 0 || i >= b.opts.List.Count() {
		return false
	}
	if !b.opts.List.FocusIndex(i) {
		return false
	}
	e, ok := b.opts.List.EntryAt(i)
	if !ok {
		return true
	}
	if b.opts.OnFocus != nil {
		b.opts.OnFocus(e.ID)
	}
	if followPreview {
		if _, open := b.opts.Controller.Preview(); open {
			b.opts.Controller.UpdatePreview(e)
		}
	}
	return true
}

// ToggleRow flips the focused row's selection.
func (b *Bridge) ToggleRow() bool {
	e, ok := b.focusedEntry()
	if !ok {
		return false
	}
	b.opts.Controller.ToggleSelection(e.ID)
	return true
}

// ToggleAll runs the all-or-nothing bulk toggle over the rendered rows.
func (b *Bridge) ToggleAll() bool {
	b.opts.Controller.ToggleFullSelection(b.visibleEntries())
	return true
}

// TogglePreview opens the preview for the focused row, or closes it when
// it already shows that row. Always consumes the chord so space never
// scrolls the view.
func (b *Bridge) TogglePreview() bool {
	e, ok := b.focusedEntry()
	if !ok {
		return true
	}
	if p, open := b.opts.Controller.Preview(); open && p.ID == e.ID {
		b.opts.Controller.ClearPreview()
	} else {
		b.opts.Controller.UpdatePreview(e)
	}
	return true
}

// DeleteSelected opens the delete-confirmation flow for the selection,
// first selecting the focused row when nothing is selected.
func (b *Bridge) DeleteSelected() bool {
	if b.opts.Controller.SelectionCount() == 0 {
		e, ok := b.focusedEntry()
		if !ok {
			return false
		}
		b.opts.Controller.Select(e.ID)
	}
	b.opts.Dialogs.OpenDeleteEntries()
	return true
}

// CopyLinks writes a deep link per selected entry to the clipboard,
// falling back to the focused row when the selection is empty. Links are
// joined with newlines in rendered-list order.
func (b *Bridge) CopyLinks() bool {
	ids := b.opts.Controller.SelectedIDs()
	if len(ids) == 0 {
		e, ok := b.focusedEntry()
		if !ok {
			return false
		}
		ids = []string{e.ID}
	}

	type located struct {
		pos int
		e   entry.Entry
	}
	rows := make([]located, 0, len(ids))
	for _, id := range ids {
		i := b.opts.List.IndexOf(id)
		if i < 0 {
			continue
		}
		if e, ok := b.opts.List.EntryAt(i); ok {
			rows = append(rows, located{pos: i, e: e})
		}
	}
	if len(rows) == 0 {
		return false
	}
	sort.Slice(rows, func(a, c int) bool { return rows[a].pos < rows[c].pos })

	links := make([]string, len(rows))
	for i, row := range rows {
		links[i] = fmt.Sprintf("%s: %s/%s/c/%s/%s",
			row.e.Name, b.opts.LinkBase, b.opts.Workspace, row.e.Collection.Slug, row.e.ID)
	}

	if err := b.opts.Clipboard.WriteAll(strings.Join(links, "\n")); err != nil {
		b.opts.Notifier.Error("Failed to copy links")
		return true
	}
	b.opts.Notifier.Success(fmt.Sprintf("Copied %d link(s)", len(links)))
	return true
}

func (b *Bridge) focusedEntry() (entry.Entry, bool) {
	i, ok := b.opts.List.Focused()
	if !ok {
		return entry.Entry{}, false
	}
	return b.opts.List.EntryAt(i)
}

func (b *Bridge) visibleEntries() []entry.Entry {
	n := b.opts.List.Count()
	out := make([]entry.Entry, 0, n)
	for i := 0; i < n; i++ {
		if e, ok := b.opts.List.EntryAt(i); ok {
			out = append(out, e)
		}
	}
	return out
}
