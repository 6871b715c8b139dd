// Package list holds the view state of one logical entries list: filters,
// sort order, multi-selection and the preview cursor. All operations are
// local and cannot fail; the controller's only external input is the entry
// slice the cache supplies each render pass.
package list

import (
	"sync"
	"time"

	"github.com/satchel-kb/satchel/internal/entry"
)

// Controller owns the list state for the duration of a list's mount. It is
// scoped to one list (recent entries, a collection, search results) and
// must be Clear()ed when the list's scope changes so state never leaks
// across workspaces or collections.
type Controller struct {
	mu         sync.Mutex
	filters    []entry.Filter
	sortBy     entry.SortBy
	selections map[string]struct{}
	preview    *entry.Entry
	subs       []func()

	// now is swappable for date-window filter tests.
	now func() time.Time
}

// NewController creates an empty controller with default sort order.
func NewController() *Controller {
	return &Controller{
		sortBy:     entry.SortDefault,
		selections: make(map[string]struct{}),
		now:        time.Now,
	}
}

// Subscribe registers fn to run after every committed state change.
func (c *Controller) Subscribe(fn func()) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// MARK: Selection

// IsSelected reports whether the entry id is in the selection set.
func (c *Controller) IsSelected(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selections[entryID]
	return ok
}

// Select adds an entry id to the selection set.
func (c *Controller) Select(entryID string) {
	c.mu.Lock()
	c.selections[entryID] = struct{}{}
	c.mu.Unlock()
	c.notify()
}

// Deselect removes an entry id from the selection set.
func (c *Controller) Deselect(entryID string) {
	c.mu.Lock()
	delete(c.selections, entryID)
	c.mu.Unlock()
	c.notify()
}

// ToggleSelection flips one entry's selection state.
func (c *Controller) ToggleSelection(entryID string) {
	c.mu.Lock()
	if _, ok := c.selections[entryID]; ok {
		delete(c.selections, entryID)
	} else {
		c.selections[entryID] = struct{}{}
	}
	c.mu.Unlock()
	c.notify()
}

// ToggleFullSelection is all-or-nothing over the visible entries: if every
// one of them is already selected the whole selection is cleared, otherwise
// every unselected visible entry is added. Selections outside the visible
// set are preserved in the add case.
func (c *Controller) ToggleFullSelection(entries []entry.Entry) {
	c.mu.Lock()
	if len(entries) > 0 && c.allSelectedLocked(entries) {
		c.selections = make(map[string]struct{})
	} else {
		for _, e := range entries {
			c.selections[e.ID] = struct{}{}
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) allSelectedLocked(entries []entry.Entry) bool {
	for _, e := range entries {
		if _, ok := c.selections[e.ID]; !ok {
			return false
		}
	}
	return true
}

// ClearSelections empties the selection set.
func (c *Controller) ClearSelections() {
	c.mu.Lock()
	c.selections = make(map[string]struct{})
	c.mu.Unlock()
	c.notify()
}

// SelectionCount returns the number of selected entries.
func (c *Controller) SelectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selections)
}

// SelectedIDs returns the selected ids in unspecified order.
func (c *Controller) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selections))
	for id := range c.selections {
		ids = append(ids, id)
	}
	return ids
}

// MARK: Preview

// UpdatePreview replaces the preview cursor; at most one entry is
// previewed at a time.
func (c *Controller) UpdatePreview(e entry.Entry) {
	c.mu.Lock()
	c.preview = &e
	c.mu.Unlock()
	c.notify()
}

// ClearPreview closes the preview.
func (c *Controller) ClearPreview() {
	c.mu.Lock()
	c.preview = nil
	c.mu.Unlock()
	c.notify()
}

// Preview returns the previewed entry, if any.
func (c *Controller) Preview() (entry.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == nil {
		return entry.Entry{}, false
	}
	return *c.preview, true
}

// MARK: Filters

// HasFilter reports whether an identical (kind, value) filter is present.
func (c *Controller) HasFilter(f entry.Filter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfLocked(f) >= 0
}

// ToggleFilter removes an identical filter if present, otherwise appends
// it. This is the only filter mutation exposed to the UI layer.
func (c *Controller) ToggleFilter(f entry.Filter) {
	c.mu.Lock()
	if i := c.indexOfLocked(f); i >= 0 {
		c.filters = append(c.filters[:i], c.filters[i+1:]...)
	} else {
		c.filters = append(c.filters, f)
	}
	c.mu.Unlock()
	c.notify()
}

// ClearFilters removes every filter.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	c.filters = nil
	c.mu.Unlock()
	c.notify()
}

// Filters returns a copy of the active filters.
func (c *Controller) Filters() []entry.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entry.Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

func (c *Controller) indexOfLocked(f entry.Filter) int {
	for i, existing := range c.filters {
		if existing.Equal(f) {
			return i
		}
	}
	return -1
}

// ApplyFilters reports whether the entry passes the active filter set.
func (c *Controller) ApplyFilters(e entry.Entry) bool {
	c.mu.Lock()
	filters := c.filters
	now := c.now()
	c.mu.Unlock()
	return entry.MatchesAll(filters, e, now)
}

// MARK: Sorting

// SetSortBy changes the sort order.
func (c *Controller) SetSortBy(by entry.SortBy) {
	c.mu.Lock()
	c.sortBy = by
	c.mu.Unlock()
	c.notify()
}

// SortBy returns the active sort order.
func (c *Controller) SortBy() entry.SortBy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortBy
}

// ApplySortingOrder compares two entries under the active sort order.
func (c *Controller) ApplySortingOrder(a, b entry.Entry) int {
	return entry.Compare(c.SortBy(), a, b)
}

// Apply runs the full pipeline: filter, then stable sort. The input slice
// is not modified; under SortDefault the output preserves the incoming
// (server-ranked) order.
func (c *Controller) Apply(entries []entry.Entry) []entry.Entry {
	c.mu.Lock()
	filters := make([]entry.Filter, len(c.filters))
	copy(filters, c.filters)
	by := c.sortBy
	now := c.now()
	c.mu.Unlock()

	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if entry.MatchesAll(filters, e, now) {
			out = append(out, e)
		}
	}
	entry.Sort(by, out)
	return out
}

// Clear resets filters, selection, preview and sort order together.
// Invoked on every list-scope change so state from one collection never
// leaks into another.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.filters = nil
	c.selections = make(map[string]struct{})
	c.preview = nil
	c.sortBy = entry.SortDefault
	c.mu.Unlock()
	c.notify()
}
