// Package tui renders the entries list in the terminal with bubbletea. The
// model owns focus, scrolling and the virtualized window; list state and
// data live in the controller and the query cache.
package tui

import "sync"

// VisibleRow is one row intersecting the viewport: its position in the
// rendered sequence and its absolute start offset in rows.
type VisibleRow struct {
	Index int
	Start int
}

// Window computes the visible slice of a virtualized list. Rows default to
// one height unit and can be re-measured individually as they render.
type Window struct {
	mu      sync.Mutex
	heights []int
	def     int
}

// NewWindow creates a window with the given default row height.
func NewWindow(defaultRowHeight int) *Window {
	if defaultRowHeight < 1 {
		defaultRowHeight = 1
	}
	return &Window{def: defaultRowHeight}
}

// SetCount resizes the window to n rows. Existing measurements within the
// new bound are kept; new rows start at the default height.
func (w *Window) SetCount(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n <= len(w.heights) {
		w.heights = w.heights[:n]
		return
	}
	for len(w.heights) < n {
		w.heights = append(w.heights, w.def)
	}
}

// Count returns the number of rows.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.heights)
}

// Measure records a row's rendered height. Out-of-range indexes and
// heights below one are ignored.
func (w *Window) Measure(i, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.heights) || height < 1 {
		return
	}
	w.heights[i] = height
}

// RowHeight returns the measured height of row i.
func (w *Window) RowHeight(i int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.heights) {
		return 0
	}
	return w.heights[i]
}

// TotalSize returns the summed height of all rows.
func (w *Window) TotalSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, h := range w.heights {
		total += h
	}
	return total
}

// Start returns the absolute offset of row i.
func (w *Window) Start(i int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	start := 0
	for j := 0; j < i && j < len(w.heights); j++ {
		start += w.heights[j]
	}
	return start
}

// ClampOffset bounds a scroll offset so the viewport never runs past the
// content.
func (w *Window) ClampOffset(offset, viewport int) int {
	max := w.TotalSize() - viewport
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// Visible returns the rows intersecting [offset, offset+viewport), after
// clamping the offset into range.
func (w *Window) Visible(offset, viewport int) []VisibleRow {
	offset = w.ClampOffset(offset, viewport)

	w.mu.Lock()
	defer w.mu.Unlock()
	var out []VisibleRow
	start := 0
	for i, h := range w.heights {
		if start >= offset+viewport {
			break
		}
		if start+h > offset {
			out = append(out, VisibleRow{Index: i, Start: start})
		}
		start += h
	}
	return out
}
