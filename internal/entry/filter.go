package entry

import "time"

// FilterKind is the tag of a filter. Filters of the same kind are
// OR-combined; filters across kinds are AND-combined.
type FilterKind string

const (
	FilterType          FilterKind = "type"
	FilterCreatedAt     FilterKind = "created_at"
	FilterLastUpdatedAt FilterKind = "last_updated_at"
	FilterStatus        FilterKind = "status"
	FilterCollection    FilterKind = "collection"
)

// FilterKindLabels maps filter kinds to display labels.
var FilterKindLabels = map[FilterKind]string{
	FilterType:          "Type",
	FilterCreatedAt:     "Created At",
	FilterLastUpdatedAt: "Last Updated At",
	FilterStatus:        "Status",
	FilterCollection:    "Collection",
}

// Date-window filter values accepted by FilterCreatedAt and
// FilterLastUpdatedAt.
const (
	WindowToday = "today"
	WindowWeek  = "week"
	WindowMonth = "month"
)

// Filter narrows the entry list. A filter is uniquely identified by its
// (Kind, Value) pair.
type Filter struct {
	Kind  FilterKind `json:"kind"`
	Value string     `json:"value"`
}

// Equal reports whether two filters carry the same (Kind, Value) identity.
func (f Filter) Equal(other Filter) bool {
	return f.Kind == other.Kind && f.Value == other.Value
}

// matches reports whether a single filter value matches the entry.
func (f Filter) matches(e Entry, now time.Time) bool {
	switch f.Kind {
	case FilterType:
		return string(e.Type) == f.Value
	case FilterStatus:
		return string(e.Status) == f.Value
	case FilterCollection:
		return e.Collection.ID == f.Value
	case FilterCreatedAt:
		return inWindow(e.CreatedAt, f.Value, now)
	case FilterLastUpdatedAt:
		return inWindow(e.UpdatedAt, f.Value, now)
	}
	return false
}

// inWindow reports whether ts falls inside a named window ending at now.
func inWindow(ts time.Time, window string, now time.Time) bool {
	if ts.IsZero() {
		return false
	}
	switch window {
	case WindowToday:
		y1, m1, d1 := ts.Local().Date()
		y2, m2, d2 := now.Local().Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case WindowWeek:
		return now.Sub(ts) <= 7*24*time.Hour
	case WindowMonth:
		return now.Sub(ts) <= 30*24*time.Hour
	}
	return false
}

// MatchesAll reports whether the entry satisfies every filter kind present
// in the set: within a kind any value may match, across kinds all must.
// An empty filter set passes trivially.
func MatchesAll(filters []Filter, e Entry, now time.Time) bool {
	if len(filters) == 0 {
		return true
	}

	satisfied := make(map[FilterKind]bool, len(filters))
	for _, f := range filters {
		if _, seen := satisfied[f.Kind]; !seen {
			satisfied[f.Kind] = false
		}
		if f.matches(e, now) {
			satisfied[f.Kind] = true
		}
	}

	for _, ok := range satisfied {
		if !ok {
			return false
		}
	}
	return true
}
