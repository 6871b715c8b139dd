package entry

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortBy selects a comparator for the list pipeline. SortDefault preserves
// the incoming order, which carries the server's relevance ranking for
// search results; the sort routine must therefore be stable.
type SortBy string

const (
	SortDefault        SortBy = "default"
	SortNewest         SortBy = "newest"
	SortOldest         SortBy = "oldest"
	SortNameAsc        SortBy = "name_asc"
	SortNameDesc       SortBy = "name_desc"
	SortCollectionAsc  SortBy = "collection_asc"
	SortCollectionDesc SortBy = "collection_desc"
)

// SortOrders lists every sort order in display order.
var SortOrders = []SortBy{
	SortDefault, SortNewest, SortOldest,
	SortNameAsc, SortNameDesc, SortCollectionAsc, SortCollectionDesc,
}

// SortLabels maps sort orders to display labels.
var SortLabels = map[SortBy]string{
	SortDefault:        "Default",
	SortNewest:         "Newest",
	SortOldest:         "Oldest",
	SortNameAsc:        "Name (A-Z)",
	SortNameDesc:       "Name (Z-A)",
	SortCollectionAsc:  "Collection (A-Z)",
	SortCollectionDesc: "Collection (Z-A)",
}

// collator provides locale-aware string ordering, matching what users see
// in other clients. Und applies the CLDR root collation order.
var collator = collate.New(language.Und)

// Compare orders a before b under the given sort order, returning a
// negative, zero or positive value. SortDefault compares everything equal.
func Compare(by SortBy, a, b Entry) int {
	switch by {
	case SortNewest:
		return b.CreatedAt.Compare(a.CreatedAt)
	case SortOldest:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortNameAsc:
		return collator.CompareString(a.Name, b.Name)
	case SortNameDesc:
		return collator.CompareString(b.Name, a.Name)
	case SortCollectionAsc:
		return collator.CompareString(a.Collection.Slug, b.Collection.Slug)
	case SortCollectionDesc:
		return collator.CompareString(b.Collection.Slug, a.Collection.Slug)
	}
	return 0
}

// Sort orders entries in place, stably, so that equal elements (and the
// whole sequence under SortDefault) keep their incoming order.
func Sort(by SortBy, entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(by, entries[i], entries[j]) < 0
	})
}
