// Package query implements the keyed, TTL-aware cache of remote query
// results: hierarchical keys with prefix invalidation, subscriber
// refetching, placeholder/stale data, retry policy and request
// de-duplication.
package query

import "strings"

// Key identifies cached query results as a hierarchical tuple of segments,
// e.g. {"workspace.entries.all", "my-workspace"}. Prefix relationships
// drive invalidation scope: invalidating a key also invalidates every key
// it is a prefix of.
type Key []string

// keySeparator joins segments for map lookups. Segments are procedure
// names and slugs; neither may contain a newline.
const keySeparator = "\n"

// K builds a key from its segments.
func K(segments ...string) Key {
	return Key(segments)
}

// FromName normalizes a bare procedure name into a single-segment key.
// Names like "workspace.entries.all" stay one segment so they remain a
// prefix of {"workspace.entries.all", slug}.
func FromName(name string) Key {
	return Key{name}
}

// String renders the key for use as a map index.
func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// Display renders the key for logs and errors.
func (k Key) Display() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether prefix is a (possibly exact) prefix of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports whether two keys are identical.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// Key builders for the procedures the client subscribes to, mirroring the
// server's procedure catalog.

// WorkspaceEntriesKey caches the entries of a whole workspace.
func WorkspaceEntriesKey(workspaceSlug string) Key {
	return K("workspace.entries.all", workspaceSlug)
}

// CollectionEntriesKey caches the entries of one collection.
func CollectionEntriesKey(workspaceSlug, collectionSlug string) Key {
	return K("collection.entries.all", workspaceSlug, collectionSlug)
}

// WorkspaceKey caches a workspace lookup.
func WorkspaceKey(slug string) Key {
	return K("workspace", "find", slug)
}

// EntryKey caches a single entry lookup.
func EntryKey(id string) Key {
	return K("entry", "find", id)
}

// SearchKey caches one search query's ranked results.
func SearchKey(workspaceSlug, term string) Key {
	return K("entry.search", workspaceSlug, term)
}
