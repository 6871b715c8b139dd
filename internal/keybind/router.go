package keybind

import (
	"sync"
)

// Handler runs a chord's action and reports whether the chord was
// consumed. A consumed chord must not propagate further (e.g. space must
// not also scroll the view).
type Handler func() bool

// Router dispatches chords to handlers grouped by scope. Scopes activate
// and deactivate as views mount; when scopes overlap, the most recently
// activated scope is consulted first.
type Router struct {
	mu       sync.Mutex
	stack    []string
	bindings map[string]map[string]Handler
	disabled map[string]struct{}
}

// NewRouter creates an empty router with no active scopes.
func NewRouter() *Router {
	return &Router{
		bindings: make(map[string]map[string]Handler),
		disabled: make(map[string]struct{}),
	}
}

// Bind registers a handler for a chord within a scope, replacing any
// previous binding for the same chord in that scope.
func (r *Router) Bind(scope string, c Chord, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bindings[scope]
	if !ok {
		m = make(map[string]Handler)
		r.bindings[scope] = m
	}
	m[c.String()] = h
}

// Disable excludes chords from dispatch in every scope. Chord strings that
// fail to parse are ignored.
func (r *Router) Disable(chords []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range chords {
		c, err := ParseChord(s)
		if err != nil {
			continue
		}
		r.disabled[c.String()] = struct{}{}
	}
}

// Activate pushes a scope onto the active stack. Re-activating moves the
// scope to the top.
func (r *Router) Activate(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(scope)
	r.stack = append(r.stack, scope)
}

// Deactivate removes a scope from the active stack.
func (r *Router) Deactivate(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(scope)
}

func (r *Router) removeLocked(scope string) {
	for i, s := range r.stack {
		if s == scope {
			r.stack = append(r.stack[:i], r.stack[i+1:]...)
			return
		}
	}
}

// Active reports whether a scope is currently active.
func (r *Router) Active(scope string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stack {
		if s == scope {
			return true
		}
	}
	return false
}

// Dispatch routes a chord to the topmost active scope that binds it and
// reports whether any handler consumed it.
func (r *Router) Dispatch(c Chord) bool {
	key := c.String()

	r.mu.Lock()
	if _, off := r.disabled[key]; off {
		r.mu.Unlock()
		return false
	}
	var h Handler
	for i := len(r.stack) - 1; i >= 0; i-- {
		if candidate, ok := r.bindings[r.stack[i]][key]; ok {
			h = candidate
			break
		}
	}
	r.mu.Unlock()

	if h == nil {
		return false
	}
	return h()
}
