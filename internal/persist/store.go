package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// Store wraps a state struct and mirrors a projection of its fields into a
// KV on every committed update. Excluded fields still live on the struct
// and still notify subscribers; they are simply never written.
type Store[T any] struct {
	mu          sync.Mutex
	kv          KV
	name        string
	state       T
	excluded    map[string]struct{}
	lastWritten []byte
	subs        []func(T)
}

// Wrap loads the persisted projection under name, merges it over defaults
// field by field and returns the live store. Fields absent from storage
// keep their default values, so adding a field to T never clobbers it on
// the next load.
func Wrap[T any](kv KV, name string, defaults T, excludeKeys ...string) (*Store[T], error) {
	excluded := make(map[string]struct{}, len(excludeKeys))
	for _, k := range excludeKeys {
		excluded[k] = struct{}{}
	}

	s := &Store[T]{
		kv:       kv,
		name:     name,
		state:    defaults,
		excluded: excluded,
	}

	raw, ok, err := kv.Get(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load store %q: %w", name, err)
	}
	if ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode store %q: %w", name, err)
		}
		if err := mergeFields(&s.state, fields); err != nil {
			return nil, fmt.Errorf("failed to seed store %q: %w", name, err)
		}
	}

	// Remember what storage holds so an Update that only touches excluded
	// fields skips the write entirely.
	if proj, err := s.projection(); err == nil {
		s.lastWritten = proj
	}
	return s, nil
}

// mergeFields applies each stored field onto the struct individually.
// Unknown stored fields are ignored; fields that fail to decode keep their
// defaults rather than aborting the whole load.
func mergeFields[T any](state *T, fields map[string]json.RawMessage) error {
	v := reflect.ValueOf(state).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("store state must be a struct, got %s", v.Kind())
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonFieldName(f)
		if name == "" {
			continue
		}
		raw, ok := fields[name]
		if !ok {
			continue
		}
		target := reflect.New(f.Type)
		if err := json.Unmarshal(raw, target.Interface()); err != nil {
			slog.Warn("ignoring corrupt persisted field", "store", name, "field", f.Name, "error", err)
			continue
		}
		v.Field(i).Set(target.Elem())
	}
	return nil
}

// jsonFieldName resolves the storage key for a struct field, honoring the
// json tag. A "-" tag opts the field out of persistence entirely.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// projection marshals the persistable subset of the current state: exported
// fields that are not excluded, not tagged json:"-" and not of a kind JSON
// cannot represent.
func (s *Store[T]) projection() ([]byte, error) {
	v := reflect.ValueOf(s.state)
	t := v.Type()
	out := make(map[string]json.RawMessage, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			continue
		}
		name := jsonFieldName(f)
		if name == "" {
			continue
		}
		if _, ok := s.excluded[name]; ok {
			continue
		}
		raw, err := json.Marshal(v.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %q: %w", name, err)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

// Get returns a snapshot of the current state.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run with the new state after every Update.
func (s *Store[T]) Subscribe(fn func(T)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Update applies fn to the state, notifies subscribers and persists the
// projection when it changed. A storage failure is logged and the
// in-memory update stands.
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	subs := make([]func(T), len(s.subs))
	copy(subs, s.subs)

	proj, err := s.projection()
	if err != nil {
		slog.Warn("failed to project store state", "store", s.name, "error", err)
		proj = nil
	}
	write := proj != nil && !bytes.Equal(proj, s.lastWritten)
	if write {
		s.lastWritten = proj
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
	if write {
		if err := s.kv.Set(s.name, proj); err != nil {
			slog.Warn("failed to persist store state", "store", s.name, "error", err)
		}
	}
}
