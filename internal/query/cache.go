package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/satchel-kb/satchel/internal/apperr"
)

// Cache is the single shared mutable resource of the engine. All reads and
// writes of cached entries are serialized through its mutex; the two
// non-trivial properties it preserves explicitly are request
// de-duplication (concurrent subscribers to one key share one in-flight
// fetch) and last-issued-wins ordering (a slower, earlier-issued fetch
// never overwrites a faster, later one).
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entryState
	flight  singleflight.Group
	nextSub uint64
}

// entryState is the cache-owned record for one key. Mutated only by
// completed fetches, invalidation and reset, always under Cache.mu.
type entryState struct {
	key       Key
	data      any
	err       error
	status    Status
	fetchedAt time.Time
	stale     bool

	// fetch parameters captured from the most recent subscriber, reused
	// for invalidation-triggered refetches.
	fetch FetchFunc
	retry RetryPolicy
	ctx   context.Context

	// issuedSeq numbers every fetch started for this key; appliedSeq is
	// the highest sequence whose result has been applied. A result with
	// seq <= appliedSeq arrived out of order and is discarded.
	issuedSeq  uint64
	appliedSeq uint64
	inflight   int

	subs map[uint64]*Subscription
}

// Subscription is one consumer's live view of a key.
type Subscription struct {
	cache    *Cache
	id       uint64
	key      Key
	opts     Options
	onChange func(Result)
	closed   bool
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entryState)}
}

// Subscribe registers a consumer for a key. If the key has no fresh data
// and the subscription is not disabled, a fetch is started unless one is
// already in flight (de-duplication). onChange fires after every committed
// state change for the key; it may be nil for poll-style consumers that
// only call Result.
func (c *Cache) Subscribe(ctx context.Context, key Key, fetch FetchFunc, opts Options, onChange func(Result)) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetch = fetch
	e.retry = opts.Retry
	e.ctx = ctx

	c.nextSub++
	sub := &Subscription{cache: c, id: c.nextSub, key: key, opts: opts, onChange: onChange}
	e.subs[sub.id] = sub

	if !opts.Disabled && c.needsFetchLocked(e, opts.StaleTime) {
		c.startFetchLocked(e)
	}
	c.mu.Unlock()

	return sub
}

// Fetch performs a one-shot cached read of a key outside any subscription.
// Concurrent identical calls share one underlying fetch via singleflight.
// A fresh cached value is returned without touching the network.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.status == StatusSuccess && !c.staleLocked(e, opts.StaleTime) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	data, err, _ := c.flight.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		e := c.entryLocked(key)
		e.issuedSeq++
		seq := e.issuedSeq
		e.inflight++
		c.mu.Unlock()

		data, err := fetchWithRetry(ctx, fetch, opts.Retry)
		c.applyResult(key, seq, data, err)
		return data, err
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return data, nil
}

// Invalidate marks every entry matching the key (prefix-wise) stale and
// refetches the ones with active subscribers. Entries without subscribers
// stay stale until their next subscription.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(key) {
			continue
		}
		e.stale = true
		if c.hasActiveSubsLocked(e) && e.fetch != nil {
			c.startFetchLocked(e)
		}
	}
	c.mu.Unlock()
}

// Reset evicts every entry. Used on logout and workspace teardown; live
// subscriptions become inert and consumers are expected to resubscribe.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entryState)
	c.mu.Unlock()
}

// Peek returns the current snapshot for a key without subscribing or
// fetching.
func (c *Cache) Peek(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Result{}, false
	}
	return c.snapshotLocked(e, Options{}), true
}

// Result returns the subscriber's current snapshot, with placeholder data
// substituted while the first fetch is pending.
func (s *Subscription) Result() Result {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	e, ok := s.cache.entries[s.key.String()]
	if !ok {
		return Result{Key: s.key, Status: StatusPending}
	}
	return s.cache.snapshotLocked(e, s.opts)
}

// Refetch forces a new fetch for the subscriber's key, superseding any
// fetch already in flight.
func (s *Subscription) Refetch() {
	c := s.cache
	c.mu.Lock()
	e, ok := c.entries[s.key.String()]
	if ok && !s.closed && e.fetch != nil {
		c.startFetchLocked(e)
	}
	c.mu.Unlock()
}

// Enable lifts a Disabled subscription and starts the suspended fetch if
// the key still needs one.
func (s *Subscription) Enable() {
	c := s.cache
	c.mu.Lock()
	if s.opts.Disabled && !s.closed {
		s.opts.Disabled = false
		if e, ok := c.entries[s.key.String()]; ok && e.fetch != nil && c.needsFetchLocked(e, s.opts.StaleTime) {
			c.startFetchLocked(e)
		}
	}
	c.mu.Unlock()
}

// Close unregisters the subscriber. Idempotent.
func (s *Subscription) Close() {
	c := s.cache
	c.mu.Lock()
	if !s.closed {
		s.closed = true
		if e, ok := c.entries[s.key.String()]; ok {
			delete(e.subs, s.id)
		}
	}
	c.mu.Unlock()
}

// Key returns the subscribed key.
func (s *Subscription) Key() Key { return s.key }

func (c *Cache) entryLocked(key Key) *entryState {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entryState{
			key:    key,
			status: StatusPending,
			subs:   make(map[uint64]*Subscription),
		}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) needsFetchLocked(e *entryState, staleTime time.Duration) bool {
	if e.inflight > 0 {
		return false
	}
	if e.fetchedAt.IsZero() {
		return true
	}
	return c.staleLocked(e, staleTime)
}

func (c *Cache) staleLocked(e *entryState, staleTime time.Duration) bool {
	if e.stale {
		return true
	}
	return staleTime > 0 && !e.fetchedAt.IsZero() && time.Since(e.fetchedAt) > staleTime
}

func (c *Cache) hasActiveSubsLocked(e *entryState) bool {
	for _, sub := range e.subs {
		if !sub.opts.Disabled {
			return true
		}
	}
	return false
}

// startFetchLocked issues a new fetch for the entry with the next sequence
// number. Callers hold c.mu.
func (c *Cache) startFetchLocked(e *entryState) {
	e.issuedSeq++
	seq := e.issuedSeq
	e.inflight++

	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	fetch := e.fetch
	retry := e.retry
	key := e.key

	go func() {
		data, err := fetchWithRetry(ctx, fetch, retry)
		c.applyResult(key, seq, data, err)
	}()
}

// applyResult commits a completed fetch, enforcing last-issued-wins, and
// notifies subscribers outside the lock.
func (c *Cache) applyResult(key Key, seq uint64, data any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok {
		// Evicted by Reset while the fetch was in flight.
		c.mu.Unlock()
		return
	}
	if e.inflight > 0 {
		e.inflight--
	}
	if seq <= e.appliedSeq {
		// A later-issued fetch already resolved; discard this result.
		c.mu.Unlock()
		return
	}
	e.appliedSeq = seq
	e.fetchedAt = time.Now()
	e.stale = false
	if err != nil {
		e.err = apperr.Classify(err)
		e.status = StatusError
		// Previous successful data, if any, is preserved.
	} else {
		e.data = data
		e.err = nil
		e.status = StatusSuccess
	}

	type delivery struct {
		fn  func(Result)
		res Result
	}
	var deliveries []delivery
	for _, sub := range e.subs {
		if sub.onChange != nil {
			deliveries = append(deliveries, delivery{sub.onChange, c.snapshotLocked(e, sub.opts)})
		}
	}
	c.mu.Unlock()

	for _, d := range deliveries {
		d.fn(d.res)
	}
}

func (c *Cache) snapshotLocked(e *entryState, opts Options) Result {
	res := Result{
		Key:       e.key,
		Data:      e.data,
		Err:       e.err,
		Status:    e.status,
		FetchedAt: e.fetchedAt,
		Stale:     c.staleLocked(e, opts.StaleTime),
	}
	if res.Status == StatusPending && res.Data == nil && opts.Placeholder != nil {
		res.Data = opts.Placeholder()
		res.Placeholder = true
	}
	return res
}
