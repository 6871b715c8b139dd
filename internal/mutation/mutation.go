// Package mutation executes remote mutations and fans their effects out:
// cache invalidation for declared query keys, field-level error mapping for
// validation failures, and user-visible notifications. It is the single
// point that decides how a mutation error surfaces; it never fails
// silently.
package mutation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/satchel-kb/satchel/internal/apperr"
	"github.com/satchel-kb/satchel/internal/notify"
	"github.com/satchel-kb/satchel/internal/query"
)

// Caller issues the underlying procedure call. Satisfied by
// *procedure.Client.
type Caller interface {
	Call(ctx context.Context, kind Kind, name string, payload any) (json.RawMessage, error)
}

// Kind mirrors procedure.Kind to keep this package free of a dependency on
// the transport package.
type Kind = string

// KindMutation is the procedure kind every dispatcher call uses.
const KindMutation Kind = "mutation"

// Options configures one mutation. All fields are optional.
type Options struct {
	// Invalidates lists the query keys marked stale and refetched for
	// active subscribers after a successful call.
	Invalidates []query.Key

	// SuccessMessage is shown as a success notification. When empty and
	// OnSuccess is nil, a "message" field in the result is surfaced
	// instead, if present.
	SuccessMessage string

	// OnSuccess is invoked with the raw result. Takes precedence over the
	// default message handling; mutually exclusive with SuccessMessage
	// (SuccessMessage wins when both are set).
	OnSuccess func(data json.RawMessage)

	// OnError replaces the default error handling entirely.
	OnError func(err error)

	// OnComplete runs after success or failure handling.
	OnComplete func()

	// SetFieldError maps validation failures onto form fields. When set,
	// each field's messages are applied and a generic validation
	// notification is still shown.
	SetFieldError func(field string, messages []string)

	// Retry is the number of additional attempts for retryable failures.
	// Defaults to 1. Validation and authz errors are never retried.
	Retry *int

	// RetryDelay spaces retry attempts. Zero retries immediately.
	RetryDelay time.Duration
}

// Mutation is a configured, reusable dispatcher for one procedure.
type Mutation struct {
	name     string
	caller   Caller
	cache    *query.Cache
	notifier notify.Notifier
	opts     Options
}

// New builds a dispatcher for the named mutation procedure.
func New(name string, caller Caller, cache *query.Cache, notifier notify.Notifier, opts Options) *Mutation {
	return &Mutation{name: name, caller: caller, cache: cache, notifier: notifier, opts: opts}
}

// Keys normalizes invalidation targets into hierarchical query keys: a bare
// string becomes a single-segment key (so "workspace.entries.all" stays a
// prefix of its slug-qualified descendants), a []string becomes a key
// as-is, and a query.Key passes through.
func Keys(targets ...any) []query.Key {
	out := make([]query.Key, 0, len(targets))
	for _, target := range targets {
		switch v := target.(type) {
		case string:
			out = append(out, query.FromName(v))
		case []string:
			out = append(out, query.Key(v))
		case query.Key:
			out = append(out, v)
		}
	}
	return out
}

// Call executes the mutation and waits for its effects. Used for
// sequencing, e.g. waiting for a create before closing a dialog.
func (m *Mutation) Call(ctx context.Context, payload any) (json.RawMessage, error) {
	data, err := m.callWithRetry(ctx, payload)
	if err != nil {
		m.handleError(err)
		if m.opts.OnComplete != nil {
			m.opts.OnComplete()
		}
		return nil, err
	}

	m.handleSuccess(data)
	if m.opts.OnComplete != nil {
		m.opts.OnComplete()
	}
	return data, nil
}

// Fire executes the mutation without making the caller wait. All effects
// still run; failures surface through notifications and OnError.
func (m *Mutation) Fire(ctx context.Context, payload any) {
	go func() {
		_, _ = m.Call(ctx, payload)
	}()
}

func (m *Mutation) callWithRetry(ctx context.Context, payload any) (json.RawMessage, error) {
	retries := 1
	if m.opts.Retry != nil {
		retries = *m.opts.Retry
	}
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 && m.opts.RetryDelay > 0 {
			select {
			case <-time.After(m.opts.RetryDelay):
			case <-ctx.Done():
				return nil, apperr.Classify(ctx.Err())
			}
		}

		data, err := m.caller.Call(ctx, KindMutation, m.name, payload)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !apperr.Classify(err).Retryable() || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (m *Mutation) handleSuccess(data json.RawMessage) {
	for _, key := range m.opts.Invalidates {
		m.cache.Invalidate(key)
	}

	if m.opts.SuccessMessage != "" {
		m.notifier.Success(m.opts.SuccessMessage)
		return
	}
	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(data)
		return
	}

	// Fall back to the result's own message, if it carries one.
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		m.notifier.Success(body.Message)
	}
}

func (m *Mutation) handleError(err error) {
	if m.opts.OnError != nil {
		m.opts.OnError(err)
		return
	}

	classified := apperr.Classify(err)
	if classified.Kind == apperr.KindValidation && m.opts.SetFieldError != nil {
		for field, messages := range classified.Fields {
			m.opts.SetFieldError(field, messages)
		}
		m.notifier.Error(classified.Message)
		return
	}
	if classified.Kind == apperr.KindValidation && len(classified.Fields) > 0 {
		// No form to annotate: show the aggregate instead.
		m.notifier.Error(fmt.Sprintf("%s\n%s", classified.Message, classified.FieldSummary()))
		return
	}
	m.notifier.Error(classified.Message)
}
