package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/satchel-kb/satchel/internal/apperr"
	"github.com/satchel-kb/satchel/internal/notify"
	"github.com/satchel-kb/satchel/internal/query"
)

// fakeCaller scripts procedure responses.
type fakeCaller struct {
	calls   int32
	results []callResult
}

type callResult struct {
	data json.RawMessage
	err  error
}

func (f *fakeCaller) Call(ctx context.Context, kind Kind, name string, payload any) (json.RawMessage, error) {
	n := int(atomic.AddInt32(&f.calls, 1)) - 1
	if n >= len(f.results) {
		n = len(f.results) - 1
	}
	r := f.results[n]
	return r.data, r.err
}

func TestKeys_Normalization(t *testing.T) {
	keys := Keys(
		"workspace.entries.all",
		[]string{"workspace.entries.all", "ws1"},
		query.K("entry", "find", "e1"),
	)

	if len(keys) != 3 {
		t.Fatalf("len = %d, want 3", len(keys))
	}
	if len(keys[0]) != 1 || keys[0][0] != "workspace.entries.all" {
		t.Errorf("bare string key = %v, want single segment", keys[0])
	}
	if len(keys[1]) != 2 {
		t.Errorf("slice key = %v, want two segments", keys[1])
	}
	if !keys[1].HasPrefix(keys[0]) {
		t.Error("bare-string key is not a prefix of the slice key")
	}
}

func TestCall_SuccessMessageNotification(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{data: json.RawMessage(`{}`)}}}
	rec := &notify.Recorder{}
	m := New("entry.delete", caller, query.New(), rec, Options{
		SuccessMessage: "Entries deleted",
	})

	if _, err := m.Call(context.Background(), map[string]any{"ids": []string{"e1"}}); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	last, ok := rec.Last()
	if !ok || last.Level != "success" || last.Text != "Entries deleted" {
		t.Errorf("notification = %+v, want success 'Entries deleted'", last)
	}
}

func TestCall_DefaultsToResultMessage(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{data: json.RawMessage(`{"message":"3 entries requeued"}`)}}}
	rec := &notify.Recorder{}
	m := New("entry.requeue", caller, query.New(), rec, Options{})

	if _, err := m.Call(context.Background(), nil); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	last, _ := rec.Last()
	if last.Text != "3 entries requeued" {
		t.Errorf("notification = %q, want result message", last.Text)
	}
}

func TestCall_OnSuccessCallback(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{data: json.RawMessage(`{"id":"c9"}`)}}}
	rec := &notify.Recorder{}

	var got json.RawMessage
	m := New("collection.create", caller, query.New(), rec, Options{
		OnSuccess: func(data json.RawMessage) { got = data },
	})

	if _, err := m.Call(context.Background(), nil); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(got) != `{"id":"c9"}` {
		t.Errorf("OnSuccess data = %s", got)
	}
	if msgs := rec.Messages(); len(msgs) != 0 {
		t.Errorf("unexpected notifications: %v", msgs)
	}
}

func TestCall_ValidationErrorMapsFields(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{
		err: &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: apperr.ValidationMessage,
			Fields:  map[string][]string{"name": {"is required", "too short"}},
		},
	}}}
	rec := &notify.Recorder{}

	fieldErrors := map[string][]string{}
	m := New("collection.create", caller, query.New(), rec, Options{
		SetFieldError: func(field string, messages []string) {
			fieldErrors[field] = messages
		},
	})

	_, err := m.Call(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fieldErrors["name"]) != 2 {
		t.Errorf("field errors = %v, want name messages applied", fieldErrors)
	}
	last, _ := rec.Last()
	if last.Level != "error" || last.Text != apperr.ValidationMessage {
		t.Errorf("notification = %+v, want generic validation error", last)
	}
	if n := atomic.LoadInt32(&caller.calls); n != 1 {
		t.Errorf("calls = %d, want 1 (validation errors are not retried)", n)
	}
}

func TestCall_ValidationErrorWithoutFormShowsAggregate(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{
		err: &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: apperr.ValidationMessage,
			Fields:  map[string][]string{"url": {"is invalid"}},
		},
	}}}
	rec := &notify.Recorder{}
	m := New("entry.import", caller, query.New(), rec, Options{})

	if _, err := m.Call(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	last, _ := rec.Last()
	if last.Level != "error" {
		t.Fatalf("notification = %+v", last)
	}
	if last.Text == apperr.ValidationMessage {
		t.Error("aggregate field summary missing from notification")
	}
}

func TestCall_GenericErrorRetriesOnce(t *testing.T) {
	caller := &fakeCaller{results: []callResult{
		{err: errors.New("connection refused")},
		{data: json.RawMessage(`{"message":"imported"}`)},
	}}
	rec := &notify.Recorder{}
	m := New("entry.import", caller, query.New(), rec, Options{})

	if _, err := m.Call(context.Background(), nil); err != nil {
		t.Fatalf("Call failed after retry: %v", err)
	}
	if n := atomic.LoadInt32(&caller.calls); n != 2 {
		t.Errorf("calls = %d, want 2 (default one retry)", n)
	}
}

func TestCall_ZeroRetryDisablesRetrying(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{err: errors.New("boom")}}}
	rec := &notify.Recorder{}
	zero := 0
	m := New("entry.import", caller, query.New(), rec, Options{Retry: &zero})

	if _, err := m.Call(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&caller.calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}

	last, _ := rec.Last()
	if last.Level != "error" {
		t.Error("mutation failure produced no observable signal")
	}
}

func TestCall_OnErrorReplacesDefaultHandling(t *testing.T) {
	caller := &fakeCaller{results: []callResult{{err: &apperr.Error{Kind: apperr.KindAuthz, Message: "nope"}}}}
	rec := &notify.Recorder{}

	var got error
	m := New("workspace.delete", caller, query.New(), rec, Options{
		OnError: func(err error) { got = err },
	})

	if _, err := m.Call(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if got == nil {
		t.Error("OnError not invoked")
	}
	if msgs := rec.Messages(); len(msgs) != 0 {
		t.Errorf("default notification fired despite OnError: %v", msgs)
	}
	if n := atomic.LoadInt32(&caller.calls); n != 1 {
		t.Errorf("calls = %d, want 1 (authz errors are not retried)", n)
	}
}
