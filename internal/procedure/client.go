// Package procedure implements the typed remote-procedure client: one HTTP
// call per query or mutation against the server's procedure endpoint, with
// every failure classified into the apperr taxonomy before it reaches a
// caller.
package procedure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/satchel-kb/satchel/internal/apperr"
)

// Kind distinguishes side-effect-free queries from mutations. It aliases
// string so callers can satisfy caller interfaces without importing this
// package.
type Kind = string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// envelope is the wire response shape: {ok: true, data} or
// {ok: false, error}.
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

// Client issues procedure calls. It is stateless between calls and safe for
// concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for a procedure endpoint, e.g.
// "http://localhost:3288/api/v1/procedure".
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Call invokes one procedure and returns the raw data member of the
// response envelope. Errors are always classified: the raw error body is
// parsed into validation/authz shapes, opaque strings get connectivity
// remapping, and transport failures become generic errors.
func (c *Client) Call(ctx context.Context, kind Kind, name string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.NewGeneric("", fmt.Errorf("encode payload for %s: %w", name, err))
	}

	url := fmt.Sprintf("%s/%s/%s", c.endpoint, kind, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.NewGeneric("", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", ulid.Make().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Classify(fmt.Errorf("failed to call procedure %s: %w", name, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Classify(fmt.Errorf("failed to call procedure %s: %w", name, err))
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		// Non-success status with an unparseable body degrades to generic.
		if resp.StatusCode >= 400 {
			return nil, apperr.FromWire(name, nil)
		}
		return nil, apperr.NewGeneric("", fmt.Errorf("decode response for %s: %w", name, jsonErr))
	}

	if !env.OK {
		return nil, apperr.FromWire(name, env.Error)
	}
	return env.Data, nil
}

// Query invokes a query procedure and decodes its result into out.
func (c *Client) Query(ctx context.Context, name string, payload, out any) error {
	data, err := c.Call(ctx, KindQuery, name, payload)
	if err != nil {
		return err
	}
	return decode(name, data, out)
}

// Mutate invokes a mutation procedure and decodes its result into out,
// which may be nil when the caller only cares about success.
func (c *Client) Mutate(ctx context.Context, name string, payload, out any) error {
	data, err := c.Call(ctx, KindMutation, name, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(name, data, out)
}

func decode(name string, data json.RawMessage, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.NewGeneric("", fmt.Errorf("decode result for %s: %w", name, err))
	}
	return nil
}
