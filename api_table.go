/*
 * Copyright 2024 KindaDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package restdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TableStore defines the item operations of a REST database.
type TableStore interface {
	// Get fetches the item stored under key. It returns nil without error
	// when the server answers 204 No Content. A 200 reply always yields a
	// non-nil body, empty if the server sent none.
	Get(ctx context.Context, table *Table, key Key, opts *Options) (json.RawMessage, error)
	// Put replaces the item under key, or creates a new item when key is
	// absent.
	Put(ctx context.Context, table *Table, key Key, item any, opts *Options) (json.RawMessage, error)
	// Del deletes the item under key.
	Del(ctx context.Context, table *Table, key Key, opts *Options) error
	// GetRange lists the items of the table.
	GetRange(ctx context.Context, table *Table, opts *Options) (json.RawMessage, error)
	// GetCount counts the items of the table.
	GetCount(ctx context.Context, table *Table, opts *Options) (json.RawMessage, error)
	// Call invokes a server-defined action on the item under key.
	Call(ctx context.Context, table *Table, key Key, action string, params any, opts *Options) (json.RawMessage, error)
}

const countAction = "count"

func (c *Client) Get(ctx context.Context, table *Table, key Key, opts *Options) (json.RawMessage, error) {
	table, err := c.normalizeTable(table)
	if err != nil {
		return nil, err
	}
	if key.IsZero() {
		return nil, ErrMissingKey
	}

	resp, err := c.send(ctx, "get", http.MethodGet, table, key, "", nil, opts)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := checkStatusCode(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return readBody(resp)
}

func (c *Client) Put(ctx context.Context, table *Table, key Key, item any, opts *Options) (json.RawMessage, error) {
	table, err := c.normalizeTable(table)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMissingItem
	}

	method, expected := http.MethodPut, http.StatusOK
	if key.IsZero() {
		method, expected = http.MethodPost, http.StatusCreated
	}
	resp, err := c.send(ctx, "put", method, table, key, "", item, opts)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, expected); err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Del deletes the item under key. The response body of a successful delete
// is discarded without decoding.
func (c *Client) Del(ctx context.Context, table *Table, key Key, opts *Options) error {
	table, err := c.normalizeTable(table)
	if err != nil {
		return err
	}
	if key.IsZero() {
		return ErrMissingKey
	}

	resp, err := c.send(ctx, "del", http.MethodDelete, table, key, "", nil, opts)
	if err != nil {
		return err
	}
	defer sneakyBodyClose(resp.Body)
	return checkStatusCode(resp, http.StatusNoContent)
}

func (c *Client) GetRange(ctx context.Context, table *Table, opts *Options) (json.RawMessage, error) {
	table, err := c.normalizeTable(table)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, "getRange", http.MethodGet, table, Key{}, "", nil, opts)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return readBody(resp)
}

func (c *Client) GetCount(ctx context.Context, table *Table, opts *Options) (json.RawMessage, error) {
	table, err := c.normalizeTable(table)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, "getCount", http.MethodGet, table, Key{}, countAction, nil, opts)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Call posts params to <table>/<key>/<action> and expects 201 Created. It is
// never retried since actions are not idempotent in general.
func (c *Client) Call(ctx context.Context, table *Table, key Key, action string, params any, opts *Options) (json.RawMessage, error) {
	table, err := c.normalizeTable(table)
	if err != nil {
		return nil, err
	}
	if key.IsZero() {
		return nil, ErrMissingKey
	}

	resp, err := c.send(ctx, "call", http.MethodPost, table, key, action, params, opts)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Decode unmarshals a response body into a T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("restdb: decode %T: empty body", v)
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

// send builds the URL, issues exactly one request and records it. The token
// is read once here, so a concurrent SetToken never affects a request midway.
func (c *Client) send(ctx context.Context, op, method string, table *Table, key Key, action string, body any, opts *Options) (*http.Response, error) {
	rawURL, err := makeURL(c.baseURL, table, key, action, opts, c.Token())
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("restdb: %s: %w", op, err)
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("restdb: %s: encode body: %w", op, err)
		}
	}

	ctx, span := c.tracer.Start(ctx, "restdb."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.namespace", c.name),
			attribute.String("restdb.table", table.Name),
			attribute.String("http.request.method", method),
		))
	defer span.End()

	done := c.metrics.begin(op, method)
	start := time.Now()
	resp, err := c.http.Request(ctx, method, u, payload)
	elapsed := time.Since(start)

	if err != nil {
		done(0, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Debug().
			Str("operation", op).
			Str("method", method).
			Str("url", redactToken(u)).
			Dur("duration", elapsed).
			Err(err).
			Msg("request failed")
		return nil, fmt.Errorf("restdb: %s: %w", op, err)
	}

	done(resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	c.log.Debug().
		Str("operation", op).
		Str("method", method).
		Str("url", redactToken(u)).
		Int("status_code", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("request")
	return resp, nil
}

// readBody returns the body as is. It is never nil, so an empty 200 reply
// stays distinct from a 204.
func readBody(resp *http.Response) (json.RawMessage, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// redactToken hides the token in URLs written to the log.
func redactToken(u *url.URL) string {
	q := u.Query()
	if !q.Has(tokenParam) {
		return u.String()
	}
	q.Set(tokenParam, "REDACTED")
	r := *u
	r.RawQuery = q.Encode()
	return r.String()
}
