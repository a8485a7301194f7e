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
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kindadb/restdb-sdk/go"

// TokenHolder carries the credential sent with each request. The token may
// be replaced at any time; each request reads it exactly once.
type TokenHolder interface {
	Token() string
	SetToken(token string)
}

// Client is a connection to one database behind a REST endpoint.
//
// A Client is safe for concurrent use.
type Client struct {
	name    string
	baseURL string
	http    HTTPClient

	tokenMu sync.RWMutex
	token   string

	tablesMu sync.Mutex
	tables   []*Table

	log     zerolog.Logger
	metrics *metricsCollector
	tracer  trace.Tracer
}

var (
	_ TokenHolder = (*Client)(nil)
	_ TableStore  = (*Client)(nil)
)

// NewClient creates a new client. Name and Endpoint are required; a trailing
// slash on Endpoint is dropped.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		name:    config.Name,
		baseURL: strings.TrimRight(config.Endpoint, "/"),
		http:    config.HTTP,
		token:   config.Token,
		log:     zerolog.Nop(),
	}
	if c.http == nil {
		c.http = NewHTTPClient(config.Timeout)
	}
	if config.Logger != nil {
		c.log = config.Logger.With().Str("database", c.name).Logger()
	}
	if config.Registerer != nil {
		m, err := newMetricsCollector(config.Registerer)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(instrumentationName)
	return c, nil
}

// Close releases idle connections of the transport.
//
// You don't typically need to call this as the garbage collector will release
// the resources when the client is no longer referenced.
func (c *Client) Close() {
	c.http.Close()
}

// Name returns the database name.
func (c *Client) Name() string {
	return c.name
}

// BaseURL returns the endpoint without its trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current token.
func (c *Client) Token() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// SetToken replaces the token. Requests already in flight keep the token
// they started with.
func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
}

// Table returns the registered table with the given name, registering a
// new one on first use. An empty name is never registered: the returned
// table fails every operation with a *ConfigError.
func (c *Client) Table(name string) *Table {
	if name == "" {
		return &Table{c: c}
	}
	c.tablesMu.Lock()
	defer c.tablesMu.Unlock()
	for _, t := range c.tables {
		if t.Name == name {
			return t
		}
	}
	t := &Table{c: c, Name: name}
	c.tables = append(c.tables, t)
	return t
}

// Tables returns the registered tables in registration order.
func (c *Client) Tables() []*Table {
	c.tablesMu.Lock()
	defer c.tablesMu.Unlock()
	return append([]*Table(nil), c.tables...)
}

// normalizeTable resolves t to the table registered on c under the same
// name.
func (c *Client) normalizeTable(t *Table) (*Table, error) {
	if t == nil {
		return nil, ErrMissingTable
	}
	if t.Name == "" {
		return nil, &ConfigError{Field: "name", Reason: "missing"}
	}
	if t.c == c {
		return t, nil
	}
	return c.Table(t.Name), nil
}
