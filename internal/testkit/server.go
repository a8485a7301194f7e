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

// Package testkit provides an in-process REST database server speaking the
// protocol of the restdb client, for tests.
package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

// ActionFunc implements a custom action invoked with POST
// /<table>/<key>/<action>. A returned error is answered with 400 Bad Request.
type ActionFunc func(table, key string, params any) (any, error)

// Request is a request as received by the server.
type Request struct {
	Method string
	// Path is the escaped request path.
	Path  string
	Query url.Values
	Body  []byte
}

type response struct {
	status int
	body   any
}

// Server is a REST database backed by a bbolt file in a test directory.
type Server struct {
	*httptest.Server

	store *store

	mu       sync.Mutex
	token    string
	actions  map[string]ActionFunc
	requests []Request
	injected []response
	location string
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	gin.SetMode(gin.TestMode)

	db, err := bolt.Open(filepath.Join(t.TempDir(), "restdb.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)

	s := &Server{
		store:   &store{db: db},
		actions: make(map[string]ActionFunc),
	}

	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(s.record, s.inject, s.authenticate)
	r.GET("/:table", s.getRange)
	r.POST("/:table", s.create)
	r.GET("/:table/:key", s.get)
	r.PUT("/:table/:key", s.put)
	r.DELETE("/:table/:key", s.del)
	r.POST("/:table/:key/:action", s.call)

	s.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		s.Close()
		require.NoError(t, db.Close())
	})
	return s
}

// SetToken makes the server reject requests whose "token" query parameter
// differs from token. An empty token disables the check.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// HandleAction registers a custom action.
func (s *Server) HandleAction(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = fn
}

// Inject makes the next request receive the given status and JSON body
// instead of being served. A nil body sends no content.
func (s *Server) Inject(status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injected = append(s.injected, response{status: status, body: body})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// LastLocation returns the Location header of the most recent create.
func (s *Server) LastLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.EscapedPath(),
		Query:  c.Request.URL.Query(),
		Body:   body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	var resp *response
	if len(s.injected) > 0 {
		resp = &s.injected[0]
		s.injected = s.injected[1:]
	}
	s.mu.Unlock()

	if resp == nil {
		c.Next()
		return
	}
	if resp.body == nil {
		c.AbortWithStatus(resp.status)
		return
	}
	c.AbortWithStatusJSON(resp.status, resp.body)
}

func (s *Server) authenticate(c *gin.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token != "" && c.Query("token") != token {
		abortError(c, http.StatusUnauthorized, "invalid token")
		return
	}
	c.Next()
}

func (s *Server) get(c *gin.Context) {
	table, key := c.Param("table"), c.Param("key")
	if key == "count" {
		s.count(c)
		return
	}

	item, err := s.store.get(table, key)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		missing(c)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) put(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}
	if err := s.store.put(c.Param("table"), c.Param("key"), item); err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) create(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}
	table := c.Param("table")
	key, err := s.store.create(table, item)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	location := s.URL + "/" + url.PathEscape(table) + "/" + url.PathEscape(key)
	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
	c.Header("Location", location)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) del(c *gin.Context) {
	found, err := s.store.del(c.Param("table"), c.Param("key"))
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		missing(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getRange(c *gin.Context) {
	items := make([]any, 0)
	err := s.store.scan(c.Param("table"), rangeFromQuery(c), func(_ string, item any) {
		items = append(items, item)
	})
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) count(c *gin.Context) {
	var n int64
	err := s.store.scan(c.Param("table"), rangeFromQuery(c), func(string, any) {
		n++
	})
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) call(c *gin.Context) {
	s.mu.Lock()
	fn := s.actions[c.Param("action")]
	s.mu.Unlock()
	if fn == nil {
		abortError(c, http.StatusNotFound, "unknown action")
		return
	}

	var params any
	if data, _ := io.ReadAll(c.Request.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &params); err != nil {
			abortError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	result, err := fn(c.Param("table"), c.Param("key"), params)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, result)
}

func bindItem(c *gin.Context) (map[string]any, bool) {
	var item map[string]any
	if err := c.ShouldBindJSON(&item); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return item, true
}

// missing answers a lookup of an absent item: 404 unless the request sets
// errorIfMissing=false, in which case 204.
func missing(c *gin.Context) {
	if c.Query("errorIfMissing") == "false" {
		c.Status(http.StatusNoContent)
		return
	}
	abortError(c, http.StatusNotFound, "item not found")
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func rangeFromQuery(c *gin.Context) keyRange {
	r := keyRange{
		start:      c.Query("start"),
		startAfter: c.Query("startAfter"),
		end:        c.Query("end"),
		endBefore:  c.Query("endBefore"),
		reverse:    c.Query("reverse") == "true",
	}
	if limit := c.Query("limit"); limit != "" {
		_ = json.Unmarshal([]byte(limit), &r.limit)
	}
	return r
}
