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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrMissingTable is returned when an operation is given a nil table.
	ErrMissingTable = errors.New("restdb: table is missing")
	// ErrMissingKey is returned when an operation that addresses a single
	// item is given the absent key.
	ErrMissingKey = errors.New("restdb: key is missing")
	// ErrMissingItem is returned when Put is given a nil item.
	ErrMissingItem = errors.New("restdb: item is missing")
)

// Error represents a non-success HTTP response from the server.
type Error struct {
	// StatusCode mirrors the HTTP response status.
	StatusCode int
	// Message is "HTTP error: <reason> (statusCode=<code>)", where reason is
	// the "error" field of the response body or "unknown".
	Message string
	// Body is the raw response body.
	Body []byte
}

func (e *Error) Error() string {
	return e.Message
}

// ConfigError reports a missing or invalid required argument.
type ConfigError struct {
	// Field is the name of the offending argument, e.g. "name" or "url".
	Field string
	// Reason is "missing" or a short description of what is wrong.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("restdb: %s is %s", e.Field, e.Reason)
}

// UnsupportedTypeError is returned by NewKey for values that are neither
// numbers nor strings.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("restdb: unsupported key type %T", e.Value)
}

// InvalidIndexError is returned by NormalizeIndex for malformed index
// descriptors.
type InvalidIndexError struct {
	Value any
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("restdb: invalid index %T", e.Value)
}

// InvalidURLError is returned by ParseURL when no key can be extracted.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("restdb: invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("restdb: invalid url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not
// an *Error.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an *Error with status 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether err is an *Error with status 409.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

type errorBody struct {
	Error string `json:"error"`
}

// checkStatusCode returns nil if resp has the expected status and an *Error
// built from the response otherwise.
func checkStatusCode(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}
	return translateError(resp)
}

// translateError builds an *Error from resp. It never fails: an unreadable
// or non-JSON body yields the "unknown" reason.
func translateError(resp *http.Response) *Error {
	var data []byte
	if resp.Body != nil {
		data, _ = io.ReadAll(resp.Body)
	}

	reason := "unknown"
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		reason = body.Error
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP error: %s (statusCode=%d)", reason, resp.StatusCode),
		Body:       data,
	}
}

// sneakyBodyClose closes the body and ignores the error.
// This is useful to close the HTTP response body when we don't care about the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
