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
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// makeURL composes <baseURL>/<table>[/<key>][/<action>][?<query>].
func makeURL(baseURL string, table *Table, key Key, action string, opts *Options, token string) (string, error) {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteByte('/')
	b.WriteString(escapeSegment(Dasherize(table.Name)))
	if !key.IsZero() {
		b.WriteByte('/')
		b.WriteString(escapeSegment(key.Encode()))
	}
	if action != "" {
		b.WriteByte('/')
		b.WriteString(escapeSegment(action))
	}

	query, err := encodeQuery(opts.params())
	if err != nil {
		return "", err
	}
	if token != "" && opts.includeToken() {
		query.Set(tokenParam, token)
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String(), nil
}

// ParseURL extracts the raw item key from an item URL, i.e. the last path
// segment, percent-decoded. The query string is ignored.
func ParseURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", &ConfigError{Field: "url", Reason: "missing"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &InvalidURLError{URL: rawURL, Err: err}
	}

	p := u.EscapedPath()
	i := strings.LastIndexByte(p, '/')
	if i == -1 || i == len(p)-1 {
		return "", &InvalidURLError{URL: rawURL}
	}
	key, err := url.PathUnescape(p[i+1:])
	if err != nil {
		return "", &InvalidURLError{URL: rawURL, Err: err}
	}
	return key, nil
}

// Dasherize converts a table name into its path form: camel-case
// boundaries, underscores and spaces become dashes and the result is
// lowercased, so "UserAccount" and "user_account" both give "user-account".
func Dasherize(name string) string {
	rs := []rune(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(rs) + 4)

	dash := func() {
		s := b.String()
		if len(s) > 0 && s[len(s)-1] != '-' {
			b.WriteByte('-')
		}
	}

	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			dash()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				dash()
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Trim(b.String(), "-")
}

// escapeSegment percent-encodes s for use as one path segment. RFC 3986
// pchar characters are kept, so "num!42" stays readable.
func escapeSegment(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isPChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isPChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', // unreserved
		'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', // sub-delims
		':', '@':
		return true
	}
	return false
}

// encodeQuery flattens params into query values. Scalars are formatted,
// keys use their path encoding, slices of scalars become repeated
// parameters and everything else is sent as JSON text.
func encodeQuery(params map[string]any) (url.Values, error) {
	query := url.Values{}
	for name, v := range params {
		if vs, ok := scalarSlice(v); ok {
			for _, s := range vs {
				query.Add(name, s)
			}
			continue
		}
		s, err := encodeParam(v)
		if err != nil {
			return nil, fmt.Errorf("restdb: encode query parameter %q: %w", name, err)
		}
		query.Set(name, s)
	}
	return query, nil
}

func encodeParam(v any) (string, error) {
	if s, ok := scalarString(v); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func scalarString(v any) (string, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", true
	}
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case Key:
		return x.Encode(), true
	case *Key:
		return x.Encode(), true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), true
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	default:
		return "", false
	}
}

// scalarSlice returns the formatted elements of v if v is a slice or array
// whose elements are all scalars.
func scalarSlice(v any) ([]string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar payload, not a list.
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, ok := scalarString(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
