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
	"math"
	"strconv"
	"strings"
)

// numericKeyPrefix tags numeric keys so the server can tell 42 from "42".
const numericKeyPrefix = "num!"

type keyKind uint8

const (
	keyAbsent keyKind = iota
	keyString
	keyNumber
)

// Key identifies a single item within a table.
//
// A Key is either a string or a number. The zero Key is absent: operations
// that address a single item reject it, while Put treats it as "create".
type Key struct {
	kind keyKind
	// repr is the string itself, or the decimal form of a number.
	repr string
}

// StringKey returns a string key. An empty string yields the absent key.
func StringKey(s string) Key {
	if s == "" {
		return Key{}
	}
	return Key{kind: keyString, repr: s}
}

// IntKey returns a numeric key.
func IntKey(n int64) Key {
	return Key{kind: keyNumber, repr: strconv.FormatInt(n, 10)}
}

// UintKey returns a numeric key.
func UintKey(n uint64) Key {
	return Key{kind: keyNumber, repr: strconv.FormatUint(n, 10)}
}

// FloatKey returns a numeric key. Integral values render without a
// fractional part, so FloatKey(42) and IntKey(42) encode identically.
// Other values use the shortest form that round-trips, switching to an
// exponent below 1e-6 and from 1e21 on ("1e+21", "1.5e-7"); non-finite
// values render as "Infinity", "-Infinity" and "NaN".
func FloatKey(f float64) Key {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IntKey(int64(f))
	}
	return Key{kind: keyNumber, repr: formatFloat(f)}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		// strconv pads the exponent to two digits: 1e-07.
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NewKey converts a dynamically typed value into a Key.
//
// Strings, all integer and float kinds, json.Number and Key itself are
// accepted. A nil value yields the absent key. Any other type fails with an
// *UnsupportedTypeError.
func NewKey(v any) (Key, error) {
	switch k := v.(type) {
	case nil:
		return Key{}, nil
	case Key:
		return k, nil
	case string:
		return StringKey(k), nil
	case int:
		return IntKey(int64(k)), nil
	case int8:
		return IntKey(int64(k)), nil
	case int16:
		return IntKey(int64(k)), nil
	case int32:
		return IntKey(int64(k)), nil
	case int64:
		return IntKey(k), nil
	case uint:
		return UintKey(uint64(k)), nil
	case uint8:
		return UintKey(uint64(k)), nil
	case uint16:
		return UintKey(uint64(k)), nil
	case uint32:
		return UintKey(uint64(k)), nil
	case uint64:
		return UintKey(k), nil
	case float32:
		return FloatKey(float64(k)), nil
	case float64:
		return FloatKey(k), nil
	case json.Number:
		if n, err := k.Int64(); err == nil {
			return IntKey(n), nil
		}
		f, err := k.Float64()
		if err != nil {
			return Key{}, &UnsupportedTypeError{Value: v}
		}
		return FloatKey(f), nil
	default:
		return Key{}, &UnsupportedTypeError{Value: v}
	}
}

// MustKey is like NewKey but panics on unsupported types.
func MustKey(v any) Key {
	k, err := NewKey(v)
	if err != nil {
		panic(err)
	}
	return k
}

// IsZero reports whether the key is absent.
func (k Key) IsZero() bool {
	return k.kind == keyAbsent
}

// IsNumeric reports whether the key was built from a number.
func (k Key) IsNumeric() bool {
	return k.kind == keyNumber
}

// Encode returns the URL path form of the key: "num!<decimal>" for numbers
// and the string itself otherwise. The absent key encodes to "".
func (k Key) Encode() string {
	if k.kind == keyNumber {
		return numericKeyPrefix + k.repr
	}
	return k.repr
}

// String returns the key as the caller wrote it, without the numeric tag.
func (k Key) String() string {
	return k.repr
}
