// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind tags the shape of a decoded Value (spec.md §3: "JSON value. A
// tagged variant with kinds {Null, Bool, Int, Float, String, Array,
// Object}. ... Int and Float are distinct; no silent promotion.").
type Kind int

// list of Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// member is one key/value pair of an Object Value. Objects built by
// decodeValue hold their members in no particular order, and
// marshalValueTree re-encodes an Object through a Go map, so its keys come
// out sorted by name rather than in member order.
type member struct {
	key string
	val Value
}

// Value is a parsed JSON value, held in a form the marshalling layer
// (marshal.go) can walk without committing to a particular Go type ahead
// of time. It is the package's external JSON value model (spec.md §4.A).
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	arrVal   []Value
	objVal   []member
}

// Kind reports v's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the JSON null value (or the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// decodeValue parses raw into a Value tree, distinguishing Int from
// Float by inspecting the literal (no silent promotion, per spec.md §3).
func decodeValue(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var anyVal interface{}
	if err := dec.Decode(&anyVal); err != nil {
		return Value{}, err
	}
	return toValue(anyVal)
}

func toValue(in interface{}) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Value{kind: KindNull}, nil
	case bool:
		return Value{kind: KindBool, boolVal: t}, nil
	case json.Number:
		s := string(t)
		if strings.ContainsAny(s, ".eE") {
			f, err := t.Float64()
			if err != nil {
				return Value{}, err
			}
			return Value{kind: KindFloat, floatVal: f}, nil
		}
		i, err := t.Int64()
		if err != nil {
			// overflows int64: a value that fits uint64 keeps its bit
			// pattern (the uint64 wire quirk); anything larger falls back
			// to parsing as float and truncating, best effort.
			if u, uerr := strconv.ParseUint(s, 10, 64); uerr == nil {
				return Value{kind: KindInt, intVal: int64(u)}, nil
			}
			f, ferr := t.Float64()
			if ferr != nil {
				return Value{}, err
			}
			return Value{kind: KindInt, intVal: int64(f)}, nil
		}
		return Value{kind: KindInt, intVal: i}, nil
	case string:
		return Value{kind: KindString, strVal: t}, nil
	case []interface{}:
		arr := make([]Value, len(t))
		for i, elem := range t {
			v, err := toValue(elem)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{kind: KindArray, arrVal: arr}, nil
	case map[string]interface{}:
		// encoding/json-family decoders don't preserve key order once
		// decoded into a map, so members come out in map iteration
		// order; lookups by name (Value.field) do not depend on it.
		obj := make([]member, 0, len(t))
		for k, raw := range t {
			v, err := toValue(raw)
			if err != nil {
				return Value{}, err
			}
			obj = append(obj, member{key: k, val: v})
		}
		return Value{kind: KindObject, objVal: obj}, nil
	default:
		return Value{}, fmt.Errorf("jsonrpc2: unrepresentable decoded value %T", in)
	}
}

// field looks up a key in an Object Value.
func (v Value) field(name string) (Value, bool) {
	for _, m := range v.objVal {
		if m.key == name {
			return m.val, true
		}
	}
	return Value{}, false
}
