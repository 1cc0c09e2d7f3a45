// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"fmt"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
)

// unpackParams splits a params array into one reflect.Value per declared
// positional argument type (spec.md §4.B "Param-array unpacking").
func unpackParams(raw json.RawMessage, declared []reflect.Type) ([]reflect.Value, *Error) {
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}

	v, err := decodeValue(raw)
	if err != nil {
		return nil, ErrInvalidParams
	}
	if v.Kind() != KindArray {
		return nil, ErrInvalidParams
	}
	if len(v.arrVal) != len(declared) {
		return nil, Errorf(InvalidParams, "expected %d parameter(s), got %d", len(declared), len(v.arrVal))
	}

	out := make([]reflect.Value, len(declared))
	for i, t := range declared {
		rv := reflect.New(t).Elem()
		if ierr := unmarshalValue(v.arrVal[i], fmt.Sprintf("arg%d", i), rv); ierr != nil {
			return nil, ierr
		}
		out[i] = rv
	}
	return out, nil
}

// unmarshalValue converts a decoded JSON Value into rv, which must be an
// addressable reflect.Value of the target type. It implements the rules of
// spec.md §4.B.
func unmarshalValue(v Value, argName string, rv reflect.Value) *Error {
	t := rv.Type()

	switch t.Kind() {
	case reflect.Bool:
		if v.Kind() != KindBool {
			return invalidParamKind(argName, "bool", v.Kind())
		}
		rv.SetBool(v.boolVal)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Kind() != KindInt {
			return invalidParamKind(argName, "int", v.Kind())
		}
		rv.SetInt(v.intVal)

	case reflect.Uint8:
		if v.Kind() != KindInt {
			return invalidParamKind(argName, "byte", v.Kind())
		}
		if v.intVal < 0 || v.intVal > 255 {
			return invalidParamf(argName, "byte value out of range: %d", v.intVal)
		}
		rv.SetUint(uint64(v.intVal))

	case reflect.Uint64:
		// Reinterpreted bit-for-bit from the signed wire carrier: values
		// above 2^63-1 travel as negative signed JSON integers (spec.md
		// §4.B, §9). Converting a negative int64 to uint64 wraps modulo
		// 2^64, which reproduces the original bit pattern.
		if v.Kind() != KindInt {
			return invalidParamKind(argName, "uint64", v.Kind())
		}
		rv.SetUint(uint64(v.intVal))

	case reflect.Uint, reflect.Uint16, reflect.Uint32:
		if v.Kind() != KindInt {
			return invalidParamKind(argName, "uint", v.Kind())
		}
		if v.intVal < 0 {
			return invalidParamf(argName, "negative value for unsigned field: %d", v.intVal)
		}
		if rv.OverflowUint(uint64(v.intVal)) {
			return invalidParamf(argName, "value out of range: %d", v.intVal)
		}
		rv.SetUint(uint64(v.intVal))

	case reflect.Float32, reflect.Float64:
		if v.Kind() != KindFloat {
			return invalidParamKind(argName, "float", v.Kind())
		}
		rv.SetFloat(v.floatVal)

	case reflect.String:
		if v.Kind() != KindString {
			return invalidParamKind(argName, "string", v.Kind())
		}
		rv.SetString(v.strVal)

	case reflect.Slice:
		if v.Kind() == KindNull {
			rv.Set(reflect.Zero(t))
			return nil
		}
		if v.Kind() != KindArray {
			return invalidParamKind(argName, "array", v.Kind())
		}
		out := reflect.MakeSlice(t, len(v.arrVal), len(v.arrVal))
		for i, elem := range v.arrVal {
			if err := unmarshalValue(elem, fmt.Sprintf("%s[%d]", argName, i), out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)

	case reflect.Array:
		if v.Kind() != KindArray {
			return invalidParamKind(argName, "array", v.Kind())
		}
		if len(v.arrVal) > t.Len() {
			return invalidParamf(argName, "array too long: got %d, want at most %d", len(v.arrVal), t.Len())
		}
		for i := 0; i < t.Len(); i++ {
			if i >= len(v.arrVal) {
				// Elements beyond the supplied count retain their zero
				// value (spec.md §4.B "Fixed arrays").
				continue
			}
			if err := unmarshalValue(v.arrVal[i], fmt.Sprintf("%s[%d]", argName, i), rv.Index(i)); err != nil {
				return err
			}
		}

	case reflect.Ptr:
		if v.Kind() == KindNull {
			rv.Set(reflect.Zero(t))
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := unmarshalValue(v, argName, elem.Elem()); err != nil {
			return err
		}
		rv.Set(elem)

	case reflect.Struct:
		if v.Kind() != KindObject {
			return invalidParamKind(argName, "object", v.Kind())
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			name, omitempty := fieldNameTag(f)
			fv, ok := v.field(name)
			if !ok {
				// A field is required unless tagged omitempty or its Go
				// type is a pointer (spec.md §4.B "Param-array unpacking");
				// both cases leave the field at its zero value.
				if omitempty || f.Type.Kind() == reflect.Ptr {
					continue
				}
				return invalidParamf(argName, "missing field %q", name)
			}
			if err := unmarshalValue(fv, argName+"."+name, rv.Field(i)); err != nil {
				return err
			}
		}

	default:
		return Errorf(InternalError, "%s: unsupported parameter type %s", argName, t)
	}
	return nil
}

// marshalResult converts a native Go value returned by a handler into a
// json.RawMessage, applying the same rules as unmarshalValue in reverse
// (spec.md §4.B "The inverse direction converts a native value to JSON").
func marshalResult(v interface{}) (json.RawMessage, *Error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	val, err := marshalNative(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	data, merr := marshalValueTree(val)
	if merr != nil {
		return nil, Errorf(InternalError, "marshal result: %v", merr)
	}
	return json.RawMessage(data), nil
}

func marshalNative(rv reflect.Value) (Value, *Error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Value{kind: KindBool, boolVal: rv.Bool()}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{kind: KindInt, intVal: rv.Int()}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// Uint64 is deliberately encoded via the same bit-reinterpret
		// quirk used on the unmarshal side (spec.md §4.B, §9).
		return Value{kind: KindInt, intVal: int64(rv.Uint())}, nil

	case reflect.Float32, reflect.Float64:
		return Value{kind: KindFloat, floatVal: rv.Float()}, nil

	case reflect.String:
		return Value{kind: KindString, strVal: rv.String()}, nil

	case reflect.Slice:
		if rv.IsNil() {
			return Value{kind: KindNull}, nil
		}
		fallthrough
	case reflect.Array:
		arr := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := marshalNative(rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{kind: KindArray, arrVal: arr}, nil

	case reflect.Ptr:
		if rv.IsNil() {
			return Value{kind: KindNull}, nil
		}
		return marshalNative(rv.Elem())

	case reflect.Interface:
		if rv.IsNil() {
			return Value{kind: KindNull}, nil
		}
		return marshalNative(rv.Elem())

	case reflect.Struct:
		t := rv.Type()
		obj := make([]member, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			v, err := marshalNative(rv.Field(i))
			if err != nil {
				return Value{}, err
			}
			obj = append(obj, member{key: fieldName(f), val: v})
		}
		return Value{kind: KindObject, objVal: obj}, nil

	case reflect.Map:
		obj := make([]member, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			v, err := marshalNative(iter.Value())
			if err != nil {
				return Value{}, err
			}
			obj = append(obj, member{key: fmt.Sprint(iter.Key().Interface()), val: v})
		}
		return Value{kind: KindObject, objVal: obj}, nil

	default:
		return Value{}, Errorf(InternalError, "unsupported result type %s", rv.Type())
	}
}

// marshalValueTree renders a Value tree to JSON bytes via the package's
// default codec.
func marshalValueTree(v Value) ([]byte, error) {
	return DefaultCodec.Marshal(valueToNative(v))
}

func valueToNative(v Value) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindString:
		return v.strVal
	case KindArray:
		arr := make([]interface{}, len(v.arrVal))
		for i, e := range v.arrVal {
			arr[i] = valueToNative(e)
		}
		return arr
	case KindObject:
		obj := make(map[string]interface{}, len(v.objVal))
		for _, m := range v.objVal {
			obj[m.key] = valueToNative(m.val)
		}
		return obj
	default:
		return nil
	}
}

// fieldName derives the wire name of a struct field from its json tag,
// falling back to the Go field name.
func fieldName(f reflect.StructField) string {
	name, _ := fieldNameTag(f)
	return name
}

// fieldNameTag is fieldName plus whether the field's json tag carries the
// omitempty option.
func fieldNameTag(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" || name == "-" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func invalidParamKind(argName, want string, got Kind) *Error {
	return Errorf(InvalidParams, "%s: expected %s, got %s", argName, want, got)
}

func invalidParamf(argName, format string, args ...interface{}) *Error {
	return Errorf(InvalidParams, "%s: "+format, append([]interface{}{argName}, args...)...)
}
