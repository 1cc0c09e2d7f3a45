// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
)

func unpack1(t *testing.T, raw string, zero interface{}) reflect.Value {
	t.Helper()
	rt := reflect.TypeOf(zero)
	out, err := unpackParams(json.RawMessage(raw), []reflect.Type{rt})
	if err != nil {
		t.Fatalf("unpackParams(%s): %v", raw, err)
	}
	return out[0]
}

func TestUnpackParamsScalarKinds(t *testing.T) {
	if v := unpack1(t, `[true]`, false); v.Bool() != true {
		t.Errorf("bool: got %v", v.Bool())
	}
	if v := unpack1(t, `[42]`, int(0)); v.Int() != 42 {
		t.Errorf("int: got %v", v.Int())
	}
	if v := unpack1(t, `[1.5]`, float64(0)); v.Float() != 1.5 {
		t.Errorf("float: got %v", v.Float())
	}
	if v := unpack1(t, `["hi"]`, ""); v.String() != "hi" {
		t.Errorf("string: got %v", v.String())
	}
}

func TestUnpackParamsByteRange(t *testing.T) {
	if v := unpack1(t, `[255]`, byte(0)); v.Uint() != 255 {
		t.Errorf("byte: got %v", v.Uint())
	}
	_, err := unpackParams(json.RawMessage(`[256]`), []reflect.Type{reflect.TypeOf(byte(0))})
	if err == nil {
		t.Error("expected InvalidParams for out-of-range byte")
	}
}

func TestUnpackParamsUint64Quirk(t *testing.T) {
	// math.MaxUint64 travels on the wire as -1 (spec.md §4.B, §9).
	v := unpack1(t, `[-1]`, uint64(0))
	if v.Uint() != ^uint64(0) {
		t.Errorf("uint64 quirk: got %d, want max uint64", v.Uint())
	}
}

func TestUnpackParamsSlice(t *testing.T) {
	v := unpack1(t, `[[1,2,3]]`, []int(nil))
	got := v.Interface().([]int)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("slice length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestUnpackParamsFixedArrayZeroFill(t *testing.T) {
	v := unpack1(t, `[[1,2]]`, [4]int{})
	got := v.Interface().([4]int)
	want := [4]int{1, 2, 0, 0}
	if got != want {
		t.Errorf("fixed array = %v, want %v", got, want)
	}
}

func TestUnpackParamsFixedArrayTooLong(t *testing.T) {
	_, err := unpackParams(json.RawMessage(`[[1,2,3,4,5]]`), []reflect.Type{reflect.TypeOf([4]int{})})
	if err == nil {
		t.Error("expected InvalidParams when array supplies more than N elements")
	}
}

func TestUnpackParamsOptionalPointer(t *testing.T) {
	v := unpack1(t, `[null]`, (*int)(nil))
	if !v.IsNil() {
		t.Error("expected nil pointer for JSON null")
	}

	v = unpack1(t, `[5]`, (*int)(nil))
	if v.IsNil() || v.Elem().Int() != 5 {
		t.Errorf("expected pointer to 5, got %v", v)
	}
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestUnpackParamsStructRecord(t *testing.T) {
	v := unpack1(t, `[{"x":1,"y":2}]`, point{})
	got := v.Interface().(point)
	if got != (point{X: 1, Y: 2}) {
		t.Errorf("struct = %#v", got)
	}
}

func TestUnpackParamsStructMissingField(t *testing.T) {
	_, err := unpackParams(json.RawMessage(`[{"x":1}]`), []reflect.Type{reflect.TypeOf(point{})})
	if err == nil {
		t.Error("expected InvalidParams for missing required field")
	}
}

type withOptional struct {
	Name  string  `json:"name"`
	Nick  *string `json:"nick"`
	Extra string  `json:"extra,omitempty"`
}

func TestUnpackParamsStructOptionalFieldsMayBeAbsent(t *testing.T) {
	v := unpack1(t, `[{"name":"ren"}]`, withOptional{})
	got := v.Interface().(withOptional)
	if got.Name != "ren" || got.Nick != nil || got.Extra != "" {
		t.Errorf("struct = %#v, want only Name set", got)
	}
}

func TestUnpackParamsStructRequiredFieldStillEnforced(t *testing.T) {
	_, err := unpackParams(json.RawMessage(`[{"nick":"r"}]`), []reflect.Type{reflect.TypeOf(withOptional{})})
	if err == nil {
		t.Error("expected InvalidParams for a missing required (non-pointer, non-omitempty) field")
	}
}

type status int

func TestUnpackParamsIntEnum(t *testing.T) {
	v := unpack1(t, `[2]`, status(0))
	if status(v.Int()) != status(2) {
		t.Errorf("enum = %v, want 2", v.Int())
	}
}

func TestUnpackParamsArityMismatch(t *testing.T) {
	_, err := unpackParams(json.RawMessage(`[1,2]`), []reflect.Type{reflect.TypeOf(0)})
	if err == nil {
		t.Error("expected InvalidParams on arity mismatch")
	}
}

func TestMarshalResultRoundTripsUint64Quirk(t *testing.T) {
	raw, err := marshalResult(^uint64(0))
	if err != nil {
		t.Fatalf("marshalResult: %v", err)
	}
	if string(raw) != "-1" {
		t.Errorf("marshalResult(max uint64) = %s, want -1", raw)
	}

	v := unpack1(t, "["+string(raw)+"]", uint64(0))
	if v.Uint() != ^uint64(0) {
		t.Errorf("round trip: got %d, want max uint64", v.Uint())
	}
}

func TestMarshalResultStruct(t *testing.T) {
	raw, err := marshalResult(point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("marshalResult: %v", err)
	}
	v, err := decodeValue(raw)
	if err != nil {
		t.Fatal(err)
	}
	x, ok := v.field("x")
	if !ok || x.intVal != 3 {
		t.Errorf("x = %#v", x)
	}
}
