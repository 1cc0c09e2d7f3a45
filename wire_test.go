// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import "testing"

func TestIDStringForm(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{NewNumberID(42), "42"},
		{NewStringID("req-1"), "req-1"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("ID.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	for _, id := range []ID{NewNumberID(7), NewStringID("abc")} {
		data, err := id.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON: %v", err)
		}

		var got ID
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if got.String() != id.String() || got.IsString() != id.IsString() {
			t.Errorf("round trip mismatch: got %#v, want %#v", got, id)
		}
	}
}

func TestWireResponseAlwaysEmitsBothFields(t *testing.T) {
	id := NewNumberID(1)
	resp := &wireResponse{JSONRPC: Version, Result: []byte(`"ok"`), ID: &id}

	data, err := GoJSONCodec{}.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	v, err := decodeValue(data)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	if v.Kind() != KindObject {
		t.Fatalf("expected object, got %v", v.Kind())
	}
	if _, ok := v.field("error"); !ok {
		t.Error("expected \"error\" key to be present (null) alongside \"result\"")
	}
	if _, ok := v.field("result"); !ok {
		t.Error("expected \"result\" key to be present")
	}
}
