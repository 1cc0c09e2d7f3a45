// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	json "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
)

// Codec is the wire-level encode/decode strategy used by a Server or
// Client. The teacher repo treats the JSON backend as swappable
// infrastructure (its Framer/Stream split between a raw and a header
// stream, each with json/gojay/json-iterator variants); this package keeps
// that idea but narrows it to a single responsibility: turning a wire
// envelope (wireRequest, wireResponse, combined) into bytes and back.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// GoJSONCodec is the default Codec, backed by github.com/goccy/go-json.
// It is grounded on the teacher's stream_json.go/message_json.go.
type GoJSONCodec struct{}

// Marshal implements Codec.
func (GoJSONCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (GoJSONCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// jsoniterAPI is configured to match encoding/json semantics, sorted map
// keys included, per the teacher's direct require on json-iterator/go.
var jsoniterAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONIterCodec is an alternate Codec backed by github.com/json-iterator/go,
// selectable via WithCodec/WithClientCodec/WithHTTPCodec the same way
// GojayCodec is. It operates at the same wire-envelope layer as the other
// two codecs; the marshalling layer's per-argument rules (byte-range
// checks, the uint64 bit-reinterpret quirk, fixed-array zero-fill) are
// implemented directly against the Value tree in value.go instead, since
// no generic decoder can express them without per-type hooks.
type JSONIterCodec struct{}

// Marshal implements Codec.
func (JSONIterCodec) Marshal(v interface{}) ([]byte, error) { return jsoniterAPI.Marshal(v) }

// Unmarshal implements Codec.
func (JSONIterCodec) Unmarshal(data []byte, v interface{}) error {
	return jsoniterAPI.Unmarshal(data, v)
}

// DefaultCodec is used by NewServer/NewClient/NewHTTPClient when no
// WithCodec option is supplied.
var DefaultCodec Codec = GoJSONCodec{}
