// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"fmt"

	"github.com/francoispqt/gojay"

	json "github.com/goccy/go-json"
)

// GojayCodec is an alternate, allocation-light Codec backed by
// github.com/francoispqt/gojay, adapted from the teacher's
// wire_gojay.go/message_gojay.go/error_gojay.go. It only understands the
// wire envelope types this package actually puts on the stream
// (*wireRequest, *wireResponse, *combined); anything else is an error.
type GojayCodec struct{}

// Marshal implements Codec.
func (GojayCodec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case gojay.MarshalerJSONObject:
		return gojay.Marshal(m)
	default:
		return nil, fmt.Errorf("gojay codec: unsupported type %T", v)
	}
}

// Unmarshal implements Codec.
func (GojayCodec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case gojay.UnmarshalerJSONObject:
		return gojay.Unmarshal(data, m)
	default:
		return fmt.Errorf("gojay codec: unsupported type %T", v)
	}
}

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (id *ID) MarshalJSONObject(enc *gojay.Encoder) {
	if id.isString {
		enc.String(id.name)
		return
	}
	enc.Int64(id.number)
}

// IsNil implements gojay.MarshalerJSONObject.
func (id *ID) IsNil() bool { return id == nil }

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (id *ID) UnmarshalJSONObject(dec *gojay.Decoder, _ string) error {
	*id = ID{}
	if err := dec.Int64(&id.number); err == nil {
		return nil
	}
	id.isString = true
	return dec.String(&id.name)
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (id *ID) NKeys() int { return 0 }

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (e *Error) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Int64Key("code", int64(e.Code))
	enc.StringKey("message", e.Message)
	if e.Data != nil {
		emb := gojay.EmbeddedJSON(*e.Data)
		enc.AddEmbeddedJSONKeyOmitEmpty("data", &emb)
	}
}

// IsNil implements gojay.MarshalerJSONObject.
func (e *Error) IsNil() bool { return e == nil }

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (e *Error) UnmarshalJSONObject(dec *gojay.Decoder, k string) error {
	switch k {
	case "code":
		return dec.Int64((*int64)(&e.Code))
	case "message":
		return dec.String(&e.Message)
	case "data":
		var raw gojay.EmbeddedJSON
		if err := dec.EmbeddedJSON(&raw); err != nil {
			return err
		}
		msg := json.RawMessage(raw)
		e.Data = &msg
	}
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (e *Error) NKeys() int { return 0 }

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (r *wireRequest) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("jsonrpc", r.JSONRPC)
	enc.StringKey("method", r.Method)
	if r.Params != nil {
		emb := gojay.EmbeddedJSON(r.Params)
		enc.AddEmbeddedJSONKeyOmitEmpty("params", &emb)
	}
	enc.ObjectKeyOmitEmpty("id", r.ID)
}

// IsNil implements gojay.MarshalerJSONObject.
func (r *wireRequest) IsNil() bool { return r == nil }

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (r *wireRequest) UnmarshalJSONObject(dec *gojay.Decoder, k string) error {
	switch k {
	case "jsonrpc":
		return dec.String(&r.JSONRPC)
	case "method":
		return dec.String(&r.Method)
	case "params":
		var raw gojay.EmbeddedJSON
		if err := dec.EmbeddedJSON(&raw); err != nil {
			return err
		}
		r.Params = json.RawMessage(raw)
	case "id":
		if r.ID == nil {
			r.ID = &ID{}
		}
		return dec.Object(r.ID)
	}
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (r *wireRequest) NKeys() int { return 0 }

// MarshalJSONObject implements gojay.MarshalerJSONObject.
//
// Unlike GoJSONCodec, this does not guarantee both "result" and "error"
// are always present (spec.md §3's preserved quirk) — gojay's encoder has
// no unconditional-null key helper, only omit-if-nil ones. Peers reading
// this codec's output still get a valid response; they just don't see
// the redundant null field GoJSONCodec emits for the unused member.
func (r *wireResponse) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("jsonrpc", r.JSONRPC)
	if r.Result != nil {
		emb := gojay.EmbeddedJSON(r.Result)
		enc.AddEmbeddedJSONKeyOmitEmpty("result", &emb)
	}
	enc.ObjectKeyOmitEmpty("error", r.Error)
	enc.ObjectKeyOmitEmpty("id", r.ID)
}

// IsNil implements gojay.MarshalerJSONObject.
func (r *wireResponse) IsNil() bool { return r == nil }

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (r *wireResponse) UnmarshalJSONObject(dec *gojay.Decoder, k string) error {
	switch k {
	case "jsonrpc":
		return dec.String(&r.JSONRPC)
	case "result":
		var raw gojay.EmbeddedJSON
		if err := dec.EmbeddedJSON(&raw); err != nil {
			return err
		}
		r.Result = json.RawMessage(raw)
	case "error":
		r.Error = &Error{}
		return dec.Object(r.Error)
	case "id":
		if r.ID == nil {
			r.ID = &ID{}
		}
		return dec.Object(r.ID)
	}
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (r *wireResponse) NKeys() int { return 0 }

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (c *combined) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("jsonrpc", c.JSONRPC)
	enc.StringKeyOmitEmpty("method", c.Method)
	if c.Params != nil {
		emb := gojay.EmbeddedJSON(c.Params)
		enc.AddEmbeddedJSONKeyOmitEmpty("params", &emb)
	}
	if c.Result != nil {
		emb := gojay.EmbeddedJSON(c.Result)
		enc.AddEmbeddedJSONKeyOmitEmpty("result", &emb)
	}
	enc.ObjectKeyOmitEmpty("error", c.Error)
	enc.ObjectKeyOmitEmpty("id", c.ID)
}

// IsNil implements gojay.MarshalerJSONObject.
func (c *combined) IsNil() bool { return c == nil }

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (c *combined) UnmarshalJSONObject(dec *gojay.Decoder, k string) error {
	switch k {
	case "jsonrpc":
		return dec.String(&c.JSONRPC)
	case "method":
		return dec.String(&c.Method)
	case "params":
		var raw gojay.EmbeddedJSON
		if err := dec.EmbeddedJSON(&raw); err != nil {
			return err
		}
		c.Params = json.RawMessage(raw)
	case "result":
		var raw gojay.EmbeddedJSON
		if err := dec.EmbeddedJSON(&raw); err != nil {
			return err
		}
		c.Result = json.RawMessage(raw)
	case "error":
		c.Error = &Error{}
		return dec.Object(c.Error)
	case "id":
		if c.ID == nil {
			c.ID = &ID{}
		}
		return dec.Object(c.ID)
	}
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (c *combined) NKeys() int { return 0 }
