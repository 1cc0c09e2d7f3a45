// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// ID is a request identifier.
//
// An ID holds either a string or a number, and isString records which of
// the two is in use (spec.md §3's "any JSON scalar, typically integer or
// string").
type ID struct {
	name     string
	number   int64
	isString bool
}

// compile time check whether the ID implements a fmt.Formatter, json.Marshaler and json.Unmarshaler interfaces.
var (
	_ fmt.Formatter    = (*ID)(nil)
	_ json.Marshaler   = (*ID)(nil)
	_ json.Unmarshaler = (*ID)(nil)
)

// NewNumberID returns a new number request ID.
func NewNumberID(v int64) ID { return ID{number: v} }

// NewStringID returns a new string request ID.
func NewStringID(v string) ID { return ID{name: v, isString: true} }

// IsString reports whether id was constructed from a string.
func (id ID) IsString() bool { return id.isString }

// String returns a string representation of id, suitable as a pending-map
// key (spec.md §3: "pending map id-string → completion-slot").
func (id ID) String() string {
	if id.isString {
		return id.name
	}
	return strconv.FormatInt(id.number, 10)
}

// Format writes the ID to the formatter.
//
// If the rune is q the representation is non ambiguous: string forms are
// quoted, number forms are preceded by a #.
func (id ID) Format(f fmt.State, r rune) {
	numF, strF := `%d`, `%s`
	if r == 'q' {
		numF, strF = `#%d`, `%q`
	}

	switch {
	case id.isString:
		fmt.Fprintf(f, strF, id.name)
	default:
		fmt.Fprintf(f, numF, id.number)
	}
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.name)
	}
	return json.Marshal(id.number)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}
	if err := json.Unmarshal(data, &id.number); err == nil {
		return nil
	}
	id.isString = true
	return json.Unmarshal(data, &id.name)
}

// wireRequest is the wire form of a JSON-RPC call (spec.md §3 "Request").
type wireRequest struct {
	// JSONRPC must equal Version.
	JSONRPC string `json:"jsonrpc"`
	// Method is the name of the method to invoke.
	Method string `json:"method"`
	// Params is an array of positional parameters; by-name params are not
	// supported (spec.md §3).
	Params json.RawMessage `json:"params"`
	// ID ties the response back to this request. Required; notifications
	// (missing id) are not supported.
	ID *ID `json:"id"`
}

// wireResponse is the wire form of a JSON-RPC reply (spec.md §3 "Response").
//
// Both Result and Error are always present on the wire, with the unused
// one encoded as null; this is a deliberate quirk (spec.md §3, §9)
// tolerated by, but not required of, compliant peers.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
	ID      *ID             `json:"id"`
}

// combined carries every field of both wireRequest and wireResponse so a
// line can be decoded once and then classified by the caller.
type combined struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
	ID      *ID             `json:"id"`
}

// isResponse reports whether the decoded combined message looks like a
// response rather than a request (spec.md §4.F reader loop: "extract id
// ... look up its slot").
func (c *combined) isResponse() bool {
	return c.Method == ""
}
