// Copyright 2019 The go-language-server Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonrpc2

import (
	"fmt"

	json "github.com/goccy/go-json"
	"golang.org/x/xerrors"
)

// Error represents a JSON-RPC 2.0 error object: {code, message, data, id}.
//
// A *Error returned from a registered handler is propagated to the wire
// verbatim (spec.md §4.D step 7 / §7.5); any other error is masked behind
// ServerError.
type Error struct {
	// Code is a number indicating the error type that occurred.
	Code Code `json:"code"`

	// Message is a short description of the error.
	Message string `json:"message"`

	// Data is a primitive or structured value with additional information
	// about the error. May be nil.
	Data *json.RawMessage `json:"data,omitempty"`

	// ID is the id of the request that produced the error, when known.
	ID *ID `json:"id,omitempty"`

	frame xerrors.Frame
	err   error
}

// make sure Error implements the error interface.
var _ error = (*Error)(nil)

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, c rune) {
	xerrors.FormatError(e, s, c)
}

// FormatError implements xerrors.Formatter.
func (e *Error) FormatError(p xerrors.Printer) (next error) {
	if e.Message == "" {
		p.Printf("code=%v", e.Code)
	} else {
		p.Printf("%s (code=%v)", e.Message, e.Code)
	}
	e.frame.Format(p)

	return e.err
}

// Unwrap implements xerrors.Wrapper.
func (e *Error) Unwrap() error {
	return e.err
}

// NewError builds an Error for the supplied code and message.
func NewError(c Code, message string) *Error {
	e := &Error{
		Code:    c,
		Message: message,
		frame:   xerrors.Caller(1),
	}
	e.err = xerrors.New(e.Message)

	return e
}

// Errorf builds an Error for the supplied code, format and args.
func Errorf(c Code, format string, args ...interface{}) *Error {
	e := &Error{
		Code:    c,
		Message: fmt.Sprintf(format, args...),
		frame:   xerrors.Caller(1),
	}
	e.err = xerrors.New(e.Message)

	return e
}

// withData returns a copy of e carrying the supplied data value, marshaled
// with the package's default codec.
func (e *Error) withData(data interface{}) *Error {
	if data == nil {
		return e
	}
	raw, err := GoJSONCodec{}.Marshal(data)
	if err != nil {
		return e
	}
	msg := json.RawMessage(raw)
	cp := *e
	cp.Data = &msg
	return &cp
}
