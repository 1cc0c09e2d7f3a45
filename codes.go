// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

// Code is an error code as defined in the JSON-RPC spec.
type Code int64

// list of JSON-RPC error codes.
const (
	// ParseError is the invalid JSON was received by the server.
	// An error occurred on the server while parsing the JSON text.
	ParseError Code = -32700

	// InvalidRequest is the JSON sent is not a valid Request object.
	InvalidRequest Code = -32600

	// MethodNotFound is the method does not exist / is not available.
	MethodNotFound Code = -32601

	// InvalidParams is the invalid method parameter(s).
	InvalidParams Code = -32602

	// InternalError is the internal JSON-RPC error.
	InternalError Code = -32603

	// ServerError is returned for handler failures that carry no
	// dedicated *Error; the wire message is masked to a generic string
	// and the real failure is only logged (spec.md §4.D step 7, §7.6).
	ServerError Code = -32000
)

// Version is the JSON-RPC protocol version this package implements.
const Version = "2.0"

// list of standard JSON-RPC errors, ready to wrap or compare against with
// errors.Is.
var (
	// ErrParse is used when invalid JSON was received by the server.
	ErrParse = NewError(ParseError, "Invalid JSON")

	// ErrInvalidRequest is used when the JSON sent is not a valid Request object.
	ErrInvalidRequest = NewError(InvalidRequest, "JSON 2.0 required")

	// ErrNoID is used when the request carries no "id" member.
	ErrNoID = NewError(InvalidRequest, "No id specified")

	// ErrNoMethod is used when the request carries no "method" member.
	ErrNoMethod = NewError(InvalidRequest, "No method requested")

	// ErrMethodNotFound should be returned by the handler when the method does
	// not exist / is not available.
	ErrMethodNotFound = NewError(MethodNotFound, "Method not found")

	// ErrInvalidParams should be returned by the handler when method
	// parameter(s) were invalid.
	ErrInvalidParams = NewError(InvalidParams, "Invalid params")
)
