// SPDX-FileCopyrightText: 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package jsonrpc2 implements the JSON-RPC 2.0 request/response protocol
// over pluggable byte-stream transports.
//
// Unlike bidirectional JSON-RPC implementations built for protocols such as
// LSP, this package models a one-shot call/response exchange: a Server
// accepts connections and dispatches registered methods, a Client issues
// calls and correlates responses by id. Notifications, batch requests and
// server-to-client calls are not supported.
package jsonrpc2 // import "github.com/status-im/go-jsonrpc2"
