// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
)

// Handler answers one registered method call with the raw params JSON,
// returning the raw result JSON or a failure. A *Error failure is
// propagated to the wire verbatim; any other error is masked as
// ServerError by the caller (spec.md §4.D step 7).
type Handler func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// registry is a keyed mapping from method name to Handler (spec.md §4.C).
// Registration after Serve has started is safe but not required to be
// race-free against concurrent lookups from other connections without the
// mutex, which is why every access goes through it.
type registry struct {
	mu sync.RWMutex
	m  map[string]Handler
}

func newRegistry() *registry {
	return &registry{m: make(map[string]Handler)}
}

// register binds name to h. A later call with the same name silently
// replaces the earlier binding (spec.md §4.C: "last write wins — this is
// not an error").
func (r *registry) register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = h
}

// lookup returns the handler bound to name, if any.
func (r *registry) lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.m[name]
	return h, ok
}

// clear removes every registered method.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = make(map[string]Handler)
}
