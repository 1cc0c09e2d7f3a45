// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRegistryLookup(t *testing.T) {
	r := newRegistry()
	if _, ok := r.lookup("ping"); ok {
		t.Fatal("expected lookup to miss before registration")
	}

	r.register("ping", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage("null"), nil
	})

	h, ok := r.lookup("ping")
	if !ok || h == nil {
		t.Fatal("expected lookup to find registered handler")
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := newRegistry()
	calledFirst := false
	calledSecond := false

	r.register("m", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		calledFirst = true
		return json.RawMessage("null"), nil
	})
	r.register("m", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		calledSecond = true
		return json.RawMessage("null"), nil
	})

	h, ok := r.lookup("m")
	if !ok {
		t.Fatal("expected m to be registered")
	}
	if _, err := h(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if calledFirst || !calledSecond {
		t.Error("expected the second registration to win")
	}
}

func TestRegistryClear(t *testing.T) {
	r := newRegistry()
	r.register("m", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage("null"), nil
	})
	r.clear()
	if _, ok := r.lookup("m"); ok {
		t.Error("expected lookup to miss after clear")
	}
}
