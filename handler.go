// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"context"
	"reflect"

	json "github.com/goccy/go-json"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// NewHandler builds a Handler by reflecting over fn (spec.md §4.H
// "Handler definition helper"), the way method/newMethod in the pack's
// reflection-based RPC dispatcher derives arity and return shape from a
// function value rather than requiring boilerplate marshalling code per
// method.
//
// fn may optionally start with a context.Context parameter; its remaining
// parameters become the declared positional params. fn may return nothing,
// just an error, just a result, or (result, error). NewHandler panics if fn
// is not a func or has an unsupported signature; this is a programmer
// error caught at registration time, not a runtime condition.
func NewHandler(fn interface{}) Handler {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic("jsonrpc2: NewHandler requires a function value")
	}

	wantsCtx := t.NumIn() > 0 && t.In(0) == ctxType
	start := 0
	if wantsCtx {
		start = 1
	}

	paramTypes := make([]reflect.Type, 0, t.NumIn()-start)
	for i := start; i < t.NumIn(); i++ {
		paramTypes = append(paramTypes, t.In(i))
	}

	var hasResult, hasErr bool
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errType {
			hasErr = true
		} else {
			hasResult = true
		}
	case 2:
		if t.Out(1) != errType {
			panic("jsonrpc2: a handler with two return values must return (result, error)")
		}
		hasResult, hasErr = true, true
	default:
		panic("jsonrpc2: handler functions return at most (result, error)")
	}

	return func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		args, perr := unpackParams(params, paramTypes)
		if perr != nil {
			return nil, perr
		}

		callArgs := make([]reflect.Value, 0, len(args)+1)
		if wantsCtx {
			callArgs = append(callArgs, reflect.ValueOf(ctx))
		}
		callArgs = append(callArgs, args...)

		out := v.Call(callArgs)

		if hasErr {
			if errVal := out[len(out)-1]; !errVal.IsNil() {
				if rpcErr, ok := errVal.Interface().(*Error); ok {
					return nil, rpcErr
				}
				return nil, errVal.Interface().(error)
			}
		}

		if !hasResult {
			return json.RawMessage("null"), nil
		}

		res, merr := marshalResult(out[0].Interface())
		if merr != nil {
			return nil, merr
		}
		return res, nil
	}
}
