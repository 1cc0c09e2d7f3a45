// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"

	json "github.com/goccy/go-json"
)

func dialTestServer(t *testing.T, s *Server) net.Conn {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	go s.ServeConn(context.Background(), serverSide)
	return clientSide
}

func sendLine(t *testing.T, conn net.Conn, line string) *combined {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bufio.NewReader(conn)
	resp, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var c combined
	if err := json.Unmarshal([]byte(resp), &c); err != nil {
		t.Fatalf("unmarshal response %q: %v", resp, err)
	}
	return &c
}

func TestServerParseError(t *testing.T) {
	s := NewServer()
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `not json`)
	if resp.Error == nil || resp.Error.Code != ParseError {
		t.Fatalf("expected ParseError, got %#v", resp.Error)
	}
	if resp.ID != nil {
		t.Errorf("expected null id on parse error, got %v", resp.ID)
	}
}

func TestServerNoID(t *testing.T) {
	s := NewServer()
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"ping","params":[]}`)
	if resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %#v", resp.Error)
	}
}

func TestServerWrongVersion(t *testing.T) {
	s := NewServer()
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"1.0","method":"ping","params":[],"id":1}`)
	if resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %#v", resp.Error)
	}
	if resp.ID == nil || resp.ID.String() != "1" {
		t.Errorf("expected echoed id 1, got %v", resp.ID)
	}
}

func TestServerNoMethod(t *testing.T) {
	s := NewServer()
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","params":[],"id":1}`)
	if resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %#v", resp.Error)
	}
}

func TestServerMethodNotFound(t *testing.T) {
	s := NewServer()
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"missing","params":[],"id":1}`)
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %#v", resp.Error)
	}
}

func TestServerSuccess(t *testing.T) {
	s := NewServer()
	s.RegisterFunc("add", func(a, b int) (int, error) { return a + b, nil })
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"add","params":[2,3],"id":1}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %#v", resp.Error)
	}
	if string(resp.Result) != "5" {
		t.Errorf("result = %s, want 5", resp.Result)
	}
}

func TestServerHandlerFailureIsMasked(t *testing.T) {
	s := NewServer()
	s.Register("boom", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("some unexported failure detail")
	})
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"boom","params":[],"id":1}`)
	if resp.Error == nil || resp.Error.Code != ServerError {
		t.Fatalf("expected ServerError, got %#v", resp.Error)
	}
	if resp.Error.Message != "Error: Unknown error occurred" {
		t.Errorf("expected generic message, got %q", resp.Error.Message)
	}
}

func TestServerHandlerDedicatedErrorPropagates(t *testing.T) {
	s := NewServer()
	s.Register("fail", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return nil, Errorf(InvalidParams, "bad widget")
	})
	conn := dialTestServer(t, s)
	defer conn.Close()

	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"fail","params":[],"id":1}`)
	if resp.Error == nil || resp.Error.Code != InvalidParams || resp.Error.Message != "bad widget" {
		t.Fatalf("expected propagated InvalidParams, got %#v", resp.Error)
	}
}

func TestServerContinuesAfterHandlerError(t *testing.T) {
	s := NewServer()
	s.Register("boom", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("boom")
	})
	s.RegisterFunc("add", func(a, b int) (int, error) { return a + b, nil })
	conn := dialTestServer(t, s)
	defer conn.Close()

	sendLine(t, conn, `{"jsonrpc":"2.0","method":"boom","params":[],"id":1}`)
	resp := sendLine(t, conn, `{"jsonrpc":"2.0","method":"add","params":[1,1],"id":2}`)
	if resp.Error != nil {
		t.Fatalf("expected connection to continue serving after handler error, got %#v", resp.Error)
	}
	if string(resp.Result) != "2" {
		t.Errorf("result = %s, want 2", resp.Result)
	}
}
