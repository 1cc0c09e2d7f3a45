// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// maxLineSize bounds a single request line (spec.md §4.D "Maximum request
// size: 128 KiB per line.").
const maxLineSize = 128 * 1024

// Server dispatches line-framed JSON-RPC requests arriving on accepted
// connections to registered methods (spec.md §4.D). Its method registry is
// shared read-mostly across every connection it serves.
type Server struct {
	logger *zap.Logger
	codec  Codec
	reg    *registry
}

// Option configures a Server constructed by NewServer, following the
// teacher's functional-options idiom.
type Option func(*Server)

// WithLogger sets the structured logger used for internal diagnostics
// (handler panics, marshal failures). Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCodec overrides the wire Codec. Defaults to DefaultCodec.
func WithCodec(codec Codec) Option {
	return func(s *Server) { s.codec = codec }
}

// NewServer builds an unstarted Server; bind it to one or more addresses
// with NewListener (spec.md §4.E).
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger: zap.NewNop(),
		codec:  DefaultCodec,
		reg:    newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds name to handler (spec.md §4.C). A later call with the
// same name replaces the earlier one.
func (s *Server) Register(name string, handler Handler) {
	s.reg.register(name, handler)
}

// RegisterFunc binds name to a typed Go function, wrapped with NewHandler
// (spec.md §4.H).
func (s *Server) RegisterFunc(name string, fn interface{}) {
	s.reg.register(name, NewHandler(fn))
}

// ServeConn runs the per-connection request loop over conn until the
// connection is closed, the context is canceled, or a transport error
// occurs (spec.md §4.D). It always closes conn before returning.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	s.logger.Debug("jsonrpc2: connection accepted", zap.Stringer("remote", conn.RemoteAddr()))
	defer conn.Close()

	r := bufio.NewReaderSize(conn, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := readLine(r, maxLineSize)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if len(line) == 0 {
			return nil
		}

		start := time.Now()
		resp := s.handleLine(ctx, line)
		fields := []zap.Field{zap.Duration("elapsed", time.Since(start))}
		if resp.ID != nil {
			fields = append(fields, zap.Stringer("id", resp.ID))
		}
		if resp.Error != nil {
			s.logger.Debug("jsonrpc2: request failed", append(fields, zap.Error(resp.Error))...)
		} else {
			s.logger.Debug("jsonrpc2: request handled", fields...)
		}

		data, merr := s.codec.Marshal(resp)
		if merr != nil {
			s.logger.Error("jsonrpc2: marshal response", zap.Error(merr))
			continue
		}
		data = append(data, '\r', '\n')
		if _, werr := conn.Write(data); werr != nil {
			return werr
		}
	}
}

// handleLine implements the validation order and dispatch of spec.md
// §4.D step 3 onward, always returning exactly one response.
func (s *Server) handleLine(ctx context.Context, line []byte) *wireResponse {
	var c combined
	if err := s.codec.Unmarshal(line, &c); err != nil {
		return errorResponse(nil, ErrParse)
	}
	if c.ID == nil {
		return errorResponse(nil, ErrNoID)
	}
	if c.JSONRPC != Version {
		return errorResponse(c.ID, ErrInvalidRequest)
	}
	if c.Method == "" {
		return errorResponse(c.ID, ErrNoMethod)
	}

	handler, ok := s.reg.lookup(c.Method)
	if !ok {
		notFound := Errorf(MethodNotFound, "Method not found").withData(c.Method + " is not a registered method.")
		return errorResponse(c.ID, notFound)
	}

	result, err := func() (res json.RawMessage, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("jsonrpc2: handler panic: %v", p)
			}
		}()
		return handler(ctx, c.Params)
	}()
	if err != nil {
		if _, ok := err.(*Error); !ok {
			s.logger.Error("jsonrpc2: handler failed", zap.String("method", c.Method), zap.Error(err))
		}
		return errorResponse(c.ID, classifyHandlerErr(err))
	}
	if result == nil {
		result = json.RawMessage("null")
	}
	return &wireResponse{JSONRPC: Version, Result: result, ID: c.ID}
}

// classifyHandlerErr implements spec.md §4.D step 7's handler failure
// taxonomy.
func classifyHandlerErr(err error) *Error {
	if rpcErr, ok := err.(*Error); ok {
		return rpcErr
	}
	return Errorf(ServerError, "Error: Unknown error occurred")
}

// errorResponse builds a response carrying rpcErr, copying it so mutating
// its ID does not race with concurrent users of a shared package-level
// sentinel (e.g. ErrParse).
func errorResponse(id *ID, rpcErr *Error) *wireResponse {
	e := *rpcErr
	e.ID = id
	return &wireResponse{JSONRPC: Version, Result: json.RawMessage("null"), Error: &e, ID: id}
}

// readLine reads one CR-LF (or bare LF) terminated line from r, failing if
// it exceeds max bytes (spec.md §4.D "read-line(max)").
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > max {
			return nil, fmt.Errorf("jsonrpc2: request line exceeds %d bytes", max)
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}
