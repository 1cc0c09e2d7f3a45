// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Response is the uniform result of a Client.Call: exactly one of Result
// or Err carries meaningful content.
type Response struct {
	Result json.RawMessage
	Err    *Error
}

// ClientOption configures a Client constructed by Dial or NewClient.
type ClientOption func(*Client)

// WithClientLogger sets the structured logger used for internal
// diagnostics. Defaults to zap.NewNop().
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithClientCodec overrides the wire Codec. Defaults to DefaultCodec.
func WithClientCodec(codec Codec) ClientOption {
	return func(c *Client) { c.codec = codec }
}

// Client issues JSON-RPC calls over a single connected stream transport
// and demultiplexes replies by id (spec.md §4.F "Client core").
type Client struct {
	conn   net.Conn
	logger *zap.Logger
	codec  Codec

	nextID *atomic.Int64

	mu       sync.Mutex
	pending  map[string]chan *Response
	closed   bool
	closeErr error
}

// Dial connects to addr over network ("tcp" in typical use) and starts
// the client's reader loop.
func Dial(ctx context.Context, network, addr string, opts ...ClientOption) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, opts...), nil
}

// NewClient wraps an already-connected stream transport and starts its
// reader loop.
func NewClient(conn net.Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:    conn,
		logger:  zap.NewNop(),
		codec:   DefaultCodec,
		nextID:  atomic.NewInt64(0),
		pending: make(map[string]chan *Response),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// Call issues method with the given positional params (a JSON array) and
// blocks until the matching response arrives, ctx is canceled, or the
// transport closes (spec.md §4.F).
func (c *Client) Call(ctx context.Context, method string, params json.RawMessage) (*Response, error) {
	id := NewNumberID(c.nextID.Inc())
	key := id.String()
	slot := make(chan *Response, 1)

	c.mu.Lock()
	if c.closed {
		err := c.closeErr
		c.mu.Unlock()
		return nil, err
	}
	c.pending[key] = slot
	c.mu.Unlock()

	req := &wireRequest{JSONRPC: Version, Method: method, Params: params, ID: &id}
	data, err := c.codec.Marshal(req)
	if err != nil {
		c.deletePending(key)
		return nil, err
	}
	data = append(data, '\r', '\n')

	if _, err := c.conn.Write(data); err != nil {
		c.deletePending(key)
		return nil, err
	}

	start := time.Now()
	select {
	case resp := <-slot:
		c.logger.Debug("jsonrpc2: call completed",
			zap.String("method", method), zap.String("id", key), zap.Duration("elapsed", time.Since(start)))
		return resp, nil
	case <-ctx.Done():
		c.deletePending(key)
		c.logger.Debug("jsonrpc2: call canceled", zap.String("method", method), zap.String("id", key))
		return nil, ctx.Err()
	}
}

func (c *Client) deletePending(key string) {
	c.mu.Lock()
	if c.pending != nil {
		delete(c.pending, key)
	}
	c.mu.Unlock()
}

// readLoop demultiplexes incoming responses by id until the connection
// closes, then fails every outstanding call (spec.md §3 invariant: "every
// entry added to the pending map is eventually resolved or the transport
// is closed; no silent orphans").
func (c *Client) readLoop() {
	r := bufio.NewReaderSize(c.conn, 4096)
	for {
		line, err := readLine(r, maxLineSize)
		if err != nil {
			c.closeWith(fmt.Errorf("jsonrpc2: client transport closed: %w", err))
			return
		}

		var resp wireResponse
		if err := c.codec.Unmarshal(line, &resp); err != nil {
			c.logger.Warn("jsonrpc2: client: malformed response", zap.Error(err))
			continue
		}
		if resp.ID == nil {
			continue
		}

		key := resp.ID.String()
		c.mu.Lock()
		slot, ok := c.pending[key]
		if ok {
			delete(c.pending, key)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}
		slot <- &Response{Result: resp.Result, Err: resp.Error}
	}
}

// closeWith closes the transport and fails every pending call with err.
func (c *Client) closeWith(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = err
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, slot := range pending {
		slot <- &Response{Err: Errorf(InternalError, "jsonrpc2: transport closed")}
	}
	c.conn.Close()
}

// Close closes the client's transport, failing every outstanding call.
func (c *Client) Close() error {
	c.closeWith(errors.New("jsonrpc2: client closed"))
	return nil
}
