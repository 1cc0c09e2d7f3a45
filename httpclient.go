// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// rfc1123GMT matches net/http's TimeFormat without importing net/http,
// whose client does not give us the byte-exact read bounds below.
const rfc1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

const (
	httpHeaderMaxBytes = 8 * 1024
	httpHeaderTimeout  = 120 * time.Second
	httpBodyBlockBytes = 4 * 1024
	httpBodyTimeout    = 12 * time.Second
)

// HTTPClient adapts the client core (spec.md §4.F) to a single-shot
// HTTP/1.0 POST per call (spec.md §4.G). It is hand-rolled over net.Dial
// rather than net/http because the spec requires byte-exact header
// (8 KiB / 120 s) and body (4 KiB blocks / 12 s) bounds that net/http's
// client does not expose.
type HTTPClient struct {
	addr   string
	method string
	codec  Codec
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// HTTPClientOption configures an HTTPClient constructed by NewHTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPMethod overrides the HTTP method line. Defaults to "POST"
// (spec.md §4.G).
func WithHTTPMethod(method string) HTTPClientOption {
	return func(c *HTTPClient) { c.method = method }
}

// WithHTTPCodec overrides the wire Codec. Defaults to DefaultCodec.
func WithHTTPCodec(codec Codec) HTTPClientOption {
	return func(c *HTTPClient) { c.codec = codec }
}

// NewHTTPClient builds a client that posts every call to addr
// ("host:port").
func NewHTTPClient(addr string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		addr:   addr,
		method: "POST",
		codec:  DefaultCodec,
		dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends method/params as the single JSON-RPC request in the HTTP
// body and waits for the response body carrying the JSON-RPC response.
func (c *HTTPClient) Call(ctx context.Context, method string, params json.RawMessage) (*Response, error) {
	id := NewNumberID(1)
	req := &wireRequest{JSONRPC: Version, Method: method, Params: params, ID: &id}
	body, err := c.codec.Marshal(req)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := c.writeRequest(conn, body); err != nil {
		return nil, err
	}

	respBody, err := readHTTPResponse(conn)
	if err != nil {
		return nil, err
	}

	var resp wireResponse
	if err := c.codec.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &Response{Result: resp.Result, Err: resp.Error}, nil
}

func (c *HTTPClient) writeRequest(conn net.Conn, body []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s / HTTP/1.0\r\n", c.method)
	fmt.Fprintf(&buf, "Host: %s\r\n", c.addr)
	buf.WriteString("Content-Type: application/json\r\n")
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(rfc1123GMT))
	buf.WriteString("Connection: close\r\n\r\n")
	buf.Write(body)
	_, err := conn.Write(buf.Bytes())
	return err
}

// readHTTPResponse reads the status line and headers, bounded to 8 KiB
// within 120 s and terminated by a bare CRLFCRLF, then reads the declared
// body in 4 KiB blocks within a 12 s total timeout (spec.md §4.G).
func readHTTPResponse(conn net.Conn) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(httpHeaderTimeout)); err != nil {
		return nil, err
	}

	header := make([]byte, 0, 512)
	chunk := make([]byte, 512)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			header = append(header, chunk[:n]...)
			if len(header) > httpHeaderMaxBytes {
				return nil, fmt.Errorf("jsonrpc2: http response headers exceed %d bytes", httpHeaderMaxBytes)
			}
			if idx := bytes.Index(header, []byte("\r\n\r\n")); idx >= 0 {
				return readHTTPBody(conn, header[:idx], header[idx+4:])
			}
		}
		if err != nil {
			return nil, fmt.Errorf("jsonrpc2: reading http headers: %w", err)
		}
	}
}

// readHTTPBody validates the status line and headers in head, then reads
// the body declared by Content-Length, seeded with whatever trailed the
// header terminator in the initial read (already).
func readHTTPBody(conn net.Conn, head, already []byte) ([]byte, error) {
	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, errors.New("jsonrpc2: empty http response")
	}

	statusParts := strings.SplitN(lines[0], " ", 3)
	if len(statusParts) < 2 {
		return nil, fmt.Errorf("jsonrpc2: malformed http status line: %q", lines[0])
	}
	status, err := strconv.Atoi(statusParts[1])
	if err != nil {
		return nil, fmt.Errorf("jsonrpc2: malformed http status code: %q", statusParts[1])
	}
	if status != 200 {
		return nil, fmt.Errorf("jsonrpc2: http status %d", status)
	}

	contentType := ""
	contentLength := -1
	for _, line := range lines[1:] {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch strings.ToLower(key) {
		case "content-type":
			contentType = val
		case "content-length":
			cl, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("jsonrpc2: malformed content-length: %q", val)
			}
			contentLength = cl
		}
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return nil, fmt.Errorf("jsonrpc2: unexpected content-type %q", contentType)
	}
	if contentLength < 0 {
		return nil, errors.New("jsonrpc2: missing content-length")
	}

	if err := conn.SetReadDeadline(time.Now().Add(httpBodyTimeout)); err != nil {
		return nil, err
	}

	body := make([]byte, 0, contentLength)
	body = append(body, already...)
	block := make([]byte, httpBodyBlockBytes)
	for len(body) < contentLength {
		n, err := conn.Read(block)
		if n > 0 {
			body = append(body, block[:n]...)
		}
		if err != nil {
			if err == io.EOF && len(body) >= contentLength {
				break
			}
			return nil, fmt.Errorf("jsonrpc2: reading http body: %w", err)
		}
	}
	return body[:contentLength], nil
}
