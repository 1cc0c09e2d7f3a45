// SPDX-FileCopyrightText: Copyright 2021 The Go Language Server Authors
// SPDX-License-Identifier: BSD-3-Clause

package jsonrpc2

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrAddressUnresolvable is returned when none of the addresses given to
// NewListener resolved to any endpoint (spec.md §4.E).
var ErrAddressUnresolvable = errors.New("jsonrpc2: address unresolvable")

// ErrBindError is returned when no resolved endpoint could be bound
// (spec.md §4.E).
var ErrBindError = errors.New("jsonrpc2: bind error")

// Listener accepts connections on one or more resolved endpoints and hands
// each one to a Server (spec.md §4.E "Stream transport binding").
type Listener struct {
	server    *Server
	logger    *zap.Logger
	listeners []net.Listener

	wg      sync.WaitGroup
	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewListener resolves each address in addrs (accepted as "host:port") to
// zero or more IPv4/IPv6 endpoints and binds a listener to every resolved
// endpoint, so e.g. "localhost:0" typically binds both loopbacks.
// Resolving nothing at all is a fatal ErrAddressUnresolvable; binding
// nothing at all is a fatal ErrBindError. Partial success — some
// endpoints resolved and bound, others not — is tolerated, grounded on the
// teacher's serve.go/net.go multi-listener Server, generalized from a
// single address to many and adapted to aggregate partial failures via
// multierr instead of failing outright.
func NewListener(ctx context.Context, server *Server, addrs ...string) (*Listener, error) {
	type endpoint struct {
		network string
		addr    string
	}
	var endpoints []endpoint
	var resolveErrs error

	for _, addr := range addrs {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			resolveErrs = multierr.Append(resolveErrs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			resolveErrs = multierr.Append(resolveErrs, fmt.Errorf("resolve %s: %w", host, err))
			continue
		}
		for _, ip := range ips {
			endpoints = append(endpoints, endpoint{network: "tcp", addr: net.JoinHostPort(ip.IP.String(), port)})
		}
	}
	if len(endpoints) == 0 {
		if resolveErrs == nil {
			resolveErrs = errors.New("no addresses given")
		}
		return nil, fmt.Errorf("%w: %v", ErrAddressUnresolvable, resolveErrs)
	}

	l := &Listener{server: server, logger: server.logger, conns: make(map[net.Conn]struct{})}

	var bindErrs error
	for _, ep := range endpoints {
		ln, err := net.Listen(ep.network, ep.addr)
		if err != nil {
			bindErrs = multierr.Append(bindErrs, fmt.Errorf("bind %s: %w", ep.addr, err))
			continue
		}
		l.listeners = append(l.listeners, ln)
	}
	if len(l.listeners) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrBindError, bindErrs)
	}
	if bindErrs != nil {
		l.logger.Warn("jsonrpc2: some endpoints failed to bind", zap.Error(bindErrs))
	}

	return l, nil
}

// Start begins accepting connections on every bound endpoint. Each accept
// loop, and each accepted connection's Server.ServeConn, runs in its own
// goroutine; Start returns immediately.
func (l *Listener) Start(ctx context.Context) {
	for _, ln := range l.listeners {
		go l.acceptLoop(ctx, ln)
	}
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Error("jsonrpc2: accept", zap.Error(err))
			return
		}
		l.trackConn(conn)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.untrackConn(conn)
			if err := l.server.ServeConn(ctx, conn); err != nil {
				l.logger.Debug("jsonrpc2: connection ended", zap.Error(err))
			}
		}()
	}
}

func (l *Listener) trackConn(conn net.Conn) {
	l.connsMu.Lock()
	l.conns[conn] = struct{}{}
	l.connsMu.Unlock()
}

func (l *Listener) untrackConn(conn net.Conn) {
	l.connsMu.Lock()
	delete(l.conns, conn)
	l.connsMu.Unlock()
}

// Addrs returns the local address of every bound endpoint.
func (l *Listener) Addrs() []net.Addr {
	addrs := make([]net.Addr, len(l.listeners))
	for i, ln := range l.listeners {
		addrs[i] = ln.Addr()
	}
	return addrs
}

// Stop closes every bound endpoint so no new connections are accepted, then
// waits for connections already handed to Server.ServeConn to finish on
// their own (spec.md §4.E "Listeners expose start, stop, close."),
// generalized from the teacher's serve.go idleListener/Wait machinery.
func (l *Listener) Stop() error {
	err := l.closeListeners()
	l.wg.Wait()
	return err
}

// Close stops accepting new connections like Stop, but also forcibly
// severs every connection still in flight instead of waiting for it to
// finish, grounded on the same idleListener/Wait shutdown path adapted to
// a non-graceful variant.
func (l *Listener) Close() error {
	err := l.closeListeners()

	l.connsMu.Lock()
	conns := make([]net.Conn, 0, len(l.conns))
	for conn := range l.conns {
		conns = append(conns, conn)
	}
	l.connsMu.Unlock()

	for _, conn := range conns {
		err = multierr.Append(err, conn.Close())
	}

	l.wg.Wait()
	return err
}

func (l *Listener) closeListeners() error {
	var err error
	for _, ln := range l.listeners {
		err = multierr.Append(err, ln.Close())
	}
	return err
}
