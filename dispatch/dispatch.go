/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package dispatch is the glue between an accepted connection and the
// caller-supplied handler (spec §4.6): it checks the allowlist, registers
// the connection, spawns the handler on its own goroutine, and guarantees
// deregistration however the handler exits.
package dispatch

import (
	"fmt"
	"net"

	"github.com/darkphnx/uninterruptible/allowlist"
	"github.com/darkphnx/uninterruptible/internal/logx"
	"github.com/darkphnx/uninterruptible/internal/xerrors"
	"github.com/darkphnx/uninterruptible/registry"
)

// Handler processes one accepted connection to completion. The Dispatcher
// closes conn after the handler returns.
type Handler func(conn net.Conn)

// Dispatcher wires together the allowlist, registry and a Handler.
type Dispatcher struct {
	handler  Handler
	registry *registry.Registry
	allowed  *allowlist.List
	log      logx.FuncLog
}

// New builds a Dispatcher. allowed may be nil, meaning allow everything.
func New(handler Handler, reg *registry.Registry, allowed *allowlist.List, log logx.FuncLog) *Dispatcher {
	return &Dispatcher{handler: handler, registry: reg, allowed: allowed, log: log}
}

// Dispatch checks conn's remote address against the allowlist, and if
// permitted registers it and runs the handler on a new goroutine. Rejected
// connections are closed immediately and never reach the registry or the
// handler (spec §4.1 invariant 5).
func (d *Dispatcher) Dispatch(conn net.Conn) {
	if !d.allowed.Allows(conn.RemoteAddr()) {
		d.log().Entry(logx.WarnLevel, "rejecting connection from disallowed remote").
			Str("remote", conn.RemoteAddr().String()).
			Log()
		_ = xerrors.DisallowedRemote.Error(nil)
		_ = conn.Close()
		return
	}

	id := d.registry.Register(conn, nil)

	go func() {
		defer d.registry.Deregister(id)
		defer func() {
			if r := recover(); r != nil {
				err := xerrors.HandlerFailed.Error(fmt.Errorf("%v", r))
				d.log().Entry(logx.ErrorLevel, "handler panicked").
					Str("remote", conn.RemoteAddr().String()).
					ErrorAdd(err).
					Log()
			}
		}()
		defer conn.Close()

		d.handler(conn)
	}()
}
