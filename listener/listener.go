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

// Package listener is the uniform accept-producing source over TCP,
// UNIX-domain and TLS-wrapped TCP bindings (spec §4.1). It is the only part
// of the runtime that knows how to turn a Spec into a bound socket, and how
// to turn a bound socket's file descriptor back into a Listener after a
// restart handover.
package listener

import (
	"net"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

// Kind identifies which concrete binding a Spec or inherited Listener uses.
// The string values are also the SERVER_INHERITED_KIND environment variable
// values and the bind:// URI scheme (spec §6).
type Kind string

const (
	KindTCP  Kind = "tcp"
	KindUnix Kind = "unix"
	KindTLS  Kind = "tls"
)

// Listener is the accept-producing source the supervisor's accept loop reads
// from. It is exactly the subset of net.Listener the supervisor needs, named
// per spec §4.1.
type Listener interface {
	// Accept blocks until a connection arrives or the listener is closed by
	// the supervisor, in which case it returns ErrAcceptInterrupted.
	Accept() (net.Conn, error)

	// Close stops the listener from producing new connections. For UNIX
	// sockets it also unlinks the path -- see CloseKeepPath to keep it.
	Close() error

	// CloseKeepPath closes the accept side without unlinking a UNIX socket
	// path, used on the predecessor side of a restart handover (spec §4.1,
	// §4.5 Draining) where the successor reuses the inherited path.
	CloseKeepPath() error

	// Addr returns the listener's network address.
	Addr() net.Addr

	// UnderlyingFD returns a dup()'d, inheritable file descriptor suitable
	// for passing to a successor process (spec §4.1, §4.5.2).
	UnderlyingFD() (uintptr, error)

	// Kind reports which concrete binding this Listener wraps.
	Kind() Kind
}

// ErrAcceptInterrupted is returned by Accept once the supervisor has closed
// the listener to stop the accept loop (spec §4.1).
var ErrAcceptInterrupted = xerrors.AcceptTransient.Error(nil)

// Spec describes how to bind (or re-bind) a Listener (spec §3, §6).
type Spec struct {
	Kind Kind

	// TCP / TLS
	Host string
	Port int

	// UNIX
	Path string

	// TLS
	CertFile      string
	KeyFile       string
	MinTLSVersion uint16 // crypto/tls.VersionTLS12, etc. 0 means library default.
	MaxTLSVersion uint16 // crypto/tls.VersionTLS13, etc. 0 means library default.
}

// New binds a fresh Listener per Spec.Kind, failing with BindFailed when the
// address is in use or permissions are denied (spec §4.1).
func New(spec Spec) (Listener, error) {
	switch spec.Kind {
	case KindTCP:
		return newTCP(spec)
	case KindUnix:
		return newUnix(spec)
	case KindTLS:
		return newTLS(spec)
	default:
		return nil, xerrors.ConfigurationInvalid.Error(nil)
	}
}

// Inherit reconstructs a Listener from a file descriptor handed down by a
// predecessor process (spec §4.1, §6). It fails with InheritFailed if the
// handle is invalid or spec.Kind disagrees with the inherited kind.
func Inherit(fd uintptr, spec Spec) (Listener, error) {
	switch spec.Kind {
	case KindTCP:
		return inheritTCP(fd, spec)
	case KindUnix:
		return inheritUnix(fd, spec)
	case KindTLS:
		return inheritTLS(fd, spec)
	default:
		return nil, xerrors.InheritFailed.Error(nil)
	}
}
