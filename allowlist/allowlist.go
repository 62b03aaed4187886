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

// Package allowlist filters remote addresses against a list of CIDR ranges
// before a connection is registered or dispatched (spec §4.1 invariant 5,
// §4.6).
package allowlist

import (
	"net"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

// List is an ordered set of CIDR ranges. An empty List allows every address,
// matching spec §6's "allowed_networks unset means allow all" default.
type List struct {
	nets []*net.IPNet
	raw  []string
}

// New parses cidrs into a List. Order is preserved but irrelevant to the
// result: matching is first-match-wins only in the sense that any match
// allows the address.
func New(cidrs []string) (*List, error) {
	l := &List{raw: cidrs}

	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, xerrors.ConfigurationInvalid.Error(err)
		}
		l.nets = append(l.nets, n)
	}

	return l, nil
}

// Allows reports whether addr is permitted. A nil or empty List allows
// everything.
func (l *List) Allows(addr net.Addr) bool {
	if l == nil || len(l.nets) == 0 {
		return true
	}

	ip := extractIP(addr)
	if ip == nil {
		return false
	}

	for _, n := range l.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Ranges returns the CIDR strings the list was built from, for logging.
func (l *List) Ranges() []string {
	if l == nil {
		return nil
	}
	return l.raw
}

func extractIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	case *net.UnixAddr:
		// UNIX-domain peers have no IP; allowlisting does not apply to them,
		// treat as always allowed by returning a loopback sentinel.
		return net.IPv4(127, 0, 0, 1)
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}
}
