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

package listener

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

const handshakeTimeout = 10 * time.Second

type tlsListener struct {
	tcp *tcpListener
	cfg *tls.Config
}

func buildTLSConfig(spec Spec) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(spec.CertFile, spec.KeyFile)
	if err != nil {
		return nil, xerrors.BindFailed.Error(err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	if spec.MinTLSVersion != 0 {
		cfg.MinVersion = spec.MinTLSVersion
	}
	if spec.MaxTLSVersion != 0 {
		cfg.MaxVersion = spec.MaxTLSVersion
	}

	return cfg, nil
}

func newTLS(spec Spec) (Listener, error) {
	cfg, err := buildTLSConfig(spec)
	if err != nil {
		return nil, err
	}

	inner, err := newTCP(spec)
	if err != nil {
		return nil, err
	}

	return &tlsListener{tcp: inner.(*tcpListener), cfg: cfg}, nil
}

func inheritTLS(fd uintptr, spec Spec) (Listener, error) {
	cfg, err := buildTLSConfig(spec)
	if err != nil {
		return nil, err
	}

	inner, err := inheritTCP(fd, spec)
	if err != nil {
		return nil, err
	}

	return &tlsListener{tcp: inner.(*tcpListener), cfg: cfg}, nil
}

// Accept performs the TLS handshake before returning the connection. Per
// spec §4.1, a handshake failure never surfaces to the caller as an accept
// error: the raw connection is closed and the accept loop continues
// transparently from the caller's point of view.
func (t *tlsListener) Accept() (net.Conn, error) {
	for {
		raw, err := t.tcp.Accept()
		if err != nil {
			// Propagate ErrAcceptInterrupted and genuine transient errors;
			// only handshake failures are swallowed.
			return nil, err
		}

		tc := tls.Server(raw, t.cfg)
		if err := tc.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
			_ = raw.Close()
			continue
		}
		if err := tc.Handshake(); err != nil {
			_ = xerrors.TLSHandshakeFailed.Error(err)
			_ = raw.Close()
			continue
		}
		_ = tc.SetDeadline(time.Time{})

		return tc, nil
	}
}

func (t *tlsListener) Close() error {
	return t.tcp.Close()
}

func (t *tlsListener) CloseKeepPath() error {
	return t.tcp.CloseKeepPath()
}

func (t *tlsListener) Addr() net.Addr {
	return t.tcp.Addr()
}

func (t *tlsListener) Kind() Kind {
	return KindTLS
}

func (t *tlsListener) UnderlyingFD() (uintptr, error) {
	return t.tcp.UnderlyingFD()
}
