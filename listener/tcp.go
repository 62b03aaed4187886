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
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

type tcpListener struct {
	l *net.TCPListener
}

func newTCP(spec Spec) (Listener, error) {
	addr := &net.TCPAddr{IP: net.ParseIP(spec.Host), Port: spec.Port}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, xerrors.BindFailed.Error(err)
	}

	return &tcpListener{l: l}, nil
}

func inheritTCP(fd uintptr, spec Spec) (Listener, error) {
	f := os.NewFile(fd, fmt.Sprintf("tcp-inherited-%d", fd))
	ln, err := net.FileListener(f)
	_ = f.Close()
	if err != nil {
		return nil, xerrors.InheritFailed.Error(err)
	}

	tl, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, xerrors.InheritFailed.Error(errors.New("inherited fd is not a tcp listener"))
	}

	return &tcpListener{l: tl}, nil
}

func (t *tcpListener) Accept() (net.Conn, error) {
	c, err := t.l.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrAcceptInterrupted
		}
		return nil, xerrors.AcceptTransient.Error(err)
	}
	return c, nil
}

func (t *tcpListener) Close() error {
	return t.l.Close()
}

func (t *tcpListener) CloseKeepPath() error {
	return t.l.Close()
}

func (t *tcpListener) Addr() net.Addr {
	return t.l.Addr()
}

func (t *tcpListener) Kind() Kind {
	return KindTCP
}

func (t *tcpListener) UnderlyingFD() (uintptr, error) {
	// (*net.TCPListener).File duplicates the socket into a new, blocking-mode
	// descriptor safe to hand to a child process; it does not close the
	// listener's own fd, so the predecessor keeps accepting until it
	// deliberately closes.
	f, err := t.l.File()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	fd := int(f.Fd())
	dup, err := syscall.Dup(fd)
	if err != nil {
		return 0, err
	}
	if err := unix.SetNonblock(dup, false); err != nil {
		_ = syscall.Close(dup)
		return 0, err
	}

	return uintptr(dup), nil
}
