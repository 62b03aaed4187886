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

type unixListener struct {
	l    *net.UnixListener
	path string
}

func newUnix(spec Spec) (Listener, error) {
	addr := &net.UnixAddr{Name: spec.Path, Net: "unix"}

	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, xerrors.BindFailed.Error(err)
	}

	// Unlinking on Close is handled by the supervisor (pure shutdown vs.
	// handover, spec §4.1); disable the stdlib's own unlink-on-Close so a
	// handover's CloseKeepPath really keeps the path.
	l.SetUnlinkOnClose(false)

	return &unixListener{l: l, path: spec.Path}, nil
}

func inheritUnix(fd uintptr, spec Spec) (Listener, error) {
	f := os.NewFile(fd, fmt.Sprintf("unix-inherited-%d", fd))
	ln, err := net.FileListener(f)
	_ = f.Close()
	if err != nil {
		return nil, xerrors.InheritFailed.Error(err)
	}

	ul, ok := ln.(*net.UnixListener)
	if !ok {
		_ = ln.Close()
		return nil, xerrors.InheritFailed.Error(errors.New("inherited fd is not a unix listener"))
	}
	ul.SetUnlinkOnClose(false)

	return &unixListener{l: ul, path: spec.Path}, nil
}

func (u *unixListener) Accept() (net.Conn, error) {
	c, err := u.l.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrAcceptInterrupted
		}
		return nil, xerrors.AcceptTransient.Error(err)
	}
	return c, nil
}

// Close closes the accept side and, per spec §4.1, unlinks the socket path --
// this is the pure-shutdown path, never the handover path.
func (u *unixListener) Close() error {
	err := u.l.Close()
	_ = os.Remove(u.path)
	return err
}

// CloseKeepPath closes the accept side without unlinking, used when a
// successor is reusing the same path after a restart handover.
func (u *unixListener) CloseKeepPath() error {
	return u.l.Close()
}

func (u *unixListener) Addr() net.Addr {
	return u.l.Addr()
}

func (u *unixListener) Kind() Kind {
	return KindUnix
}

func (u *unixListener) UnderlyingFD() (uintptr, error) {
	f, err := u.l.File()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dup, err := syscall.Dup(int(f.Fd()))
	if err != nil {
		return 0, err
	}
	if err := unix.SetNonblock(dup, false); err != nil {
		_ = syscall.Close(dup)
		return 0, err
	}

	return uintptr(dup), nil
}
