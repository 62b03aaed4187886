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

package listener_test

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darkphnx/uninterruptible/listener"
)

var _ = Describe("UNIX listener", func() {
	var path string

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "unix-listener-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(dir) })

		path = filepath.Join(dir, fmt.Sprintf("sock-%d.sock", GinkgoRandomSeed()))
	})

	It("binds the path and accepts a connection", func() {
		ln, err := listener.New(listener.Spec{Kind: listener.KindUnix, Path: path})
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		go func() {
			defer GinkgoRecover()
			conn, err := net.Dial("unix", path)
			Expect(err).NotTo(HaveOccurred())
			defer conn.Close()
		}()

		conn, err := ln.Accept()
		Expect(err).NotTo(HaveOccurred())
		_ = conn.Close()
	})

	It("unlinks the socket path on Close", func() {
		ln, err := listener.New(listener.Spec{Kind: listener.KindUnix, Path: path})
		Expect(err).NotTo(HaveOccurred())

		Expect(ln.Close()).To(Succeed())

		_, err = os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("keeps the socket path on CloseKeepPath, for handover to a successor", func() {
		ln, err := listener.New(listener.Spec{Kind: listener.KindUnix, Path: path})
		Expect(err).NotTo(HaveOccurred())

		Expect(ln.CloseKeepPath()).To(Succeed())

		_, err = os.Stat(path)
		Expect(err).NotTo(HaveOccurred())

		_ = os.Remove(path)
	})
})
