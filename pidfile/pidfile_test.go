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

package pidfile_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darkphnx/uninterruptible/pidfile"
)

var _ = Describe("File", func() {
	var path string

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "pidfile-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(dir) })

		path = filepath.Join(dir, "server.pid")
	})

	It("writes and reads back the same pid", func() {
		f := pidfile.New(path)

		Expect(f.Write(1234)).To(Succeed())

		pid, err := f.Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(Equal(1234))
	})

	It("overwrites a previous pid atomically", func() {
		f := pidfile.New(path)

		Expect(f.Write(1)).To(Succeed())
		Expect(f.Write(2)).To(Succeed())

		pid, err := f.Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(Equal(2))
	})

	It("errors reading a pid file that was never written", func() {
		f := pidfile.New(path)

		_, err := f.Read()
		Expect(err).To(HaveOccurred())
	})

	It("removes the file, leaving no trace", func() {
		f := pidfile.New(path)
		Expect(f.Write(1234)).To(Succeed())

		Expect(f.Remove()).To(Succeed())

		_, err := os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("treats removing an already-missing file as success", func() {
		f := pidfile.New(path)

		Expect(f.Remove()).To(Succeed())
	})
})
