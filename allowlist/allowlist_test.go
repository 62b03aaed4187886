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

package allowlist_test

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darkphnx/uninterruptible/allowlist"
)

var _ = Describe("List", func() {
	It("allows everything when constructed with no ranges", func() {
		l, err := allowlist.New(nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(l.Allows(&net.TCPAddr{IP: net.ParseIP("203.0.113.5")})).To(BeTrue())
	})

	It("allows addresses inside a configured range", func() {
		l, err := allowlist.New([]string{"10.0.0.0/8"})
		Expect(err).NotTo(HaveOccurred())

		Expect(l.Allows(&net.TCPAddr{IP: net.ParseIP("10.1.2.3")})).To(BeTrue())
	})

	It("rejects addresses outside every configured range", func() {
		l, err := allowlist.New([]string{"10.0.0.0/8"})
		Expect(err).NotTo(HaveOccurred())

		Expect(l.Allows(&net.TCPAddr{IP: net.ParseIP("192.168.1.1")})).To(BeFalse())
	})

	It("matches against any range in a multi-range list", func() {
		l, err := allowlist.New([]string{"10.0.0.0/8", "192.168.0.0/16"})
		Expect(err).NotTo(HaveOccurred())

		Expect(l.Allows(&net.TCPAddr{IP: net.ParseIP("192.168.5.5")})).To(BeTrue())
	})

	It("rejects malformed CIDR ranges at construction time", func() {
		_, err := allowlist.New([]string{"not-a-cidr"})
		Expect(err).To(HaveOccurred())
	})

	It("always allows unix-domain peers", func() {
		l, err := allowlist.New([]string{"10.0.0.0/8"})
		Expect(err).NotTo(HaveOccurred())

		Expect(l.Allows(&net.UnixAddr{Name: "/tmp/sock.sock", Net: "unix"})).To(BeTrue())
	})

	It("treats a nil list as allow-all, for callers without an allowlist configured", func() {
		var l *allowlist.List
		Expect(l.Allows(&net.TCPAddr{IP: net.ParseIP("1.2.3.4")})).To(BeTrue())
	})
})
