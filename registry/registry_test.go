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

package registry_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darkphnx/uninterruptible/registry"
)

func pipeConn() net.Conn {
	c, _ := net.Pipe()
	return c
}

var _ = Describe("Registry", func() {
	var r *registry.Registry

	BeforeEach(func() {
		r = registry.New()
	})

	It("starts empty", func() {
		Expect(r.Count()).To(Equal(0))
	})

	It("assigns distinct ids and tracks count", func() {
		c1 := pipeConn()
		c2 := pipeConn()

		id1 := r.Register(c1, nil)
		id2 := r.Register(c2, nil)

		Expect(id1).NotTo(Equal(id2))
		Expect(r.Count()).To(Equal(2))
	})

	It("removes entries on deregister", func() {
		c1 := pipeConn()
		id1 := r.Register(c1, nil)

		r.Deregister(id1)

		Expect(r.Count()).To(Equal(0))
	})

	It("treats deregistering an unknown id as a no-op", func() {
		c1 := pipeConn()
		r.Register(c1, nil)

		r.Deregister(9999)

		Expect(r.Count()).To(Equal(1))
	})

	It("returns Drained immediately when already empty", func() {
		result := r.WaitUntilEmpty(time.Second)
		Expect(result).To(Equal(registry.Drained))
	})

	It("wakes WaitUntilEmpty as soon as the last connection deregisters", func() {
		c1 := pipeConn()
		id1 := r.Register(c1, nil)

		done := make(chan registry.WaitResult, 1)
		go func() {
			done <- r.WaitUntilEmpty(5 * time.Second)
		}()

		time.Sleep(50 * time.Millisecond)
		r.Deregister(id1)

		Eventually(done, time.Second).Should(Receive(Equal(registry.Drained)))
	})

	It("reports DeadlineExceeded when connections outlive the deadline", func() {
		c1 := pipeConn()
		r.Register(c1, nil)

		result := r.WaitUntilEmpty(50 * time.Millisecond)

		Expect(result).To(Equal(registry.DeadlineExceeded))
	})

	It("returns a snapshot of live connections", func() {
		c1 := pipeConn()
		r.Register(c1, nil)

		snap := r.Snapshot()

		Expect(snap).To(HaveLen(1))
		Expect(snap[0].Stream).To(Equal(c1))
	})
})
