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

// Package registry tracks live connections so the supervisor knows when it
// is safe to finish draining (spec §4.2). Every operation is safe under
// concurrent callers; wait_until_empty never busy-waits, it blocks on a
// condition variable that Deregister broadcasts on.
package registry

import (
	"net"
	"sync"
	"time"
)

// Connection is the record the registry keeps per live connection (spec §3).
type Connection struct {
	ID            uint64
	RemoteAddress net.Addr
	Stream        net.Conn
	WorkerHandle  any
}

// Registry is the connection tracking component owned by the supervisor.
type Registry struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	entries map[uint64]Connection
}

// New returns an empty Registry ready to use.
func New() *Registry {
	r := &Registry{entries: make(map[uint64]Connection)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register records a live connection and returns the id to Deregister it
// with later.
func (r *Registry) Register(stream net.Conn, worker any) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	r.entries[id] = Connection{
		ID:            id,
		RemoteAddress: stream.RemoteAddr(),
		Stream:        stream,
		WorkerHandle:  worker,
	}
	return id
}

// Deregister removes a connection by id. Deregistering an unknown id is a
// no-op. A deregistration that leaves the registry empty wakes any goroutine
// blocked in WaitUntilEmpty.
func (r *Registry) Deregister(id uint64) {
	r.mu.Lock()
	delete(r.entries, id)
	empty := len(r.entries) == 0
	r.mu.Unlock()

	if empty {
		r.cond.Broadcast()
	}
}

// Count returns the number of currently-registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a copy of the currently-registered connections, useful
// for diagnostics and forced-stop connection termination (spec §4.5.3).
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Connection, 0, len(r.entries))
	for _, c := range r.entries {
		out = append(out, c)
	}
	return out
}

// WaitResult is the outcome of WaitUntilEmpty.
type WaitResult int

const (
	// Drained means the registry reached zero connections before the deadline.
	Drained WaitResult = iota
	// DeadlineExceeded means the deadline passed with connections still open.
	DeadlineExceeded
)

// WaitUntilEmpty blocks until Count() reaches zero or deadline passes,
// whichever comes first. A zero deadline blocks indefinitely (spec §4.2).
// It never busy-waits: it parks on a condition variable woken by Deregister,
// plus a single timer goroutine that broadcasts once if the deadline elapses
// first.
func (r *Registry) WaitUntilEmpty(deadline time.Duration) WaitResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return Drained
	}

	if deadline <= 0 {
		for len(r.entries) > 0 {
			r.cond.Wait()
		}
		return Drained
	}

	timedOut := false
	timer := time.AfterFunc(deadline, func() {
		r.mu.Lock()
		timedOut = true
		r.mu.Unlock()
		r.cond.Broadcast()
	})
	defer timer.Stop()

	for len(r.entries) > 0 && !timedOut {
		r.cond.Wait()
	}

	if len(r.entries) == 0 {
		return Drained
	}
	return DeadlineExceeded
}
