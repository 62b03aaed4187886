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

// Package signalrouter turns OS signals into supervisor events (spec §4.3).
// Signal handlers must never block, so delivery goes through a buffered
// channel read by a single dispatch goroutine that calls back into the
// supervisor.
package signalrouter

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Event is a supervisor-level lifecycle request derived from a signal.
type Event int

const (
	// GracefulStop is raised on SIGTERM and SIGINT: drain, then exit.
	GracefulStop Event = iota
	// ForcedStop is raised on a second GracefulStop-triggering signal while
	// already draining or terminating: stop waiting, close everything now.
	ForcedStop
	// GracefulRestart is raised on SIGUSR1: hand the listener to a successor.
	GracefulRestart
)

// Router installs signal handlers and republishes them as Events.
type Router struct {
	mu       sync.Mutex
	sigCh    chan os.Signal
	eventCh  chan Event
	stopOnce sync.Once
	stopCh   chan struct{}

	stopSignalled bool
}

// New installs handlers for SIGTERM, SIGINT and SIGUSR1 and begins routing
// them to Events(). The returned Router owns the signal registration until
// Stop is called.
func New() *Router {
	r := &Router{
		sigCh:   make(chan os.Signal, 8),
		eventCh: make(chan Event, 8),
		stopCh:  make(chan struct{}),
	}

	signal.Notify(r.sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1)
	go r.run()

	return r
}

// Events returns the channel of routed lifecycle events. Callers should
// range over it from a single goroutine, the supervisor's control loop.
func (r *Router) Events() <-chan Event {
	return r.eventCh
}

func (r *Router) run() {
	for {
		select {
		case sig, ok := <-r.sigCh:
			if !ok {
				close(r.eventCh)
				return
			}
			r.route(sig)
		case <-r.stopCh:
			signal.Stop(r.sigCh)
			close(r.eventCh)
			return
		}
	}
}

func (r *Router) route(sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		r.eventCh <- GracefulRestart
	case syscall.SIGTERM, syscall.SIGINT:
		r.mu.Lock()
		already := r.stopSignalled
		r.stopSignalled = true
		r.mu.Unlock()

		if already {
			r.eventCh <- ForcedStop
		} else {
			r.eventCh <- GracefulStop
		}
	}
}

// Stop unregisters the signal handlers and closes the Events channel. Safe
// to call more than once.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}
