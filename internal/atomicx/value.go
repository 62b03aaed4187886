/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomicx provides a small, type-safe wrapper around sync/atomic.Value.
//
// The supervisor threads its lifecycle state and its restart generation counter
// through goroutines (the accept loop, the signal consumer, the stop and
// restart workers) without a central mutex. A typed atomic value
// keeps those call sites free of the usual `i.(T)` boilerplate and nil checks.
package atomicx

import (
	"sync/atomic"
)

// Value is a generic, concurrency-safe holder for a single value of type T.
type Value[T any] interface {
	// Load returns the current value, or the zero value of T if none was
	// ever stored.
	Load() T
	// Store sets the current value.
	Store(val T)
	// Swap atomically stores new and returns the previous value.
	Swap(new T) (old T)
	// CompareAndSwap atomically swaps new in for old, reporting whether the
	// swap happened.
	CompareAndSwap(old, new T) (swapped bool)
}

type val[T any] struct {
	av *atomic.Value
}

// New returns an empty Value[T].
func New[T any]() Value[T] {
	return &val[T]{av: new(atomic.Value)}
}

// NewWithDefault returns a Value[T] whose Load returns def until the first Store.
func NewWithDefault[T any](def T) Value[T] {
	v := &val[T]{av: new(atomic.Value)}
	v.Store(def)
	return v
}

func (o *val[T]) Load() T {
	var zero T
	raw := o.av.Load()
	if raw == nil {
		return zero
	}
	b, ok := raw.(box[T])
	if !ok {
		return zero
	}
	return b.v
}

func (o *val[T]) Store(val T) {
	o.av.Store(box[T]{v: val})
}

func (o *val[T]) Swap(new T) (old T) {
	prev := o.av.Swap(box[T]{v: new})
	if b, ok := prev.(box[T]); ok {
		return b.v
	}
	var zero T
	return zero
}

func (o *val[T]) CompareAndSwap(old, new T) bool {
	return o.av.CompareAndSwap(box[T]{v: old}, box[T]{v: new})
}

// box avoids the "inconsistently typed value" panic that atomic.Value raises
// when T is an interface and successive Store calls carry different dynamic
// types (e.g. storing both *net.TCPListener and *net.UnixListener behind a
// listener.Listener value).
type box[T any] struct {
	v T
}
