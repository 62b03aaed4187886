/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package xerrors is the error taxonomy for the supervisor runtime: every
// fatal or per-connection failure mode is a distinct, greppable CodeError
// instead of a bare errors.New, following the code/message registry pattern
// used throughout the reference library this runtime is modeled on.
package xerrors

// CodeError is a small numeric error code, analogous to an HTTP status code.
type CodeError uint16

const (
	UnknownError CodeError = iota

	// Fatal at startup: process exits non-zero, PID file is not written
	// (or removed if partially written).
	BindFailed
	InheritFailed
	ConfigurationInvalid

	// Per-connection / per-accept: confined to the one connection, logged,
	// never fatal to the supervisor.
	AcceptTransient
	TLSHandshakeFailed
	DisallowedRemote
	HandlerFailed

	// Supervisor-state: restart handover failed; supervisor reverts to
	// Running and repairs the PID file.
	RestartHandoverFailed
)

var messages = map[CodeError]string{
	UnknownError:          "unknown error",
	BindFailed:            "failed to bind and listen on the configured address",
	InheritFailed:         "failed to reconstruct the inherited listener",
	ConfigurationInvalid:  "supervisor configuration is invalid",
	AcceptTransient:       "transient accept error, accept loop continues",
	TLSHandshakeFailed:    "tls handshake failed, connection dropped before registration",
	DisallowedRemote:      "remote address rejected by the allow-list",
	HandlerFailed:         "connection handler panicked",
	RestartHandoverFailed: "restart handover failed, successor could not be started",
}

// Message returns the human-readable message registered for the code, or
// the unknown-error message if none was registered.
func (c CodeError) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[UnknownError]
}

// Error builds a xerrors.Error with this code wrapping the given parent, if any.
func (c CodeError) Error(parent error) Error {
	return &codeError{code: c, parent: parent}
}
