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

package xerrors

import "fmt"

// Error is a CodeError wrapping an optional parent error.
type Error interface {
	error
	Code() CodeError
	Unwrap() error
}

type codeError struct {
	code   CodeError
	parent error
}

func (e *codeError) Code() CodeError {
	return e.code
}

func (e *codeError) Unwrap() error {
	return e.parent
}

func (e *codeError) Error() string {
	if e.parent == nil {
		return e.code.Message()
	}
	return fmt.Sprintf("%s: %s", e.code.Message(), e.parent.Error())
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code CodeError) bool {
	for err != nil {
		if ce, ok := err.(Error); ok {
			if ce.Code() == code {
				return true
			}
			err = ce.Unwrap()
			continue
		}
		break
	}
	return false
}
