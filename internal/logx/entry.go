/*
MIT License

Copyright (c) 2021 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package logx

import "github.com/sirupsen/logrus"

// Entry is a fluent builder over one log line: fields and an error are
// accumulated before Log() commits the entry, so call sites read as a single
// statement ending in .Log() the way the teacher's Entry does.
type Entry struct {
	log     *logrus.Logger
	lvl     Level
	message string
	fields  logrus.Fields
	err     error
}

// Str attaches a string field to the entry.
func (e *Entry) Str(key, val string) *Entry {
	e.fields[key] = val
	return e
}

// Int attaches an integer field to the entry.
func (e *Entry) Int(key string, val int) *Entry {
	e.fields[key] = val
	return e
}

// ErrorAdd attaches an error to the entry, if non-nil.
func (e *Entry) ErrorAdd(err error) *Entry {
	if err != nil {
		e.err = err
	}
	return e
}

// Log commits the entry at its configured level. A NilLevel entry is a no-op,
// so call sites can build a NilLevel entry unconditionally without a branch.
func (e *Entry) Log() {
	if e.lvl == NilLevel || e.log == nil {
		return
	}

	fields := e.fields
	if e.err != nil {
		fields = logrus.Fields{}
		for k, v := range e.fields {
			fields[k] = v
		}
		fields["error"] = e.err.Error()
	}

	e.log.WithFields(fields).Log(e.lvl.logrus(), e.message)
}
