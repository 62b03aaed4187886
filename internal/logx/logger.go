/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

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

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FuncLog returns a Logger instance; used for lazy, injectable logger
// resolution the way the supervisor's collaborators are wired (spec §6,
// log_sink/log_level).
type FuncLog func() Logger

// Logger is the minimal structured logging surface the supervisor and its
// collaborators depend on.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level
	Entry(lvl Level, message string) *Entry
}

type logger struct {
	lvl Level
	log *logrus.Logger
}

// New builds a Logger writing to sink at the given minimum level. A nil sink
// defaults to os.Stderr, matching the teacher's "always has somewhere to go"
// logging default.
func New(sink io.Writer, lvl Level) Logger {
	if sink == nil {
		sink = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(sink)
	l.SetLevel(lvl.logrus())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &logger{lvl: lvl, log: l}
}

func (l *logger) SetLevel(lvl Level) {
	l.lvl = lvl
	l.log.SetLevel(lvl.logrus())
}

func (l *logger) GetLevel() Level {
	return l.lvl
}

func (l *logger) Entry(lvl Level, message string) *Entry {
	return &Entry{log: l.log, lvl: lvl, message: message, fields: logrus.Fields{}}
}
