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

// Package echo is the sample handler used by cmd/uninterruptible-echo: it
// reads one line and writes it back trimmed, enough to exercise the
// supervisor's accept/drain/restart behavior end to end.
package echo

import (
	"bufio"
	"net"
	"strings"
)

// Handler reads a single newline-terminated line from conn and writes the
// trimmed line back followed by a newline. It returns once that line has
// been written, or as soon as reading fails (including a closed connection).
func Handler(conn net.Conn) {
	r := bufio.NewReader(conn)

	line, err := r.ReadString('\n')
	if err != nil {
		return
	}

	_, _ = conn.Write([]byte(strings.TrimRight(line, "\r\n") + "\n"))
}
