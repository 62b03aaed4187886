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

// Package pidfile manages the PID file that records which process currently
// owns the listening socket (spec §4.4). A restart handover's successor
// readiness signal is entirely driven by this file changing value.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

// File manages reads and writes of a single PID file path.
type File struct {
	path string
}

// New returns a File bound to path. The file itself is not touched until
// Write, Read or Remove is called.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the underlying filesystem path.
func (f *File) Path() string {
	return f.path
}

// Write atomically replaces the PID file's contents with pid. It writes to
// a temp file in the same directory and renames over the target so readers
// never observe a partial write.
func (f *File) Write(pid int) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".pidfile-*")
	if err != nil {
		return xerrors.UnknownError.Error(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(pid)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return xerrors.UnknownError.Error(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return xerrors.UnknownError.Error(err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return xerrors.UnknownError.Error(err)
	}

	return nil
}

// Read returns the PID currently recorded in the file. It returns an error
// if the file is missing or does not contain a valid integer.
func (f *File) Read() (int, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return 0, xerrors.UnknownError.Error(err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, xerrors.UnknownError.Error(fmt.Errorf("pidfile %s: %w", f.path, err))
	}

	return pid, nil
}

// Remove deletes the PID file. Missing files are not an error: removal is
// best-effort cleanup on final shutdown (spec §4.4).
func (f *File) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return xerrors.UnknownError.Error(err)
	}
	return nil
}
