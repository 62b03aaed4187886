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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darkphnx/uninterruptible/config"
)

var _ = Describe("Load", func() {
	It("applies the documented defaults when given no file, env or flags", func() {
		cfg, err := config.Load("", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Bind).To(Equal("tcp://127.0.0.1:9292"))
		Expect(cfg.LogLevel).To(Equal("info"))
		Expect(cfg.DrainTimeout).To(Equal(30 * time.Second))
	})

	It("reads settings from a YAML file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "config.yaml")

		contents := "bind: tcp://0.0.0.0:8080\nlog_level: debug\nallowed_networks:\n  - 10.0.0.0/8\n"
		Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())

		cfg, err := config.Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Bind).To(Equal("tcp://0.0.0.0:8080"))
		Expect(cfg.LogLevel).To(Equal("debug"))
		Expect(cfg.AllowedNetworks).To(Equal([]string{"10.0.0.0/8"}))
	})

	It("rejects a missing config file", func() {
		_, err := config.Load("/nonexistent/path/config.yaml", nil)
		Expect(err).To(HaveOccurred())
	})
})
