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

// Command uninterruptible-echo is a minimal server built on the supervisor
// runtime: it echoes one line per connection and supports graceful restart
// and shutdown via SIGUSR1/SIGTERM.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/darkphnx/uninterruptible/config"
	"github.com/darkphnx/uninterruptible/dispatch"
	"github.com/darkphnx/uninterruptible/internal/echo"
	"github.com/darkphnx/uninterruptible/internal/logx"
	"github.com/darkphnx/uninterruptible/listener"
	"github.com/darkphnx/uninterruptible/supervisor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "uninterruptible-echo",
		Short: "Line-echoing server with uninterruptible restart and shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, cmd.Flags())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().String("bind", "", "bind URI, e.g. tcp://127.0.0.1:9292")
	cmd.Flags().String("pid-path", "", "path to the PID file")
	cmd.Flags().String("log-level", "", "debug|info|warn|error|fatal")
	cmd.Flags().StringSlice("start-command", nil, "argv used to exec a successor on restart")
	cmd.Flags().String("tls-min-version", "", "minimum tls version for a tls:// bind, e.g. 1.2")
	cmd.Flags().String("tls-max-version", "", "maximum tls version for a tls:// bind, e.g. 1.3")

	return cmd
}

func run(configPath string, flags *pflag.FlagSet) error {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return err
	}

	lvl := logx.ParseLevel(cfg.LogLevel)
	sink := os.Stderr
	log := logx.New(sink, lvl)
	logFn := func() logx.Logger { return log }

	bindSpec, err := listener.ParseBind(cfg.Bind, cfg.CertFile, cfg.KeyFile, cfg.TLSMinVersion, cfg.TLSMaxVersion)
	if err != nil {
		return err
	}

	startCommand := cfg.StartCommand
	if len(startCommand) == 0 {
		startCommand = []string{os.Args[0], "--config", configPath}
	}

	sup, err := supervisor.New(supervisor.Config{
		Bind:         bindSpec,
		PIDPath:      cfg.PIDPath,
		DrainTimeout: cfg.DrainTimeout,
		StartCommand: startCommand,
		AllowedNets:  cfg.AllowedNetworks,
		Handler:      dispatch.Handler(echo.Handler),
		Log:          logFn,
	})
	if err != nil {
		return err
	}

	logFn().Entry(logx.InfoLevel, "listening").Str("bind", cfg.Bind).Log()

	return sup.Run()
}
