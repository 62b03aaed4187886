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

// Package config loads the runtime's settings (spec §6) from a YAML file,
// environment variables and CLI flags via viper, the way the teacher wires
// its own configuration layers.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

// Config is the fully-resolved set of runtime settings.
type Config struct {
	Bind            string        `mapstructure:"bind"`
	CertFile        string        `mapstructure:"cert_file"`
	KeyFile         string        `mapstructure:"key_file"`
	TLSMinVersion   string        `mapstructure:"tls_min_version"`
	TLSMaxVersion   string        `mapstructure:"tls_max_version"`
	PIDPath         string        `mapstructure:"pid_path"`
	AllowedNetworks []string      `mapstructure:"allowed_networks"`
	LogSink         string        `mapstructure:"log_sink"`
	LogLevel        string        `mapstructure:"log_level"`
	DrainTimeout    time.Duration `mapstructure:"drain_timeout"`
	StartCommand    []string      `mapstructure:"start_command"`
}

// defaults mirrors spec §6's stated defaults.
func defaults() map[string]any {
	return map[string]any{
		"bind":             "tcp://127.0.0.1:9292",
		"pid_path":         "./uninterruptible.pid",
		"allowed_networks": []string{},
		"log_sink":         "stderr",
		"log_level":        "info",
		"drain_timeout":    "30s",
	}
}

// Load builds a viper.Viper bound to the usual three sources: a config
// file, environment variables prefixed UNINTERRUPTIBLE_, and flags bound
// from fs. An empty path skips the config-file layer.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("uninterruptible")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		// Flags are spelled with dashes (--pid-path) while config keys use
		// underscores (pid_path); bind each flag under its config key.
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, xerrors.ConfigurationInvalid.Error(bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, xerrors.ConfigurationInvalid.Error(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, xerrors.ConfigurationInvalid.Error(err)
	}

	return &cfg, nil
}
