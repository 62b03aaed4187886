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

package listener

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"

	"github.com/darkphnx/uninterruptible/internal/xerrors"
)

// ParseBind parses the `bind` configuration option (spec §6): a URI with
// scheme tcp, unix or tls. TLS additionally requires certFile/keyFile;
// minVersion/maxVersion (spec §4.1's "configured protocol version(s)") are
// "1.0".."1.3" or empty for the crypto/tls library default, and are only
// meaningful for the tls scheme.
func ParseBind(bind, certFile, keyFile, minVersion, maxVersion string) (Spec, error) {
	u, err := url.Parse(bind)
	if err != nil {
		return Spec{}, xerrors.ConfigurationInvalid.Error(err)
	}

	switch u.Scheme {
	case "tcp", "tls":
		host := u.Hostname()
		portStr := u.Port()
		if portStr == "" {
			return Spec{}, xerrors.ConfigurationInvalid.Error(fmt.Errorf("bind %q is missing a port", bind))
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Spec{}, xerrors.ConfigurationInvalid.Error(err)
		}

		spec := Spec{Host: host, Port: port}
		if u.Scheme == "tls" {
			if certFile == "" || keyFile == "" {
				return Spec{}, xerrors.ConfigurationInvalid.Error(fmt.Errorf("tls bind %q requires cert and key", bind))
			}
			spec.Kind = KindTLS
			spec.CertFile = certFile
			spec.KeyFile = keyFile

			spec.MinTLSVersion, err = parseTLSVersion(minVersion)
			if err != nil {
				return Spec{}, xerrors.ConfigurationInvalid.Error(err)
			}
			spec.MaxTLSVersion, err = parseTLSVersion(maxVersion)
			if err != nil {
				return Spec{}, xerrors.ConfigurationInvalid.Error(err)
			}
		} else {
			spec.Kind = KindTCP
		}
		return spec, nil

	case "unix":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return Spec{}, xerrors.ConfigurationInvalid.Error(fmt.Errorf("bind %q is missing a path", bind))
		}
		return Spec{Kind: KindUnix, Path: path}, nil

	default:
		return Spec{}, xerrors.ConfigurationInvalid.Error(fmt.Errorf("unsupported bind scheme %q", u.Scheme))
	}
}

// parseTLSVersion maps a config string to a crypto/tls version constant, an
// empty string meaning "let the library choose".
func parseTLSVersion(s string) (uint16, error) {
	switch s {
	case "":
		return 0, nil
	case "1.0":
		return tls.VersionTLS10, nil
	case "1.1":
		return tls.VersionTLS11, nil
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported tls version %q", s)
	}
}
