// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webclient

import "strings"

const maxHostHeaderLen = 255

// applyHeaderLine parses one "Name: value" header line (without its
// trailing CRLF) and applies its effect to c. Unrecognised header names
// are ignored; this is not a general-purpose header store, only the
// small set of names the engine's own logic reacts to.
func (c *Client) applyHeaderLine(line []byte, policy HeaderPolicy) {
	name, value, ok := splitHeaderLine(line)
	if !ok {
		return
	}

	switch {
	case strings.EqualFold(name, "Origin"):
		c.Origin = value
	case strings.EqualFold(name, "Connection"):
		if containsFold(value, "keep-alive") {
			c.IOFlags |= KeepAlive
		}
	case strings.EqualFold(name, "Accept-Encoding"):
		c.AcceptEncoding = value
		if policy.GzipEnabled && containsFold(value, "gzip") {
			c.Compression.Enabled = true
		}
	case strings.EqualFold(name, "DNT"):
		if policy.RespectDNT {
			switch strings.TrimSpace(value) {
			case "0":
				c.IOFlags &^= DoNotTrack
			case "1":
				c.IOFlags |= DoNotTrack
			}
		}
	case strings.EqualFold(name, "User-Agent"):
		c.UserAgent = value
	case strings.EqualFold(name, "X-Auth-Token"):
		c.BearerToken = value
	case strings.EqualFold(name, "Host"):
		c.Host = boundHostValue(value)
	case strings.EqualFold(name, "X-Forwarded-Host"):
		c.XForwardedHost = boundHostValue(value)
	}
}

// HeaderPolicy carries the process-wide configuration knobs the header
// parser consults (spec.md §5's process-wide mutable state); it is
// passed in rather than read from a package-level global so the engine
// has no hidden state beyond what's named in spec.md §9.
type HeaderPolicy struct {
	GzipEnabled bool
	RespectDNT  bool
}

func boundHostValue(v string) string {
	if len(v) > maxHostHeaderLen {
		return v[:maxHostHeaderLen]
	}
	return v
}

// splitHeaderLine splits "Name: value" (tolerating surrounding
// whitespace around value, and a bare "Name:" with an empty value).
func splitHeaderLine(line []byte) (name, value string, ok bool) {
	idx := indexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	name = string(line[:idx])
	value = strings.TrimSpace(string(line[idx+1:]))
	return name, value, true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
