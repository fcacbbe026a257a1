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

import "time"

// StatusHTTPSUpgrade is the internal sentinel status the header builder
// special-cases into a bare 301-to-https response.
const StatusHTTPSUpgrade = -1

const statusLineFmt = "HTTP/1.1 %d %s\r\n"

var statusText = map[int]string{
	200: "OK",
	301: "Moved Permanently",
	307: "Temporary Redirect",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	412: "Precondition Failed",
	500: "Internal Server Error",
	504: "Gateway Timeout",
}

func statusMessage(code int) string {
	if m, ok := statusText[code]; ok {
		return m
	}
	return "Unknown"
}

// ResponsePolicy carries the process-wide config knobs §4.8 needs.
type ResponsePolicy struct {
	ServerString   string
	XFrameOptions  string
	RespectDNT     bool
}

// BuildResponseHeader composes the HTTP/1.1 status line and headers
// into c.HeaderOutput per spec.md §4.8. contentLength is the known body
// size, or -1 when unknown (which disables keep-alive, since framing
// would otherwise be ambiguous).
func (c *Client) BuildResponseHeader(policy ResponsePolicy, contentLength int, now time.Time) {
	out := c.HeaderOutput
	out.Flush()

	if c.StatusCode == StatusHTTPSUpgrade {
		out.Sprintf(statusLineFmt, 301, statusMessage(301))
		out.Sprintf("Location: https://%s%s\r\n\r\n", c.Host, c.URLAsReceived.Bytes())
		return
	}

	if c.Date.IsZero() {
		c.Date = now
	}
	if c.Expires.IsZero() {
		c.Expires = now.Add(24 * time.Hour)
	}

	out.Sprintf(statusLineFmt, c.StatusCode, statusMessage(c.StatusCode))

	// Transfer framing is known length, unless compression or chunking
	// is in play; an unknown length forces keep-alive off regardless of
	// what the client asked for.
	lengthKnown := c.Compression.Enabled || c.IOFlags.Has(ChunkedTransfer) || contentLength >= 0
	if !lengthKnown {
		c.IOFlags &^= KeepAlive
	}
	if c.IOFlags.Has(KeepAlive) {
		out.StrCat([]byte("Connection: keep-alive\r\n"))
	} else {
		out.StrCat([]byte("Connection: close\r\n"))
	}

	out.Sprintf("Server: %s\r\n", policy.ServerString)

	origin := c.Origin
	if origin == "" {
		origin = "*"
	}
	out.Sprintf("Access-Control-Allow-Origin: %s\r\n", origin)
	out.StrCat([]byte("Access-Control-Allow-Credentials: true\r\n"))

	contentType := c.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	out.Sprintf("Content-Type: %s\r\n", contentType)
	out.Sprintf("Date: %s\r\n", c.Date.UTC().Format(time.RFC1123))

	if policy.XFrameOptions != "" {
		out.Sprintf("X-Frame-Options: %s\r\n", policy.XFrameOptions)
	}

	if policy.RespectDNT {
		if c.IOFlags.Has(DoNotTrack) {
			out.StrCat([]byte("Tk: N\r\n"))
		} else {
			out.StrCat([]byte("Tk: T;cookies\r\n"))
		}
	}

	if c.Mode == ModeOPTIONS {
		out.StrCat([]byte("Access-Control-Allow-Methods: GET, POST, PUT, DELETE, OPTIONS\r\n"))
		out.StrCat([]byte("Access-Control-Allow-Headers: accept, x-requested-with, content-type, authorization\r\n"))
		out.StrCat([]byte("Access-Control-Allow-Max-Age: 86400\r\n"))
	} else {
		if c.NoCacheable {
			out.StrCat([]byte("Cache-Control: no-cache, no-store, must-revalidate\r\nPragma: no-cache\r\n"))
		} else {
			out.StrCat([]byte("Cache-Control: public\r\n"))
		}
		out.Sprintf("Expires: %s\r\n", c.Expires.UTC().Format(time.RFC1123))
	}

	if c.Header.Len() > 0 {
		out.StrCat(c.Header.Bytes())
	}

	switch {
	case c.Compression.Enabled:
		out.StrCat([]byte("Content-Encoding: gzip\r\n"))
		out.StrCat([]byte("Transfer-Encoding: chunked\r\n"))
	case c.IOFlags.Has(ChunkedTransfer):
		out.StrCat([]byte("Transfer-Encoding: chunked\r\n"))
	case contentLength >= 0:
		out.Sprintf("Content-Length: %d\r\n", contentLength)
	}

	out.StrCat([]byte("\r\n"))
}
