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

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildResponseHeaderKnownLength(t *testing.T) {
	c := New(1, 256)
	c.StatusCode = 200
	c.ContentType = "application/json"
	c.IOFlags |= KeepAlive

	c.BuildResponseHeader(ResponsePolicy{ServerString: "webworker"}, 42, time.Now())

	out := string(c.HeaderOutput.Bytes())
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Connection: keep-alive\r\n")
	assert.Contains(t, out, "Content-Length: 42\r\n")
	assert.Contains(t, out, "Content-Type: application/json\r\n")
	assert.NotContains(t, out, "Transfer-Encoding")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n"))
	assert.Equal(t, 1, strings.Count(out, "Connection:"))
}

func TestBuildResponseHeaderUnknownLengthDropsKeepAlive(t *testing.T) {
	c := New(1, 256)
	c.StatusCode = 200
	c.IOFlags |= KeepAlive

	c.BuildResponseHeader(ResponsePolicy{}, -1, time.Now())

	out := string(c.HeaderOutput.Bytes())
	assert.Contains(t, out, "Connection: close\r\n")
	assert.Equal(t, 1, strings.Count(out, "Connection:"))
	assert.False(t, c.IOFlags.Has(KeepAlive))
}

func TestBuildResponseHeaderCompressedIsChunked(t *testing.T) {
	c := New(1, 256)
	c.StatusCode = 200
	c.Compression.Enabled = true

	c.BuildResponseHeader(ResponsePolicy{}, -1, time.Now())

	out := string(c.HeaderOutput.Bytes())
	assert.Contains(t, out, "Content-Encoding: gzip\r\n")
	assert.Contains(t, out, "Transfer-Encoding: chunked\r\n")
	assert.NotContains(t, out, "Content-Length")
}

func TestBuildResponseHeaderHTTPSUpgrade(t *testing.T) {
	c := New(1, 256)
	c.StatusCode = StatusHTTPSUpgrade
	c.Host = "example.com"
	c.URLAsReceived.StrCat([]byte("/dashboard"))

	c.BuildResponseHeader(ResponsePolicy{}, -1, time.Now())

	out := string(c.HeaderOutput.Bytes())
	assert.Equal(t, "HTTP/1.1 301 Moved Permanently\r\nLocation: https://example.com/dashboard\r\n\r\n", out)
}

func TestBuildResponseHeaderOptionsCORS(t *testing.T) {
	c := New(1, 256)
	c.StatusCode = 200
	c.Mode = ModeOPTIONS

	c.BuildResponseHeader(ResponsePolicy{}, 0, time.Now())

	out := string(c.HeaderOutput.Bytes())
	assert.Contains(t, out, "Access-Control-Allow-Methods:")
	assert.NotContains(t, out, "Cache-Control")
}
