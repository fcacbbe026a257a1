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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	c := New(1, 256)
	c.Transport = NewPlainTransport(server, false)
	return c
}

func feed(c *Client, s string) {
	c.Data.StrCat([]byte(s))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		policy ValidatorPolicy
		want   ValidateResult
	}{
		{
			name: "IncompleteNoBlankLine",
			raw:  "GET /index.html HTTP/1.1\r\nHost: example.com\r\n",
			want: Incomplete,
		},
		{
			name: "OkSimpleGet",
			raw:  "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n",
			want: Ok,
		},
		{
			name: "UnsupportedMethod",
			raw:  "TRACE / HTTP/1.1\r\n\r\n",
			want: NotSupported,
		},
		{
			name: "MalformedNoSpace",
			raw:  "GARBAGE\r\n\r\n",
			want: MalformedUrl,
		},
		{
			name: "ExcessDataAfterGet",
			raw:  "GET / HTTP/1.1\r\n\r\nextra-bytes-that-should-not-be-here",
			want: ExcessRequestData,
		},
		{
			name:   "TlsRedirect",
			raw:    "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n",
			policy: ValidatorPolicy{ForceTLS: true, HasTLSCtx: true},
			want:   Redirect,
		},
		{
			name: "StreamAcceptedOnPlainConnWithoutForceTLS",
			raw:  "STREAM / HTTP/1.1\r\n\r\n",
			want: Ok,
		},
		{
			name:   "StreamAcceptedWhenTlsCtxPresentButNotForced",
			raw:    "STREAM / HTTP/1.1\r\n\r\n",
			policy: ValidatorPolicy{HasTLSCtx: true},
			want:   Ok,
		},
		{
			name:   "StreamRefusedOnPlainConnWithForceTLS",
			raw:    "STREAM / HTTP/1.1\r\n\r\n",
			policy: ValidatorPolicy{HasTLSCtx: true, ForceTLS: true},
			want:   NotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			feed(c, tt.raw)
			got := c.Validate(HeaderPolicy{}, tt.policy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePostBody(t *testing.T) {
	c := newTestClient(t)
	feed(c, "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	result := c.Validate(HeaderPolicy{}, ValidatorPolicy{})
	assert.Equal(t, Ok, result)
	assert.Equal(t, "hello", string(c.PostPayload.Bytes()))
}

func TestValidatePostBodyIncomplete(t *testing.T) {
	c := newTestClient(t)
	feed(c, "POST /submit HTTP/1.1\r\nContent-Length: 10\r\n\r\nhello")
	result := c.Validate(HeaderPolicy{}, ValidatorPolicy{})
	assert.Equal(t, Incomplete, result)
}

func TestValidateTooManyRetries(t *testing.T) {
	c := newTestClient(t)
	feed(c, "GET /index.html HTTP/1.1\r\n")

	var last ValidateResult
	for i := 0; i < MaxHeaderFetch+1; i++ {
		last = c.Validate(HeaderPolicy{}, ValidatorPolicy{})
	}
	assert.Equal(t, TooManyReadRetries, last)
}

func TestValidateGzipAcceptEncoding(t *testing.T) {
	c := newTestClient(t)
	feed(c, "GET / HTTP/1.1\r\nAccept-Encoding: gzip, deflate\r\n\r\n")
	result := c.Validate(HeaderPolicy{GzipEnabled: true}, ValidatorPolicy{})
	assert.Equal(t, Ok, result)
	assert.True(t, c.Compression.Enabled)
}
