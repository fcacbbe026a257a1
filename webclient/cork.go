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

// CorkForHeaderSend attempts TCP_CORK=1 on send-header entry, when the
// client is corkable and has a raw fd (spec.md §4.11). Invalid fds and
// unsupported platforms are silently skipped.
func (c *Client) CorkForHeaderSend() {
	if !c.Corkable || c.Transport == nil {
		return
	}
	conn, ok := c.Transport.RawConn()
	if !ok {
		return
	}
	setCork(conn, true)
}

// UncorkForRequestDone attempts TCP_CORK=0 on request_done.
func (c *Client) UncorkForRequestDone() {
	if !c.Corkable || c.Transport == nil {
		return
	}
	conn, ok := c.Transport.RawConn()
	if !ok {
		return
	}
	setCork(conn, false)
}
