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
	"errors"
	"time"

	"github.com/edgeworker/webworker/internal/fasttime"
)

func isWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// Config bundles the process-wide immutable configuration the engine
// needs at every tick — spec.md §9's design note: model global mutable
// state as an immutable value passed in at creation, not as package
// globals.
type Config struct {
	Header      HeaderPolicy
	Validator   ValidatorPolicy
	Response    ResponsePolicy
	Compression CompressionPolicy
	Router      Router
	WebDir      string
	OpenFile    OpenFunc
	TimeoutUT   time.Duration
}

// Engine ties the per-tick operations together behind the readiness
// driver contract spec.md §6 describes: ProcessRequest, Receive, Send,
// ReadFile in response to events, RequestDone/Free on disconnect.
type Engine struct {
	cfg Config
	log *AccessLog
}

// NewEngine constructs an Engine bound to cfg and access log sink log.
func NewEngine(cfg Config, log *AccessLog) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// OnReadable is called by the driver when c's input side is readable.
// It receives bytes and, for non-FILECOPY clients, re-validates the
// accumulated request, routing once the request is complete.
func (e *Engine) OnReadable(c *Client) {
	if c.IsDead() {
		return
	}
	if c.TvIn.IsZero() {
		c.TvIn = time.Now()
	}
	c.checkpointTimeout()

	if _, err := c.Receive(); err != nil {
		return
	}
	if c.IsDead() {
		return
	}
	if c.Mode == ModeFILECOPY {
		// file-copy reads don't re-enter the validator; the response
		// is already built and streaming.
		return
	}

	result := c.Validate(e.cfg.Header, e.cfg.Validator)
	switch result {
	case Incomplete:
		c.IOFlags |= WaitReceive
		return
	case TooManyReadRetries:
		c.respondPlain(504, "Request timed out while reading headers")
		e.prepareSend(c)
		return
	case NotSupported:
		c.respondPlain(400, "Unsupported method")
		c.IOFlags &^= KeepAlive
		e.prepareSend(c)
		return
	case MalformedUrl:
		c.respondPlain(400, "Malformed request")
		c.IOFlags &^= KeepAlive
		e.prepareSend(c)
		return
	case ExcessRequestData:
		c.respondPlain(400, "too big")
		c.IOFlags &^= KeepAlive
		e.prepareSend(c)
		return
	case Redirect:
		c.StatusCode = StatusHTTPSUpgrade
		e.prepareSend(c)
		return
	case Ok:
		e.route(c)
		e.prepareSend(c)
	}
}

func (c *Client) respondPlain(status int, msg string) {
	c.StatusCode = status
	c.writeTextBody(msg)
}

// route runs the dispatch router over the decoded path and resolves
// redirects/static-file hand-offs into final client state.
func (e *Engine) route(c *Client) {
	path := string(c.URLPath.Bytes())
	switch e.cfg.Router.Dispatch(c, path) {
	case RespondStaticFile:
		c.ServeStaticFile(e.cfg.WebDir, e.cfg.OpenFile)
	case RespondRedirect:
		// host switch without a trailing slash: 301 to "<last>/".
		c.appendSlashAndRedirect(path)
	case RespondBuffered:
		// c.Data/StatusCode already filled by the router/API handler.
	}
}

// prepareSend checkpoints tv_ready, builds the response header and
// arms TCP_CORK before the driver starts watching for writability.
func (e *Engine) prepareSend(c *Client) {
	c.TvReady = time.Now()
	c.checkpointTimeout()

	contentLength := -1
	if !c.Compression.Enabled && !c.IOFlags.Has(ChunkedTransfer) {
		contentLength = c.bodyLength()
	}
	c.BuildResponseHeader(e.cfg.Response, contentLength, time.Now())
	c.CorkForHeaderSend()
	c.IOFlags |= WaitSend
}

// bodyLength returns the known response body size: RLen for FILECOPY,
// or the in-memory buffer length otherwise.
func (c *Client) bodyLength() int {
	if c.Mode == ModeFILECOPY {
		return c.RLen
	}
	return c.Data.Len()
}

// OnWritable is called by the driver when c's output side is writable.
// It first drains the composed response head (if not yet fully sent,
// §3's "header-send happens-before body-send" ordering), then the
// body via Send. request_done fires once Send reports nothing more is
// pending — either the client was reset for keep-alive (ResetForNextRequest
// already ran inside Send) or it was marked dead.
func (e *Engine) OnWritable(c *Client) {
	if c.IsDead() {
		return
	}
	if !e.drainHeader(c) {
		return
	}

	moreInput := c.Mode == ModeFILECOPY && c.InputFile != nil
	wasKeepAlive := c.IOFlags.Has(KeepAlive)
	if err := c.Send(e.cfg.Compression, moreInput); err != nil {
		return
	}
	if c.IsDead() {
		e.RequestDone(c, wasKeepAlive)
		return
	}
	if !c.IOFlags.Has(WaitSend) && c.HeaderSent == 0 {
		// Send just reset the client for the next request (HeaderSent
		// was cleared by ResetForNextRequest): the previous request is
		// now complete.
		e.RequestDone(c, wasKeepAlive)
	}
}

// drainHeader writes any remaining bytes of c.HeaderOutput and reports
// whether the full header has now been sent (so the caller may proceed
// to the body).
func (e *Engine) drainHeader(c *Client) bool {
	out := c.HeaderOutput.Bytes()
	for c.HeaderSent < len(out) {
		n, err := c.Transport.Write(out[c.HeaderSent:])
		if n > 0 {
			c.HeaderSent += n
			c.SentBytes += int64(n)
			bytesSentTotal.Add(float64(n))
		}
		if err != nil {
			if isWouldBlock(err) {
				c.IOFlags |= WaitSend
				return false
			}
			c.MarkDead()
			return false
		}
	}
	return true
}

// RequestDone finalises one request: uncorks and emits the access log
// line. wasKeepAlive is the keep-alive state observed right before the
// final Send call; it is not read.
func (e *Engine) RequestDone(c *Client, wasKeepAlive bool) {
	_ = wasKeepAlive
	c.UncorkForRequestDone()
	e.log.RequestDone(c, 0)
}

// checkpointTimeout records the current time as the latest timeout
// checkpoint and, if timeout_ut has elapsed since receive-start,
// replaces the response with a 504 and marks it complete — spec.md §5.
func (c *Client) checkpointTimeout() {
	// fasttime avoids a time.Now syscall on every readiness tick; the
	// checkpoint only ever feeds Pool.RemoveExpired's idle-timeout
	// comparison, which tolerates a one-second skew.
	c.TvTimeoutLastCheckpoint = time.Unix(fasttime.UnixTimestamp(), 0)
	if c.TimeoutUT <= 0 || c.TvIn.IsZero() {
		return
	}
	if time.Since(c.TvIn) > c.TimeoutUT {
		c.StatusCode = 504
		c.writeTextBody("Gateway Timeout")
		c.IOFlags &^= KeepAlive
		if c.Mode == ModeFILECOPY && c.InputFile != nil {
			c.InputFile.Close()
			c.InputFile = nil
		}
		c.Compression = CompressionState{}
	}
}
