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
	"bytes"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/edgeworker/webworker/common"
)

func newError(format string, args ...any) error {
	return errors.Errorf("webclient: "+format, args...)
}

// CompressionPolicy carries the process-wide gzip knobs spec.md §6
// names: web_gzip_level, web_gzip_strategy. Strategy is accepted for
// parity with the spec's interface but klauspost/compress/gzip, like
// compress/gzip, only exposes a compression level, so Strategy is not
// applied to the gzip writer.
type CompressionPolicy struct {
	Enabled  bool
	Level    int
	Strategy int
}

// Pipeline wraps a gzip writer (windowBits 15+16 equivalent: gzip
// framing over a deflate stream) whose output accumulates into an
// internal buffer that Feed drains on every call, giving the send
// engine a bounded "zbuffer" per tick rather than an ever-growing one.
type Pipeline struct {
	gz  *gzip.Writer
	buf bytes.Buffer
}

// NewPipeline constructs a compression pipeline at the given level,
// initialised lazily by the send engine on the first tick that needs
// to compress — and only before any response byte has been sent,
// matching spec.md §4.7.
func NewPipeline(level int) (*Pipeline, error) {
	p := &Pipeline{}
	gz, err := gzip.NewWriterLevel(&p.buf, level)
	if err != nil {
		return nil, newError("gzip init: %s", err)
	}
	p.gz = gz
	return p, nil
}

// Feed writes input into the compressor and flushes a chunk boundary.
// final triggers Z_FINISH-equivalent behaviour (closes the gzip stream,
// including its footer); otherwise a Z_SYNC_FLUSH-equivalent Flush
// makes this tick's bytes immediately readable without waiting for more
// input. The returned slice is this call's new output only — Feed
// always resets its internal accumulator before returning.
func (p *Pipeline) Feed(input []byte, final bool) ([]byte, error) {
	if len(input) > 0 {
		if _, err := p.gz.Write(input); err != nil {
			return nil, newError("write: %s", err)
		}
	}
	if final {
		if err := p.gz.Close(); err != nil {
			return nil, newError("close: %s", err)
		}
	} else if err := p.gz.Flush(); err != nil {
		return nil, newError("flush: %s", err)
	}

	out := append([]byte(nil), p.buf.Bytes()...)
	p.buf.Reset()
	return out, nil
}

// EnableCompression arms gzip-chunked output for the current response,
// implying CHUNKED_TRANSFER (invariant §3.2: zoutput ⇒ zinitialized ⇒
// CHUNKED_TRANSFER is established once initCompression succeeds).
func (c *Client) EnableCompression() {
	c.Compression.Enabled = true
}

// initCompression lazily constructs the compression pipeline; it must
// only be called before any response byte has been sent.
func (c *Client) initCompression(policy CompressionPolicy) error {
	if c.Compression.Initialized {
		return nil
	}
	p, err := NewPipeline(policy.Level)
	if err != nil {
		c.MarkDead()
		return err
	}
	c.Compression.Pipeline = p
	c.Compression.Initialized = true
	c.IOFlags |= ChunkedTransfer
	return nil
}

// compressionDone reports whether all in-memory input has been
// consumed by the compressor and all compressor output has been sent —
// step 1 of spec.md §4.7's send-path algorithm. Initialized guards the
// very first tick of a response: before initCompression has ever run,
// Sent/Data.Len()/ZSent/ZHave are all trivially zero and must not be
// mistaken for "nothing left to do".
func (c *Client) compressionDone() bool {
	return c.Compression.Initialized &&
		c.Compression.Sent >= c.Data.Len() &&
		c.Compression.ZSent >= c.Compression.ZHave &&
		len(c.Compression.ZPending) == 0
}

// advanceCompression implements one tick of spec.md §4.7's send path,
// steps 2-3: closing the previous chunk, feeding new input, and
// recomputing the pending output window. It does not perform the
// socket write; the caller (send.go) drains ZBuffer[ZSent:ZHave] and
// advances ZSent by however many bytes the transport accepted.
//
// Compressor output is handed out at most common.ReadWriteBlockSize
// (Z_CHUNK) bytes at a time per spec.md §3 invariant 4 (zsent ≤ zhave ≤
// Z_CHUNK); any remainder from a single Feed call is held in ZPending
// and exposed on subsequent ticks without calling the compressor again.
func (c *Client) advanceCompression(policy CompressionPolicy, moreInputComing bool) error {
	if err := c.initCompression(policy); err != nil {
		return err
	}
	if c.Compression.ZSent < c.Compression.ZHave {
		// previous chunk not fully drained yet; nothing to advance
		return nil
	}

	if len(c.Compression.ZPending) == 0 {
		data := c.Data.Bytes()
		newInput := data[c.Compression.Sent:]
		final := !moreInputComing

		out, err := c.Compression.Pipeline.Feed(newInput, final)
		if err != nil {
			c.MarkDead()
			return err
		}

		c.Compression.Sent = len(data)
		c.Compression.ZPending = out
	}

	chunk := c.Compression.ZPending
	if len(chunk) > common.ReadWriteBlockSize {
		chunk = chunk[:common.ReadWriteBlockSize]
	}
	c.Compression.ZBuffer = chunk
	c.Compression.ZHave = len(chunk)
	c.Compression.ZSent = 0
	c.Compression.ZPending = c.Compression.ZPending[len(chunk):]
	return nil
}
