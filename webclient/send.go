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

import "errors"

// Send drains the response per spec.md §4.10, delegating to the
// compression pipeline (§4.7) when compression is enabled. moreInput
// reports whether FILECOPY still expects to read more bytes from disk —
// needed to decide between Z_SYNC_FLUSH and Z_FINISH, and between
// yielding vs. completing the request once output is exhausted.
func (c *Client) Send(policy CompressionPolicy, moreInput bool) error {
	if c.IsDead() {
		return nil
	}
	if c.Compression.Enabled {
		return c.sendCompressed(policy, moreInput)
	}
	return c.sendPlain(moreInput)
}

func (c *Client) sendPlain(moreInput bool) error {
	data := c.Data.Bytes()
	if c.Sent < len(data) {
		n, err := c.Transport.Write(data[c.Sent:])
		if n > 0 {
			c.Sent += n
			c.SentBytes += int64(n)
			bytesSentTotal.Add(float64(n))
		}
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				c.IOFlags |= WaitSend
				return nil
			}
			c.MarkDead()
			return err
		}
	}
	return c.finishSendTick(c.Sent >= len(data), moreInput)
}

func (c *Client) sendCompressed(policy CompressionPolicy, moreInput bool) error {
	if c.compressionDone() {
		done, err := c.sendFrame(chunkTerminator)
		if err != nil || !done {
			return err
		}
		return c.finishSendTick(true, moreInput)
	}

	if err := c.advanceCompression(policy, moreInput); err != nil {
		return err
	}

	if c.Compression.ZSent == 0 && c.Compression.ZHave > 0 {
		done, err := c.sendFrame(chunkHeader(c.Compression.ZHave))
		if err != nil || !done {
			return err
		}
	}
	if c.Compression.ZSent < c.Compression.ZHave {
		zb := c.Compression.ZBuffer
		n, err := c.Transport.Write(zb[c.Compression.ZSent:c.Compression.ZHave])
		if n > 0 {
			c.Compression.ZSent += n
			c.SentBytes += int64(n)
			bytesSentTotal.Add(float64(n))
		}
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				c.IOFlags |= WaitSend
				return nil
			}
			c.MarkDead()
			return err
		}
	}
	if c.Compression.ZSent >= c.Compression.ZHave && c.Compression.ZHave > 0 {
		done, err := c.sendFrame(chunkTrailerCRLF)
		if err != nil || !done {
			return err
		}
	}

	c.IOFlags |= WaitSend
	return nil
}

// sendFrame writes a small fixed framing token (a chunk header, trailer
// or the final terminator). Unlike the body write above, these bytes
// must never be torn across a WouldBlock — so on WouldBlock it stashes
// the unwritten remainder in CompressionState.FrameBuf, sets WaitSend
// and returns done=false, letting the driver re-arm and come back on
// the next writable tick instead of spinning here until the socket
// buffer drains.
func (c *Client) sendFrame(token []byte) (done bool, err error) {
	buf := c.Compression.FrameBuf
	if buf == nil {
		buf = token
	}
	for len(buf) > 0 {
		n, werr := c.Transport.Write(buf)
		if n > 0 {
			buf = buf[n:]
			c.SentBytes += int64(n)
			bytesSentTotal.Add(float64(n))
		}
		if werr != nil {
			if errors.Is(werr, ErrWouldBlock) {
				c.Compression.FrameBuf = buf
				c.IOFlags |= WaitSend
				return false, nil
			}
			c.MarkDead()
			return false, werr
		}
	}
	c.Compression.FrameBuf = nil
	return true, nil
}

// finishSendTick applies the termination logic common to §4.7(1) and
// §4.10: if all bytes are sent and FILECOPY still has more to read,
// disarm send-wait and yield; else if keep-alive is off, mark dead;
// else reset for the next request.
func (c *Client) finishSendTick(allSent bool, moreInput bool) error {
	if !allSent {
		c.IOFlags |= WaitSend
		return nil
	}
	if c.Mode == ModeFILECOPY && moreInput {
		c.IOFlags &^= WaitSend
		return nil
	}
	if !c.IOFlags.Has(KeepAlive) {
		c.MarkDead()
		return nil
	}
	c.ResetForNextRequest()
	return nil
}
