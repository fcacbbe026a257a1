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
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/edgeworker/webworker/internal/bufpool"
)

const scratchReadSize = 64*1024 - 1

// scratch borrows a pooled buffer sized to exactly scratchReadSize
// bytes, avoiding a fresh 64KiB allocation on every Receive call.
func scratch() (*bytebufferpool.ByteBuffer, []byte) {
	buf := bufpool.Acquire()
	if cap(buf.B) < scratchReadSize {
		buf.B = make([]byte, scratchReadSize)
	} else {
		buf.B = buf.B[:scratchReadSize]
	}
	return buf, buf.B
}

// Receive implements spec.md §4.9. In FILECOPY mode it pulls bytes from
// the open input file into c.Data, growing it to hold at least c.RLen
// bytes; on EOF it disarms read-wait and aliases the input source away
// (represented here by clearing InputFile, collapsing the teacher's
// ifd==ofd sentinel per spec.md §9). Otherwise it reads from the
// transport, always leaving room for the validator's next scan, and
// translates transient/TLS-want signals into WAIT_RECEIVE rather than
// an error.
func (c *Client) Receive() (n int, err error) {
	if c.IsDead() {
		return 0, nil
	}

	if c.Mode == ModeFILECOPY && c.InputFile != nil {
		return c.receiveFile()
	}
	return c.receiveSocket()
}

func (c *Client) receiveFile() (int, error) {
	c.Data.NeedBytes(c.RLen - c.Data.Len())
	buf, tmp := scratch()
	defer bufpool.Release(buf)
	n, err := c.InputFile.Read(tmp)
	if n > 0 {
		c.Data.StrCat(tmp[:n])
		c.ReceivedBytes += int64(n)
		bytesReceivedTotal.Add(float64(n))
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.IOFlags &^= WaitReceive
			c.InputFile.Close()
			c.InputFile = nil
			return n, nil
		}
		c.MarkDead()
		return n, err
	}
	return n, nil
}

func (c *Client) receiveSocket() (int, error) {
	// leave one byte of headroom, matching the teacher's "always leaving
	// one byte for a NUL" receive-buffer discipline.
	buf, tmp := scratch()
	defer bufpool.Release(buf)
	n, err := c.Transport.Read(tmp)
	if n > 0 {
		c.Data.StrCat(tmp[:n])
		c.ReceivedBytes += int64(n)
		bytesReceivedTotal.Add(float64(n))
	}
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			c.IOFlags |= WaitReceive
			return n, nil
		}
		switch c.Transport.TLSState() {
		case TLSWantRead:
			c.IOFlags |= WaitReceive
			return n, nil
		case TLSWantWrite:
			c.IOFlags |= WaitSend
			return n, nil
		}
		if errors.Is(err, io.EOF) {
			c.MarkDead()
			return n, nil
		}
		c.MarkDead()
		return n, err
	}
	return n, nil
}
