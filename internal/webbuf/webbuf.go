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

// Package webbuf implements the growable byte buffer shared by a client's
// request and response state: an append-only byte container that also
// carries the small amount of caching metadata the response path needs
// (content type, cacheability, Date/Expires). Buffers are owned by one
// client and are reused across keep-alive requests via Flush, never
// reallocated unless capacity genuinely runs out.
package webbuf

import (
	"fmt"
	"time"
)

// Buffer is an append-only growable byte container.
//
// Content is not guaranteed to be free of NUL bytes: it may hold binary
// file data as well as textual HTTP content.
type Buffer struct {
	buf []byte

	ContentType  string
	NoCacheable  bool
	HasCookies   bool
	Date         time.Time
	Expires      time.Time
}

// New returns a Buffer pre-sized to hold at least size bytes before its
// first growth.
func New(size int) *Buffer {
	return &Buffer{buf: make([]byte, 0, size)}
}

// Len returns the number of valid bytes currently stored.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Bytes returns the valid portion of the buffer. The returned slice is
// only valid until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// NeedBytes ensures the buffer can grow by at least n more bytes without
// a further reallocation, without changing Len.
func (b *Buffer) NeedBytes(n int) {
	if cap(b.buf)-len(b.buf) >= n {
		return
	}
	grown := make([]byte, len(b.buf), len(b.buf)+n)
	copy(grown, b.buf)
	b.buf = grown
}

// StrCat appends p verbatim.
func (b *Buffer) StrCat(p []byte) {
	b.buf = append(b.buf, p...)
}

// StrNCat appends at most n bytes of p.
func (b *Buffer) StrNCat(p []byte, n int) {
	if n > len(p) {
		n = len(p)
	}
	b.buf = append(b.buf, p[:n]...)
}

// Sprintf appends the formatted result of format/args.
func (b *Buffer) Sprintf(format string, args ...any) {
	b.buf = fmt.Appendf(b.buf, format, args...)
}

// Flush truncates the buffer to zero length without releasing capacity.
func (b *Buffer) Flush() {
	b.buf = b.buf[:0]
}

// ResetMeta clears the caching metadata fields, used when a client is
// reset for the next keep-alive request.
func (b *Buffer) ResetMeta() {
	b.ContentType = ""
	b.NoCacheable = false
	b.HasCookies = false
	b.Date = time.Time{}
	b.Expires = time.Time{}
}

// Grow truncates to zero length and discards the backing array, used
// when a buffer has grown unreasonably large and should shrink back.
func (b *Buffer) Grow(size int) {
	b.buf = make([]byte, 0, size)
}

// Clone returns an independent copy of the valid bytes.
func (b *Buffer) Clone() []byte {
	if b.buf == nil {
		return nil
	}
	return append([]byte{}, b.buf...)
}

// Truncate drops everything before offset n, so the remainder becomes
// the new content without a second allocation pass.
func (b *Buffer) Truncate(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	b.buf = append(b.buf[:0], b.buf[n:]...)
}
