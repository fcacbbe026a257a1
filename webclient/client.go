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

// Package webclient implements the per-connection request lifecycle
// engine: header accumulation, incremental validation, method/URL
// decoding, compressed chunked response production and overlapped
// file-to-socket streaming. One Client is allocated per accepted
// connection and is reusable from a pool across keep-alive requests.
//
// The engine is driven entirely by an external readiness driver (an
// event loop, a thread-per-connection acceptor, or a pooled worker) that
// calls Engine.OnReadable/OnWritable in response to socket readiness.
// The engine blocks exactly when its Transport does: the plain
// net.Conn transport blocks in Read and Write.
package webclient

import (
	"time"

	"github.com/edgeworker/webworker/common/netaddr"
	"github.com/edgeworker/webworker/internal/tracekit"
	"github.com/edgeworker/webworker/internal/webbuf"
)

// Mode is the HTTP method/role a Client is currently handling.
type Mode uint8

const (
	ModeGET Mode = iota
	ModePOST
	ModePUT
	ModeDELETE
	ModeOPTIONS
	ModeSTREAM
	// ModeFILECOPY is entered once the static-file responder has opened
	// an input file; the response body streams from disk rather than
	// from an in-memory buffer.
	ModeFILECOPY
)

func (m Mode) String() string {
	switch m {
	case ModeGET:
		return "GET"
	case ModePOST:
		return "POST"
	case ModePUT:
		return "PUT"
	case ModeDELETE:
		return "DELETE"
	case ModeOPTIONS:
		return "OPTIONS"
	case ModeSTREAM:
		return "STREAM"
	case ModeFILECOPY:
		return "FILECOPY"
	default:
		return "UNKNOWN"
	}
}

// AccessMode is the coarse category recorded in the access log line;
// several Modes collapse into "DATA".
func (m Mode) AccessMode() string {
	switch m {
	case ModeFILECOPY:
		return "FILECOPY"
	case ModeOPTIONS:
		return "OPTIONS"
	case ModeSTREAM:
		return "STREAM"
	case ModeGET, ModePOST, ModePUT, ModeDELETE:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// PathFlags is a bitset of properties discovered while resolving the
// decoded path.
type PathFlags uint8

const (
	PathWithVersion PathFlags = 1 << iota
	PathIsV0
	PathIsV1
	PathIsV2
	PathHasFileExtension
	PathHasTrailingSlash
)

// Has reports whether all bits in mask are set.
func (f PathFlags) Has(mask PathFlags) bool { return f&mask == mask }

// IOFlags is a bitset of I/O-readiness and connection-lifecycle state.
type IOFlags uint32

const (
	WaitReceive IOFlags = 1 << iota
	WaitSend
	KeepAlive
	DoNotTrack
	TrackingRequired
	Dead
	ChunkedTransfer
)

// Has reports whether all bits in mask are set.
func (f IOFlags) Has(mask IOFlags) bool { return f&mask == mask }

// MaxHeaderFetch bounds the number of receive attempts the validator
// will wait through before declaring a client too slow.
const MaxHeaderFetch = 10

// CompressionState holds the gzip-over-deflate sub-state for a single
// response. zbuffer/zhave/zsent/zinitialized model spec.md §4.7's
// per-tick chunk emission; the deflate writer itself lives in
// compression.go so this struct stays a plain value the rest of the
// engine can inspect without an import cycle.
type CompressionState struct {
	Enabled     bool
	Initialized bool
	Sent        int // bytes of input handed to the compressor so far

	Pipeline *Pipeline
	ZBuffer  []byte // valid compressor output pending send, capped at common.ReadWriteBlockSize
	ZHave    int
	ZSent    int
	ZPending []byte // compressor output beyond this tick's Z_CHUNK, held for the next tick

	FrameBuf []byte // partially-written chunk header/trailer/terminator, resumed across WouldBlock ticks
}

// Client is one connection's engine state, reusable from a pool.
type Client struct {
	// identity
	ID       uint64
	Tuple    netaddr.Tuple
	UseCount uint64
	Request  tracekit.TraceContext

	// transport
	Transport Transport
	Corkable  bool

	// file-copy input, nil unless Mode == ModeFILECOPY
	InputFile InputFile

	Mode      Mode
	PathFlags PathFlags
	IOFlags   IOFlags

	// request buffers — these seven handles survive a keep-alive reset
	// (all but PostPayload are flushed), together with the identity and
	// transport fields above.
	URLAsReceived  *webbuf.Buffer
	URLPath        *webbuf.Buffer
	URLQuery       *webbuf.Buffer
	PostPayload    *webbuf.Buffer
	Data           *webbuf.Buffer // request receive buffer / response body
	Header         *webbuf.Buffer // accumulated custom response headers
	HeaderOutput   *webbuf.Buffer // fully composed response head

	// parsed headers
	Origin           string
	UserAgent        string
	BearerToken      string
	Host             string
	XForwardedHost   string
	AcceptEncoding   string

	// header parse progress
	Tries    int
	LastSize int

	// response
	StatusCode  int
	ContentType string
	NoCacheable bool
	HasCookies  bool
	Date        time.Time
	Expires     time.Time
	Sent        int // plain-mode byte cursor into Data
	HeaderSent  int // byte cursor into HeaderOutput
	RLen        int // expected body size

	Compression CompressionState

	// per-request statistics
	ReceivedBytes int64
	SentBytes     int64

	// timings
	TvIn                    time.Time
	TvReady                 time.Time
	TvTimeoutLastCheckpoint time.Time
	TimeoutUT               time.Duration

	// dashboard-version recursion support: set by the dispatch router
	// while resolving /v0|v1|v2/... path prefixes.
	dashboardVersion int
}

// New allocates a fresh Client with freshly sized buffers. The same
// Client serves successive keep-alive requests on its connection via
// ResetForNextRequest; Pool.Acquire calls New for every connection.
func New(id uint64, initialBufSize int) *Client {
	c := &Client{
		ID:           id,
		URLAsReceived: webbuf.New(256),
		URLPath:       webbuf.New(256),
		URLQuery:      webbuf.New(256),
		PostPayload:   webbuf.New(0),
		Data:          webbuf.New(initialBufSize),
		Header:        webbuf.New(512),
		HeaderOutput:  webbuf.New(512),
	}
	c.ResetForNextRequest()
	return c
}

// ResetForNextRequest clears only the named fields a keep-alive reuse
// must clear — mode, path flags, keep-alive, parsed headers and response
// state — while retaining the buffer handles (flushed, not reallocated),
// the use count and the transport/identity fields. This replaces the
// memset-then-restore pattern with an explicit field list per spec.md
// §9's design note.
func (c *Client) ResetForNextRequest() {
	c.URLAsReceived.Flush()
	c.URLPath.Flush()
	c.URLQuery.Flush()
	c.Data.Flush()
	c.Header.Flush()
	c.HeaderOutput.Flush()
	c.Data.ResetMeta()

	c.Mode = ModeGET
	c.PathFlags = 0
	c.IOFlags &^= ChunkedTransfer | WaitSend | WaitReceive | KeepAlive
	c.InputFile = nil

	c.Origin = ""
	c.UserAgent = ""
	c.BearerToken = ""
	c.Host = ""
	c.XForwardedHost = ""
	c.AcceptEncoding = ""

	c.Tries = 0
	c.LastSize = 0

	c.StatusCode = 0
	c.ContentType = ""
	c.NoCacheable = false
	c.HasCookies = false
	c.Date = time.Time{}
	c.Expires = time.Time{}
	c.Sent = 0
	c.HeaderSent = 0
	c.RLen = 0

	c.Compression = CompressionState{}

	c.ReceivedBytes = 0
	c.SentBytes = 0
	c.dashboardVersion = 0

	c.IOFlags |= WaitReceive
}

// DashboardVersion returns the resolved /v0|v1|v2/ version, or -1 if
// none has been set on this request yet.
func (c *Client) DashboardVersion() int {
	if !c.PathFlags.Has(PathWithVersion) {
		return -1
	}
	return c.dashboardVersion
}

// SetDashboardVersion records the first dashboard-version segment seen
// on this request. Returns false if a version was already set (the
// "Multiple dashboard versions" error case).
func (c *Client) SetDashboardVersion(v int) bool {
	if c.PathFlags.Has(PathWithVersion) {
		return false
	}
	c.dashboardVersion = v
	switch v {
	case 0:
		c.PathFlags |= PathIsV0
	case 1:
		c.PathFlags |= PathIsV1
	case 2:
		c.PathFlags |= PathIsV2
	}
	c.PathFlags |= PathWithVersion
	return true
}

// IsDead reports whether the client has been marked dead; the engine
// must release it at the next scheduler tick and perform no further
// I/O on it.
func (c *Client) IsDead() bool {
	return c.IOFlags.Has(Dead)
}

// MarkDead sets the Dead flag, the universal signal to release the
// client at the next opportunity.
func (c *Client) MarkDead() {
	c.IOFlags |= Dead
}

// InputFile abstracts the on-disk file backing a FILECOPY response.
// Collapsing the teacher's ifd==ofd sentinel into this sum-type-shaped
// interface (nil means "no file open") follows spec.md §9's design note.
type InputFile interface {
	// Read pulls up to len(p) bytes, non-blocking.
	Read(p []byte) (int, error)
	Close() error
	Size() int64
	ModTime() time.Time
}
