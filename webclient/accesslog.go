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
	"strconv"
	"strings"
	"time"

	"github.com/edgeworker/webworker/internal/bufbytes"
	"github.com/edgeworker/webworker/internal/pubsub"
)

// accessLineMaxURL bounds how much of a received URL an audit line ever
// carries, so a pathologically long request line can't balloon a log
// sink's memory the way an unbounded copy would.
const accessLineMaxURL = 1024

// AccessLine is one request_done audit record, published to every
// subscriber of an AccessLog's pubsub fan-out (logger sink, metrics
// sink, or anything else a caller wants to attach).
type AccessLine struct {
	ID            uint64
	ThreadID      int
	ClientAddr    string
	Mode          string
	SentBytes     int64
	TotalBytes    int64
	CompressRatio float64
	PrepTime      time.Duration
	SendTime      time.Duration
	TotalTime     time.Duration
	Status        int
	URL           string
}

// AccessLog fans one access line out to every subscriber via
// internal/pubsub, the same fan-out mechanism the teacher uses for its
// round-trip pipeline, repurposed here for audit lines and counters.
type AccessLog struct {
	bus *pubsub.PubSub
}

// NewAccessLog constructs an empty fan-out; subscribers attach with
// Subscribe before the first RequestDone call they care about.
func NewAccessLog() *AccessLog {
	return &AccessLog{bus: pubsub.New()}
}

// Subscribe registers a new consumer queue.
func (a *AccessLog) Subscribe(size int) pubsub.Queue {
	return a.bus.Subscribe(size)
}

// RequestDone implements spec.md §4.12: if the client's received URL is
// non-empty, emit one audit line with timings, sizes, compression
// ratio and the control-stripped URL.
func (a *AccessLog) RequestDone(c *Client, threadID int) {
	if c.URLAsReceived.Len() == 0 {
		return
	}

	ratio := 0.0
	if c.Compression.Enabled && c.Compression.Sent > 0 {
		ratio = float64(c.Compression.ZHave) / float64(c.Compression.Sent)
	}

	now := time.Now()
	prep := c.TvReady.Sub(c.TvIn)
	total := now.Sub(c.TvIn)
	send := total - prep
	if prep < 0 {
		prep = 0
	}
	if send < 0 {
		send = 0
	}

	line := AccessLine{
		ID:            c.ID,
		ThreadID:      threadID,
		ClientAddr:    c.Tuple.String(),
		Mode:          c.Mode.AccessMode(),
		SentBytes:     c.SentBytes,
		TotalBytes:    c.ReceivedBytes + c.SentBytes,
		CompressRatio: ratio,
		PrepTime:      prep,
		SendTime:      send,
		TotalTime:     total,
		Status:        c.StatusCode,
		URL:           stripControl(truncatedURL(c.URLAsReceived.Bytes())),
	}

	requestsTotal.WithLabelValues(line.Mode, strconv.Itoa(line.Status)).Inc()
	a.bus.Publish(line)
}

// truncatedURL copies raw into a fixed-capacity buffer, silently
// dropping anything past accessLineMaxURL.
func truncatedURL(raw []byte) string {
	b := bufbytes.New(accessLineMaxURL)
	b.Write(raw)
	return b.Text()
}

// stripControl replaces control bytes (including NUL) and DEL with
// spaces.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
