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

// Package tracekit hands out a small random identifier correlating one
// request's access-log line with an inbound W3C traceparent header, when
// the caller supplied one. Nothing downstream consumes a trace pipeline,
// so only the identifier shape is kept, not a span model.
package tracekit

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
)

const headerTraceParent = "traceparent"

// TraceID 是一个 16 字节的请求级标识
type TraceID [16]byte

func (id TraceID) String() string {
	return hex.EncodeToString(id[:])
}

// SpanID 是一个 8 字节的跨度标识
type SpanID [8]byte

func (id SpanID) String() string {
	return hex.EncodeToString(id[:])
}

// TraceContext 记录了从 traceparent 头中解析出的一对标识
type TraceContext struct {
	TraceID TraceID
	SpanID  SpanID
}

// TraceIDFromHTTPHeader 从 HTTP header 中提取 traceparent 携带的标识
//
// 格式样例
// traceparent: 00-{trace-id}-{parent-id}-{trace-flags}
func TraceIDFromHTTPHeader(h http.Header) (TraceContext, bool) {
	var empty TraceContext
	s := h.Get(headerTraceParent)
	if s == "" {
		return empty, false
	}

	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return empty, false
	}

	// 版本校验
	if parts[0] != "00" {
		return empty, false
	}

	traceID, ok := traceIDFromHex(parts[1])
	if !ok {
		return empty, false
	}
	spanID, ok := spanIDFromHex(parts[2])
	if !ok {
		return empty, false
	}
	return TraceContext{TraceID: traceID, SpanID: spanID}, true
}

func traceIDFromHex(s string) (TraceID, bool) {
	var id TraceID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, false
	}
	copy(id[:], b)
	return id, true
}

func spanIDFromHex(s string) (SpanID, bool) {
	var id SpanID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, false
	}
	copy(id[:], b)
	return id, true
}

// RandomTraceID 随机生成 TraceID
func RandomTraceID() TraceID {
	var id TraceID
	rand.Read(id[:])
	return id
}

// RandomSpanID 随机生成 SpanID
func RandomSpanID() SpanID {
	var id SpanID
	rand.Read(id[:])
	return id
}
