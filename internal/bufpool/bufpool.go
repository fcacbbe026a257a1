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

// Package bufpool pools the scratch byte buffers used while accumulating
// header bytes for a request that has not yet fully arrived.
package bufpool

import (
	"github.com/valyala/bytebufferpool"
)

var pool bytebufferpool.Pool

// Acquire 获取一个已清空的 *bytebufferpool.ByteBuffer 实例
func Acquire() *bytebufferpool.ByteBuffer {
	return pool.Get()
}

// Release 归还 buf 至池中 调用方此后不应再持有该引用
func Release(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	pool.Put(buf)
}
