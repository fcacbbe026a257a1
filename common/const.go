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

package common

const (
	// App 应用程序名称
	App = "webworker"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadWriteBlockSize 压缩管道单次 deflate 输出块的默认大小
	//
	// 对应文档中的 Z_CHUNK 取值 过大会在连接较慢时造成延迟 过小会增加 chunk
	// 头开销 此值是两者间一个折衷的默认值
	ReadWriteBlockSize = 4096
)
