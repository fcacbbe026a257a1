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

import "fmt"

// chunkHeader renders a chunked-transfer-encoding chunk size line,
// "%zX\r\n", for size bytes. Bounded writes of ReadWriteBlockSize-sized
// pieces (rather than one chunk per compressor call) are what keeps a
// single slow client from monopolising the send buffer — the same
// discipline the teacher's bounded chunk writer applies to replayed TCP
// segments, repurposed here for gzip chunk emission (§4.7).
func chunkHeader(size int) []byte {
	return []byte(fmt.Sprintf("%X\r\n", size))
}

// chunkTerminator is the final zero-length chunk plus trailing CRLF
// that ends a chunked response body.
var chunkTerminator = []byte("0\r\n\r\n")

// chunkTrailerCRLF closes a chunk's data section.
var chunkTrailerCRLF = []byte("\r\n")
