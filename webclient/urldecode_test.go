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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPath  string
		wantQuery string
	}{
		{
			name:      "PlainPath",
			input:     "/api/v1/info",
			wantPath:  "/api/v1/info",
			wantQuery: "",
		},
		{
			name:      "PathWithQuery",
			input:     "/api/v1/data?after=100&before=200",
			wantPath:  "/api/v1/data",
			wantQuery: "after=100&before=200",
		},
		{
			name:      "PercentEncodedPath",
			input:     "/file%20name.txt",
			wantPath:  "/file name.txt",
			wantQuery: "",
		},
		{
			name:      "PercentEncodedQuery",
			input:     "/api/v1/data?chart=system.cpu%26extra",
			wantPath:  "/api/v1/data",
			wantQuery: "chart=system.cpu&extra",
		},
		{
			name:      "TrailingPercentIsLiteral",
			input:     "/odd%",
			wantPath:  "/odd%",
			wantQuery: "",
		},
		{
			name:      "InvalidHexIsLiteral",
			input:     "/odd%zz",
			wantPath:  "/odd%zz",
			wantQuery: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, query := decodeURL([]byte(tt.input), false)
			assert.Equal(t, tt.wantPath, string(path))
			assert.Equal(t, tt.wantQuery, string(query))
		})
	}
}

// TestDecodeURLAmpersandBug pins the documented bug: a literal '&' that
// survives percent-decoding inside the query string is never treated
// as a second-parameter separator introduced by decoding, because
// decodeURL splits on the raw '?' once and hands the remainder through
// untouched aside from percent-unescaping. This test exists to catch an
// accidental "fix" of that behaviour, not to endorse it.
func TestDecodeURLAmpersandBug(t *testing.T) {
	_, query := decodeURL([]byte("/api/v1/data?chart=a%26b=c"), false)
	assert.Equal(t, "chart=a&b=c", string(query))
}
