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

// Package mimetype resolves a file extension to the content-type string
// the static-file responder writes into a response. The table is built
// once under a one-shot guard, matching the single-initialisation hash
// table the rest of the engine's process-wide state follows.
package mimetype

import (
	"strings"
	"sync"
)

const fallback = "application/octet-stream"

var (
	once  sync.Once
	table map[string]string
)

func initTable() {
	table = map[string]string{
		".html": "text/html; charset=utf-8",
		".htm":  "text/html; charset=utf-8",
		".css":  "text/css",
		".js":   "application/javascript",
		".mjs":  "application/javascript",
		".json": "application/json",
		".xml":  "application/xml",
		".txt":  "text/plain",
		".conf": "text/plain",
		".md":   "text/plain",
		".csv":  "text/csv",
		".gz":   "application/x-gzip",
		".bin":  fallback,
		".png":  "image/png",
		".gif":  "image/gif",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".ico":  "image/x-icon",
		".svg":  "image/svg+xml",
		".webp": "image/webp",
		".bmp":  "image/bmp",
		".woff": "font/woff",
		".woff2": "font/woff2",
		".ttf":  "font/ttf",
		".eot":  "application/vnd.ms-fontobject",
		".otf":  "font/otf",
		".pdf":  "application/pdf",
		".zip":  "application/zip",
		".wasm": "application/wasm",
		".map":  "application/json",
		".appcache": "text/cache-manifest",
		".manifest": "text/cache-manifest",
	}
}

// Resolve returns the content-type for ext (which must include its
// leading dot, as returned by path.Ext). Lookup is case-insensitive.
// Extensions absent from the table resolve to the generic binary
// fallback.
func Resolve(ext string) string {
	once.Do(initTable)
	if ct, ok := table[strings.ToLower(ext)]; ok {
		return ct
	}
	return fallback
}

// Fallback returns the default content-type used for unknown extensions.
func Fallback() string {
	return fallback
}
