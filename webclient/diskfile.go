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
	"os"
	"syscall"
	"time"
)

// diskFile is the production InputFile backing a FILECOPY response: a
// read-only, non-blocking-opened *os.File plus the stat metadata the
// static-file responder needs up front.
type diskFile struct {
	f       *os.File
	size    int64
	modTime time.Time
}

// OpenDiskFile opens name read-only and non-blocking, matching spec.md
// §4.6's "open non-blocking read-only" step. Busy/unavailable files
// surface as syscall.EAGAIN/EBUSY through the returned error, which
// ServeStaticFile translates into a 307 retry-later response. A
// directory opens successfully with isDir=true and a nil InputFile;
// the caller is expected to retry against its index.html.
func OpenDiskFile(name string) (file InputFile, isDir bool, err error) {
	f, err := os.OpenFile(name, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, false, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, true, nil
	}
	return &diskFile{f: f, size: fi.Size(), modTime: fi.ModTime()}, false, nil
}

func (d *diskFile) Read(p []byte) (int, error) { return d.f.Read(p) }
func (d *diskFile) Close() error               { return d.f.Close() }
func (d *diskFile) Size() int64                { return d.size }
func (d *diskFile) ModTime() time.Time         { return d.modTime }
