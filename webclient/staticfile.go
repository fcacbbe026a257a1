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
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"syscall"

	"github.com/edgeworker/webworker/mimetype"
)

// OpenFunc opens a candidate path, reporting whether it resolved to a
// directory. InputFile is nil when isDir is true or err is non-nil.
type OpenFunc func(path string) (file InputFile, isDir bool, err error)

// validPathChar is the allowed character set for a decoded static-file
// path: letters, digits, '/', '.', '_', '-'.
func validPathChar(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '/' || b == '.' || b == '_' || b == '-':
		return true
	default:
		return false
	}
}

// ServeStaticFile resolves the client's decoded URL path under webDir
// per spec.md §4.6's decision table, opens the resolved file
// non-blocking, and arms FILECOPY mode on success. openFile is injected
// for testability; production callers pass OpenDiskFile.
func (c *Client) ServeStaticFile(webDir string, openFile OpenFunc) {
	raw := string(c.URLPath.Bytes())
	p := strings.TrimPrefix(raw, "/")

	for i := 0; i < len(p); i++ {
		if !validPathChar(p[i]) {
			c.StatusCode = 400
			c.writeTextBody("Invalid characters in URL")
			return
		}
	}
	if strings.Contains(p, "..") {
		c.StatusCode = 400
		c.writeTextBody("Relative filenames are not supported")
		return
	}

	version := c.DashboardVersion()
	hasExt := path.Ext(p) != ""

	primary, fallback := resolveCandidates(webDir, p, version, hasExt)

	resolvedPath, file, isDir, err := openWithFallback(primary, fallback, openFile)
	if err != nil {
		if isRetryable(err) {
			c.respondRetryLater(p)
			return
		}
		c.StatusCode = 404
		c.writeTextBody("not found")
		return
	}

	if isDir {
		indexPath := strings.TrimSuffix(resolvedPath, "/") + "/index.html"
		f, indexIsDir, indexErr := openFile(indexPath)
		if indexErr != nil || indexIsDir {
			c.StatusCode = 404
			c.writeTextBody("not found")
			return
		}
		file = f
		resolvedPath = indexPath
	}

	if isDir && !c.PathFlags.Has(PathHasTrailingSlash) && !strings.HasSuffix(raw, "/") {
		file.Close()
		c.appendSlashAndRedirect(raw)
		return
	}

	c.StatusCode = 200
	c.Mode = ModeFILECOPY
	c.Data.Flush()
	c.InputFile = file
	c.RLen = int(file.Size())
	c.Date = file.ModTime()
	c.NoCacheable = false
	c.ContentType = mimetype.Resolve(path.Ext(resolvedPath))
	c.IOFlags |= WaitReceive
}

func openWithFallback(primary, fallback string, openFile OpenFunc) (resolvedPath string, file InputFile, isDir bool, err error) {
	file, isDir, err = openFile(primary)
	if err == nil {
		return primary, file, isDir, nil
	}
	if !os.IsNotExist(err) || fallback == "" {
		return "", nil, false, err
	}
	file, isDir, err = openFile(fallback)
	if err != nil {
		return "", nil, false, err
	}
	return fallback, file, isDir, nil
}

// resolveCandidates implements spec.md §4.6's decision table.
func resolveCandidates(webDir, p string, version int, hasExt bool) (primary, fallback string) {
	switch {
	case version < 0:
		if hasExt || p == "" {
			return join(webDir, p), ""
		}
		return join(webDir, p), webDir
	case hasExt:
		return join(webDir, fmt.Sprintf("v%d", version), p), join(webDir, p)
	case p != "":
		return join(webDir, p), join(webDir, fmt.Sprintf("v%d", version))
	default:
		return join(webDir, fmt.Sprintf("v%d", version)), ""
	}
}

func join(a, b string) string {
	if b == "" {
		return a
	}
	return strings.TrimSuffix(a, "/") + "/" + strings.TrimPrefix(b, "/")
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EAGAIN)
}

func (c *Client) respondRetryLater(p string) {
	c.StatusCode = 307
	c.Header.Flush()
	c.Header.Sprintf("Location: /%s\r\n", p)
	c.writeTextBody("The requested file is temporarily unavailable, please retry.")
}

// appendSlashAndRedirect replies 301 with a relative Location computed
// from the last path component of the *received* URL, not the resolved
// one — spec.md §9's design note: this is intentional, kept until
// confirmed otherwise.
func (c *Client) appendSlashAndRedirect(received string) {
	last := received
	if idx := strings.LastIndexByte(received, '/'); idx >= 0 {
		last = received[idx+1:]
	}
	query := string(c.URLQuery.Bytes())

	c.StatusCode = 301
	c.Header.Flush()
	if query != "" {
		c.Header.Sprintf("Location: %s/?%s\r\n", last, query)
	} else {
		c.Header.Sprintf("Location: %s/\r\n", last)
	}
	c.writeTextBody("Moved Permanently")
}
