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

import "strings"

// Responder is the outcome a dispatch step leaves on the client: either
// a fully-buffered reply (status + body already in c.Data), or a handoff
// to the static-file responder, or a redirect.
type Responder int

const (
	RespondBuffered Responder = iota
	RespondStaticFile
	RespondRedirect
)

// APIHandler invokes the opaque out-of-scope data-API callback for a
// given API version and remainder path; it must fill c.Data/ContentType
// /StatusCode itself.
type APIHandler func(c *Client, version string, remainder string) Responder

// HostResolver resolves a host/node segment to the remaining path that
// should be dispatched against that host's namespace. ok is false on no
// match.
type HostResolver func(byNode bool, name string) (remainder string, ok bool)

// ConfigRenderer renders netdata.conf-equivalent configuration as
// text/plain.
type ConfigRenderer func(c *Client)

// AccessChecker reports whether the current client is allowed to reach
// a given routing branch; false produces a 403.
type AccessChecker func(c *Client, branch string) bool

// Router holds the external collaborators the dispatch step in spec.md
// §4.5 treats as opaque callbacks, plus the webroot the static-file
// fallback needs.
type Router struct {
	API          APIHandler
	ResolveHost  HostResolver
	RenderConfig ConfigRenderer
	AllowAccess  AccessChecker
	WebDir       string
	Internal     bool // internal-build-only diagnostics branch enabled
	Diagnostics  func(c *Client, branch, remainder string) Responder
}

// Dispatch consumes the decoded path and routes it per spec.md §4.5.
// It recurses on version/host segments and ultimately resolves to
// either a buffered response, a redirect, or a hand-off to the
// static-file responder (staticfile.go).
func (r Router) Dispatch(c *Client, path string) Responder {
	return r.dispatch(c, path, true)
}

func (r Router) dispatch(c *Client, path string, isRootHost bool) Responder {
	if !r.AllowAccess(c, path) {
		c.StatusCode = 403
		c.writeTextBody("Access denied")
		return RespondBuffered
	}

	seg, remainder := firstSegment(path)

	switch strings.ToLower(seg) {
	case "api":
		return r.dispatchAPI(c, remainder)
	case "host", "node":
		return r.dispatchHostSwitch(c, seg == "node", remainder, isRootHost)
	case "v0", "v1", "v2":
		version := seg[1] - '0'
		if !c.SetDashboardVersion(int(version)) {
			c.StatusCode = 400
			c.writeTextBody("Multiple dashboard versions given at the URL")
			return RespondBuffered
		}
		return r.dispatch(c, remainder, isRootHost)
	case "netdata.conf":
		c.StatusCode = 200
		c.ContentType = "text/plain"
		r.RenderConfig(c)
		return RespondBuffered
	case "exit", "debug", "mirror":
		if r.Internal && r.Diagnostics != nil {
			return r.Diagnostics(c, strings.ToLower(seg), remainder)
		}
		c.StatusCode = 404
		c.writeTextBody("not found")
		return RespondBuffered
	default:
		return RespondStaticFile
	}
}

func (r Router) dispatchAPI(c *Client, remainder string) Responder {
	seg, rest := firstSegment(remainder)
	switch strings.ToLower(seg) {
	case "v1", "v2":
		return r.API(c, strings.ToLower(seg), rest)
	default:
		c.StatusCode = 404
		c.writeTextBody("not found")
		return RespondBuffered
	}
}

// dispatchHostSwitch implements spec.md §4.5.1: only the root host may
// switch, resolution order is by node-id or hostname then GUID, with a
// case-normalised-GUID retry, and a missing trailing slash triggers a
// relative redirect rather than falling through.
func (r Router) dispatchHostSwitch(c *Client, byNode bool, remainder string, isRootHost bool) Responder {
	if !isRootHost {
		c.StatusCode = 400
		c.writeTextBody("host switching is only valid on the root host")
		return RespondBuffered
	}

	name, rest := firstSegment(remainder)
	if name == "" {
		c.StatusCode = 404
		c.writeTextBody("not found")
		return RespondBuffered
	}

	switchedRemainder, ok := r.ResolveHost(byNode, name)
	if !ok {
		// retry with a case-normalised GUID
		switchedRemainder, ok = r.ResolveHost(byNode, strings.ToLower(name))
	}
	if !ok {
		c.StatusCode = 404
		c.writeTextBody("not found")
		return RespondBuffered
	}

	if rest == "" && !strings.HasSuffix(remainder, "/") {
		return RespondRedirect
	}

	return r.dispatch(c, joinRemainder(switchedRemainder, rest), false)
}

func firstSegment(path string) (seg, remainder string) {
	path = strings.TrimPrefix(path, "/")
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

func joinRemainder(base, rest string) string {
	if rest == "" {
		return base
	}
	if base == "" {
		return rest
	}
	return strings.TrimSuffix(base, "/") + "/" + rest
}

func (c *Client) writeTextBody(msg string) {
	c.ContentType = "text/plain"
	c.Data.Flush()
	c.Data.StrCat([]byte(msg))
}
