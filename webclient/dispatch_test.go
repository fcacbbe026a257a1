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

func testRouter() Router {
	return Router{
		API: func(c *Client, version, remainder string) Responder {
			c.StatusCode = 200
			c.writeTextBody("api:" + version + ":" + remainder)
			return RespondBuffered
		},
		ResolveHost: func(byNode bool, name string) (string, bool) {
			if name == "knownhost" {
				return "/remaining", true
			}
			return "", false
		},
		RenderConfig: func(c *Client) { c.writeTextBody("config") },
		AllowAccess:  func(c *Client, branch string) bool { return branch != "/forbidden" },
	}
}

func TestDispatchStaticFileFallthrough(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondStaticFile, r.Dispatch(c, "/index.html"))
}

func TestDispatchAPI(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/api/v1/charts"))
	assert.Equal(t, "api:v1:charts", string(c.Data.Bytes()))
}

func TestDispatchUnknownAPIVersion(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/api/v99/charts"))
	assert.Equal(t, 404, c.StatusCode)
}

func TestDispatchDashboardVersionPrefix(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondStaticFile, r.Dispatch(c, "/v1/index.html"))
	assert.Equal(t, 1, c.DashboardVersion())
}

func TestDispatchDuplicateDashboardVersionRejected(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/v1/v2/index.html"))
	assert.Equal(t, 400, c.StatusCode)
}

func TestDispatchAccessDenied(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/forbidden"))
	assert.Equal(t, 403, c.StatusCode)
}

func TestDispatchHostSwitch(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondStaticFile, r.Dispatch(c, "/host/knownhost/index.html"))
}

func TestDispatchHostSwitchMissingTrailingSlashRedirects(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondRedirect, r.Dispatch(c, "/host/knownhost"))
}

func TestDispatchHostSwitchUnknownHost(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/host/nosuchhost/index.html"))
	assert.Equal(t, 404, c.StatusCode)
}

func TestDispatchConfigRender(t *testing.T) {
	c := New(1, 64)
	r := testRouter()
	assert.Equal(t, RespondBuffered, r.Dispatch(c, "/netdata.conf"))
	assert.Equal(t, "config", string(c.Data.Bytes()))
	assert.Equal(t, "text/plain", c.ContentType)
}
