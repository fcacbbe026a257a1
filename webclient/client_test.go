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

func TestResetForNextRequestPreservesIdentityAndBuffers(t *testing.T) {
	c := New(7, 128)
	origURLBuf := c.URLAsReceived
	origDataBuf := c.Data

	c.Mode = ModePOST
	c.PathFlags = PathIsV1 | PathWithVersion
	c.IOFlags |= KeepAlive | WaitSend
	c.Origin = "https://example.com"
	c.StatusCode = 200
	c.Sent = 10
	c.HeaderSent = 5
	c.ReceivedBytes = 100
	c.UseCount = 3
	c.dashboardVersion = 1
	c.Data.StrCat([]byte("leftover"))

	c.ResetForNextRequest()

	assert.Equal(t, uint64(7), c.ID)
	assert.Equal(t, uint64(3), c.UseCount, "use count is not a per-request field")
	assert.Same(t, origURLBuf, c.URLAsReceived, "buffers are reused, not reallocated")
	assert.Same(t, origDataBuf, c.Data)
	assert.Equal(t, 0, c.Data.Len())

	assert.Equal(t, ModeGET, c.Mode)
	assert.Equal(t, PathFlags(0), c.PathFlags)
	assert.False(t, c.IOFlags.Has(KeepAlive))
	assert.False(t, c.IOFlags.Has(WaitSend))
	assert.True(t, c.IOFlags.Has(WaitReceive))
	assert.Equal(t, "", c.Origin)
	assert.Equal(t, 0, c.StatusCode)
	assert.Equal(t, 0, c.Sent)
	assert.Equal(t, 0, c.HeaderSent)
	assert.Equal(t, int64(0), c.ReceivedBytes)
	assert.Equal(t, -1, c.DashboardVersion())
}

func TestSetDashboardVersionRejectsSecondCall(t *testing.T) {
	c := New(1, 64)
	assert.True(t, c.SetDashboardVersion(1))
	assert.Equal(t, 1, c.DashboardVersion())
	assert.True(t, c.PathFlags.Has(PathIsV1))
	assert.False(t, c.SetDashboardVersion(2), "a second version on the same request must be rejected")
}

func TestMarkDeadIsIdempotent(t *testing.T) {
	c := New(1, 64)
	assert.False(t, c.IsDead())
	c.MarkDead()
	c.MarkDead()
	assert.True(t, c.IsDead())
}

func TestModeStrings(t *testing.T) {
	assert.Equal(t, "GET", ModeGET.String())
	assert.Equal(t, "DATA", ModeGET.AccessMode())
	assert.Equal(t, "FILECOPY", ModeFILECOPY.AccessMode())
	assert.Equal(t, "OPTIONS", ModeOPTIONS.AccessMode())
}

func TestPathFlagsHas(t *testing.T) {
	f := PathIsV1 | PathHasFileExtension
	assert.True(t, f.Has(PathIsV1))
	assert.True(t, f.Has(PathHasFileExtension))
	assert.False(t, f.Has(PathIsV2))
	assert.True(t, f.Has(PathIsV1|PathHasFileExtension))
}

func TestCompressionStateResetOnNextRequest(t *testing.T) {
	c := New(1, 64)
	c.Compression = CompressionState{Enabled: true, Sent: 10, ZHave: 20}
	c.ResetForNextRequest()
	assert.Equal(t, CompressionState{}, c.Compression)
}
