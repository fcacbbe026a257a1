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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolAcquireReleaseGet(t *testing.T) {
	p := NewPool(128, 0)
	defer p.Stop()

	c1 := p.Acquire()
	c2 := p.Acquire()
	assert.NotEqual(t, c1.ID, c2.ID)
	assert.Equal(t, 2, p.ActiveConns())

	got, ok := p.Get(c1.ID)
	assert.True(t, ok)
	assert.Same(t, c1, got)

	p.Release(c1.ID)
	assert.Equal(t, 1, p.ActiveConns())
	_, ok = p.Get(c1.ID)
	assert.False(t, ok)
}

func TestPoolRemoveExpired(t *testing.T) {
	p := NewPool(128, 0)
	defer p.Stop()

	c := p.Acquire()
	c.TvTimeoutLastCheckpoint = time.Now().Add(-time.Hour)

	// idleTimeout is 0 on this pool, so RemoveExpired is a no-op by
	// design (the background sweep is disabled entirely).
	expired := p.RemoveExpired()
	assert.Empty(t, expired)
	assert.Equal(t, 1, p.ActiveConns())
}

func TestPoolRemoveExpiredWithTimeout(t *testing.T) {
	p := NewPool(128, 10*time.Millisecond)
	defer p.Stop()

	c := p.Acquire()
	c.TvTimeoutLastCheckpoint = time.Now().Add(-time.Hour)

	expired := p.RemoveExpired()
	assert.Equal(t, []uint64{c.ID}, expired)
	assert.Equal(t, 0, p.ActiveConns())
}
