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
	"sync"
	"sync/atomic"
	"time"
)

// Pool allocates, tracks and expires Clients by id. Acquire allocates a
// new Client for every connection and Release drops it; released Clients
// are not kept for later reuse. It makes no
// assumption about the deployment shape driving it: the event-loop,
// thread-per-connection and pooled-worker drivers (cmd/) all share one
// Pool implementation, each calling Acquire/Release from whichever
// goroutine owns a given client — spec.md §5 guarantees no client is
// ever shared between threads, so the mutex here only protects the map
// itself, never per-client state.
type Pool struct {
	mu      sync.Mutex
	clients map[uint64]*Client
	nextID  uint64

	initialBufSize int
	idleTimeout    time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPool constructs a Pool. idleTimeout of zero disables the
// background expiry sweep.
func NewPool(initialBufSize int, idleTimeout time.Duration) *Pool {
	p := &Pool{
		clients:        make(map[uint64]*Client),
		initialBufSize: initialBufSize,
		idleTimeout:    idleTimeout,
		stopCh:         make(chan struct{}),
	}
	if idleTimeout > 0 {
		go p.sweepLoop()
	}
	return p
}

// Acquire allocates a fresh Client and registers it under a new id.
func (p *Pool) Acquire() *Client {
	id := atomic.AddUint64(&p.nextID, 1)
	c := New(id, p.initialBufSize)
	c.TvTimeoutLastCheckpoint = time.Now()

	p.mu.Lock()
	p.clients[id] = c
	p.mu.Unlock()
	clientsActive.Inc()
	return c
}

// Release removes id from the pool; the caller is responsible for
// having already closed the client's transport.
func (p *Pool) Release(id uint64) {
	p.mu.Lock()
	_, existed := p.clients[id]
	delete(p.clients, id)
	p.mu.Unlock()
	if existed {
		clientsActive.Dec()
	}
}

// Get returns the Client registered under id, if any.
func (p *Pool) Get(id uint64) (*Client, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[id]
	return c, ok
}

// ActiveConns returns the number of clients currently tracked.
func (p *Pool) ActiveConns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// RemoveExpired releases every client whose timeout checkpoint is older
// than p.idleTimeout, returning their ids so the caller can tear down
// the matching transports.
func (p *Pool) RemoveExpired() []uint64 {
	if p.idleTimeout <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-p.idleTimeout)

	p.mu.Lock()
	var expired []uint64
	for id, c := range p.clients {
		if c.TvTimeoutLastCheckpoint.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(p.clients, id)
	}
	p.mu.Unlock()

	if n := len(expired); n > 0 {
		clientsActive.Sub(float64(n))
	}
	return expired
}

func (p *Pool) sweepLoop() {
	interval := p.idleTimeout / 4
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.RemoveExpired()
		case <-p.stopCh:
			return
		}
	}
}

// Stop halts the background expiry sweep.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}
