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

package cmd

import (
	"net"

	"github.com/edgeworker/webworker/internal/rescue"
	"github.com/edgeworker/webworker/logger"
	"github.com/edgeworker/webworker/webclient"
)

// driveConnection runs one accepted connection to completion against a
// blocking net.Conn: each call into the engine either makes progress or
// blocks inside Transport.Read/Write, which is exactly the contract a
// thread-per-connection or pooled-worker thread wants — one goroutine
// (or one worker slot) is parked on one client at a time, matching
// spec.md §5's "no client shared between threads" guarantee.
func driveConnection(engine *webclient.Engine, pool *webclient.Pool, c *webclient.Client, threadID int) {
	defer rescue.HandleCrash()
	defer func() {
		pool.Release(c.ID)
		if c.Transport != nil {
			conn, ok := c.Transport.RawConn()
			if ok {
				conn.Close()
			}
		}
	}()

	for !c.IsDead() {
		if c.IOFlags.Has(webclient.WaitReceive) {
			engine.OnReadable(c)
			continue
		}
		if c.IOFlags.Has(webclient.WaitSend) {
			engine.OnWritable(c)
			continue
		}
		// neither flag set: request fully served and reset for the next
		// one (keep-alive) or the client was just marked dead above.
		if c.IOFlags.Has(webclient.KeepAlive) {
			c.IOFlags |= webclient.WaitReceive
			continue
		}
		c.MarkDead()
	}
}

// runThreadPerConnection spawns one goroutine per accepted connection —
// the simplest of the three deployment shapes, and the one with no
// bound on concurrent clients beyond the runtime's own goroutine limit.
func runThreadPerConnection(ln net.Listener, engine *webclient.Engine, pool *webclient.Pool, unixSocket bool) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		c := pool.Acquire()
		c.Transport = webclient.NewPlainTransport(conn, unixSocket)
		c.Corkable = !unixSocket
		go driveConnection(engine, pool, c, 0)
	}
}

// runPooledWorkers runs a fixed number of static worker goroutines,
// each pulling accepted connections from a shared channel and driving
// them to completion one at a time before returning for the next —
// spec.md §1's "pooled static-thread workers" shape.
func runPooledWorkers(ln net.Listener, engine *webclient.Engine, pool *webclient.Pool, workerCount int, unixSocket bool) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	connCh := make(chan net.Conn, workerCount*4)

	for i := 0; i < workerCount; i++ {
		go func(threadID int) {
			for conn := range connCh {
				c := pool.Acquire()
				c.Transport = webclient.NewPlainTransport(conn, unixSocket)
				c.Corkable = !unixSocket
				driveConnection(engine, pool, c, threadID)
			}
		}(i)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			close(connCh)
			return err
		}
		select {
		case connCh <- conn:
		default:
			logger.Warnf("pooled workers saturated, dropping connection from %s", conn.RemoteAddr())
			conn.Close()
		}
	}
}
