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

//go:build !linux

package cmd

import (
	"net"

	"github.com/edgeworker/webworker/logger"
	"github.com/edgeworker/webworker/webclient"
)

// runEventLoop has no epoll-based implementation outside Linux; the
// "eventloop" deployment shape falls back to one goroutine per
// connection, which satisfies the same external contract (spec.md §1:
// "must work identically for three deployment shapes") at the cost of
// losing the single-thread property on this platform.
func runEventLoop(ln *net.TCPListener, engine *webclient.Engine, pool *webclient.Pool) error {
	logger.Warnf("event-loop shape requires epoll (linux); falling back to thread-per-connection")
	return runThreadPerConnection(ln, engine, pool, false)
}
