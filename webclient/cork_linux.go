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

//go:build linux

package webclient

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/edgeworker/webworker/logger"
)

// setCork toggles TCP_CORK on conn's underlying fd. Failure is logged
// and continued — corking is an optimisation, never load-bearing for
// correctness (spec.md §4.11).
func setCork(conn net.Conn, on bool) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return
	}
	var val int
	if on {
		val = 1
	}
	ctrlErr := raw.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_CORK, val)
	})
	if ctrlErr != nil || err != nil {
		logger.Debugf("webclient: TCP_CORK=%d failed: %v / %v", val, ctrlErr, err)
	}
}
