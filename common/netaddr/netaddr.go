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

// Package netaddr models the client/server address pair identifying one
// accepted connection, independent of how that connection's bytes are
// carried (plain TCP or a TLS-wrapped transport).
package netaddr

import (
	"fmt"
	"net"
)

// Version IP 版本 v4/v6
type Version uint8

const (
	V4 Version = iota
	V6
)

// IPV 基于 net.IP 做了一层封装
//
// 记录了 IP Bytes 以及协议版本信息
type IPV struct {
	IP      [net.IPv6len]byte
	Version Version
}

// ToIPV4 将 net.IP 转换为 IPV4 版本
func ToIPV4(ip net.IP) IPV {
	var dst [net.IPv6len]byte
	copy(dst[:], ip[:])
	return IPV{
		IP:      dst,
		Version: V4,
	}
}

// ToIPV6 将 net.IP 转换为 IPV6 版本
func ToIPV6(ip net.IP) IPV {
	var dst [net.IPv6len]byte
	copy(dst[:], ip[:])
	return IPV{
		IP:      dst,
		Version: V6,
	}
}

// FromNetIP 根据 net.IP 的长度自动选择 v4/v6 封装
func FromNetIP(ip net.IP) IPV {
	if v4 := ip.To4(); v4 != nil {
		return ToIPV4(v4)
	}
	return ToIPV6(ip)
}

// NetIP 将 IPV 转换为 net.IP
func (ipv IPV) NetIP() net.IP {
	if ipv.Version == V4 {
		return ipv.IP[:net.IPv4len]
	}
	return ipv.IP[:]
}

func (ipv IPV) String() string {
	return ipv.NetIP().String()
}

type Port uint16

// Tuple 标识一条已建立连接的两端地址
//
// 对于一条全双工的 TCP 链接 SrcIP/SrcPort 为客户端地址 DstIP/DstPort 为服务端地址
type Tuple struct {
	SrcIP   IPV
	DstIP   IPV
	SrcPort Port
	DstPort Port
}

func (t Tuple) String() string {
	return fmt.Sprintf("%s:%d > %s:%d", t.SrcIP, t.SrcPort, t.DstIP, t.DstPort)
}

// Mirror 反转链接 即通信的另一端
func (t Tuple) Mirror() Tuple {
	return Tuple{
		SrcIP:   t.DstIP,
		DstIP:   t.SrcIP,
		SrcPort: t.DstPort,
		DstPort: t.SrcPort,
	}
}

// FromConn 根据已接受的连接构建 Tuple
//
// addr 不是 TCP 地址时（例如 unix socket）对应一侧的 IP 与端口均保持零值
func FromConn(local, remote net.Addr) Tuple {
	var t Tuple
	if tcp, ok := remote.(*net.TCPAddr); ok {
		t.SrcIP = FromNetIP(tcp.IP)
		t.SrcPort = Port(tcp.Port)
	}
	if tcp, ok := local.(*net.TCPAddr); ok {
		t.DstIP = FromNetIP(tcp.IP)
		t.DstPort = Port(tcp.Port)
	}
	return t
}
