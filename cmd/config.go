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
	"time"

	"github.com/edgeworker/webworker/confengine"
	"github.com/edgeworker/webworker/logger"
	"github.com/edgeworker/webworker/server"
)

// WebConfig is the "web" section of the YAML config tree: the
// environment/configuration knobs spec.md §6 names, abstracted into
// concrete YAML keys the way confengine.UnpackChild expects.
type WebConfig struct {
	Address string `config:"address"`
	// Shape selects the deployment model: "eventloop", "threaded" or
	// "pooled" — spec.md §1's three deployment shapes.
	Shape       string        `config:"shape"`
	WorkerCount int           `config:"workerCount"`
	WebDir      string        `config:"webDir"`
	Internal    bool          `config:"internal"`

	EnableGzip   bool `config:"enableGzip"`
	GzipLevel    int  `config:"gzipLevel"`
	GzipStrategy int  `config:"gzipStrategy"`
	RespectDNT   bool `config:"respectDnt"`

	ServerString  string `config:"serverString"`
	XFrameOptions string `config:"xFrameOptions"`

	InitialBufSize int           `config:"initialBufSize"`
	MaxRequestSize int           `config:"maxRequestSize"`
	RequestTimeout time.Duration `config:"requestTimeout"`
	IdleTimeout    time.Duration `config:"idleTimeout"`

	AccessLogQueueSize int `config:"accessLogQueueSize"`
}

// defaultWebConfig mirrors the values netdata's own web server ships
// with out of the box, translated to this config tree's key names.
func defaultWebConfig() WebConfig {
	return WebConfig{
		Address:            ":17999",
		Shape:              "pooled",
		WorkerCount:        4,
		WebDir:             "./web",
		EnableGzip:         true,
		GzipLevel:          6,
		RespectDNT:         true,
		ServerString:       "webworker",
		XFrameOptions:      "SAMEORIGIN",
		InitialBufSize:     4096,
		MaxRequestSize:     16384,
		RequestTimeout:     30 * time.Second,
		IdleTimeout:        2 * time.Minute,
		AccessLogQueueSize: 1024,
	}
}

// rootConfig is the full on-disk configuration tree.
type rootConfig struct {
	Web    WebConfig
	Logger logger.Options
	Server server.Config

	// confHandle is the raw parsed tree, kept around so server.New can
	// unpack its own "server" child lazily and so /debug/config can
	// echo back whichever section a future route wants to add.
	confHandle *confengine.Config
}
