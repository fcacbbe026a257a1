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
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/edgeworker/webworker/confengine"
	"github.com/edgeworker/webworker/internal/sigs"
	"github.com/edgeworker/webworker/logger"
	"github.com/edgeworker/webworker/server"
	"github.com/edgeworker/webworker/webclient"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP/1.1 request lifecycle engine",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
}

func loadRootConfig(path string) (rootConfig, error) {
	rc := rootConfig{Web: defaultWebConfig()}
	if path == "" {
		return rc, nil
	}
	conf, err := confengine.LoadConfigPath(path)
	if err != nil {
		return rc, err
	}
	if conf.Has("web") {
		if err := conf.UnpackChild("web", &rc.Web); err != nil {
			return rc, err
		}
	}
	if conf.Has("logger") {
		if err := conf.UnpackChild("logger", &rc.Logger); err != nil {
			return rc, err
		}
	}
	rc.confHandle = conf
	return rc, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	undo, err := maxprocs.Set(maxprocs.Logger(logger.Infof))
	if err != nil {
		logger.Warnf("automaxprocs: %v", err)
	} else {
		defer undo()
	}

	rc, err := loadRootConfig(configPath)
	if err != nil {
		return err
	}
	logger.SetOptions(rc.Logger)

	engine, pool, accessLog, err := buildEngine(rc.Web)
	if err != nil {
		return err
	}
	defer pool.Stop()

	go consumeAccessLog(accessLog)

	var diag *server.Server
	if rc.confHandle != nil {
		diag, err = server.New(rc.confHandle)
		if err != nil {
			return err
		}
	}
	if diag == nil && rc.Web.Internal {
		// internal diagnostics requested but no [server] section given:
		// fall back to a bare exposed-metrics mux on the same process.
		go serveMetricsOnly()
	} else if diag != nil {
		diag.RegisterConfigDump(func() any { return rc.Web })
		diag.RegisterGetRoute("/metrics", promhttp.Handler().ServeHTTP)
		go func() {
			if err := diag.ListenAndServe(); err != nil {
				logger.Errorf("diagnostics server: %v", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", rc.Web.Address)
	if err != nil {
		return err
	}
	logger.Infof("listening on %s (%s shape)", rc.Web.Address, rc.Web.Shape)

	go watchReload(rc.Web)

	serveErr := make(chan error, 1)
	go func() {
		switch strings.ToLower(rc.Web.Shape) {
		case "eventloop", "event-loop":
			tcpLn, ok := ln.(*net.TCPListener)
			if !ok {
				serveErr <- runThreadPerConnection(ln, engine, pool, false)
				return
			}
			serveErr <- runEventLoop(tcpLn, engine, pool)
		case "threaded", "thread-per-connection":
			serveErr <- runThreadPerConnection(ln, engine, pool, false)
		default:
			serveErr <- runPooledWorkers(ln, engine, pool, rc.Web.WorkerCount, false)
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-sigs.Terminate():
		logger.Infof("shutting down")
		return ln.Close()
	}
}

// buildEngine assembles the Pool/Engine/AccessLog triple from a
// WebConfig, wiring default (non-clustered) collaborators for the
// dispatch router's API/host-switch/config-render hooks — standing in
// for the data ingestion backend and multi-host cluster that spec.md
// §1 explicitly places out of scope for this engine.
func buildEngine(web WebConfig) (*webclient.Engine, *webclient.Pool, *webclient.AccessLog, error) {
	router := webclient.Router{
		API:          defaultAPIHandler,
		ResolveHost:  defaultHostResolver,
		RenderConfig: defaultConfigRenderer(web),
		AllowAccess:  defaultAccessChecker,
		WebDir:       web.WebDir,
		Internal:     web.Internal,
	}

	cfg := webclient.Config{
		Header: webclient.HeaderPolicy{
			GzipEnabled: web.EnableGzip,
			RespectDNT:  web.RespectDNT,
		},
		Validator: webclient.ValidatorPolicy{},
		Response: webclient.ResponsePolicy{
			ServerString:  web.ServerString,
			XFrameOptions: web.XFrameOptions,
			RespectDNT:    web.RespectDNT,
		},
		Compression: webclient.CompressionPolicy{
			Enabled:  web.EnableGzip,
			Level:    web.GzipLevel,
			Strategy: web.GzipStrategy,
		},
		Router:    router,
		WebDir:    web.WebDir,
		OpenFile:  webclient.OpenDiskFile,
		TimeoutUT: web.RequestTimeout,
	}

	accessLog := webclient.NewAccessLog()
	engine := webclient.NewEngine(cfg, accessLog)
	pool := webclient.NewPool(web.InitialBufSize, web.IdleTimeout)
	return engine, pool, accessLog, nil
}

// consumeAccessLog drains RequestDone lines into the structured logger;
// it is itself just one subscriber among any number a caller can attach
// via AccessLog.Subscribe.
func consumeAccessLog(accessLog *webclient.AccessLog) {
	q := accessLog.Subscribe(256)
	defer q.Close()
	for {
		v, ok := q.PopTimeout(time.Second)
		if !ok {
			continue
		}
		line, ok := v.(webclient.AccessLine)
		if !ok {
			continue
		}
		logger.Infof("%d %d %s %s %d %s", line.ID, line.Status, line.ClientAddr, line.Mode, line.SentBytes, line.URL)
	}
}

func watchReload(web WebConfig) {
	reload := sigs.Reload()
	for range reload {
		logger.Infof("reload signal received; configuration is immutable for the lifetime of the process, restart to pick up changes")
	}
}

func serveMetricsOnly() {
	const addr = "127.0.0.1:9797"
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warnf("fallback metrics listener: %v", err)
	}
}

func defaultAccessChecker(c *webclient.Client, branch string) bool {
	return true
}

func defaultAPIHandler(c *webclient.Client, version, remainder string) webclient.Responder {
	c.StatusCode = 404
	c.ContentType = "text/plain"
	c.Data.Flush()
	c.Data.StrCat([]byte("no data API backend configured"))
	return webclient.RespondBuffered
}

func defaultHostResolver(byNode bool, name string) (string, bool) {
	return "", false
}

func defaultConfigRenderer(web WebConfig) webclient.ConfigRenderer {
	return func(c *webclient.Client) {
		c.Data.Flush()
		c.Data.Sprintf("[web]\n\taddress = %s\n\tweb_dir = %s\n\tenable gzip = %v\n",
			web.Address, web.WebDir, web.EnableGzip)
	}
}
