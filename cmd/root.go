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

// Package cmd holds the CLI entry points: the "serve" command that
// starts the request lifecycle engine behind one of its three
// deployment-shape drivers, wired to configuration, logging and metrics.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgeworker/webworker/common"
)

var rootCmd = &cobra.Command{
	Use:   common.App,
	Short: "Embedded HTTP/1.1 server worker for dashboard and data-API traffic",
	Version: fmt.Sprintf("%s (%s)", common.GetBuildInfo().Version, common.GetBuildInfo().GitHash),
}

// Execute runs the root command; main.go's sole job is to call this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
