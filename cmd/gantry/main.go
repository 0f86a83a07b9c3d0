// Copyright 2026 Gantry Tools.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// gantry converts declarative service group definitions into Docker
// Compose files and container images for single-host homelabs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

var (
	version   string = "DEVELOPMENT"
	commitSHA string
)

func versionString() string {
	if commitSHA != "" {
		return version + " (" + commitSHA + ")"
	}
	return version
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "gantry",
		Short:         "A container orchestrator for homelabs",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       versionString(),
	}
	showDebug := rootCmd.PersistentFlags().Bool("debug", false, "show debug logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		initLog(*showDebug)
	}

	rootCmd.AddCommand(
		newBuildCmd(),
		newForgeCmd(),
		newSchemasCmd(),
	)
	rootCmd.AddCommand(&cobra.Command{
		Use:           "version",
		Short:         "Show version info",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gantry version", rootCmd.Version)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	setupSignals(cancel)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLog(false)
		log.Errorf(ctx, "%v", err)
		os.Exit(1)
	}
}

func setupSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
}

