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

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gantry-tools/gantry"
	"github.com/gantry-tools/gantry/internal/config"
	"github.com/gantry-tools/gantry/internal/forge"
)

func newForgeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:           "forge",
		Short:         "Interact with git repos and artifact stores",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.AddCommand(newForgePushCmd(), newForgeCloneCmd())
	return c
}

type forgePushCmd struct {
	manifestPath string
	configPath   string
}

func newForgePushCmd() *cobra.Command {
	p := new(forgePushCmd)
	c := &cobra.Command{
		Use:   "push",
		Short: "Push a build's images to the forge's container registry",
		Long: `Pushes every image recorded in a build manifest to the forge's ` +
			`container registry, tagging them with the registry host first when needed.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return p.run(cmd.Context())
		},
	}
	c.Flags().StringVarP(&p.manifestPath, "manifest", "m", "./build/"+gantry.ManifestFilename, "path to the build manifest")
	c.Flags().StringVarP(&p.configPath, "config", "c", config.DefaultFilename, "path to the gantry configuration file")
	return c
}

func (p *forgePushCmd) run(ctx context.Context) error {
	client, err := forgeClient(p.configPath)
	if err != nil {
		return err
	}
	manifest, err := gantry.LoadManifest(ctx, p.manifestPath)
	if err != nil {
		return err
	}
	for _, entry := range manifest.ImageEntries() {
		if err := client.PushImage(ctx, entry.Image); err != nil {
			return err
		}
	}
	return nil
}

type forgeCloneCmd struct {
	configPath string
	dest       string
}

func newForgeCloneCmd() *cobra.Command {
	f := new(forgeCloneCmd)
	c := &cobra.Command{
		Use:           "clone NAME",
		Short:         "Clone a repo from the configured forge owner",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := f.dest
			if dest == "" {
				dest = args[0]
			}
			client, err := forgeClient(f.configPath)
			if err != nil {
				return err
			}
			return client.CloneRepo(cmd.Context(), args[0], dest)
		},
	}
	c.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultFilename, "path to the gantry configuration file")
	c.Flags().StringVarP(&f.dest, "dest", "d", "", "destination folder (defaults to the repo name)")
	return c
}

func forgeClient(configPath string) (forge.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	dockerClient, err := connectDockerClient()
	if err != nil {
		return nil, err
	}
	return forge.New(cfg, dockerClient)
}
