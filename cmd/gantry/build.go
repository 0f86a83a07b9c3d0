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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantry-tools/gantry/internal/build"
	"github.com/gantry-tools/gantry/internal/config"
)

func newBuildCmd() *cobra.Command {
	c := &cobra.Command{
		Use:           "build",
		Short:         "Build artifacts from service groups",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.AddCommand(newBuildComposeCmd(), newBuildImageCmd())
	return c
}

type buildComposeCmd struct {
	services  []string
	output    string
	options   []string
	name      string
	keepGoing bool
}

func newBuildComposeCmd() *cobra.Command {
	b := new(buildComposeCmd)
	c := &cobra.Command{
		Use:   "compose",
		Short: "Convert service groups into Docker Compose folders",
		Long: `Converts each service group into a folder holding a generated ` +
			`docker-compose.yml, the rendered router configuration, and the ` +
			`services' resources. A manifest at the output root records every ` +
			`generated Compose file.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := b.run(cmd.Context())
			if isUsageError(err) {
				cmd.SilenceUsage = false
			}
			return err
		},
	}
	c.Flags().StringArrayVarP(&b.services, "services", "s", []string{"./services"}, "folder containing a service group definition (repeatable)")
	c.Flags().StringVarP(&b.output, "output", "o", "./services.docker", "output folder for the Compose services")
	optionFlagVar(c.Flags(), &b.options)
	c.Flags().StringVar(&b.name, "name", "", "free-text build name recorded in the manifest")
	c.Flags().BoolVar(&b.keepGoing, "keep-going", true, "continue with the remaining groups when one fails")
	return c
}

func (b *buildComposeCmd) run(ctx context.Context) error {
	target, err := build.NewComposeTarget(b.name, b.output, b.options)
	if err != nil {
		return err
	}
	groups, err := loadServiceGroups(b.services)
	if err != nil {
		return err
	}
	return runTarget(ctx, target, groups, b.keepGoing)
}

type buildImageCmd struct {
	services    []string
	output      string
	options     []string
	name        string
	tag         string
	buildNumber int
	namespace   string
	configPath  string
	keepGoing   bool
}

func newBuildImageCmd() *cobra.Command {
	b := new(buildImageCmd)
	c := &cobra.Command{
		Use:   "image",
		Short: "Build container images for service groups",
		Long: `Builds a container image for every service in each service group ` +
			`and records the images in a manifest. A 'YYYYMMDD.N' tag is generated ` +
			`for the images unless --tag overrides it.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := b.run(cmd.Context())
			if isUsageError(err) {
				cmd.SilenceUsage = false
			}
			return err
		},
	}
	c.Flags().StringArrayVarP(&b.services, "services", "s", []string{"./services"}, "folder containing a service group definition (repeatable)")
	c.Flags().StringVarP(&b.output, "output", "o", "./build", "output folder for the image build contexts")
	optionFlagVar(c.Flags(), &b.options)
	c.Flags().StringVar(&b.name, "name", "", "free-text build name recorded in the manifest")
	c.Flags().StringVarP(&b.tag, "tag", "t", "", "tag for the built images, overriding the generated one (cannot be used with --build-number)")
	c.Flags().IntVarP(&b.buildNumber, "build-number", "n", 0, "build number appended to the generated tag (cannot be used with --tag)")
	c.Flags().StringVar(&b.namespace, "namespace", "", "image namespace, overriding the configured registry namespace")
	c.Flags().StringVar(&b.configPath, "config", "", "path to the gantry configuration file")
	c.Flags().BoolVar(&b.keepGoing, "keep-going", true, "continue with the remaining groups when one fails")
	return c
}

func (b *buildImageCmd) run(ctx context.Context) error {
	tag, err := resolveTag(b.tag, b.buildNumber, time.Now())
	if err != nil {
		return err
	}
	namespace := b.namespace
	if namespace == "" && b.configPath != "" {
		cfg, err := config.Load(b.configPath)
		if err != nil {
			return err
		}
		namespace = cfg.Registry.Namespace
	}

	dockerClient, err := connectDockerClient()
	if err != nil {
		return err
	}
	target, err := build.NewImageTarget(b.name, namespace, tag, b.output, b.options,
		build.NewDockerImageBuilder(dockerClient), consoleReporter{})
	if err != nil {
		return err
	}
	groups, err := loadServiceGroups(b.services)
	if err != nil {
		return err
	}
	return runTarget(ctx, target, groups, b.keepGoing)
}

// resolveTag picks the image tag for a build: an explicit tag wins,
// otherwise a 'YYYYMMDD.N' tag is generated from the current date and
// the build number. Giving both an explicit tag and a build number is
// contradictory and fails.
func resolveTag(tag string, buildNumber int, now time.Time) (string, error) {
	if tag != "" && buildNumber != 0 {
		return "", errUsageTagAndBuildNumber
	}
	if tag != "" {
		return tag, nil
	}
	if buildNumber == 0 {
		buildNumber = 1
	}
	return now.Format("20060102") + "." + strconv.Itoa(buildNumber), nil
}

var errUsageTagAndBuildNumber = build.NewUsageError("cannot specify both --tag and --build-number")
