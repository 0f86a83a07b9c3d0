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

package build

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gantry-tools/gantry"
	"zombiezen.com/go/log"
)

// imageName builds the full image reference for a service:
// "{namespace/}{name}:{tag}".
func imageName(namespace, name, tag string) string {
	image := name + ":" + tag
	if namespace != "" {
		image = namespace + "/" + image
	}
	return image
}

// BuildImages is the stage that runs a Docker image build for every
// service in a group, sequentially, streaming build output to a
// reporter. The first service whose stream reports an error fails the
// stage.
type BuildImages struct {
	Builder   ImageBuilder
	Folder    string
	Namespace string
	Tag       string
	Reporter  Reporter
}

func (s *BuildImages) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	services, err := group.Services()
	if err != nil {
		return err
	}
	for _, svc := range services {
		image := imageName(s.Namespace, svc.Name(), s.Tag)
		contextDir := filepath.Join(s.Folder, group.Name(), svc.Name())
		log.Debugf(ctx, "Building image %s from %s.", image, contextDir)
		if err := s.buildOne(ctx, image, contextDir); err != nil {
			return err
		}
	}
	return nil
}

func (s *BuildImages) buildOne(ctx context.Context, image, contextDir string) error {
	stream, err := s.Builder.BuildImage(ctx, contextDir, image)
	if err != nil {
		return fmt.Errorf("build image %s: %w", image, err)
	}
	defer stream.Close()

	s.Reporter.Start(ctx, image)
	scanner := bufio.NewScanner(stream)
	// Build output lines can exceed bufio.Scanner's 64 KiB default.
	scanner.Buffer(nil, 1024*1024)
	for scanner.Scan() {
		var msg BuildMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Stream != "" {
			s.Reporter.Output(ctx, strings.TrimSpace(msg.Stream))
		}
		if msg.Error != "" {
			s.Reporter.Error(ctx, msg.Error)
			return fmt.Errorf("build image %s: %s", image, msg.Error)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("build image %s: %w", image, err)
	}
	s.Reporter.Done(ctx, image)
	return nil
}

// An ImageTarget builds the container images for a service group: it
// copies each service's build context into the build folder, records
// the image names in the manifest, and runs docker builds unless
// skip-build was given.
type ImageTarget struct {
	pipeline *Pipeline
}

// NewImageTarget creates the image build target. The builder and
// reporter handle the Docker builds; they are unused when the
// skip-build option is set.
func NewImageTarget(manifestName, namespace, tag, folder string, optionTokens []string, builder ImageBuilder, reporter Reporter) (*ImageTarget, error) {
	t := new(ImageTarget)
	options, err := parseOptions(optionTokens, t.Options())
	if err != nil {
		return nil, err
	}
	_, overwrite := options["overwrite"]
	_, skipBuild := options["skip-build"]

	t.pipeline = NewPipeline(
		&CreateBuildFolder{Folder: folder, Overwrite: overwrite, UseGroupName: true},
		&CopyServiceResources{Folder: folder, UseGroupName: true},
		&UpdateManifest{
			ManifestName: manifestName,
			Folder:       folder,
			Entries:      imageManifestEntries(namespace, tag),
		},
	)
	if !skipBuild {
		if reporter == nil {
			reporter = LogReporter{}
		}
		t.pipeline.AddStage(&BuildImages{
			Builder:   builder,
			Folder:    folder,
			Namespace: namespace,
			Tag:       tag,
			Reporter:  reporter,
		})
	}
	return t, nil
}

func imageManifestEntries(namespace, tag string) func(group *gantry.ServiceGroupDefinition) ([]gantry.Entry, error) {
	return func(group *gantry.ServiceGroupDefinition) ([]gantry.Entry, error) {
		services, err := group.Services()
		if err != nil {
			return nil, err
		}
		entries := make([]gantry.Entry, 0, len(services))
		for _, svc := range services {
			entry, err := gantry.NewImageEntry(
				imageName(namespace, svc.Name(), tag),
				path.Join(group.Name(), svc.Name(), gantry.DockerfileName),
			)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}
}

func (t *ImageTarget) Build(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	log.Debugf(ctx, "Building images for service group %s.", group.Name())
	return t.pipeline.Run(ctx, group)
}

func (t *ImageTarget) Description() string {
	return "Build Docker images for each service in the service group."
}

func (t *ImageTarget) Options() []OptionHelp {
	return []OptionHelp{
		{
			Name: "overwrite",
			Help: "Overwrite the contents of the build folder before calling `docker build`. The default is to fail if the folder exists.",
		},
		{
			Name: "skip-build",
			Help: "Skip the `docker build` stage. The files needed for the build are still copied.",
		},
	}
}
