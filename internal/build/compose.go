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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gantry-tools/gantry"
	"github.com/gantry-tools/gantry/internal/compose"
	"github.com/gantry-tools/gantry/internal/router"
	yamlv2 "gopkg.in/yaml.v2"
	"zombiezen.com/go/log"
)

const generatedFileHeader = "# Generated by gantry. DO NOT MODIFY.\n"

// RenderComposeFile is the stage that converts a service group into a
// docker-compose.yml inside the build folder.
type RenderComposeFile struct {
	Folder string
}

func (s *RenderComposeFile) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	output := resolveBuildFolder(s.Folder, group, true)
	file, err := buildComposeFile(group)
	if err != nil {
		return err
	}
	path := filepath.Join(output, gantry.ComposeFilename)
	log.Debugf(ctx, "Writing Compose file to %s.", path)
	return writeYAML(path, file)
}

// buildComposeFile converts a service group into a Compose document:
// the routing provider's own service plus every member, each labeled
// for routing, sharing one network.
func buildComposeFile(group *gantry.ServiceGroupDefinition) (*compose.File, error) {
	info, err := group.Router()
	if err != nil {
		return nil, err
	}
	args := make(map[string]interface{}, len(info.Args)+1)
	for k, v := range info.Args {
		args[k] = v
	}
	args["config-file"] = info.Config.Name()
	provider, err := router.New(info.Provider, args)
	if err != nil {
		return nil, err
	}

	routerService, err := provider.GenerateService()
	if err != nil {
		return nil, err
	}
	members, err := group.Services()
	if err != nil {
		return nil, err
	}
	services := append([]*gantry.ServiceDefinition{routerService}, members...)

	file := &compose.File{
		Networks: map[string]interface{}{group.Network(): nil},
	}
	for _, svc := range services {
		if err := provider.RegisterService(svc); err != nil {
			return nil, err
		}
		name, converted, err := compose.Convert(svc, group.Network())
		if err != nil {
			return nil, err
		}
		file.AddService(name, converted)
		for _, volume := range svc.Volumes() {
			if file.Volumes == nil {
				file.Volumes = make(map[string]interface{})
			}
			file.Volumes[volume.Name] = nil
		}
	}
	return file, nil
}

// RenderRouterConfig is the stage that renders the routing provider's
// configuration template into the build folder.
type RenderRouterConfig struct {
	Folder string
}

func (s *RenderRouterConfig) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	info, err := group.Router()
	if err != nil {
		return err
	}
	rendered, err := info.Config.Render(gantry.ConfigContext{Service: gantry.GroupInfo{
		Name:    group.Name(),
		Network: group.Network(),
	}})
	if err != nil {
		return err
	}
	output := resolveBuildFolder(s.Folder, group, true)
	path := filepath.Join(output, info.Config.Name())
	log.Debugf(ctx, "Writing router configuration to %s.", path)
	if err := os.WriteFile(path, []byte(rendered), 0666); err != nil {
		return fmt.Errorf("render router config: %w", err)
	}
	return nil
}

// writeYAML marshals doc and writes it with a generated-file header.
func writeYAML(path string, doc interface{}) error {
	b, err := yamlv2.Marshal(doc)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	contents := append([]byte(generatedFileHeader), b...)
	if err := os.WriteFile(path, contents, 0666); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// A ComposeTarget converts a service group into a Docker Compose
// folder: one subfolder per group holding the generated Compose file,
// the rendered router configuration, and each service's resources,
// with a shared manifest at the build root.
type ComposeTarget struct {
	pipeline *Pipeline
}

// NewComposeTarget creates the Compose build target. The option tokens
// come from the command line; see Options for the accepted set.
func NewComposeTarget(manifestName, folder string, optionTokens []string) (*ComposeTarget, error) {
	t := new(ComposeTarget)
	options, err := parseOptions(optionTokens, t.Options())
	if err != nil {
		return nil, err
	}
	_, overwrite := options["overwrite"]
	t.pipeline = NewPipeline(
		&CreateBuildFolder{Folder: folder, Overwrite: overwrite, UseGroupName: true},
		&RenderComposeFile{Folder: folder},
		&RenderRouterConfig{Folder: folder},
		&CopyServiceResources{Folder: folder, UseGroupName: true},
		&UpdateManifest{
			ManifestName: manifestName,
			Folder:       folder,
			Entries:      composeManifestEntries,
		},
	)
	return t, nil
}

func composeManifestEntries(group *gantry.ServiceGroupDefinition) ([]gantry.Entry, error) {
	entry, err := gantry.NewDockerComposeEntry(group.Name()+"/"+gantry.ComposeFilename, true)
	if err != nil {
		return nil, err
	}
	return []gantry.Entry{entry}, nil
}

func (t *ComposeTarget) Build(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	log.Debugf(ctx, "Building Compose services for group %s.", group.Name())
	return t.pipeline.Run(ctx, group)
}

func (t *ComposeTarget) Description() string {
	return "Convert a service group into a Docker Compose file."
}

func (t *ComposeTarget) Options() []OptionHelp {
	return []OptionHelp{
		{
			Name: "overwrite",
			Help: "Overwrite the contents of an existing build folder. The default is to fail if the folder exists.",
		},
	}
}
