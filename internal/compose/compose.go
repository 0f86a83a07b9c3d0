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

// Package compose converts service definitions into Docker Compose
// documents.
package compose

import (
	"fmt"
	"path/filepath"

	"github.com/gantry-tools/gantry"
	yamlv2 "gopkg.in/yaml.v2"
)

// A File is a complete Docker Compose document. Services marshal in
// the order they were added, which keeps generated files stable: the
// routing service first, then the group's services in definition
// order.
type File struct {
	Services yamlv2.MapSlice        `yaml:"services"`
	Networks map[string]interface{} `yaml:"networks"`
	Volumes  map[string]interface{} `yaml:"volumes,omitempty"`
}

// AddService appends a service under the given name.
func (f *File) AddService(name string, svc *Service) {
	f.Services = append(f.Services, yamlv2.MapItem{Key: name, Value: svc})
}

// A Service is one entry under the services key of a Compose file.
// Field order mirrors the order Compose documentation presents them
// in, which keeps generated files scannable.
type Service struct {
	ContainerName string          `yaml:"container_name"`
	Build         *Build          `yaml:"build,omitempty"`
	Image         string          `yaml:"image"`
	Restart       string          `yaml:"restart"`
	Environment   yamlv2.MapSlice `yaml:"environment,omitempty"`
	Ports         []string        `yaml:"ports,omitempty"`
	Volumes       []string        `yaml:"volumes,omitempty"`
	Labels        yamlv2.MapSlice `yaml:"labels,omitempty"`
	Healthcheck   yamlv2.MapSlice `yaml:"healthcheck,omitempty"`
	Networks      []string        `yaml:"networks"`
}

// Build configures an in-place image build for a service that has no
// published image.
type Build struct {
	Context string          `yaml:"context"`
	Args    yamlv2.MapSlice `yaml:"args,omitempty"`
}

// Convert translates a service definition into its Compose service.
// The returned name is the key to file the service under. Services
// without an image get a build section pointing at their own folder
// and a synthetic "{name}:custom" tag.
func Convert(svc *gantry.ServiceDefinition, network string) (string, *Service, error) {
	name := svc.Name()
	out := &Service{
		ContainerName: name,
		Restart:       "unless-stopped",
		Networks:      []string{network},
	}

	if image := svc.Image(); image != "" {
		out.Image = image
	} else {
		out.Image = name + ":custom"
		args := yamlv2.MapSlice{}
		for _, arg := range svc.BuildArgs() {
			args = append(args, yamlv2.MapItem{Key: arg.Key, Value: arg.Value})
		}
		out.Build = &Build{
			Context: "./" + filepath.Base(svc.Folder()),
			Args:    args,
		}
	}

	for _, v := range svc.Environment() {
		out.Environment = append(out.Environment, yamlv2.MapItem{
			Key:   v.Key,
			Value: fmt.Sprintf("%v", v.Value),
		})
	}

	ports, err := svc.ServicePorts()
	if err != nil {
		return "", nil, fmt.Errorf("convert service %s: %w", name, err)
	}
	for _, p := range ports {
		out.Ports = append(out.Ports, p.String())
	}

	files, err := svc.Files()
	if err != nil {
		return "", nil, fmt.Errorf("convert service %s: %w", name, err)
	}
	for _, f := range files {
		out.Volumes = append(out.Volumes, f.String())
	}
	for _, v := range svc.Volumes() {
		out.Volumes = append(out.Volumes, v.Name+":"+v.Path)
	}

	for _, label := range svc.Metadata() {
		out.Labels = append(out.Labels, yamlv2.MapItem{Key: label.Key, Value: label.Value})
	}

	if check, ok := svc.Healthcheck(); ok {
		out.Healthcheck = check
	} else {
		out.Healthcheck = yamlv2.MapSlice{{Key: "disable", Value: true}}
	}

	return name, out, nil
}
