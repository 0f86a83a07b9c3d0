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

package gantry

import (
	"fmt"
	"path/filepath"

	"github.com/gantry-tools/gantry/internal/schema"
	yamlv2 "gopkg.in/yaml.v2"
)

// groupFilenames are the recognized names for a service group
// definition file. The first match wins.
var groupFilenames = []string{"service-group.yml", "service-group.yaml"}

// RouterInfo is a service group's routing provider declaration.
type RouterInfo struct {
	// Provider names the routing provider, e.g. "traefik".
	Provider string
	// Config is the provider's configuration template, resolved
	// relative to the group folder.
	Config *TemplateReference
	// Args are free-form provider arguments from the group definition.
	Args map[string]interface{}
}

// A ServiceGroupDefinition is a named collection of services sharing
// one network and one routing provider. Groups are always loaded from
// a folder; the folder name becomes the group name and each member
// service lives in a subfolder of the same name.
type ServiceGroupDefinition struct {
	name    string
	folder  string
	network string
	router  groupRouter
	members []string
}

type groupDefinition struct {
	Network  string      `yaml:"network"`
	Router   groupRouter `yaml:"router"`
	Services []string    `yaml:"services"`
}

type groupRouter struct {
	Provider string                 `yaml:"provider"`
	Config   string                 `yaml:"config"`
	Args     map[string]interface{} `yaml:"args"`
}

// LoadServiceGroup reads a service group definition from a folder
// containing a service-group.yml file. The definition is rendered as a
// template, validated against the service group schema, and parsed.
func LoadServiceGroup(folder string) (*ServiceGroupDefinition, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("load service group %s: %w", folder, err)
	}
	rendered, err := renderGroupFile(abs)
	if err != nil {
		return nil, err
	}
	if err := validateDefinition([]byte(rendered), schema.ServiceGroup, abs); err != nil {
		return nil, err
	}
	var def groupDefinition
	if err := yamlv2.UnmarshalStrict([]byte(rendered), &def); err != nil {
		return nil, fmt.Errorf("load service group %s: %w", folder, err)
	}
	return &ServiceGroupDefinition{
		name:    filepath.Base(abs),
		folder:  abs,
		network: def.Network,
		router:  def.Router,
		members: def.Services,
	}, nil
}

func renderGroupFile(folder string) (string, error) {
	for _, filename := range groupFilenames {
		tmpl, err := NewTemplateReference(folder, filename)
		if err != nil {
			continue
		}
		ctx := FolderContext{Service: FolderInfo{
			Folder: "./" + filepath.Base(folder),
		}}
		return tmpl.Render(ctx)
	}
	return "", fmt.Errorf("load service group: no service-group.yml or service-group.yaml in %s", folder)
}

// Name returns the group's name, taken from its folder.
func (g *ServiceGroupDefinition) Name() string {
	return g.name
}

// Folder returns the absolute path of the group folder.
func (g *ServiceGroupDefinition) Folder() string {
	return g.folder
}

// Network returns the name of the network the group's services
// communicate on. It becomes the Compose network name.
func (g *ServiceGroupDefinition) Network() string {
	return g.network
}

// Router resolves the group's routing provider declaration. The
// provider's configuration template is resolved lazily, relative to
// the group folder.
func (g *ServiceGroupDefinition) Router() (*RouterInfo, error) {
	if g.folder == "" {
		return nil, fmt.Errorf("service group %s: definition not loaded from a folder", g.name)
	}
	config, err := NewTemplateReference(g.folder, g.router.Config)
	if err != nil {
		return nil, fmt.Errorf("service group %s: %w", g.name, err)
	}
	args := make(map[string]interface{}, len(g.router.Args))
	for k, v := range g.router.Args {
		args[k] = v
	}
	return &RouterInfo{
		Provider: g.router.Provider,
		Config:   config,
		Args:     args,
	}, nil
}

// ServiceNames returns the members of the group in definition order.
func (g *ServiceGroupDefinition) ServiceNames() []string {
	return append([]string(nil), g.members...)
}

// Len returns how many services are in the group.
func (g *ServiceGroupDefinition) Len() int {
	return len(g.members)
}

// Has reports whether a service is a member of the group.
func (g *ServiceGroupDefinition) Has(name string) bool {
	for _, member := range g.members {
		if member == name {
			return true
		}
	}
	return false
}

// Services loads the group's member definitions in definition order.
// Definitions are re-parsed from their subfolders on every call, so
// the iteration is restartable and always reflects what is on disk.
func (g *ServiceGroupDefinition) Services() ([]*ServiceDefinition, error) {
	services := make([]*ServiceDefinition, 0, len(g.members))
	for _, member := range g.members {
		svc, err := LoadServiceDefinition(filepath.Join(g.folder, member))
		if err != nil {
			return nil, fmt.Errorf("service group %s: %w", g.name, err)
		}
		services = append(services, svc)
	}
	return services, nil
}
