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
	"github.com/ghodss/yaml"
	yamlv2 "gopkg.in/yaml.v2"
)

// definitionFilenames are the recognized names for a service
// definition file. The first match wins.
var definitionFilenames = []string{"service.yml", "service.yaml"}

// An Entrypoint is the externally reachable location of a service: the
// HTTP route prefixes it answers on and the port it listens on.
type Entrypoint struct {
	Routes    []string
	ListensOn int
}

// A Volume is a named volume requested by a service. Names are
// namespaced as {service}-{volume} so groups can share a Compose file
// without collisions.
type Volume struct {
	Name string
	Path string
}

// A Label is one piece of service metadata, emitted as a container
// label.
type Label struct {
	Key   string
	Value interface{}
}

// A BuildArg is passed to Docker when a service is built from its own
// folder.
type BuildArg struct {
	Key   string
	Value interface{}
}

// A ServiceDefinition declares a single containerized service. It is
// immutable after construction except for SetMetadata.
type ServiceDefinition struct {
	name   string
	folder string
	def    yamlv2.MapSlice
}

// LoadServiceDefinition reads a service definition from a folder. The
// folder must contain a service.yml (or service.yaml), which is first
// rendered as a template with the service's relative folder in scope
// and then validated against the service schema. The service takes its
// name from the folder.
func LoadServiceDefinition(folder string) (*ServiceDefinition, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("load service definition %s: %w", folder, err)
	}
	rendered, err := renderDefinitionFile(abs)
	if err != nil {
		return nil, err
	}
	if err := validateDefinition([]byte(rendered), schema.Service, abs); err != nil {
		return nil, err
	}
	var def yamlv2.MapSlice
	if err := yamlv2.Unmarshal([]byte(rendered), &def); err != nil {
		return nil, fmt.Errorf("load service definition %s: %w", folder, err)
	}
	svc := &ServiceDefinition{
		name:   filepath.Base(abs),
		folder: abs,
		def:    def,
	}
	return svc, nil
}

// NewServiceDefinition builds a service from an in-memory definition.
// This is how routing providers synthesize their own router service.
// The definition must carry a name and is validated against the same
// schema as folder-backed definitions.
func NewServiceDefinition(def yamlv2.MapSlice) (*ServiceDefinition, error) {
	raw, err := yamlv2.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("new service definition: %w", err)
	}
	if err := validateDefinition(raw, schema.Service, "service definition"); err != nil {
		return nil, err
	}
	name, ok := lookupString(def, "name")
	if !ok || name == "" {
		return nil, fmt.Errorf("new service definition: no name in definition")
	}
	return &ServiceDefinition{name: name, def: def}, nil
}

// renderDefinitionFile locates the definition file in folder and
// renders it with the service's relative folder in template scope.
func renderDefinitionFile(folder string) (string, error) {
	for _, filename := range definitionFilenames {
		tmpl, err := NewTemplateReference(folder, filename)
		if err != nil {
			continue
		}
		ctx := FolderContext{Service: FolderInfo{
			Folder: "./" + filepath.Base(folder),
		}}
		return tmpl.Render(ctx)
	}
	return "", fmt.Errorf("load service definition: no service.yml or service.yaml in %s", folder)
}

// validateDefinition checks rendered YAML against a schema and wraps
// any violations in a *schema.ValidationError.
func validateDefinition(rendered []byte, name schema.Name, source string) error {
	instance, err := yaml.YAMLToJSON(rendered)
	if err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	issues, err := schema.Validate(instance, name)
	if err != nil {
		return fmt.Errorf("validate %s: %w", source, err)
	}
	if len(issues) > 0 {
		return &schema.ValidationError{Source: source, Issues: issues}
	}
	return nil
}

// Name returns the service's name.
func (s *ServiceDefinition) Name() string {
	return s.name
}

// Folder returns the absolute path the definition was loaded from, or
// "" for in-memory definitions.
func (s *ServiceDefinition) Folder() string {
	return s.folder
}

// Image returns the container image to pull, or "" when the service is
// built from its own folder. Mutually exclusive with BuildArgs.
func (s *ServiceDefinition) Image() string {
	image, _ := lookupString(s.def, "image")
	return image
}

// Internal reports whether the service opted out of routing
// registration.
func (s *ServiceDefinition) Internal() bool {
	v, ok := lookup(s.def, "internal")
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Entrypoint resolves the service's entrypoint. A bare string is the
// sole route; an object carries a route list and an optional
// listen port. Both the route and the port have defaults: /{name}
// and 80.
func (s *ServiceDefinition) Entrypoint() (*Entrypoint, error) {
	entry := &Entrypoint{
		Routes:    []string{"/" + s.name},
		ListensOn: 80,
	}
	v, ok := lookup(s.def, "entrypoint")
	if !ok {
		return entry, nil
	}
	switch value := v.(type) {
	case string:
		entry.Routes = []string{value}
	case yamlv2.MapSlice:
		routes, ok := lookup(value, "routes")
		if !ok {
			return nil, fmt.Errorf("service %s: entrypoint has no routes", s.name)
		}
		list, ok := routes.([]interface{})
		if !ok {
			return nil, fmt.Errorf("service %s: entrypoint routes is not a list", s.name)
		}
		entry.Routes = make([]string, 0, len(list))
		for _, item := range list {
			route, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("service %s: entrypoint route %v is not a string", s.name, item)
			}
			entry.Routes = append(entry.Routes, route)
		}
		if port, ok := lookupInt(value, "listens-on"); ok {
			entry.ListensOn = port
		}
	default:
		return nil, fmt.Errorf("service %s: unknown datatype for entrypoint", s.name)
	}
	return entry, nil
}

// Environment returns the service's environment variables in
// declaration order.
func (s *ServiceDefinition) Environment() []EnvironmentVariable {
	env, ok := lookupMap(s.def, "environment")
	if !ok {
		return nil
	}
	vars := make([]EnvironmentVariable, 0, len(env))
	for _, item := range env {
		vars = append(vars, EnvironmentVariable{
			Key:   fmt.Sprintf("%v", item.Key),
			Value: item.Value,
		})
	}
	return vars
}

// Files returns the host files mapped into the container, in
// declaration order. Mappings are read-only unless declared otherwise.
func (s *ServiceDefinition) Files() ([]PathMapping, error) {
	raw, ok := lookupMap(s.def, "files")
	if !ok {
		return nil, nil
	}
	mappings := make([]PathMapping, 0, len(raw))
	for _, item := range raw {
		details, ok := item.Value.(yamlv2.MapSlice)
		if !ok {
			return nil, fmt.Errorf("service %s: file mapping %v is not a mapping", s.name, item.Key)
		}
		internal, ok := lookupString(details, "internal")
		if !ok {
			return nil, fmt.Errorf("service %s: file mapping %v has no internal path", s.name, item.Key)
		}
		external, ok := lookupString(details, "external")
		if !ok {
			return nil, fmt.Errorf("service %s: file mapping %v has no external path", s.name, item.Key)
		}
		mapping := PathMapping{Internal: internal, External: external, ReadOnly: true}
		if v, ok := lookup(details, "read-only"); ok {
			b, isBool := v.(bool)
			if !isBool {
				return nil, fmt.Errorf("service %s: file mapping %v read-only is not a boolean", s.name, item.Key)
			}
			mapping.ReadOnly = b
		}
		mappings = append(mappings, mapping)
	}
	return mappings, nil
}

// ServicePorts returns the ports published by the service, in
// declaration order. Ports default to TCP.
func (s *ServiceDefinition) ServicePorts() ([]PortMapping, error) {
	raw, ok := lookupMap(s.def, "service-ports")
	if !ok {
		return nil, nil
	}
	mappings := make([]PortMapping, 0, len(raw))
	for _, item := range raw {
		details, ok := item.Value.(yamlv2.MapSlice)
		if !ok {
			return nil, fmt.Errorf("service %s: port mapping %v is not a mapping", s.name, item.Key)
		}
		internal, ok := lookupInt(details, "internal")
		if !ok {
			return nil, fmt.Errorf("service %s: port mapping %v has no internal port", s.name, item.Key)
		}
		external, ok := lookupInt(details, "external")
		if !ok {
			return nil, fmt.Errorf("service %s: port mapping %v has no external port", s.name, item.Key)
		}
		mapping := PortMapping{Internal: internal, External: external, Protocol: TCP}
		if proto, ok := lookupString(details, "protocol"); ok {
			switch PortProtocol(proto) {
			case TCP, UDP:
				mapping.Protocol = PortProtocol(proto)
			default:
				return nil, fmt.Errorf("service %s: unknown protocol %q for port %v", s.name, proto, item.Key)
			}
		}
		mappings = append(mappings, mapping)
	}
	return mappings, nil
}

// Volumes returns the named volumes the service requested, with names
// rewritten to {service}-{volume}.
func (s *ServiceDefinition) Volumes() []Volume {
	raw, ok := lookupMap(s.def, "volumes")
	if !ok {
		return nil
	}
	volumes := make([]Volume, 0, len(raw))
	for _, item := range raw {
		volumes = append(volumes, Volume{
			Name: fmt.Sprintf("%s-%v", s.name, item.Key),
			Path: fmt.Sprintf("%v", item.Value),
		})
	}
	return volumes
}

// BuildArgs returns the Docker build arguments, in declaration order.
// Only meaningful for services built from their own folder.
func (s *ServiceDefinition) BuildArgs() []BuildArg {
	raw, ok := lookupMap(s.def, "build-args")
	if !ok {
		return nil
	}
	args := make([]BuildArg, 0, len(raw))
	for _, item := range raw {
		args = append(args, BuildArg{
			Key:   fmt.Sprintf("%v", item.Key),
			Value: item.Value,
		})
	}
	return args
}

// Metadata returns the service metadata in declaration order.
func (s *ServiceDefinition) Metadata() []Label {
	raw, ok := lookupMap(s.def, "metadata")
	if !ok {
		return nil
	}
	labels := make([]Label, 0, len(raw))
	for _, item := range raw {
		labels = append(labels, Label{
			Key:   fmt.Sprintf("%v", item.Key),
			Value: item.Value,
		})
	}
	return labels
}

// Healthcheck returns the declared healthcheck, if any. A service with
// no healthcheck has it explicitly disabled in the Compose output.
func (s *ServiceDefinition) Healthcheck() (yamlv2.MapSlice, bool) {
	raw, ok := lookupMap(s.def, "healthcheck")
	return raw, ok
}

// SetMetadata adds a metadata entry. Metadata is additive-only: when
// the key already exists the call fails unless override is true.
func (s *ServiceDefinition) SetMetadata(key string, value interface{}, override bool) error {
	idx := indexOf(s.def, "metadata")
	if idx < 0 {
		s.def = append(s.def, yamlv2.MapItem{Key: "metadata", Value: yamlv2.MapSlice{}})
		idx = len(s.def) - 1
	}
	metadata, ok := s.def[idx].Value.(yamlv2.MapSlice)
	if !ok {
		return fmt.Errorf("service %s: metadata is not a mapping", s.name)
	}
	if existing := indexOf(metadata, key); existing >= 0 {
		if !override {
			return fmt.Errorf("service %s: %q is already specified in the definition's metadata", s.name, key)
		}
		metadata[existing].Value = value
		s.def[idx].Value = metadata
		return nil
	}
	s.def[idx].Value = append(metadata, yamlv2.MapItem{Key: key, Value: value})
	return nil
}

// lookup finds a key in a YAML mapping.
func lookup(m yamlv2.MapSlice, key string) (interface{}, bool) {
	if i := indexOf(m, key); i >= 0 {
		return m[i].Value, true
	}
	return nil, false
}

func indexOf(m yamlv2.MapSlice, key string) int {
	for i, item := range m {
		if k, ok := item.Key.(string); ok && k == key {
			return i
		}
	}
	return -1
}

func lookupString(m yamlv2.MapSlice, key string) (string, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupInt(m yamlv2.MapSlice, key string) (int, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

func lookupMap(m yamlv2.MapSlice, key string) (yamlv2.MapSlice, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(yamlv2.MapSlice)
	return nested, ok
}
