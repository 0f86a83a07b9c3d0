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
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// PortProtocol is the transport protocol of a published port.
type PortProtocol string

const (
	TCP PortProtocol = "tcp"
	UDP PortProtocol = "udp"
)

// An EnvironmentVariable is one variable passed to a container.
type EnvironmentVariable struct {
	Key   string
	Value interface{}
}

// Format renders the variable as a KEY=value string.
func (v EnvironmentVariable) Format() string {
	return fmt.Sprintf("%s=%v", v.Key, v.Value)
}

// A PathMapping maps a host path into a container. Mappings are
// read-only unless the definition says otherwise.
type PathMapping struct {
	Internal string
	External string
	ReadOnly bool
}

// String renders the mapping in Compose bind-mount form,
// external:internal with a ":ro" suffix for read-only mounts.
func (m PathMapping) String() string {
	s := m.External + ":" + m.Internal
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// A PortMapping publishes a container port on the host.
type PortMapping struct {
	Internal int
	External int
	Protocol PortProtocol
}

// String renders the mapping in Compose form, external:internal with a
// "/udp" suffix for UDP ports. TCP is Compose's default and is left
// implicit.
func (m PortMapping) String() string {
	s := fmt.Sprintf("%d:%d", m.External, m.Internal)
	if m.Protocol == UDP {
		s += "/" + string(UDP)
	}
	return s
}

// FolderContext is the data available to a service definition template.
type FolderContext struct {
	Service FolderInfo
}

// FolderInfo names the folder a service definition was loaded from,
// relative to its service group.
type FolderInfo struct {
	Folder string
}

// ConfigContext is the data available to a router configuration
// template.
type ConfigContext struct {
	Service GroupInfo
}

// GroupInfo describes the service group a router configuration is
// rendered for.
type GroupInfo struct {
	Name    string
	Network string
}

// A TemplateReference points at a template file on disk. Definition
// and router configuration files are rendered through text/template
// before they are parsed.
type TemplateReference struct {
	path string
}

// NewTemplateReference resolves filename against folder. It fails if
// the file does not exist.
func NewTemplateReference(folder, filename string) (*TemplateReference, error) {
	path, err := filepath.Abs(filepath.Join(folder, filename))
	if err != nil {
		return nil, fmt.Errorf("resolve template %s: %w", filename, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("resolve template %s: %w", filename, err)
	}
	return &TemplateReference{path: path}, nil
}

// Path returns the absolute path of the template file.
func (t *TemplateReference) Path() string {
	return t.path
}

// Name returns the template's file name.
func (t *TemplateReference) Name() string {
	return filepath.Base(t.path)
}

// Render executes the template with the given context data.
func (t *TemplateReference) Render(data interface{}) (string, error) {
	b, err := os.ReadFile(t.path)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", t.path, err)
	}
	tmpl, err := template.New(t.Name()).Parse(string(b))
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", t.path, err)
	}
	out := new(strings.Builder)
	if err := tmpl.Execute(out, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.path, err)
	}
	return out.String(), nil
}
