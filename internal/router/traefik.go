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

package router

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gantry-tools/gantry"
	yamlv2 "gopkg.in/yaml.v2"
)

const (
	// DefaultServiceName is the name given to the synthesized proxy
	// service.
	DefaultServiceName = "proxy"

	dockerSocket      = "/var/run/docker.sock"
	traefikImage      = "traefik:v2.10.1"
	traefikConfigPath = "/etc/traefik/traefik.yml"
)

// A Config accumulates the routing facts for one service, then renders
// them as Traefik container labels.
type Config struct {
	routes    []string
	port      int
	service   string
	enableTLS bool
}

// AddRoute adds a path prefix to route to the service. Adding the same
// route twice is an error.
func (c *Config) AddRoute(route string) error {
	for _, r := range c.routes {
		if r == route {
			return fmt.Errorf("route %q already defined", route)
		}
	}
	c.routes = append(c.routes, route)
	return nil
}

// SetPort records the port the service listens on.
func (c *Config) SetPort(port int) {
	c.port = port
}

// SetService points the HTTP router at a named Traefik service instead
// of the container itself, e.g. "api@internal".
func (c *Config) SetService(service string) {
	c.service = service
}

// SetEnableTLS turns TLS termination on or off for the service.
func (c *Config) SetEnableTLS(enable bool) {
	c.enableTLS = enable
}

// Labels renders the accumulated configuration as container labels for
// the named service, in a fixed order. The TLS label is omitted
// entirely when TLS is disabled.
func (c *Config) Labels(name string) []gantry.Label {
	var labels []gantry.Label
	if len(c.routes) > 0 {
		clauses := make([]string, 0, len(c.routes))
		for _, route := range c.routes {
			clauses = append(clauses, "PathPrefix(`"+route+"`)")
		}
		labels = append(labels, gantry.Label{
			Key:   fmt.Sprintf("traefik.http.routers.%s.rule", name),
			Value: strings.Join(clauses, " || "),
		})
	}
	if c.port != 0 {
		labels = append(labels, gantry.Label{
			Key:   fmt.Sprintf("traefik.http.services.%s.loadbalancer.server.port", name),
			Value: c.port,
		})
	}
	if c.service != "" {
		labels = append(labels, gantry.Label{
			Key:   fmt.Sprintf("traefik.http.routers.%s.service", name),
			Value: c.service,
		})
	}
	if c.enableTLS {
		labels = append(labels, gantry.Label{
			Key:   fmt.Sprintf("traefik.http.routers.%s.tls", name),
			Value: true,
		})
	}
	return labels
}

// traefikProvider configures Traefik as a service group's routing
// provider.
type traefikProvider struct {
	args map[string]interface{}
}

func newTraefikProvider(args map[string]interface{}) (Provider, error) {
	return &traefikProvider{args: args}, nil
}

func (p *traefikProvider) boolArg(key string, defaultValue bool) bool {
	if v, ok := p.args[key].(bool); ok {
		return v
	}
	return defaultValue
}

func (p *traefikProvider) stringArg(key string) (string, bool) {
	v, ok := p.args[key].(string)
	return v, ok
}

// GenerateService synthesizes the Traefik container's own service
// definition: the static configuration mount, the Docker socket mount
// (unless map-socket is false), the dynamic configuration folder when
// one is given, and the dashboard/API routes when requested.
func (p *traefikProvider) GenerateService() (*gantry.ServiceDefinition, error) {
	enableDashboard := p.boolArg("enable-dashboard", false)
	enableAPI := enableDashboard || p.boolArg("enable-api", false)

	configFile, ok := p.stringArg("config-file")
	if !ok {
		return nil, fmt.Errorf("generate %s service: missing config-file argument", DefaultServiceName)
	}
	files := yamlv2.MapSlice{
		{Key: "static-config", Value: yamlv2.MapSlice{
			{Key: "internal", Value: traefikConfigPath},
			{Key: "external", Value: configFile},
		}},
	}
	if p.boolArg("map-socket", true) {
		socket, ok := p.stringArg("socket")
		if !ok {
			socket = dockerSocket
		}
		files = append(files, yamlv2.MapItem{Key: "docker-socket", Value: yamlv2.MapSlice{
			{Key: "internal", Value: dockerSocket},
			{Key: "external", Value: socket},
		}})
	}
	if dynamicConfig, ok := p.stringArg("dynamic-config"); ok {
		files = append(files, yamlv2.MapItem{Key: "dynamic-config", Value: yamlv2.MapSlice{
			{Key: "internal", Value: "/" + filepath.Base(dynamicConfig)},
			{Key: "external", Value: dynamicConfig},
		}})
	}

	ports := yamlv2.MapSlice{
		{Key: "http", Value: yamlv2.MapSlice{
			{Key: "internal", Value: 80},
			{Key: "external", Value: 80},
		}},
	}
	if p.boolArg("enable-tls", false) {
		ports = append(ports, yamlv2.MapItem{Key: "https", Value: yamlv2.MapSlice{
			{Key: "internal", Value: 443},
			{Key: "external", Value: 443},
		}})
	}

	def := yamlv2.MapSlice{
		{Key: "name", Value: DefaultServiceName},
		{Key: "image", Value: traefikImage},
		{Key: "files", Value: files},
		{Key: "service-ports", Value: ports},
	}
	if enableAPI {
		routes := []interface{}{"/api"}
		if enableDashboard {
			routes = append(routes, "/dashboard")
		}
		def = append(def,
			yamlv2.MapItem{Key: "entrypoint", Value: yamlv2.MapSlice{
				{Key: "routes", Value: routes},
			}},
			yamlv2.MapItem{Key: "metadata", Value: yamlv2.MapSlice{
				{Key: fmt.Sprintf("traefik.http.routers.%s.service", DefaultServiceName), Value: "api@internal"},
			}},
		)
	} else {
		def = append(def,
			yamlv2.MapItem{Key: "internal", Value: true},
			yamlv2.MapItem{Key: "metadata", Value: yamlv2.MapSlice{
				{Key: "traefik.enable", Value: true},
			}},
		)
	}
	return gantry.NewServiceDefinition(def)
}

// RegisterService derives Traefik labels from the service's entrypoint
// and adds them to its metadata. Internal services are skipped.
func (p *traefikProvider) RegisterService(svc *gantry.ServiceDefinition) error {
	if svc.Internal() {
		return nil
	}
	entrypoint, err := svc.Entrypoint()
	if err != nil {
		return fmt.Errorf("register service %s: %w", svc.Name(), err)
	}
	config := new(Config)
	config.SetEnableTLS(p.boolArg("enable-tls", false))
	config.SetPort(entrypoint.ListensOn)
	for _, route := range entrypoint.Routes {
		if err := config.AddRoute(route); err != nil {
			return fmt.Errorf("register service %s: %w", svc.Name(), err)
		}
	}
	for _, label := range config.Labels(svc.Name()) {
		if err := svc.SetMetadata(label.Key, label.Value, false); err != nil {
			return fmt.Errorf("register service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// CopyResources copies the dynamic configuration folder, when one is
// referenced by the provider arguments, into the output folder.
func (p *traefikProvider) CopyResources(servicesFolder, outputFolder string) error {
	dynamicConfig, ok := p.stringArg("dynamic-config")
	if !ok {
		return nil
	}
	src := filepath.Join(servicesFolder, filepath.FromSlash(dynamicConfig))
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy router resources: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("copy router resources: %s is not a folder", dynamicConfig)
	}
	dst := filepath.Join(outputFolder, filepath.Base(src))
	if err := copyTree(src, dst); err != nil {
		return fmt.Errorf("copy router resources: %w", err)
	}
	return nil
}

// copyTree recursively copies the folder src to dst, creating dst.
func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0777); err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}
