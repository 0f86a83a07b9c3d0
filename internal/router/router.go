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

// Package router defines routing providers: strategies that inject a
// reverse proxy into a service group and label the group's services so
// the proxy can find them.
package router

import (
	"fmt"
	"sort"

	"github.com/gantry-tools/gantry"
)

// A Provider wires a service group's services to a reverse proxy.
type Provider interface {
	// GenerateService synthesizes the proxy's own service definition.
	// It runs once per build and the result is prepended to the
	// group's real services.
	GenerateService() (*gantry.ServiceDefinition, error)

	// RegisterService adds routing labels to a service's metadata,
	// derived from its entrypoint. Services flagged as internal are
	// left untouched.
	RegisterService(svc *gantry.ServiceDefinition) error

	// CopyResources copies any out-of-band folders the provider's
	// arguments reference from the services folder into the build
	// output folder.
	CopyResources(servicesFolder, outputFolder string) error
}

// A Factory creates a provider from the free-form argument mapping in
// a service group definition.
type Factory func(args map[string]interface{}) (Provider, error)

var providers = map[string]Factory{
	"traefik": newTraefikProvider,
}

// New creates the named routing provider.
func New(name string, args map[string]interface{}) (Provider, error) {
	factory := providers[name]
	if factory == nil {
		return nil, fmt.Errorf("unknown routing provider %q (available: %v)", name, Names())
	}
	provider, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("routing provider %s: %w", name, err)
	}
	return provider, nil
}

// Names returns the available provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
