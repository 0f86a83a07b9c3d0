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

// Package config loads gantry's own configuration file, which names
// the forge and container registry a homelab pushes to.
package config

import (
	"fmt"
	"os"

	"github.com/gantry-tools/gantry/internal/schema"
	"github.com/ghodss/yaml"
	yamlv2 "gopkg.in/yaml.v2"
)

// DefaultFilename is the conventional name of the configuration file.
const DefaultFilename = "gantry.yml"

// Config is the parsed configuration file.
type Config struct {
	Forge    Forge    `yaml:"forge"`
	Registry Registry `yaml:"registry"`
}

// Forge identifies the software forge gantry talks to.
type Forge struct {
	// Provider names the forge implementation, e.g. "gitea".
	Provider string `yaml:"provider"`
	// URL is the forge's HTTPS base URL.
	URL string `yaml:"url"`
	// Owner is the account or organization gantry operates on.
	Owner string `yaml:"owner"`
}

// Registry identifies the container registry images are pushed to.
type Registry struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	jsonBytes, err := yaml.YAMLToJSON(b)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	issues, err := schema.Validate(jsonBytes, schema.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if len(issues) > 0 {
		return nil, &schema.ValidationError{Source: path, Issues: issues}
	}
	cfg := new(Config)
	if err := yamlv2.UnmarshalStrict(b, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
