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

// Package forge talks to the software forge a homelab publishes to:
// pushing container images to its registry and cloning its repos.
package forge

import (
	"context"
	"fmt"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/gantry-tools/gantry/internal/config"
)

// A Client performs forge operations for one provider.
type Client interface {
	// PushImage pushes a local image to the forge's container
	// registry, tagging it with the registry host first when needed.
	PushImage(ctx context.Context, image string) error

	// CloneRepo clones the named repo from the configured owner into
	// the destination folder.
	CloneRepo(ctx context.Context, name, dest string) error
}

// New creates the forge client named by the configuration.
func New(cfg *config.Config, dockerClient *docker.Client) (Client, error) {
	switch cfg.Forge.Provider {
	case "gitea":
		return newGiteaClient(cfg, dockerClient)
	default:
		return nil, fmt.Errorf("unknown forge provider %q", cfg.Forge.Provider)
	}
}
