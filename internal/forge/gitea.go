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

package forge

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/gantry-tools/gantry/internal/config"
	git "github.com/go-git/go-git/v5"
	"zombiezen.com/go/log"
)

// giteaClient accesses a Gitea forge and its built-in container
// registry.
type giteaClient struct {
	url      *url.URL
	owner    string
	registry string
	docker   *docker.Client
}

func newGiteaClient(cfg *config.Config, dockerClient *docker.Client) (*giteaClient, error) {
	u, err := url.Parse(cfg.Forge.URL)
	if err != nil {
		return nil, fmt.Errorf("gitea: invalid forge url %q: %w", cfg.Forge.URL, err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("gitea: forge url %q must use https", cfg.Forge.URL)
	}
	registry := cfg.Registry.URL
	if registry == "" {
		registry = u.Host
	}
	return &giteaClient{
		url:      u,
		owner:    cfg.Forge.Owner,
		registry: registry,
		docker:   dockerClient,
	}, nil
}

func (c *giteaClient) PushImage(ctx context.Context, image string) error {
	fullName := image
	if !strings.HasPrefix(image, c.registry+"/") {
		fullName = c.registry + "/" + image
		repo, tag := docker.ParseRepositoryTag(fullName)
		log.Debugf(ctx, "Tagging image as %s.", fullName)
		err := c.docker.TagImage(image, docker.TagImageOptions{
			Repo:    repo,
			Tag:     tag,
			Context: ctx,
		})
		if err != nil {
			return fmt.Errorf("push image %s: %w", image, err)
		}
	}
	repo, tag := docker.ParseRepositoryTag(fullName)
	log.Infof(ctx, "Pushing %s", fullName)
	err := c.docker.PushImage(docker.PushImageOptions{
		Name:         repo,
		Tag:          tag,
		OutputStream: os.Stderr,
		Context:      ctx,
	}, docker.AuthConfiguration{})
	if err != nil {
		return fmt.Errorf("push image %s: %w", image, err)
	}
	return nil
}

func (c *giteaClient) CloneRepo(ctx context.Context, name, dest string) error {
	repoURL := c.url.String() + "/" + c.owner + "/" + name + ".git"
	log.Infof(ctx, "Cloning %s into %s", repoURL, dest)
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL: repoURL,
	})
	if err != nil {
		return fmt.Errorf("clone repo %s: %w", name, err)
	}
	return nil
}
