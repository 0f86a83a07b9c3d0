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

package main

import (
	"context"
	"errors"
	"fmt"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/gantry-tools/gantry"
	"github.com/gantry-tools/gantry/internal/build"
	"zombiezen.com/go/log"
)

func connectDockerClient() (*docker.Client, error) {
	dockerClient, err := docker.NewVersionedClient("unix:///var/run/docker.sock", "1.39")
	if err != nil {
		return nil, err
	}
	return dockerClient, nil
}

// loadServiceGroups loads every service group folder given on the
// command line.
func loadServiceGroups(folders []string) ([]*gantry.ServiceGroupDefinition, error) {
	groups := make([]*gantry.ServiceGroupDefinition, 0, len(folders))
	for _, folder := range folders {
		group, err := gantry.LoadServiceGroup(folder)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// runTarget builds each service group with the target. Failures are
// isolated per group when keepGoing is set; the first error is still
// reported after the remaining groups have been attempted.
func runTarget(ctx context.Context, target build.Target, groups []*gantry.ServiceGroupDefinition, keepGoing bool) error {
	var firstErr error
	for _, group := range groups {
		if err := target.Build(ctx, group); err != nil {
			if !keepGoing {
				return fmt.Errorf("build %s: %w", group.Name(), err)
			}
			log.Errorf(ctx, "Build %s: %v", group.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("build %s: %w", group.Name(), err)
			}
		}
	}
	return firstErr
}

// isUsageError reports whether err stems from bad operator input, in
// which case the command shows its usage text.
func isUsageError(err error) bool {
	usageError := new(build.UsageError)
	return errors.As(err, &usageError)
}
