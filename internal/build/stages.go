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

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gantry-tools/gantry"
	"github.com/gantry-tools/gantry/internal/router"
	"zombiezen.com/go/log"
)

// CreateBuildFolder is the stage that creates the output build folder
// for a service group. It fails if the folder already exists and
// overwriting was not requested.
type CreateBuildFolder struct {
	// Folder is the build root.
	Folder string
	// Overwrite permits reuse of an existing folder.
	Overwrite bool
	// UseGroupName places the output under Folder/{group-name}.
	UseGroupName bool
}

func (s *CreateBuildFolder) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	output := resolveBuildFolder(s.Folder, group, s.UseGroupName)
	if _, err := os.Stat(output); err == nil {
		if !s.Overwrite {
			return fmt.Errorf("create build folder: %s already exists", output)
		}
		log.Debugf(ctx, "Overwriting existing build folder at %s.", output)
	}
	if err := os.MkdirAll(output, 0777); err != nil {
		return fmt.Errorf("create build folder: %w", err)
	}
	return nil
}

// CopyServiceResources is the stage that copies each service's folder
// contents, minus the definition file, into the build folder, along
// with any extra resources the group's routing provider references.
type CopyServiceResources struct {
	Folder       string
	UseGroupName bool
}

func (s *CopyServiceResources) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	output := resolveBuildFolder(s.Folder, group, s.UseGroupName)
	log.Debugf(ctx, "Copying service resources to %s.", output)
	return copyServiceResources(group, output)
}

func copyServiceResources(group *gantry.ServiceGroupDefinition, output string) error {
	info, err := group.Router()
	if err != nil {
		return err
	}
	provider, err := router.New(info.Provider, info.Args)
	if err != nil {
		return err
	}
	if err := provider.CopyResources(group.Folder(), output); err != nil {
		return err
	}

	services, err := group.Services()
	if err != nil {
		return err
	}
	for _, svc := range services {
		dst := filepath.Join(output, svc.Name())
		if err := os.MkdirAll(dst, 0777); err != nil {
			return fmt.Errorf("copy service resources: %w", err)
		}
		if err := copyFolderContents(svc.Folder(), dst, true); err != nil {
			return fmt.Errorf("copy service resources for %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// UpdateManifest is the stage that records a group's build artifacts
// in the manifest at the build-folder root. An existing manifest is
// loaded and appended to, so multiple groups built into the same
// folder accumulate into a single manifest.
type UpdateManifest struct {
	// ManifestName names the build when a fresh manifest is created.
	ManifestName string
	// Folder is the build root holding the manifest.
	Folder string
	// Entries produces the manifest entries for a service group.
	Entries func(group *gantry.ServiceGroupDefinition) ([]gantry.Entry, error)
}

func (s *UpdateManifest) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	manifestPath := filepath.Join(s.Folder, gantry.ManifestFilename)
	manifest, err := gantry.LoadManifest(ctx, manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		manifest = gantry.NewBuildManifest(s.ManifestName)
	} else if err != nil {
		return err
	}
	entries, err := s.Entries(group)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		manifest.AppendEntry(entry)
	}
	if err := manifest.Save(manifestPath); err != nil {
		return err
	}
	log.Debugf(ctx, "Updated manifest at %s.", manifestPath)
	return nil
}

// resolveBuildFolder returns root or root/{group-name} depending on
// useGroupName.
func resolveBuildFolder(root string, group *gantry.ServiceGroupDefinition, useGroupName bool) string {
	if useGroupName {
		return filepath.Join(root, group.Name())
	}
	return root
}

// isDefinitionFile reports whether name is a service definition file,
// which is never copied into build output.
func isDefinitionFile(name string) bool {
	return name == "service.yml" || name == "service.yaml"
}

// copyFolderContents copies everything inside src into dst, skipping
// definition files when skipDefinitions is set (only applied at the
// top level) and preserving subdirectories. Existing files in dst are
// overwritten.
func copyFolderContents(src, dst string, skipDefinitions bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if skipDefinitions && isDefinitionFile(entry.Name()) {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(dstPath, 0777); err != nil {
				return err
			}
			if err := copyFolderContents(srcPath, dstPath, false); err != nil {
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
