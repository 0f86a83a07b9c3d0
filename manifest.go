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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/gantry-tools/gantry/internal/schema"
	"zombiezen.com/go/log"
)

// ManifestFilename is the name of the manifest file at the root of a
// build folder.
const ManifestFilename = "manifest.json"

// ComposeFilename is the file name every Docker Compose entry must
// point at.
const ComposeFilename = "docker-compose.yml"

// DockerfileName is the file name every image entry's source must
// point at.
const DockerfileName = "Dockerfile"

// ErrUnresolvedManifest is returned by Resolve when the manifest has
// never been saved to or loaded from a file.
var ErrUnresolvedManifest = errors.New("manifest needs to be saved or loaded from a file before paths can be resolved")

// EntryType discriminates build manifest entries.
type EntryType string

const (
	// EntryTypeDockerCompose marks a service group converted into a
	// Docker Compose file.
	EntryTypeDockerCompose EntryType = "docker-compose"
	// EntryTypeImage marks a built service container image.
	EntryTypeImage EntryType = "image"
)

// An Entry is one artifact recorded in a build manifest. The two
// variants are DockerComposeEntry and ImageEntry.
type Entry interface {
	Type() EntryType

	// entryJSON returns the serialized form. Implementing it seals the
	// union so the manifest loader can switch exhaustively.
	entryJSON() manifestEntryJSON
}

// A DockerComposeEntry records a docker-compose.yml produced from a
// service group. The path is stored relative to the manifest's own
// folder.
type DockerComposeEntry struct {
	ComposeFile string
	// Deployable indicates the compose file and its folder can be
	// deployed as-is.
	Deployable bool
}

// NewDockerComposeEntry builds a compose entry. The path must point at
// a file named docker-compose.yml; anything else is a structural error
// caught here, at construction time.
func NewDockerComposeEntry(composeFile string, deployable bool) (*DockerComposeEntry, error) {
	if path.Base(composeFile) != ComposeFilename {
		return nil, fmt.Errorf("manifest entry: compose-file must end in %q, got %q", ComposeFilename, composeFile)
	}
	return &DockerComposeEntry{ComposeFile: composeFile, Deployable: deployable}, nil
}

// SourceFolder returns the folder containing the compose file.
func (e *DockerComposeEntry) SourceFolder() string {
	return path.Dir(e.ComposeFile)
}

func (e *DockerComposeEntry) Type() EntryType {
	return EntryTypeDockerCompose
}

func (e *DockerComposeEntry) entryJSON() manifestEntryJSON {
	j := manifestEntryJSON{
		Type:        string(EntryTypeDockerCompose),
		ComposeFile: e.ComposeFile,
	}
	if !e.Deployable {
		deployable := false
		j.IsDeployable = &deployable
	}
	return j
}

// An ImageEntry records a container image built from a service's
// Dockerfile. The source path is stored relative to the manifest's own
// folder.
type ImageEntry struct {
	Image  string
	Source string
}

// NewImageEntry builds an image entry. The source must point at a file
// named Dockerfile.
func NewImageEntry(image, source string) (*ImageEntry, error) {
	if path.Base(source) != DockerfileName {
		return nil, fmt.Errorf("manifest entry: source must end in %q, got %q", DockerfileName, source)
	}
	return &ImageEntry{Image: image, Source: source}, nil
}

// SourceFolder returns the folder containing the Dockerfile.
func (e *ImageEntry) SourceFolder() string {
	return path.Dir(e.Source)
}

func (e *ImageEntry) Type() EntryType {
	return EntryTypeImage
}

func (e *ImageEntry) entryJSON() manifestEntryJSON {
	return manifestEntryJSON{
		Type:   string(EntryTypeImage),
		Image:  e.Image,
		Source: e.Source,
	}
}

// A BuildManifest is the ordered record of artifacts produced by one
// or more builds. Paths inside the manifest are relative to the
// manifest's own folder, so a build folder can be relocated as a unit.
type BuildManifest struct {
	// Name is a free-text build identifier.
	Name string

	entries []Entry
	source  string
}

type manifestJSON struct {
	Name     string              `json:"name,omitempty"`
	Contents []manifestEntryJSON `json:"contents"`
}

type manifestEntryJSON struct {
	Type         string `json:"type"`
	ComposeFile  string `json:"compose-file,omitempty"`
	IsDeployable *bool  `json:"is-deployable,omitempty"`
	Image        string `json:"image,omitempty"`
	Source       string `json:"source,omitempty"`
}

// NewBuildManifest creates an empty manifest with the given build
// name.
func NewBuildManifest(name string) *BuildManifest {
	return &BuildManifest{Name: name}
}

// AppendEntry adds an entry to the end of the manifest. Order is
// preserved and duplicates are not collapsed.
func (m *BuildManifest) AppendEntry(entry Entry) {
	m.entries = append(m.entries, entry)
}

// NumEntries returns how many entries the manifest holds.
func (m *BuildManifest) NumEntries() int {
	return len(m.entries)
}

// Entries returns all entries in insertion order.
func (m *BuildManifest) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// DockerComposeEntries returns the compose entries in insertion order.
func (m *BuildManifest) DockerComposeEntries() []*DockerComposeEntry {
	var entries []*DockerComposeEntry
	for _, entry := range m.entries {
		if e, ok := entry.(*DockerComposeEntry); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ImageEntries returns the image entries in insertion order.
func (m *BuildManifest) ImageEntries() []*ImageEntry {
	var entries []*ImageEntry
	for _, entry := range m.entries {
		if e, ok := entry.(*ImageEntry); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Resolved reports whether the manifest has an associated file.
func (m *BuildManifest) Resolved() bool {
	return m.source != ""
}

// Resolve joins a relative path from a manifest entry against the
// manifest's own folder.
func (m *BuildManifest) Resolve(rel string) (string, error) {
	if m.source == "" {
		return "", ErrUnresolvedManifest
	}
	return filepath.Join(filepath.Dir(m.source), filepath.FromSlash(rel)), nil
}

// Save writes the manifest as indented JSON and remembers the location
// for later path resolution.
func (m *BuildManifest) Save(manifestPath string) error {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return fmt.Errorf("save manifest %s: %w", manifestPath, err)
	}
	doc := manifestJSON{
		Name:     m.Name,
		Contents: make([]manifestEntryJSON, 0, len(m.entries)),
	}
	for _, entry := range m.entries {
		doc.Contents = append(doc.Contents, entry.entryJSON())
	}
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("save manifest %s: %w", manifestPath, err)
	}
	if err := os.WriteFile(abs, append(b, '\n'), 0666); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	m.source = abs
	return nil
}

// LoadManifest reads a manifest from a JSON file, validating it
// against the build manifest schema. All schema violations are
// reported together. An entry with an unrecognized type is logged and
// skipped rather than failing the load.
func LoadManifest(ctx context.Context, manifestPath string) (*BuildManifest, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", manifestPath, err)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	issues, err := schema.Validate(b, schema.BuildManifest)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", manifestPath, err)
	}
	if len(issues) > 0 {
		return nil, &schema.ValidationError{Source: abs, Issues: issues}
	}
	var doc manifestJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", manifestPath, err)
	}
	manifest := &BuildManifest{Name: doc.Name, source: abs}
	for _, item := range doc.Contents {
		switch EntryType(item.Type) {
		case EntryTypeDockerCompose:
			deployable := true
			if item.IsDeployable != nil {
				deployable = *item.IsDeployable
			}
			entry, err := NewDockerComposeEntry(item.ComposeFile, deployable)
			if err != nil {
				return nil, fmt.Errorf("load manifest %s: %w", manifestPath, err)
			}
			manifest.AppendEntry(entry)
		case EntryTypeImage:
			entry, err := NewImageEntry(item.Image, item.Source)
			if err != nil {
				return nil, fmt.Errorf("load manifest %s: %w", manifestPath, err)
			}
			manifest.AppendEntry(entry)
		default:
			log.Warnf(ctx, "Skipping manifest entry with unknown type %q.", item.Type)
		}
	}
	return manifest, nil
}
