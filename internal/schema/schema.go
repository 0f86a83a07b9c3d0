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

// Package schema validates gantry definition files against the JSON
// Schemas shipped with the tool.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed service.json service_group.json build_manifest.json config.json
var files embed.FS

// Name identifies one of the embedded schemas.
type Name string

const (
	Service       Name = "service"
	ServiceGroup  Name = "service_group"
	BuildManifest Name = "build_manifest"
	Config        Name = "config"
)

// Names returns every schema shipped with gantry, in a stable order.
func Names() []Name {
	return []Name{BuildManifest, Config, Service, ServiceGroup}
}

// Source returns the raw JSON for a schema.
func Source(name Name) ([]byte, error) {
	b, err := files.ReadFile(string(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return b, nil
}

// Get parses a schema into a generic JSON document.
func Get(name Name) (map[string]interface{}, error) {
	b, err := Source(name)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return doc, nil
}

// An Issue is a single schema violation.
type Issue struct {
	// Path is the JSON path of the offending element.
	Path string
	// Message describes the violation.
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// A ValidationError reports every violation found while validating a
// document, sorted by JSON path.
type ValidationError struct {
	// Source describes the document that failed validation, usually a
	// file path.
	Source string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "%s: %d validation issue(s)", e.Source, len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(sb, "\n\t%s", issue)
	}
	return sb.String()
}

// Validate checks a JSON document against one of the embedded schemas.
// It returns all violations, not just the first one found.
func Validate(instance []byte, name Name) ([]Issue, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(src),
		gojsonschema.NewBytesLoader(instance),
	)
	if err != nil {
		return nil, fmt.Errorf("validate against schema %s: %w", name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	issues := make([]Issue, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		issues = append(issues, Issue{
			Path:    resultError.Field(),
			Message: resultError.Description(),
		})
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return issues, nil
}
