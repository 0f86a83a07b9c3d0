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
	"fmt"
	"strings"

	"github.com/gantry-tools/gantry"
)

// A Target is a build strategy producing one kind of artifact from a
// service group.
type Target interface {
	// Build runs the target's pipeline against a service group.
	Build(ctx context.Context, group *gantry.ServiceGroupDefinition) error

	// Description is a short, one-line summary of the target.
	Description() string

	// Options lists the option tokens the target accepts.
	Options() []OptionHelp
}

// OptionHelp documents one target option.
type OptionHelp struct {
	Name string
	Help string
}

// A UsageError reports invalid operator input, like a malformed target
// option. It is distinct from build failures so the CLI can show usage
// instead of a stack of wrapped errors.
type UsageError struct {
	msg string
}

// NewUsageError creates a usage error with the given message.
func NewUsageError(msg string) *UsageError {
	return &UsageError{msg: msg}
}

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func (e *UsageError) Error() string {
	return e.msg
}

// parseOptions splits target option tokens into a key/value map. A
// token is either a bare flag ("overwrite") or a single "key=value"
// pair. Keys must appear in the accepted list.
func parseOptions(tokens []string, accepted []OptionHelp) (map[string]string, error) {
	options := make(map[string]string)
	for _, token := range tokens {
		parts := strings.Split(token, "=")
		var key, value string
		switch len(parts) {
		case 1:
			key = parts[0]
		case 2:
			key, value = parts[0], parts[1]
		default:
			return nil, usageErrorf("target option %q must be a flag or a single key=value pair", token)
		}
		if key == "" {
			return nil, usageErrorf("target option cannot be an empty string")
		}
		known := false
		for _, opt := range accepted {
			if opt.Name == key {
				known = true
				break
			}
		}
		if !known {
			return nil, usageErrorf("target does not support a %q option", key)
		}
		options[key] = value
	}
	return options, nil
}
