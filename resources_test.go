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
	"os"
	"path/filepath"
	"testing"
)

func TestPathMappingString(t *testing.T) {
	tests := []struct {
		name    string
		mapping PathMapping
		want    string
	}{
		{
			name:    "ReadOnly",
			mapping: PathMapping{Internal: "/etc/app.yml", External: "./conf/app.yml", ReadOnly: true},
			want:    "./conf/app.yml:/etc/app.yml:ro",
		},
		{
			name:    "Writable",
			mapping: PathMapping{Internal: "/data", External: "./data"},
			want:    "./data:/data",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.mapping.String(); got != test.want {
				t.Errorf("String() = %q; want %q", got, test.want)
			}
		})
	}
}

func TestPortMappingString(t *testing.T) {
	tests := []struct {
		name    string
		mapping PortMapping
		want    string
	}{
		{
			name:    "TCP",
			mapping: PortMapping{Internal: 80, External: 8080, Protocol: TCP},
			want:    "8080:80",
		},
		{
			name:    "UDP",
			mapping: PortMapping{Internal: 53, External: 53, Protocol: UDP},
			want:    "53:53/udp",
		},
		{
			name:    "DefaultProtocol",
			mapping: PortMapping{Internal: 443, External: 443},
			want:    "443:443",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.mapping.String(); got != test.want {
				t.Errorf("String() = %q; want %q", got, test.want)
			}
		})
	}
}

func TestEnvironmentVariableFormat(t *testing.T) {
	v := EnvironmentVariable{Key: "PORT", Value: 8080}
	if got, want := v.Format(), "PORT=8080"; got != want {
		t.Errorf("Format() = %q; want %q", got, want)
	}
}

func TestTemplateReference(t *testing.T) {
	dir := t.TempDir()
	const contents = "config for {{ .Service.Name }} on {{ .Service.Network }}\n"
	if err := os.WriteFile(filepath.Join(dir, "traefik.yml"), []byte(contents), 0666); err != nil {
		t.Fatal(err)
	}

	tmpl, err := NewTemplateReference(dir, "traefik.yml")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tmpl.Render(ConfigContext{Service: GroupInfo{Name: "homelab", Network: "backbone"}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "config for homelab on backbone\n"; got != want {
		t.Errorf("Render(...) = %q; want %q", got, want)
	}
}

func TestTemplateReferenceMissingFile(t *testing.T) {
	if _, err := NewTemplateReference(t.TempDir(), "nope.yml"); err == nil {
		t.Error("NewTemplateReference did not return an error for a missing file")
	}
}
