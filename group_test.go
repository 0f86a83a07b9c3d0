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

	"github.com/google/go-cmp/cmp"
)

// writeGroup creates a service group folder under dir and returns its
// path. Each entry in services becomes a member subfolder with the
// given definition.
func writeGroup(t *testing.T, dir, name, definition string, services map[string]string) string {
	t.Helper()
	folder := filepath.Join(dir, name)
	if err := os.MkdirAll(folder, 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "service-group.yml"), []byte(definition), 0666); err != nil {
		t.Fatal(err)
	}
	for svc, def := range services {
		writeService(t, folder, svc, def)
	}
	return folder
}

func TestLoadServiceGroup(t *testing.T) {
	folder := writeGroup(t, t.TempDir(), "homelab", `
network: homelab-net
router:
    provider: traefik
    config: traefik.yml
services:
    - blog
    - wiki
`, map[string]string{
		"blog": "image: ghost:5\n",
		"wiki": "image: requarks/wiki:2\n",
	})
	if err := os.WriteFile(filepath.Join(folder, "traefik.yml"), []byte("providers: {}\n"), 0666); err != nil {
		t.Fatal(err)
	}

	group, err := LoadServiceGroup(folder)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := group.Name(), "homelab"; got != want {
		t.Errorf("Name() = %q; want %q", got, want)
	}
	if got, want := group.Network(), "homelab-net"; got != want {
		t.Errorf("Network() = %q; want %q", got, want)
	}
	if got, want := group.ServiceNames(), []string{"blog", "wiki"}; !cmp.Equal(want, got) {
		t.Errorf("ServiceNames() = %v; want %v", got, want)
	}
	if got, want := group.Len(), 2; got != want {
		t.Errorf("Len() = %d; want %d", got, want)
	}
	if !group.Has("blog") {
		t.Error(`Has("blog") = false; want true`)
	}
	if group.Has("proxy") {
		t.Error(`Has("proxy") = true; want false`)
	}

	router, err := group.Router()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := router.Provider, "traefik"; got != want {
		t.Errorf("Router().Provider = %q; want %q", got, want)
	}
	if got, want := router.Config.Name(), "traefik.yml"; got != want {
		t.Errorf("Router().Config.Name() = %q; want %q", got, want)
	}

	services, err := group.Services()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, svc := range services {
		names = append(names, svc.Name())
	}
	if want := []string{"blog", "wiki"}; !cmp.Equal(want, names) {
		t.Errorf("Services() names = %v; want %v", names, want)
	}

	// Services parses members anew on every call, so iteration can
	// restart after a failure elsewhere.
	again, err := group.Services()
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(services) {
		t.Errorf("second Services() call returned %d services; want %d", len(again), len(services))
	}
}

func TestLoadServiceGroupValidation(t *testing.T) {
	folder := writeGroup(t, t.TempDir(), "bad", `
network: net
services:
    - blog
`, nil)
	if _, err := LoadServiceGroup(folder); err == nil {
		t.Error("LoadServiceGroup did not return an error for a definition without a router")
	}
}

func TestLoadServiceGroupMissingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty")
	if err := os.MkdirAll(dir, 0777); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadServiceGroup(dir); err == nil {
		t.Error("LoadServiceGroup did not return an error for a folder without a definition")
	}
}

func TestLoadServiceGroupMissingRouterConfig(t *testing.T) {
	folder := writeGroup(t, t.TempDir(), "grp", `
network: net
router:
    provider: traefik
    config: traefik.yml
services:
    - blog
`, map[string]string{"blog": "image: ghost:5\n"})

	group, err := LoadServiceGroup(folder)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := group.Router(); err == nil {
		t.Error("Router() did not return an error for a missing config template")
	}
}

func TestServicesMemberError(t *testing.T) {
	folder := writeGroup(t, t.TempDir(), "grp", `
network: net
router:
    provider: traefik
    config: traefik.yml
services:
    - blog
    - ghostly
`, map[string]string{"blog": "image: ghost:5\n"})
	if err := os.WriteFile(filepath.Join(folder, "traefik.yml"), []byte("{}\n"), 0666); err != nil {
		t.Fatal(err)
	}

	group, err := LoadServiceGroup(folder)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := group.Services(); err == nil {
		t.Error("Services() did not return an error for a member without a folder")
	}
}
