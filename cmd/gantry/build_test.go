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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gantry-tools/gantry"
	"github.com/gantry-tools/gantry/internal/build"
	"zombiezen.com/go/log/testlog"
)

func TestMain(m *testing.M) {
	testlog.Main(nil)
	os.Exit(m.Run())
}

func TestResolveTag(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		tag         string
		buildNumber int
		want        string
		wantUsage   bool
	}{
		{name: "Default", want: "20260826.1"},
		{name: "BuildNumber", buildNumber: 7, want: "20260826.7"},
		{name: "ExplicitTag", tag: "v1.2", want: "v1.2"},
		{name: "Both", tag: "v1.2", buildNumber: 7, wantUsage: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := resolveTag(test.tag, test.buildNumber, now)
			if test.wantUsage {
				if err == nil {
					t.Fatal("resolveTag did not return an error")
				}
				usageError := new(build.UsageError)
				if !errors.As(err, &usageError) {
					t.Errorf("resolveTag error = %v; want *build.UsageError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("resolveTag(%q, %d) = %q; want %q", test.tag, test.buildNumber, got, test.want)
			}
		})
	}
}

func writeGroupFixture(t *testing.T, dir, name string) string {
	t.Helper()
	folder := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Join(folder, "blog"), 0777); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"service-group.yml": `
network: homelab-net
router:
    provider: traefik
    config: traefik.yml
services:
    - blog
`,
		"traefik.yml":      "providers:\n    docker: {}\n",
		"blog/service.yml": "image: ghost:5\n",
	}
	for rel, contents := range files {
		if err := os.WriteFile(filepath.Join(folder, filepath.FromSlash(rel)), []byte(contents), 0666); err != nil {
			t.Fatal(err)
		}
	}
	return folder
}

func TestBuildComposeCmd(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	folder := writeGroupFixture(t, t.TempDir(), "homelab")
	output := filepath.Join(t.TempDir(), "services.docker")

	b := &buildComposeCmd{
		services: []string{folder},
		output:   output,
	}
	if err := b.run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(output, "homelab", gantry.ComposeFilename)); err != nil {
		t.Errorf("missing generated Compose file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, gantry.ManifestFilename)); err != nil {
		t.Errorf("missing manifest: %v", err)
	}
}

func TestBuildComposeCmdKeepGoing(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	dir := t.TempDir()
	good := writeGroupFixture(t, dir, "good")
	bad := writeGroupFixture(t, dir, "bad")
	// Break the second group's router config template reference.
	if err := os.Remove(filepath.Join(bad, "traefik.yml")); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(t.TempDir(), "services.docker")

	b := &buildComposeCmd{
		services:  []string{bad, good},
		output:    output,
		keepGoing: true,
	}
	if err := b.run(ctx); err == nil {
		t.Error("run did not report the failing group")
	}
	if _, err := os.Stat(filepath.Join(output, "good", gantry.ComposeFilename)); err != nil {
		t.Errorf("good group was not built after the bad group failed: %v", err)
	}
}

func TestLoadServiceGroupsBadFolder(t *testing.T) {
	if _, err := loadServiceGroups([]string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("loadServiceGroups did not return an error for a missing folder")
	}
}
