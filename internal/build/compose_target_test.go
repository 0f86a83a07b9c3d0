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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gantry-tools/gantry"
	yamlv2 "gopkg.in/yaml.v2"
	"zombiezen.com/go/log/testlog"
)

func TestComposeTarget(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	group := simpleGroup("homelab").write(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "services.docker")

	target, err := NewComposeTarget("test build", output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Fatal(err)
	}

	composePath := filepath.Join(output, "homelab", gantry.ComposeFilename)
	b, err := os.ReadFile(composePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "# Generated by gantry.") {
		t.Error("compose file is missing the generated-file header")
	}
	proxyAt := strings.Index(string(b), "\n  proxy:")
	blogAt := strings.Index(string(b), "\n  blog:")
	if proxyAt == -1 || blogAt == -1 || blogAt < proxyAt {
		t.Errorf("services out of order: proxy at %d, blog at %d; want the routing service first", proxyAt, blogAt)
	}
	var doc struct {
		Services map[string]struct {
			ContainerName string                 `yaml:"container_name"`
			Image         string                 `yaml:"image"`
			Restart       string                 `yaml:"restart"`
			Labels        map[string]interface{} `yaml:"labels"`
			Volumes       []string               `yaml:"volumes"`
			Networks      []string               `yaml:"networks"`
		} `yaml:"services"`
		Networks map[string]interface{} `yaml:"networks"`
		Volumes  map[string]interface{} `yaml:"volumes"`
	}
	if err := yamlv2.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Services["proxy"]; !ok {
		t.Error("compose file is missing the generated proxy service")
	}
	blog, ok := doc.Services["blog"]
	if !ok {
		t.Fatal("compose file is missing the blog service")
	}
	if want := "PathPrefix(`/blog`)"; blog.Labels["traefik.http.routers.blog.rule"] != want {
		t.Errorf("blog rule label = %v; want %q", blog.Labels["traefik.http.routers.blog.rule"], want)
	}
	if blog.Restart != "unless-stopped" {
		t.Errorf("blog restart = %q; want unless-stopped", blog.Restart)
	}
	if _, ok := doc.Networks["homelab-net"]; !ok {
		t.Error("compose file is missing the group network")
	}
	if _, ok := doc.Volumes["blog-content"]; !ok {
		t.Error("compose file is missing the namespaced blog-content volume")
	}

	routerConfig, err := os.ReadFile(filepath.Join(output, "homelab", "traefik.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "# homelab on homelab-net"; !strings.Contains(string(routerConfig), want) {
		t.Errorf("router config = %q; want it to contain %q", routerConfig, want)
	}

	for _, rel := range []string{
		filepath.Join("homelab", "blog", "Dockerfile"),
		filepath.Join("homelab", "blog", "config", "extra.cfg"),
	} {
		if _, err := os.Stat(filepath.Join(output, rel)); err != nil {
			t.Errorf("missing copied resource %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(output, "homelab", "blog", "service.yml")); err == nil {
		t.Error("service.yml was copied into the build output")
	}

	manifest, err := gantry.LoadManifest(ctx, filepath.Join(output, gantry.ManifestFilename))
	if err != nil {
		t.Fatal(err)
	}
	entries := manifest.DockerComposeEntries()
	if len(entries) != 1 {
		t.Fatalf("manifest has %d compose entries; want 1", len(entries))
	}
	if want := "homelab/" + gantry.ComposeFilename; entries[0].ComposeFile != want {
		t.Errorf("manifest compose-file = %q; want %q", entries[0].ComposeFile, want)
	}
	if !entries[0].Deployable {
		t.Error("compose entry is not deployable")
	}
}

func TestComposeTargetExistingFolder(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	dir := t.TempDir()
	group := simpleGroup("homelab").write(t, dir)
	output := filepath.Join(t.TempDir(), "services.docker")

	target, err := NewComposeTarget("test build", output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Fatal(err)
	}

	// A second run against the same folder must fail before touching
	// anything unless overwrite is given.
	if err := target.Build(ctx, group); err == nil {
		t.Error("second build without overwrite did not return an error")
	}

	target, err = NewComposeTarget("test build", output, []string{"overwrite"})
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Errorf("build with overwrite returned %v", err)
	}
}

func TestComposeTargetUnknownOption(t *testing.T) {
	if _, err := NewComposeTarget("test build", t.TempDir(), []string{"skip-build"}); err == nil {
		t.Error("NewComposeTarget accepted an unsupported option")
	}
}

func TestComposeTargetSharedManifest(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	dir := t.TempDir()
	groupA := simpleGroup("group-a").write(t, dir)
	groupB := simpleGroup("group-b").write(t, dir)
	output := filepath.Join(t.TempDir(), "services.docker")

	target, err := NewComposeTarget("test build", output, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, group := range []*gantry.ServiceGroupDefinition{groupA, groupB} {
		if err := target.Build(ctx, group); err != nil {
			t.Fatal(err)
		}
	}

	manifest, err := gantry.LoadManifest(ctx, filepath.Join(output, gantry.ManifestFilename))
	if err != nil {
		t.Fatal(err)
	}
	entries := manifest.DockerComposeEntries()
	if len(entries) != 2 {
		t.Fatalf("manifest has %d compose entries; want 2", len(entries))
	}
	if got, want := entries[0].ComposeFile, "group-a/"+gantry.ComposeFilename; got != want {
		t.Errorf("first entry = %q; want %q", got, want)
	}
	if got, want := entries[1].ComposeFile, "group-b/"+gantry.ComposeFilename; got != want {
		t.Errorf("second entry = %q; want %q", got, want)
	}
}
