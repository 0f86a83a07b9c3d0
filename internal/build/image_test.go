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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gantry-tools/gantry"
	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/log/testlog"
)

// fakeBuilder serves canned JSON streams and records build requests.
type fakeBuilder struct {
	streams map[string]string // tag -> raw JSON stream
	built   []string
}

func (b *fakeBuilder) BuildImage(ctx context.Context, contextDir, tag string) (io.ReadCloser, error) {
	b.built = append(b.built, tag)
	stream, ok := b.streams[tag]
	if !ok {
		return nil, fmt.Errorf("no stream for %s", tag)
	}
	return io.NopCloser(strings.NewReader(stream)), nil
}

// collectingReporter records everything reported to it.
type collectingReporter struct {
	output []string
	errors []string
}

func (r *collectingReporter) Start(ctx context.Context, subject string) {}

func (r *collectingReporter) Done(ctx context.Context, subject string) {}

func (r *collectingReporter) Output(ctx context.Context, line string) {
	r.output = append(r.output, line)
}

func (r *collectingReporter) Error(ctx context.Context, message string) {
	r.errors = append(r.errors, message)
}

func TestImageName(t *testing.T) {
	tests := []struct {
		namespace, name, tag string
		want                 string
	}{
		{"", "blog", "20260826.1", "blog:20260826.1"},
		{"gantry", "blog", "v2", "gantry/blog:v2"},
		{"registry.example.com/gantry", "blog", "v2", "registry.example.com/gantry/blog:v2"},
	}
	for _, test := range tests {
		if got := imageName(test.namespace, test.name, test.tag); got != test.want {
			t.Errorf("imageName(%q, %q, %q) = %q; want %q", test.namespace, test.name, test.tag, got, test.want)
		}
	}
}

func TestImageTargetLongOutputLine(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	group := simpleGroup("homelab").write(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "build")

	// A single output line well past bufio.Scanner's 64 KiB default.
	long := strings.Repeat("x", 128*1024)
	builder := &fakeBuilder{streams: map[string]string{
		"gantry/blog:v1": `{"stream":"` + long + `\n"}` + "\n" + `{"stream":"Successfully built abc123\n"}` + "\n",
	}}
	reporter := new(collectingReporter)
	target, err := NewImageTarget("test build", "gantry", "v1", output, nil, builder, reporter)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Fatal(err)
	}
	wantOutput := []string{long, "Successfully built abc123"}
	if diff := cmp.Diff(wantOutput, reporter.output); diff != "" {
		t.Errorf("reported output (-want +got):\n%s", diff)
	}
}

func TestImageTarget(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	group := simpleGroup("homelab").write(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "build")

	builder := &fakeBuilder{streams: map[string]string{
		"gantry/blog:v1": `{"stream":"Step 1/1 : FROM ghost:5\n"}` + "\n" + `{"stream":"Successfully built abc123\n"}` + "\n",
	}}
	reporter := new(collectingReporter)
	target, err := NewImageTarget("test build", "gantry", "v1", output, nil, builder, reporter)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Fatal(err)
	}

	if want := []string{"gantry/blog:v1"}; !cmp.Equal(want, builder.built) {
		t.Errorf("built images %v; want %v", builder.built, want)
	}
	wantOutput := []string{"Step 1/1 : FROM ghost:5", "Successfully built abc123"}
	if diff := cmp.Diff(wantOutput, reporter.output); diff != "" {
		t.Errorf("reported output (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(output, "homelab", "blog", "Dockerfile")); err != nil {
		t.Errorf("missing copied Dockerfile: %v", err)
	}

	manifest, err := gantry.LoadManifest(ctx, filepath.Join(output, gantry.ManifestFilename))
	if err != nil {
		t.Fatal(err)
	}
	entries := manifest.ImageEntries()
	if len(entries) != 1 {
		t.Fatalf("manifest has %d image entries; want 1", len(entries))
	}
	if want := "gantry/blog:v1"; entries[0].Image != want {
		t.Errorf("manifest image = %q; want %q", entries[0].Image, want)
	}
	if want := "homelab/blog/Dockerfile"; entries[0].Source != want {
		t.Errorf("manifest source = %q; want %q", entries[0].Source, want)
	}
}

func TestImageTargetBuildError(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	group := simpleGroup("homelab").write(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "build")

	builder := &fakeBuilder{streams: map[string]string{
		"blog:v1": `{"stream":"Step 1/1 : FROM ghost:5\n"}` + "\n" + `{"error":"no space left on device"}` + "\n",
	}}
	reporter := new(collectingReporter)
	target, err := NewImageTarget("test build", "", "v1", output, nil, builder, reporter)
	if err != nil {
		t.Fatal(err)
	}
	err = target.Build(ctx, group)
	if err == nil {
		t.Fatal("Build did not return an error for a failed docker build")
	}
	if !strings.Contains(err.Error(), "no space left on device") {
		t.Errorf("Build error = %v; want it to carry the docker diagnostic", err)
	}
	if want := []string{"no space left on device"}; !cmp.Equal(want, reporter.errors) {
		t.Errorf("reported errors %v; want %v", reporter.errors, want)
	}
}

func TestImageTargetSkipBuild(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	group := simpleGroup("homelab").write(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "build")

	builder := &fakeBuilder{}
	target, err := NewImageTarget("test build", "", "v1", output, []string{"skip-build"}, builder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Build(ctx, group); err != nil {
		t.Fatal(err)
	}
	if len(builder.built) != 0 {
		t.Errorf("built images %v; want none with skip-build", builder.built)
	}

	// The manifest is still written so a later build can pick it up.
	manifest, err := gantry.LoadManifest(ctx, filepath.Join(output, gantry.ManifestFilename))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := manifest.NumEntries(), 1; got != want {
		t.Errorf("NumEntries() = %d; want %d", got, want)
	}
}

func TestImageTargetUnknownOption(t *testing.T) {
	if _, err := NewImageTarget("b", "", "v1", t.TempDir(), []string{"tag=v2"}, nil, nil); err == nil {
		t.Error("NewImageTarget accepted an unsupported option")
	}
}
