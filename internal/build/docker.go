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
	"io"

	docker "github.com/fsouza/go-dockerclient"
)

// A BuildMessage is one decoded line of the Docker build API's JSON
// stream. Exactly one of the fields is set per line.
type BuildMessage struct {
	Stream string `json:"stream"`
	Error  string `json:"error"`
}

// An ImageBuilder runs container image builds. The returned stream
// yields JSON-encoded BuildMessage lines and must be closed by the
// caller.
type ImageBuilder interface {
	BuildImage(ctx context.Context, contextDir, tag string) (io.ReadCloser, error)
}

// dockerImageBuilder builds images through the Docker daemon.
type dockerImageBuilder struct {
	client *docker.Client
}

// NewDockerImageBuilder wraps a Docker client as an ImageBuilder.
func NewDockerImageBuilder(client *docker.Client) ImageBuilder {
	return &dockerImageBuilder{client: client}
}

func (b *dockerImageBuilder) BuildImage(ctx context.Context, contextDir, tag string) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	go func() {
		err := b.client.BuildImage(docker.BuildImageOptions{
			Name:           tag,
			ContextDir:     contextDir,
			OutputStream:   pw,
			RawJSONStream:  true,
			RmTmpContainer: true,
			Context:        ctx,
		})
		pw.CloseWithError(err)
	}()
	return pr, nil
}
