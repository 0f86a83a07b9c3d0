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

	"zombiezen.com/go/log"
)

// A Reporter receives progress from long-running external operations,
// like streamed Docker build output.
type Reporter interface {
	Start(ctx context.Context, subject string)
	Output(ctx context.Context, line string)
	Error(ctx context.Context, message string)
	Done(ctx context.Context, subject string)
}

// LogReporter forwards progress to the process logger.
type LogReporter struct{}

func (LogReporter) Start(ctx context.Context, subject string) {
	log.Infof(ctx, "Building %s", subject)
}

func (LogReporter) Output(ctx context.Context, line string) {
	log.Infof(ctx, "%s", line)
}

func (LogReporter) Error(ctx context.Context, message string) {
	log.Errorf(ctx, "%s", message)
}

func (LogReporter) Done(ctx context.Context, subject string) {
	log.Infof(ctx, "Built %s", subject)
}
