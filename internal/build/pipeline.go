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

// Package build turns service groups into deployable artifacts. A
// Target owns an ordered Pipeline of Stages and runs them against one
// service group at a time.
package build

import (
	"context"

	"github.com/gantry-tools/gantry"
)

// A Stage is one step of a build pipeline.
type Stage interface {
	// Run processes the service group. Returning an error aborts the
	// remaining stages of the pipeline; effects of earlier stages are
	// not rolled back.
	Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error
}

// A Pipeline executes stages strictly in the order they were added.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from an initial set of stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// AddStage appends a stage to the end of the pipeline.
func (p *Pipeline) AddStage(stage Stage) {
	p.stages = append(p.stages, stage)
}

// NumStages returns how many stages the pipeline holds.
func (p *Pipeline) NumStages() int {
	return len(p.stages)
}

// Run executes the pipeline against a service group, stopping at the
// first stage that fails.
func (p *Pipeline) Run(ctx context.Context, group *gantry.ServiceGroupDefinition) error {
	for _, stage := range p.stages {
		if err := stage.Run(ctx, group); err != nil {
			return err
		}
	}
	return nil
}
