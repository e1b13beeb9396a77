// Copyright 2025 ByteDance Inc.
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

package pipeline

import (
	"context"
)

// Step is one unit of the plan, usually one or a few model calls.
type Step interface {
	Name() string
	Run(ctx context.Context, st *PipelineState) (*StepResult, error)
}

// StepResult is what a step hands back to the runner.
type StepResult struct {
	Status   StepStatus
	Snapshot *Snapshot
	// Next steps are run right after this one, before the rest of the plan.
	Next []Step
	// Recoverable marks a failure that may succeed on another attempt.
	Recoverable bool
}

// Optional is implemented by steps whose failure does not end the run.
type Optional interface {
	Optional() bool
}

func isOptional(s Step) bool {
	o, ok := s.(Optional)
	return ok && o.Optional()
}

// OK wraps a snapshot into a successful result.
func OK(snap *Snapshot, next ...Step) *StepResult {
	return &StepResult{Status: StepOK, Snapshot: snap, Next: next}
}

// Failed builds the failure result for err.
func Failed(err error, recoverable bool) (*StepResult, error) {
	return &StepResult{Status: StepFailed, Recoverable: recoverable}, err
}
