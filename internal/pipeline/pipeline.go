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
	"fmt"
	"time"

	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/log"
)

// Pipeline runs steps strictly in sequence. A failed step ends the run unless
// the Agent decides otherwise; what earlier steps produced is kept.
type Pipeline struct {
	Steps []Step
	Agent Agent
}

// Run executes the plan. Steps may extend it with follow-up steps, which run
// right after the step that returned them. State is mutated only via
// applySnapshot.
func (p *Pipeline) Run(ctx context.Context, st *PipelineState) error {
	if p.Agent == nil {
		p.Agent = &DefaultAgent{}
	}
	queue := append([]Step(nil), p.Steps...)
	for i := 0; i < len(queue); i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before step %s: %w", queue[i].Name(), err)
		}
		next, err := p.runStep(ctx, queue[i], st)
		if err != nil {
			return err
		}
		if len(next) > 0 {
			rest := append(append([]Step(nil), next...), queue[i+1:]...)
			queue = append(queue[:i+1], rest...)
		}
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, st *PipelineState) ([]Step, error) {
	attempt := 0
	for {
		attempt++
		log.Debug("pipeline %s: step %s attempt %d", st.RunID, step.Name(), attempt)
		result, err := step.Run(ctx, st)
		if err == nil && result != nil && result.Status == StepOK {
			if result.Snapshot != nil {
				applySnapshot(st, result.Snapshot)
			}
			st.History = append(st.History, StepRecord{
				StepName: step.Name(),
				Attempt:  attempt,
				Status:   StepOK,
				Time:     time.Now(),
			})
			return result.Next, nil
		}

		// Build result for Agent if step returned nil result
		if result == nil {
			result = &StepResult{Status: StepFailed, Recoverable: true}
		}
		if result.Status == StepOK {
			result = &StepResult{Status: StepFailed, Recoverable: false}
		}

		decision := p.Agent.OnStepFailure(ctx, step, st, result, attempt)
		status := StepFailed
		if decision == DecisionSkip {
			status = StepSkipped
		}
		st.History = append(st.History, StepRecord{
			StepName: step.Name(),
			Attempt:  attempt,
			Status:   status,
			Error:    errStr(err),
			Time:     time.Now(),
		})

		switch decision {
		case DecisionRetry:
			log.Info("pipeline %s: retrying step %s: %v", st.RunID, step.Name(), err)
			continue
		case DecisionSkip:
			log.Warn("pipeline %s: skipping step %s: %v", st.RunID, step.Name(), err)
			return nil, nil
		default:
			if err != nil {
				return nil, fmt.Errorf("step %s: %w", step.Name(), err)
			}
			return nil, fmt.Errorf("step %s failed (abort)", step.Name())
		}
	}
}

// applySnapshot updates state from a step-produced snapshot by kind and
// mirrors the change into the store.
func applySnapshot(st *PipelineState, snap *Snapshot) {
	if st == nil || snap == nil {
		return
	}
	switch snap.Kind {
	case KindInsights:
		st.Insights = snap
		if v, ok := snap.Payload.(*workflow.Insights); ok {
			st.Project.Features = append([]string(nil), v.Features...)
			st.Project.Complexity = v.Complexity
			st.dispatch(workflow.SetInsights{RunID: st.RunID, Insights: v})
		}
	case KindArchitecture:
		st.Architecture = snap
	case KindProjectInsights:
		st.ProjectInsights = snap
		if v, ok := snap.Payload.(workflow.ProjectInsights); ok {
			st.dispatch(workflow.SetProjectInsights{RunID: st.RunID, Items: v})
		}
	case KindBlueprint:
		st.Blueprint = snap
	case KindArtifact:
		if a, ok := snap.Payload.(*workflow.Artifact); ok {
			st.Artifacts = append(st.Artifacts, a)
			st.dispatch(workflow.AppendArtifact{RunID: st.RunID, Artifact: a})
		}
	case KindArtifacts:
		if as, ok := snap.Payload.([]*workflow.Artifact); ok {
			st.Artifacts = append([]*workflow.Artifact(nil), as...)
			st.dispatch(workflow.SetArtifacts{RunID: st.RunID, Artifacts: as})
		}
	case KindArtifactUpdate:
		if a, ok := snap.Payload.(*workflow.Artifact); ok {
			arts := make([]*workflow.Artifact, len(st.Artifacts))
			for i, x := range st.Artifacts {
				arts[i] = x
				if x.ID == a.ID {
					arts[i] = a
				}
			}
			st.Artifacts = arts
			st.dispatch(workflow.UpdateArtifact{RunID: st.RunID, Artifact: a})
		}
	case KindAnalysis:
		st.Analysis = snap
		if v, ok := snap.Payload.(*workflow.Analysis); ok {
			st.dispatch(workflow.SetAnalysis{RunID: st.RunID, Analysis: v})
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
