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

package steps

import (
	"context"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// InsightsStep extracts structured requirements from the project
// description. A run without insights can still go on.
type InsightsStep struct {
	PersonaID string // empty means the roster's analyst
}

func (s *InsightsStep) Name() string { return "insights" }

func (s *InsightsStep) Optional() bool { return true }

func (s *InsightsStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleAnalyst)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	st.Phase(workflow.PhaseAnalyzing)
	st.Status(p.ID, workflow.StatusAnalyzing)
	st.Log(p, workflow.LogWorking, "Analyzing project requirements...")

	raw, err := ask(ctx, st, p, prompt.Insights, map[string]any{"Description": st.Project.Description}, "",
		llm.WithJSON(llm.SchemaFor[workflow.Insights]()))
	var ins workflow.Insights
	if err == nil {
		ins, err = llm.DecodeJSON[workflow.Insights](p.Name, raw)
	}
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(persona.Persona{}, workflow.LogError, "Requirements analysis failed: %v", err)
		return failed(err)
	}

	st.Log(p, workflow.LogSuccess, "Extracted %d features, complexity: %s", len(ins.Features), ins.Complexity)
	st.Status(p.ID, workflow.StatusCompleted)
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindInsights, &ins, []byte(raw))), nil
}

// ArchitectureStep drafts the architectural plan. The plan only goes to the
// architect's conversation, where later file steps pick it up.
type ArchitectureStep struct {
	PersonaID string
}

func (s *ArchitectureStep) Name() string { return "architecture" }

func (s *ArchitectureStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleArchitect)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	st.Phase(workflow.PhasePlanning)
	st.Status(p.ID, workflow.StatusThinking)

	plan, err := ask(ctx, st, p, prompt.Architecture, map[string]any{
		"Name":     st.Project.Name,
		"Insights": mustJSON(st.InsightsValue()),
	}, "")
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(p, workflow.LogError, "Architecture planning failed: %v", err)
		return failed(err)
	}
	st.Think(p.ID, workflow.ConversationPlanning, plan)
	st.Log(p, workflow.LogPlanning, "Architectural plan drafted.")
	st.Status(p.ID, workflow.StatusCompleted)
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindArchitecture, plan, []byte(plan))), nil
}

// StrategyStep asks for strategic project insights. Its failure is logged and
// the run goes on.
type StrategyStep struct {
	PersonaID string
}

func (s *StrategyStep) Name() string { return "strategy" }

func (s *StrategyStep) Optional() bool { return true }

func (s *StrategyStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleAnalyst)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	raw, err := ask(ctx, st, p, prompt.Strategy, nil, mustJSON(st.InsightsValue()),
		llm.WithJSON(llm.SchemaFor[workflow.ProjectInsights]()))
	if err == nil {
		var items workflow.ProjectInsights
		if items, err = llm.DecodeJSON[workflow.ProjectInsights](p.Name, raw); err == nil {
			st.Log(p, workflow.LogSuccess, "Identified %d strategic insights.", len(items))
			return pipeline.OK(pipeline.NewSnapshot(pipeline.KindProjectInsights, items, []byte(raw))), nil
		}
	}
	st.Log(p, workflow.LogError, "Could not generate strategic insights.")
	return failed(err)
}
