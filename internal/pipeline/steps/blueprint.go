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
	"fmt"
	"strings"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// DefaultMaxFiles caps a blueprint when the step does not say otherwise.
const DefaultMaxFiles = 12

// Blueprint is the planned file list, in writing order.
type Blueprint []pipeline.BlueprintItem

func (b Blueprint) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("blueprint: no files")
	}
	seen := make(map[string]bool, len(b))
	for i, it := range b {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return fmt.Errorf("blueprint: item %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("blueprint: %s is listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// BlueprintStep asks the architect for the file list, then schedules one
// FileStep per file with the persona picked by Selector.
type BlueprintStep struct {
	PersonaID string
	MaxFiles  int
	Selector  *persona.Selector
}

func (s *BlueprintStep) Name() string { return "blueprint" }

func (s *BlueprintStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleArchitect)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	limit := s.MaxFiles
	if limit <= 0 {
		limit = DefaultMaxFiles
	}
	sel := s.Selector
	if sel == nil {
		sel = persona.DefaultSelector()
	}

	st.Phase(workflow.PhasePlanning)
	st.Status(p.ID, workflow.StatusThinking)
	st.Log(p, workflow.LogPlanning, "Planning the file structure...")

	raw, err := ask(ctx, st, p, prompt.Blueprint, map[string]any{
		"Name":        st.Project.Name,
		"Description": st.Project.Description,
		"MaxFiles":    limit,
	}, mustJSON(st.InsightsValue()), llm.WithJSON(llm.SchemaFor[Blueprint]()))
	var bp Blueprint
	if err == nil {
		bp, err = llm.DecodeJSON[Blueprint](p.Name, raw)
	}
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(p, workflow.LogError, "Blueprint failed: %v", err)
		return failed(err)
	}
	if len(bp) > limit {
		bp = bp[:limit]
	}

	next := make([]pipeline.Step, 0, len(bp))
	for _, it := range bp {
		owner, err := sel.Assign(st.Roster, it.Name)
		if err != nil {
			return pipeline.Failed(err, false)
		}
		next = append(next, &FileStep{
			File:          strings.TrimSpace(it.Name),
			Instructions:  it.Description,
			PersonaID:     owner.ID,
			Collaborators: []string{p.ID},
		})
	}

	st.Think(p.ID, workflow.ConversationPlanning, fmt.Sprintf("Blueprint: %d files.", len(bp)))
	st.Log(p, workflow.LogSuccess, "Blueprint ready: %d files", len(bp))
	st.Status(p.ID, workflow.StatusCompleted)
	items := []pipeline.BlueprintItem(bp)
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindBlueprint, items, []byte(raw)), next...), nil
}
