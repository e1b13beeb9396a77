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

	"github.com/google/uuid"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// DefaultVariants is how many variants are asked for by default.
const DefaultVariants = 3

type variant struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description"`
	Code        string `json:"code" jsonschema:"required"`
}

// variantSet is the reply shape of a variants call.
type variantSet struct {
	Variants []variant `json:"variants" jsonschema:"required"`
}

func (v *variantSet) Validate() error {
	if len(v.Variants) == 0 {
		return fmt.Errorf("variants: empty list")
	}
	for i, x := range v.Variants {
		if strings.TrimSpace(x.Code) == "" {
			return fmt.Errorf("variants: item %d has no code", i)
		}
	}
	return nil
}

// VariantsStep generates several self-contained UI variants of one component
// in a single call, biased by the run's style preset.
type VariantsStep struct {
	PersonaID string
	Count     int
	// Prompt describes the component; empty means the project description.
	Prompt string
}

func (s *VariantsStep) Name() string { return "variants" }

func (s *VariantsStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleDesigner)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	count := s.Count
	if count <= 0 {
		count = DefaultVariants
	}
	text := s.Prompt
	if text == "" {
		text = st.Project.Description
	}

	st.Phase(workflow.PhaseGenerating)
	st.Status(p.ID, workflow.StatusCreating)
	st.Log(p, workflow.LogWorking, "Designing %d variants...", count)

	raw, err := ask(ctx, st, p, prompt.Variants, map[string]any{
		"Count":  count,
		"Prompt": text,
		"Style":  st.Style,
	}, mustJSON(st.Project), llm.WithJSON(llm.SchemaFor[variantSet]()))
	var set variantSet
	if err == nil {
		set, err = llm.DecodeJSON[variantSet](p.Name, raw)
	}
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(p, workflow.LogError, "Variant generation failed: %v", err)
		return failed(err)
	}

	arts := make([]*workflow.Artifact, 0, len(set.Variants))
	for _, v := range set.Variants {
		a := workflow.NewArtifact(uuid.NewString(), v.Name, v.Code, p.ID, p.Name)
		a.Description = v.Description
		arts = append(arts, a)
		st.Collaborate(p.ID, v.Name, "created")
	}
	st.Log(p, workflow.LogSuccess, "Created %d variants.", len(arts))
	st.Status(p.ID, workflow.StatusCompleted)
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindArtifacts, arts, []byte(raw))), nil
}

// RefineStep rewrites one artifact according to user feedback. The artifact
// keeps its id; only its content changes.
type RefineStep struct {
	PersonaID  string
	ArtifactID string
	Feedback   string
}

func (s *RefineStep) Name() string { return "refine:" + s.ArtifactID }

func (s *RefineStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	target, ok := st.Artifact(s.ArtifactID)
	if !ok {
		return pipeline.Failed(fmt.Errorf("artifact %s not found", s.ArtifactID), false)
	}
	p, err := st.Persona(s.PersonaID, persona.RoleFrontend)
	if err != nil {
		return pipeline.Failed(err, false)
	}

	st.Status(p.ID, workflow.StatusWorking)
	st.Log(p, workflow.LogWorking, "Refining %s...", target.Name)

	code, err := ask(ctx, st, p, prompt.Refine, map[string]any{
		"Name":     target.Name,
		"Feedback": s.Feedback,
		"Code":     target.Content,
	}, mustJSON(st.Project))
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(p, workflow.LogError, "Refinement of %s failed: %v", target.Name, err)
		return failed(err)
	}
	updated := target.WithContent(code)
	st.Think(p.ID, workflow.ConversationReflection, "Applied feedback to "+target.Name+": "+s.Feedback)
	st.Log(p, workflow.LogSuccess, "Refined %s.", target.Name)
	st.Status(p.ID, workflow.StatusCompleted)
	st.Collaborate(p.ID, target.Name, "reviewed")
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindArtifactUpdate, updated, []byte(code))), nil
}
