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

	"github.com/google/uuid"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// FileStep has one persona write one file: it plans, writes, then reflects
// on the result. All three calls see the same project context, which
// includes the recent thoughts of the collaborators.
type FileStep struct {
	File          string
	Instructions  string
	PersonaID     string       // wins over Role when set
	Role          persona.Role // used when PersonaID is empty
	Collaborators []string
}

func (s *FileStep) Name() string { return "file:" + s.File }

func (s *FileStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, s.Role)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	st.Phase(workflow.PhaseGenerating)
	st.Status(p.ID, workflow.StatusWorking)
	st.Think(p.ID, workflow.ConversationThought, "Starting work on "+s.File+". Let me think about this...")
	st.Log(p, workflow.LogWorking, "Analyzing requirements for %s...", s.File)

	art, err := s.generate(ctx, st, p)
	if err != nil {
		st.Think(p.ID, workflow.ConversationError, "Encountered an issue: "+err.Error())
		st.Log(p, workflow.LogError, "Failed to generate %s: %v", s.File, err)
		st.Status(p.ID, workflow.StatusError)
		return failed(err)
	}

	st.Log(p, workflow.LogSuccess, "Successfully created %s!", s.File)
	st.Status(p.ID, workflow.StatusCompleted)
	st.Collaborate(p.ID, s.File, "created")
	for _, c := range s.Collaborators {
		st.Collaborate(c, s.File, "consulted")
	}
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindArtifact, art, []byte(art.Content))), nil
}

func (s *FileStep) generate(ctx context.Context, st *pipeline.PipelineState, p persona.Persona) (*workflow.Artifact, error) {
	pctx, err := st.ProjectContext(st.CollaboratorContext(s.Collaborators, collaboratorDepth))
	if err != nil {
		return nil, err
	}
	data := map[string]any{"File": s.File, "Instructions": s.Instructions}

	plan, err := ask(ctx, st, p, prompt.FilePlan, data, pctx)
	if err != nil {
		return nil, err
	}
	st.Think(p.ID, workflow.ConversationPlanning, plan)
	st.Log(p, workflow.LogThinking, "%s is planning %s...", p.Name, s.File)

	content, err := ask(ctx, st, p, prompt.FileGenerate, data, pctx)
	if err != nil {
		return nil, err
	}

	reflection, err := ask(ctx, st, p, prompt.FileReflect, data, pctx)
	if err != nil {
		return nil, err
	}
	st.Think(p.ID, workflow.ConversationReflection, reflection)

	art := workflow.NewArtifact(uuid.NewString(), s.File, content, p.ID, p.Name)
	art.Description = s.Instructions
	art.Planning = plan
	art.Reflection = reflection
	art.Collaborators = append([]string(nil), s.Collaborators...)
	return art, nil
}
