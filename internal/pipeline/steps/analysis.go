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
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// AnalysisStep reviews everything generated so far. The reply is free-form
// JSON; only a few well-known fields are lifted out, the rest is kept raw.
type AnalysisStep struct {
	PersonaID string
}

func (s *AnalysisStep) Name() string { return "analysis" }

func (s *AnalysisStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	p, err := st.Persona(s.PersonaID, persona.RoleAnalyst)
	if err != nil {
		return pipeline.Failed(err, false)
	}
	st.Phase(workflow.PhaseAnalyzing)
	st.Status(p.ID, workflow.StatusValidating)
	st.Log(persona.Persona{}, workflow.LogSystem, "Performing final quality analysis...")

	names := make([]string, 0, len(st.Artifacts))
	for _, a := range st.Artifacts {
		names = append(names, a.Name)
	}
	raw, err := ask(ctx, st, p, prompt.Analysis, map[string]any{
		"Files": names,
		"Type":  st.Project.Type,
	}, mustJSON(st.Artifacts), llm.WithJSON(nil))
	var an *workflow.Analysis
	if err == nil {
		an, err = ParseAnalysis(p.Name, raw)
	}
	if err != nil {
		st.Status(p.ID, workflow.StatusError)
		st.Log(p, workflow.LogError, "Codebase analysis failed: %v", err)
		return failed(err)
	}

	score := "N/A"
	if an.QualityScore > 0 {
		score = strconv.FormatFloat(an.QualityScore, 'f', -1, 64)
	}
	st.Log(p, workflow.LogSuccess, "Codebase Analysis Complete - Quality Score: %s/10", score)
	st.Status(p.ID, workflow.StatusCompleted)
	return pipeline.OK(pipeline.NewSnapshot(pipeline.KindAnalysis, an, []byte(raw))), nil
}

// ParseAnalysis lifts the known fields out of an analysis reply. Scores may
// come as numbers or strings; text fields may come as objects, which are
// kept as their JSON text.
func ParseAnalysis(personaName, raw string) (*workflow.Analysis, error) {
	if !gjson.Valid(raw) {
		return nil, &llm.MalformedResponseError{Persona: personaName, Raw: raw, Err: fmt.Errorf("analysis is not valid JSON")}
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, &llm.MalformedResponseError{Persona: personaName, Raw: raw, Err: fmt.Errorf("analysis is not a JSON object")}
	}
	text := func(path string) string {
		v := doc.Get(path)
		if v.Type == gjson.String {
			return v.String()
		}
		return v.Raw
	}
	return &workflow.Analysis{
		QualityScore:         doc.Get("qualityScore").Float(),
		ArchitectureStrength: text("architectureStrength"),
		SecurityScore:        text("securityScore"),
		Maintainability:      text("maintainability"),
		Raw:                  raw,
	}, nil
}
