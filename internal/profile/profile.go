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

// Package profile defines the built-in studios. A profile is one roster, one
// plan shape and the progress scripts shown while it runs.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/pipeline/steps"
	"github.com/cloudwego/nexusgen/internal/sequencer"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/persona"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Shape is how a profile decides what to generate.
type Shape string

const (
	// ShapeFixed runs a hardcoded file plan.
	ShapeFixed Shape = "fixed"
	// ShapeBlueprint asks the architect for the file list first.
	ShapeBlueprint Shape = "blueprint"
	// ShapeVariants generates UI variants of one component.
	ShapeVariants Shape = "variants"
)

// PlannedFile is one entry of a fixed plan.
type PlannedFile struct {
	File          string
	PersonaID     string
	Instructions  string
	Collaborators []string
}

// Profile is immutable once built.
type Profile struct {
	Name   string
	Title  string
	Roster *persona.Roster
	Shape  Shape

	Files    []PlannedFile // ShapeFixed
	Selector *persona.Selector
	MaxFiles int // ShapeBlueprint
	Variants int // ShapeVariants

	Generation sequencer.Script
	Refinement sequencer.Script
}

// Plan is the step list of a generation run.
func (p *Profile) Plan() []pipeline.Step {
	switch p.Shape {
	case ShapeFixed:
		plan := []pipeline.Step{
			&steps.InsightsStep{},
			&steps.ArchitectureStep{},
			&steps.StrategyStep{},
		}
		for _, f := range p.Files {
			plan = append(plan, &steps.FileStep{
				File:          f.File,
				Instructions:  f.Instructions,
				PersonaID:     f.PersonaID,
				Collaborators: f.Collaborators,
			})
		}
		return append(plan, &steps.AnalysisStep{})
	case ShapeBlueprint:
		return []pipeline.Step{
			&steps.InsightsStep{},
			&steps.BlueprintStep{MaxFiles: p.MaxFiles, Selector: p.Selector},
			&steps.AnalysisStep{},
		}
	case ShapeVariants:
		return []pipeline.Step{&steps.VariantsStep{Count: p.Variants}}
	}
	return nil
}

// RefinePlan is the step list of a refinement run on target. The persona
// that produced target does the rework when it is part of the roster.
func (p *Profile) RefinePlan(target *workflow.Artifact, feedback string) []pipeline.Step {
	owner := ""
	if target != nil && p.Roster.Contains(target.AgentID) {
		owner = target.AgentID
	}
	id := ""
	if target != nil {
		id = target.ID
	}
	return []pipeline.Step{&steps.RefineStep{PersonaID: owner, ArtifactID: id, Feedback: feedback}}
}

// Script returns the progress script for a run kind.
func (p *Profile) Script(k workflow.Kind) sequencer.Script {
	if k == workflow.KindRefinement {
		return p.Refinement
	}
	return p.Generation
}

type builder func() (*Profile, error)

var builtin = map[string]builder{
	"nexus":  nexus,
	"saturn": saturn,
	"studio": studio,
}

// Names lists the built-in profiles, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named profile.
func Lookup(name string) (*Profile, error) {
	b, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	p, err := b()
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return p, nil
}

// validate checks that every persona the profile names is in its roster.
func (p *Profile) validate() error {
	for _, f := range p.Files {
		if !p.Roster.Contains(f.PersonaID) {
			return fmt.Errorf("file %s: %w: %s", f.File, persona.ErrUnknownPersona, f.PersonaID)
		}
		for _, c := range f.Collaborators {
			if !p.Roster.Contains(c) {
				return fmt.Errorf("file %s collaborator: %w: %s", f.File, persona.ErrUnknownPersona, c)
			}
		}
	}
	for _, s := range append(append(sequencer.Script(nil), p.Generation...), p.Refinement...) {
		if !p.Roster.Contains(s.AgentID) {
			return fmt.Errorf("script: %w: %s", persona.ErrUnknownPersona, s.AgentID)
		}
	}
	return nil
}
