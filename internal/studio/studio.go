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

// Package studio runs generation and refinement for one profile. Each run
// drives the progress sequencer and the real pipeline side by side over a
// single store and joins them when both are done.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/cloudwego/nexusgen/internal/export"
	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/profile"
	"github.com/cloudwego/nexusgen/internal/sequencer"
	"github.com/cloudwego/nexusgen/internal/style"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/log"
)

var (
	ErrRunActive       = errors.New("a run is already active")
	ErrMissingProject  = errors.New("project name and description are required")
	ErrMissingFeedback = errors.New("refinement feedback is required")
	ErrUnknownArtifact = errors.New("unknown artifact")
	ErrCancelled       = errors.New("run cancelled")
)

type Option func(*Studio)

// WithInterval sets the progress animation tick.
func WithInterval(d time.Duration) Option {
	return func(s *Studio) { s.interval = d }
}

// WithAgent replaces the pipeline failure policy.
func WithAgent(a pipeline.Agent) Option {
	return func(s *Studio) { s.agent = a }
}

// WithExtraSteps appends steps to every generation plan, e.g. writing the
// files to disk.
func WithExtraSteps(steps ...pipeline.Step) Option {
	return func(s *Studio) { s.extra = append(s.extra, steps...) }
}

type Studio struct {
	store    *workflow.Store
	profile  *profile.Profile
	gen      llm.Generator
	interval time.Duration
	agent    pipeline.Agent
	extra    []pipeline.Step

	mu  sync.Mutex
	cur *run
}

type run struct {
	id     string
	seq    *sequencer.Sequencer
	cancel context.CancelFunc

	mu        sync.Mutex
	cancelled bool
}

func (r *run) markCancelled() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
}

func (r *run) wasCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func New(p *profile.Profile, gen llm.Generator, opts ...Option) *Studio {
	s := &Studio{
		store:    workflow.NewStore(workflow.NewState(p.Roster.IDs())),
		profile:  p,
		gen:      gen,
		interval: sequencer.DefaultInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Studio) Profile() *profile.Profile { return s.profile }

func (s *Studio) Store() *workflow.Store { return s.store }

func (s *Studio) State() workflow.State { return s.store.State() }

// SetProject replaces the project configuration. It is ignored while a run
// is active.
func (s *Studio) SetProject(cfg workflow.ProjectConfig) workflow.State {
	return s.store.Dispatch(workflow.SetProject{Project: cfg})
}

func (s *Studio) SetPrompt(field workflow.PromptField, text string) workflow.State {
	return s.store.Dispatch(workflow.SetPrompt{Field: field, Text: text})
}

// SelectStyle activates a Style DNA preset. Only the active style changes.
func (s *Studio) SelectStyle(id string) (workflow.State, error) {
	p, err := style.Lookup(id)
	if err != nil {
		return s.store.State(), err
	}
	return s.store.Dispatch(workflow.SetStyle{Name: p.ID}), nil
}

func (s *Studio) SelectArtifact(id string) workflow.State {
	return s.store.Dispatch(workflow.SelectArtifact{ID: id})
}

func (s *Studio) ClearError() workflow.State {
	return s.store.Dispatch(workflow.ClearError{})
}

// Generate runs the profile's plan for the current project and blocks until
// the run settles.
func (s *Studio) Generate(ctx context.Context) error {
	st := s.store.State()
	if strings.TrimSpace(st.Project.Name) == "" || strings.TrimSpace(st.Project.Description) == "" {
		return ErrMissingProject
	}
	if st.Phase.Active() {
		return ErrRunActive
	}

	id := uuid.NewString()
	ps := s.pipelineState(id, st)
	plan := append(s.profile.Plan(), s.extra...)
	return s.execute(ctx, workflow.StartGeneration{RunID: id}, id, workflow.KindGeneration, plan, ps)
}

// Refine reworks one artifact according to feedback. An empty feedback falls
// back to the stored refinement prompt.
func (s *Studio) Refine(ctx context.Context, artifactID, feedback string) error {
	st := s.store.State()
	if strings.TrimSpace(feedback) == "" {
		feedback = st.RefinePrompt
	}
	if strings.TrimSpace(feedback) == "" {
		return ErrMissingFeedback
	}
	target, ok := st.Artifact(artifactID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownArtifact, artifactID)
	}
	if st.Phase.Active() {
		return ErrRunActive
	}

	id := uuid.NewString()
	ps := s.pipelineState(id, st)
	ps.Artifacts = append([]*workflow.Artifact(nil), st.Artifacts...)
	plan := append(s.profile.RefinePlan(target, feedback), s.extra...)
	start := workflow.StartRefinement{RunID: id, ArtifactID: artifactID}
	return s.execute(ctx, start, id, workflow.KindRefinement, plan, ps)
}

// Cancel ends the active run as unsuccessful. The phase is idle when Cancel
// returns; whatever the in-flight request yields afterwards is dropped.
func (s *Studio) Cancel() bool {
	s.mu.Lock()
	r := s.cur
	s.mu.Unlock()
	if r == nil {
		return false
	}
	r.markCancelled()
	r.seq.Cancel()
	// the script may already be exhausted, in which case seq.Cancel reports nothing
	s.store.Dispatch(workflow.WorkflowComplete{RunID: r.id, Success: false})
	r.cancel()
	log.Info("studio %s: run %s cancelled", s.profile.Name, r.id)
	return true
}

// Export writes the last run to dir and returns the file path.
func (s *Studio) Export(dir string) (string, error) {
	doc := export.Build(s.profile.Name, s.profile.Title, s.store.State())
	return export.Write(dir, doc)
}

// Restore loads an exported run so that its artifacts can be refined.
func (s *Studio) Restore(doc *export.Document) error {
	if s.store.State().Phase.Active() {
		return ErrRunActive
	}
	next := s.store.Dispatch(workflow.Restore{
		Project:         doc.Configuration,
		Style:           doc.Metadata.Style,
		Artifacts:       doc.Files,
		Insights:        doc.NLPInsights,
		ProjectInsights: doc.ProjectInsights,
		Analysis:        doc.CodebaseAnalysis,
		Conversations:   doc.AgentConversations,
		Collaborations:  doc.CollaborationGraph,
		Logs:            doc.Logs,
	})
	if next.Phase != workflow.PhaseCompleted || len(next.Artifacts) != len(doc.Files) {
		return fmt.Errorf("restore %q: run rejected", doc.Metadata.Name)
	}
	return nil
}

func (s *Studio) pipelineState(id string, st workflow.State) *pipeline.PipelineState {
	ps := &pipeline.PipelineState{
		RunID:   id,
		Project: st.Project,
		Roster:  s.profile.Roster,
		Gen:     s.gen,
		Out:     s.store,
	}
	if st.ActiveStyle != "" {
		if p, err := style.Lookup(st.ActiveStyle); err == nil {
			ps.Style = &p
		}
	}
	return ps
}

// execute dispatches start and registers the run in one step under s.mu,
// then drives the run to its end.
func (s *Studio) execute(ctx context.Context, start workflow.Action, id string, kind workflow.Kind, plan []pipeline.Step, ps *pipeline.PipelineState) error {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq := sequencer.New(s.profile.Script(kind),
		func(step sequencer.Step) {
			s.store.Dispatch(workflow.SetAgentStatus{RunID: id, AgentID: step.AgentID, Status: step.Status})
		},
		func(o sequencer.Outcome) {
			if o == sequencer.Cancelled {
				s.store.Dispatch(workflow.WorkflowComplete{RunID: id, Success: false})
			}
		},
		sequencer.WithInterval(s.interval),
	)
	r := &run{id: id, seq: seq, cancel: cancel}
	s.mu.Lock()
	if next := s.store.Dispatch(start); next.RunID != id {
		s.mu.Unlock()
		return ErrRunActive
	}
	// a cancelled run may still be draining; it no longer owns the store
	s.cur = r
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.cur == r {
			s.cur = nil
		}
		s.mu.Unlock()
	}()
	log.Info("studio %s: %s %s started for %q", s.profile.Name, kind, id, ps.Project.Name)

	p := &pipeline.Pipeline{Steps: plan, Agent: s.agent}
	var pipeErr error
	var wg conc.WaitGroup
	wg.Go(func() { seq.Run(rctx) })
	wg.Go(func() {
		pipeErr = p.Run(rctx, ps)
		if pipeErr != nil {
			seq.Stop()
		}
	})
	wg.Wait()

	switch {
	case r.wasCancelled():
		s.store.Dispatch(workflow.WorkflowComplete{RunID: id, Success: false})
		return ErrCancelled
	case pipeErr != nil:
		log.Error("studio %s: run %s failed: %v", s.profile.Name, id, pipeErr)
		s.store.Dispatch(workflow.SetError{RunID: id, Message: pipeErr.Error()})
		return pipeErr
	case ctx.Err() != nil:
		return ctx.Err()
	}
	s.store.Dispatch(workflow.WorkflowComplete{RunID: id, Success: true})
	log.Info("studio %s: run %s completed with %d artifacts", s.profile.Name, id, len(ps.Artifacts))
	return nil
}
