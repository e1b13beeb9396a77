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
	"errors"
	"testing"

	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/persona"
)

// mockStepOK returns StepOK with an optional snapshot and follow-ups.
type mockStepOK struct {
	name string
	snap *Snapshot
	next []Step
	ran  *[]string
}

func (m *mockStepOK) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock-ok"
}

func (m *mockStepOK) Run(ctx context.Context, st *PipelineState) (*StepResult, error) {
	if m.ran != nil {
		*m.ran = append(*m.ran, m.Name())
	}
	return OK(m.snap, m.next...), nil
}

// mockStepFail fails until it has been run failures times.
type mockStepFail struct {
	recoverable bool
	optional    bool
	failures    int
	runs        int
}

func (m *mockStepFail) Name() string { return "mock-fail" }

func (m *mockStepFail) Optional() bool { return m.optional }

func (m *mockStepFail) Run(ctx context.Context, st *PipelineState) (*StepResult, error) {
	m.runs++
	if m.failures > 0 && m.runs > m.failures {
		return OK(nil), nil
	}
	return Failed(errors.New("model said no"), m.recoverable)
}

func testState(t *testing.T) (*PipelineState, *workflow.Store) {
	t.Helper()
	roster, err := persona.LoadRoster("nexus")
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	store := workflow.NewStore(workflow.NewState(roster.IDs()))
	store.Dispatch(workflow.StartGeneration{RunID: "run-1"})
	return &PipelineState{RunID: "run-1", Roster: roster, Out: store}, store
}

func TestPipeline_Run_Success(t *testing.T) {
	st, store := testState(t)
	art := workflow.NewArtifact("a1", "README.md", "# hi", "nexus_architect", "Nexus")
	snap := NewSnapshot(KindArtifact, art, []byte(art.Content))

	pl := &Pipeline{Steps: []Step{&mockStepOK{name: "inject", snap: snap}}}
	if err := pl.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.Artifacts) != 1 || st.Artifacts[0] != art {
		t.Fatalf("artifacts: got %v", st.Artifacts)
	}
	if got := store.State().Artifacts; len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("store artifacts: got %v", got)
	}
	if len(st.History) != 1 || st.History[0].Status != StepOK {
		t.Errorf("history: got %+v", st.History)
	}
}

func TestPipeline_Run_FollowUpsRunNext(t *testing.T) {
	st, _ := testState(t)
	var ran []string
	pl := &Pipeline{Steps: []Step{
		&mockStepOK{name: "plan", ran: &ran, next: []Step{
			&mockStepOK{name: "file-1", ran: &ran},
			&mockStepOK{name: "file-2", ran: &ran},
		}},
		&mockStepOK{name: "analysis", ran: &ran},
	}}
	if err := pl.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"plan", "file-1", "file-2", "analysis"}
	if len(ran) != len(want) {
		t.Fatalf("ran: got %v", ran)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("ran[%d]: got %s, want %s", i, ran[i], want[i])
		}
	}
}

func TestPipeline_Run_AbortKeepsEarlierArtifacts(t *testing.T) {
	st, store := testState(t)
	var ran []string
	a1 := workflow.NewArtifact("a1", "one", "1", "nexus_architect", "Nexus")
	a2 := workflow.NewArtifact("a2", "two", "2", "nexus_architect", "Nexus")
	pl := &Pipeline{Steps: []Step{
		&mockStepOK{name: "s1", ran: &ran, snap: NewSnapshot(KindArtifact, a1, []byte("1"))},
		&mockStepOK{name: "s2", ran: &ran, snap: NewSnapshot(KindArtifact, a2, []byte("2"))},
		&mockStepFail{recoverable: true},
		&mockStepOK{name: "s4", ran: &ran},
	}}
	err := pl.Run(context.Background(), st)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ran) != 2 {
		t.Errorf("steps after the failure ran: %v", ran)
	}
	if got := store.State().Artifacts; len(got) != 2 {
		t.Errorf("store artifacts: got %d", len(got))
	}
	last := st.History[len(st.History)-1]
	if last.Status != StepFailed || last.Error == "" {
		t.Errorf("history: got %+v", last)
	}
}

func TestPipeline_Run_NoRetryByDefault(t *testing.T) {
	st, _ := testState(t)
	step := &mockStepFail{recoverable: true, failures: 1}
	pl := &Pipeline{Steps: []Step{step}}
	if err := pl.Run(context.Background(), st); err == nil {
		t.Fatal("expected error")
	}
	if step.runs != 1 {
		t.Errorf("runs: got %d", step.runs)
	}
}

func TestPipeline_Run_RetryWhenAllowed(t *testing.T) {
	st, _ := testState(t)
	step := &mockStepFail{recoverable: true, failures: 1}
	pl := &Pipeline{Steps: []Step{step}, Agent: &DefaultAgent{MaxRetry: 1}}
	if err := pl.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if step.runs != 2 || len(st.History) != 2 {
		t.Errorf("runs: %d history: %d", step.runs, len(st.History))
	}
}

func TestPipeline_Run_OptionalStepSkipped(t *testing.T) {
	st, _ := testState(t)
	var ran []string
	pl := &Pipeline{Steps: []Step{
		&mockStepFail{optional: true},
		&mockStepOK{name: "after", ran: &ran},
	}}
	if err := pl.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ran) != 1 {
		t.Errorf("ran: %v", ran)
	}
	if st.History[0].Status != StepSkipped {
		t.Errorf("history: got %+v", st.History[0])
	}
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	st, _ := testState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran []string
	pl := &Pipeline{Steps: []Step{&mockStepOK{name: "never", ran: &ran}}}
	err := pl.Run(ctx, st)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err: got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("ran: %v", ran)
	}
}

func TestDefaultAgent_OnStepFailure(t *testing.T) {
	ctx := context.Background()
	agent := &DefaultAgent{MaxRetry: 2}

	t.Run("abort when not recoverable", func(t *testing.T) {
		d := agent.OnStepFailure(ctx, &mockStepFail{}, nil, &StepResult{Recoverable: false}, 1)
		if d != DecisionAbort {
			t.Errorf("got %s", d)
		}
	})

	t.Run("retry when recoverable and under max", func(t *testing.T) {
		d := agent.OnStepFailure(ctx, &mockStepFail{}, nil, &StepResult{Recoverable: true}, 2)
		if d != DecisionRetry {
			t.Errorf("got %s", d)
		}
	})

	t.Run("skip optional past max", func(t *testing.T) {
		d := agent.OnStepFailure(ctx, &mockStepFail{optional: true}, nil, &StepResult{Recoverable: true}, 3)
		if d != DecisionSkip {
			t.Errorf("got %s", d)
		}
	})

	t.Run("abort on cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		d := agent.OnStepFailure(cctx, &mockStepFail{optional: true}, nil, &StepResult{Recoverable: true}, 1)
		if d != DecisionAbort {
			t.Errorf("got %s", d)
		}
	})
}

func TestApplySnapshot(t *testing.T) {
	st, store := testState(t)
	ins := &workflow.Insights{Features: []string{"auth"}, Complexity: "simple"}
	snap := NewSnapshot(KindInsights, ins, []byte("x"))
	applySnapshot(st, snap)
	if st.Insights != snap {
		t.Error("Insights not set")
	}
	if store.State().Project.Complexity != "simple" || st.Project.Complexity != "simple" {
		t.Error("complexity not propagated")
	}

	v1 := workflow.NewArtifact("v1", "one", "a", "designer", "Designer")
	v2 := workflow.NewArtifact("v2", "two", "b", "designer", "Designer")
	applySnapshot(st, NewSnapshot(KindArtifacts, []*workflow.Artifact{v1, v2}, nil))
	kept := st.Artifacts
	applySnapshot(st, NewSnapshot(KindArtifactUpdate, v2.WithContent("B"), nil))
	if st.Artifacts[0] != v1 || st.Artifacts[1].Content != "B" {
		t.Errorf("update: got %+v", st.Artifacts)
	}
	if kept[1] != v2 {
		t.Error("update wrote into the previous slice")
	}
}

func TestNewSnapshot_Hash(t *testing.T) {
	a := NewSnapshot(KindArchitecture, "x", []byte("same"))
	b := NewSnapshot(KindArchitecture, "y", []byte("same"))
	if a.Hash != b.Hash || len(a.Hash) != 64 {
		t.Errorf("hash: %s vs %s", a.Hash, b.Hash)
	}
}

func TestCollaboratorContext(t *testing.T) {
	st, _ := testState(t)
	for _, m := range []string{"one", "two", "three", "four"} {
		st.Think("nexus_architect", workflow.ConversationThought, m)
	}
	st.Think("sage_database", workflow.ConversationPlanning, "tables")
	got := st.CollaboratorContext([]string{"nexus_architect", "sage_database"}, 3)
	want := "nexus_architect: two\nnexus_architect: three\nnexus_architect: four\n\nsage_database: tables"
	if got != want {
		t.Errorf("got %q", got)
	}
}
