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

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRoster = []string{"architect", "designer", "engineer"}

func apply(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func TestReduce_StartGeneration(t *testing.T) {
	s := NewState(testRoster)
	s.Error = "old"
	s.Artifacts = []*Artifact{{ID: "x"}}

	s = Reduce(s, StartGeneration{RunID: "r1"})
	assert.Equal(t, PhaseInitializing, s.Phase)
	assert.Equal(t, KindGeneration, s.Kind)
	assert.Equal(t, "r1", s.RunID)
	assert.Empty(t, s.Error)
	assert.Empty(t, s.Artifacts)
	for _, id := range testRoster {
		assert.Equal(t, StatusDormant, s.Statuses[id])
	}
}

func TestReduce_SecondStartRejectedWhileActive(t *testing.T) {
	s := apply(NewState(testRoster), StartGeneration{RunID: "r1"}, SetPhase{RunID: "r1", Phase: PhaseGenerating})
	next := Reduce(s, StartGeneration{RunID: "r2"})
	assert.Equal(t, "r1", next.RunID)
	assert.Equal(t, PhaseGenerating, next.Phase)

	next = Reduce(s, StartRefinement{RunID: "r2", ArtifactID: "a"})
	assert.Equal(t, "r1", next.RunID)
}

func TestReduce_StaleRunActionsDropped(t *testing.T) {
	s := apply(NewState(testRoster), StartGeneration{RunID: "r1"})
	s = Reduce(s, AppendArtifact{RunID: "other", Artifact: &Artifact{ID: "a"}})
	assert.Empty(t, s.Artifacts)

	s = Reduce(s, WorkflowComplete{RunID: "r1", Success: false})
	assert.Equal(t, PhaseIdle, s.Phase)

	// the run is over: late results of r1 are recorded nowhere
	s = Reduce(s, AppendArtifact{RunID: "r1", Artifact: &Artifact{ID: "late"}})
	s = Reduce(s, SetAgentStatus{RunID: "r1", AgentID: "architect", Status: StatusWorking})
	s = Reduce(s, SetError{RunID: "r1", Message: "boom"})
	assert.Empty(t, s.Artifacts)
	assert.Equal(t, StatusDormant, s.Statuses["architect"])
	assert.Empty(t, s.Error)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestReduce_WorkflowComplete(t *testing.T) {
	base := apply(NewState(testRoster),
		StartGeneration{RunID: "r1"},
		SetPrompt{Field: PromptRefinement, Text: "make it blue"},
		SetAgentStatus{RunID: "r1", AgentID: "designer", Status: StatusCreating},
	)

	ok := Reduce(base, WorkflowComplete{RunID: "r1", Success: true})
	assert.Equal(t, PhaseCompleted, ok.Phase)
	assert.Empty(t, ok.RefinePrompt)
	for _, id := range testRoster {
		assert.Equal(t, StatusCompleted, ok.Statuses[id])
	}

	failed := Reduce(base, WorkflowComplete{RunID: "r1", Success: false})
	assert.Equal(t, PhaseIdle, failed.Phase)
	for _, id := range testRoster {
		assert.Equal(t, StatusDormant, failed.Statuses[id])
	}

	// base is untouched
	assert.Equal(t, StatusCreating, base.Statuses["designer"])
	assert.Equal(t, "make it blue", base.RefinePrompt)
}

func TestReduce_SetErrorForcesInactivePhase(t *testing.T) {
	s := apply(NewState(testRoster), StartGeneration{RunID: "r1"}, SetPhase{RunID: "r1", Phase: PhaseGenerating})
	s = Reduce(s, SetError{RunID: "r1", Message: "generation failed"})
	assert.Equal(t, PhaseError, s.Phase)
	assert.False(t, s.Phase.Active())
	assert.Equal(t, "generation failed", s.Error)

	// a new run may start from the error phase
	s = Reduce(s, StartGeneration{RunID: "r2"})
	assert.Equal(t, PhaseInitializing, s.Phase)
	assert.Empty(t, s.Error)
}

func TestReduce_ClearErrorIdempotent(t *testing.T) {
	s := Reduce(NewState(testRoster), SetError{Message: "bad"})
	once := Reduce(s, ClearError{})
	twice := Reduce(once, ClearError{})
	assert.Equal(t, once, twice)
	assert.Equal(t, PhaseIdle, twice.Phase)
	assert.Empty(t, twice.Error)
}

func TestReduce_SetStyleOnlyTouchesStyle(t *testing.T) {
	s := apply(NewState(testRoster),
		SetPrompt{Field: PromptProjectDescription, Text: "a pricing card"},
		StartGeneration{RunID: "r1"},
		AppendArtifact{RunID: "r1", Artifact: &Artifact{ID: "v1", Content: "<div/>"}},
	)
	next := Reduce(s, SetStyle{Name: "cyberpunk"})
	assert.Equal(t, "cyberpunk", next.ActiveStyle)
	next.ActiveStyle = s.ActiveStyle
	assert.Equal(t, s, next)
}

func TestReduce_UpdateArtifactKeepsOthers(t *testing.T) {
	v1 := &Artifact{ID: "v1", Content: "one"}
	v2 := &Artifact{ID: "v2", Content: "two"}
	v3 := &Artifact{ID: "v3", Content: "three"}
	s := apply(NewState(testRoster),
		StartGeneration{RunID: "r1"},
		SetArtifacts{RunID: "r1", Artifacts: []*Artifact{v1, v2, v3}},
		WorkflowComplete{RunID: "r1", Success: true},
		StartRefinement{RunID: "r2", ArtifactID: "v2"},
	)
	require.Equal(t, PhaseRefining, s.Phase)
	require.Equal(t, "v2", s.RefiningArtifactID)

	s = Reduce(s, UpdateArtifact{RunID: "r2", Artifact: v2.WithContent("TWO")})
	s = Reduce(s, WorkflowComplete{RunID: "r2", Success: true})

	require.Len(t, s.Artifacts, 3)
	assert.Same(t, v1, s.Artifacts[0])
	assert.Same(t, v3, s.Artifacts[2])
	assert.Equal(t, "v2", s.Artifacts[1].ID)
	assert.Equal(t, "TWO", s.Artifacts[1].Content)
	assert.Equal(t, 3, s.Artifacts[1].Size)
	assert.Equal(t, "two", v2.Content, "the replaced artifact is not mutated")
}

func TestReduce_StartRefinementNeedsArtifact(t *testing.T) {
	s := Reduce(NewState(testRoster), StartRefinement{RunID: "r1", ArtifactID: "missing"})
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestReduce_ArtifactIDsUnique(t *testing.T) {
	s := apply(NewState(testRoster),
		StartGeneration{RunID: "r1"},
		AppendArtifact{RunID: "r1", Artifact: &Artifact{ID: "a", Content: "1"}},
		AppendArtifact{RunID: "r1", Artifact: &Artifact{ID: "a", Content: "2"}},
	)
	require.Len(t, s.Artifacts, 1)
	assert.Equal(t, "1", s.Artifacts[0].Content)
	assert.Equal(t, "a", s.SelectedArtifactID)

	s = Reduce(s, SetArtifacts{RunID: "r1", Artifacts: []*Artifact{{ID: "b"}, {ID: "b"}}})
	assert.Len(t, s.Artifacts, 1)
}

func TestReduce_UnknownAgentIgnored(t *testing.T) {
	s := apply(NewState(testRoster),
		StartGeneration{RunID: "r1"},
		SetAgentStatus{RunID: "r1", AgentID: "intruder", Status: StatusWorking},
		AppendConversation{RunID: "r1", AgentID: "intruder", Entry: ConversationEntry{Message: "hi"}},
	)
	assert.Len(t, s.Statuses, len(testRoster))
	_, ok := s.Statuses["intruder"]
	assert.False(t, ok)
	assert.Empty(t, s.Conversations)
}

func TestReduce_LogsAndConversations(t *testing.T) {
	s := apply(NewState(testRoster),
		StartGeneration{RunID: "r1"},
		AppendLog{RunID: "r1", Entry: LogEntry{Message: "one"}},
		AppendLog{RunID: "r1", Entry: LogEntry{Message: "two"}},
		AppendConversation{RunID: "r1", AgentID: "architect", Entry: ConversationEntry{Message: "plan", Kind: ConversationPlanning}},
		AddCollaboration{RunID: "r1", Edge: Collaboration{From: "architect", To: "README.md", Type: "created"}},
	)
	require.Len(t, s.Logs, 2)
	assert.Equal(t, 2, s.Logs[1].ID)
	require.Len(t, s.Conversations["architect"], 1)
	assert.Equal(t, 1, s.Conversations["architect"][0].ID)
	assert.Len(t, s.Collaborations, 1)

	// the next run starts clean
	s = apply(s, WorkflowComplete{RunID: "r1", Success: true}, StartGeneration{RunID: "r2"})
	assert.Empty(t, s.Logs)
	assert.Empty(t, s.Conversations)
	assert.Empty(t, s.Collaborations)
}

func TestReduce_SetInsightsUpdatesProject(t *testing.T) {
	s := apply(NewState(testRoster),
		SetProject{Project: ProjectConfig{Name: "demo", Description: "d"}},
		StartGeneration{RunID: "r1"},
		SetInsights{RunID: "r1", Insights: &Insights{Features: []string{"auth"}, Complexity: "advanced"}},
	)
	assert.Equal(t, []string{"auth"}, s.Project.Features)
	assert.Equal(t, "advanced", s.Project.Complexity)
	assert.Equal(t, "demo", s.Project.Name)

	// project is frozen while the run is active
	s = Reduce(s, SetProject{Project: ProjectConfig{Name: "other"}})
	assert.Equal(t, "demo", s.Project.Name)
}

func TestReduce_AppendDoesNotAlias(t *testing.T) {
	s := apply(NewState(testRoster), StartGeneration{RunID: "r1"}, AppendLog{RunID: "r1", Entry: LogEntry{Message: "a"}})
	left := Reduce(s, AppendLog{RunID: "r1", Entry: LogEntry{Message: "left"}})
	right := Reduce(s, AppendLog{RunID: "r1", Entry: LogEntry{Message: "right"}})
	assert.Equal(t, "left", left.Logs[1].Message)
	assert.Equal(t, "right", right.Logs[1].Message)
	assert.Len(t, s.Logs, 1)
}

func TestStore_DispatchAndSubscribe(t *testing.T) {
	st := NewStore(NewState(testRoster))
	var seen []Action
	st.Subscribe(func(a Action, s State) { seen = append(seen, a) })

	st.Dispatch(StartGeneration{RunID: "r1"})
	st.Dispatch(SetPhase{RunID: "r1", Phase: PhasePlanning})
	assert.Equal(t, PhasePlanning, st.State().Phase)
	assert.Len(t, seen, 2)
}

func TestReduce_Restore(t *testing.T) {
	r := Restore{
		Project:   ProjectConfig{Name: "p", Description: "d", Features: []string{"f"}},
		Style:     "minimal",
		Artifacts: []*Artifact{{ID: "a", Name: "README.md"}, {ID: "b", Name: "main.go"}},
		Conversations: map[string][]ConversationEntry{
			"designer": {{ID: 1, Message: "m"}},
			"ghost":    {{ID: 1, Message: "x"}},
		},
	}
	s := Reduce(NewState(testRoster), r)
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, "p", s.Project.Name)
	assert.Equal(t, "minimal", s.ActiveStyle)
	assert.Equal(t, "a", s.SelectedArtifactID)
	assert.Len(t, s.Conversations, 1)
	assert.Contains(t, s.Conversations, "designer")

	// refinement can start from a restored run
	s = Reduce(s, StartRefinement{RunID: "r1", ArtifactID: "b"})
	assert.Equal(t, PhaseRefining, s.Phase)

	// ignored while active and when ids collide
	assert.Equal(t, s, Reduce(s, r))
	dup := Restore{Artifacts: []*Artifact{{ID: "a"}, {ID: "a"}}}
	idle := NewState(testRoster)
	assert.Equal(t, idle, Reduce(idle, dup))
}
