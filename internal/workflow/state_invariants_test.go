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
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

var (
	runIDs    = []string{"", "r1", "r2", "r3"}
	agentIDs  = []string{"architect", "designer", "engineer", "ghost"}
	artIDs    = []string{"a", "b", "c"}
	allPhases = []Phase{PhaseIdle, PhaseInitializing, PhaseAnalyzing, PhasePlanning, PhaseGenerating, PhaseRefining, PhaseCompleted, PhaseError}
	statuses  = []AgentStatus{StatusDormant, StatusThinking, StatusCreating, StatusWorking, StatusCompleted, StatusError}
)

func genAction() *rapid.Generator[Action] {
	return rapid.Custom(func(t *rapid.T) Action {
		run := rapid.SampledFrom(runIDs).Draw(t, "run")
		art := rapid.SampledFrom(artIDs).Draw(t, "artifact")
		switch rapid.IntRange(0, 15).Draw(t, "kind") {
		case 0:
			return StartGeneration{RunID: run}
		case 1:
			return StartRefinement{RunID: run, ArtifactID: art}
		case 2:
			return SetPhase{RunID: run, Phase: rapid.SampledFrom(allPhases).Draw(t, "phase")}
		case 3:
			return AppendArtifact{RunID: run, Artifact: &Artifact{ID: art, Content: art}}
		case 4:
			return UpdateArtifact{RunID: run, Artifact: &Artifact{ID: art, Content: "updated"}}
		case 5:
			return SetAgentStatus{RunID: run, AgentID: rapid.SampledFrom(agentIDs).Draw(t, "agent"), Status: rapid.SampledFrom(statuses).Draw(t, "status")}
		case 6:
			return AppendLog{RunID: run, Entry: LogEntry{Message: "log"}}
		case 7:
			return WorkflowComplete{RunID: run, Success: rapid.Bool().Draw(t, "success")}
		case 8:
			return SelectArtifact{ID: art}
		case 9:
			return SetPrompt{Field: PromptRefinement, Text: "text"}
		case 10:
			return SetStyle{Name: rapid.SampledFrom([]string{"", "minimal", "cyberpunk"}).Draw(t, "style")}
		case 11:
			return SetError{RunID: run, Message: "boom"}
		case 12:
			return ClearError{}
		case 13:
			return SetArtifacts{RunID: run, Artifacts: []*Artifact{{ID: art}, {ID: art + "2"}}}
		case 14:
			other := rapid.SampledFrom(artIDs).Draw(t, "other")
			return Restore{
				Artifacts: []*Artifact{{ID: art}, {ID: other}},
				Conversations: map[string][]ConversationEntry{
					rapid.SampledFrom(agentIDs).Draw(t, "agent"): {{Message: "restored"}},
				},
			}
		default:
			return AppendConversation{RunID: run, AgentID: rapid.SampledFrom(agentIDs).Draw(t, "agent"), Entry: ConversationEntry{Message: "c"}}
		}
	})
}

func checkInvariants(t *rapid.T, s State) {
	if len(s.Statuses) > len(s.Roster) {
		t.Fatalf("statuses has %d entries, roster has %d", len(s.Statuses), len(s.Roster))
	}
	for id := range s.Statuses {
		if !s.inRoster(id) {
			t.Fatalf("status for %s which is not in the roster", id)
		}
	}
	for id := range s.Conversations {
		if !s.inRoster(id) {
			t.Fatalf("conversation for %s which is not in the roster", id)
		}
	}
	seen := map[string]bool{}
	for _, a := range s.Artifacts {
		if seen[a.ID] {
			t.Fatalf("duplicate artifact id %s", a.ID)
		}
		seen[a.ID] = true
	}
	valid := false
	for _, p := range allPhases {
		if s.Phase == p {
			valid = true
		}
	}
	if !valid {
		t.Fatalf("invalid phase %q", s.Phase)
	}
	if s.Phase.Active() && s.RunID == "" {
		t.Fatalf("active phase %s without a run", s.Phase)
	}
}

func TestProperty_ReducerInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState([]string{"architect", "designer", "engineer"})
		actions := rapid.SliceOfN(genAction(), 1, 60).Draw(t, "actions")
		for _, a := range actions {
			s = Reduce(s, a)
			checkInvariants(t, s)
		}
	})
}

func TestProperty_StartWhileActiveIsRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState([]string{"architect", "designer"})
		for _, a := range rapid.SliceOfN(genAction(), 0, 30).Draw(t, "prefix") {
			s = Reduce(s, a)
		}
		if !s.Phase.Active() {
			return
		}
		for _, a := range []Action{StartGeneration{RunID: "fresh"}, StartRefinement{RunID: "fresh", ArtifactID: "a"}} {
			if next := Reduce(s, a); !reflect.DeepEqual(next, s) {
				t.Fatalf("%T changed an active state", a)
			}
		}
	})
}

func TestProperty_ClearErrorIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState([]string{"architect"})
		for _, a := range rapid.SliceOfN(genAction(), 0, 30).Draw(t, "prefix") {
			s = Reduce(s, a)
		}
		once := Reduce(s, ClearError{})
		twice := Reduce(once, ClearError{})
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("clear-error is not idempotent")
		}
	})
}

func TestProperty_SetStyleIsolated(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState([]string{"architect", "designer"})
		for _, a := range rapid.SliceOfN(genAction(), 0, 30).Draw(t, "prefix") {
			s = Reduce(s, a)
		}
		style := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "style")
		next := Reduce(s, SetStyle{Name: style})
		if next.ActiveStyle != style {
			t.Fatalf("style not applied")
		}
		next.ActiveStyle = s.ActiveStyle
		if !reflect.DeepEqual(next, s) {
			t.Fatalf("set-style changed more than the style")
		}
	})
}
