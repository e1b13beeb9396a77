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

// State is the single source of truth for one studio. It is treated as an
// immutable value: Reduce never writes into the slices or maps of the state
// it is given, so older states stay valid after newer ones are derived.
type State struct {
	Phase Phase
	Kind  Kind
	RunID string

	// Roster is the static persona id list; Statuses keys are always a
	// subset of it.
	Roster   []string
	Statuses map[string]AgentStatus

	Project      ProjectConfig
	RefinePrompt string
	ActiveStyle  string

	Artifacts          []*Artifact
	SelectedArtifactID string
	RefiningArtifactID string

	Logs           []LogEntry
	Conversations  map[string][]ConversationEntry
	Collaborations []Collaboration

	Insights        *Insights
	ProjectInsights []ProjectInsight
	Analysis        *Analysis

	Error string
}

// NewState is the idle state for the given roster.
func NewState(roster []string) State {
	ids := append([]string(nil), roster...)
	return State{
		Phase:    PhaseIdle,
		Roster:   ids,
		Statuses: dormant(ids),
	}
}

func dormant(roster []string) map[string]AgentStatus {
	m := make(map[string]AgentStatus, len(roster))
	for _, id := range roster {
		m[id] = StatusDormant
	}
	return m
}

func allStatus(roster []string, st AgentStatus) map[string]AgentStatus {
	m := make(map[string]AgentStatus, len(roster))
	for _, id := range roster {
		m[id] = st
	}
	return m
}

func (s State) inRoster(id string) bool {
	for _, r := range s.Roster {
		if r == id {
			return true
		}
	}
	return false
}

// Artifact finds an artifact by id.
func (s State) Artifact(id string) (*Artifact, bool) {
	for _, a := range s.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// current reports whether a run-scoped action still belongs to the live run.
func (s State) current(runID string) bool {
	return s.Phase.Active() && runID != "" && runID == s.RunID
}

// Reduce is the pure transition function. Every action is defined for every
// state; an action that does not apply returns s unchanged.
func Reduce(s State, a Action) State {
	if rs, ok := a.(runScoped); ok && !s.current(rs.run()) {
		return s
	}

	switch a := a.(type) {
	case StartGeneration:
		if s.Phase.Active() || a.RunID == "" {
			return s
		}
		s.Phase = PhaseInitializing
		s.Kind = KindGeneration
		s.RunID = a.RunID
		s.Statuses = dormant(s.Roster)
		s.Artifacts = nil
		s.SelectedArtifactID = ""
		s.RefiningArtifactID = ""
		s.Logs = nil
		s.Conversations = nil
		s.Collaborations = nil
		s.Insights = nil
		s.ProjectInsights = nil
		s.Analysis = nil
		s.Error = ""

	case StartRefinement:
		if s.Phase.Active() || a.RunID == "" {
			return s
		}
		if _, ok := s.Artifact(a.ArtifactID); !ok {
			return s
		}
		s.Phase = PhaseRefining
		s.Kind = KindRefinement
		s.RunID = a.RunID
		s.Statuses = dormant(s.Roster)
		s.RefiningArtifactID = a.ArtifactID
		s.Error = ""

	case SetPhase:
		if a.Phase.Active() {
			s.Phase = a.Phase
		}

	case SetProject:
		if !s.Phase.Active() {
			p := a.Project
			p.Features = append([]string(nil), a.Project.Features...)
			s.Project = p
		}

	case SetArtifacts:
		if !uniqueIDs(a.Artifacts) {
			return s
		}
		s.Artifacts = append([]*Artifact(nil), a.Artifacts...)
		if _, ok := s.Artifact(s.SelectedArtifactID); !ok {
			s.SelectedArtifactID = ""
			if len(s.Artifacts) > 0 {
				s.SelectedArtifactID = s.Artifacts[0].ID
			}
		}

	case AppendArtifact:
		if a.Artifact == nil {
			return s
		}
		if _, dup := s.Artifact(a.Artifact.ID); dup {
			return s
		}
		s.Artifacts = appendCopy(s.Artifacts, a.Artifact)
		if s.SelectedArtifactID == "" {
			s.SelectedArtifactID = a.Artifact.ID
		}

	case UpdateArtifact:
		if a.Artifact == nil {
			return s
		}
		idx := -1
		for i, x := range s.Artifacts {
			if x.ID == a.Artifact.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s
		}
		arts := append([]*Artifact(nil), s.Artifacts...)
		arts[idx] = a.Artifact
		s.Artifacts = arts

	case SetAgentStatus:
		if !s.inRoster(a.AgentID) {
			return s
		}
		st := make(map[string]AgentStatus, len(s.Statuses)+1)
		for k, v := range s.Statuses {
			st[k] = v
		}
		st[a.AgentID] = a.Status
		s.Statuses = st

	case AppendLog:
		e := a.Entry
		e.ID = len(s.Logs) + 1
		s.Logs = appendCopy(s.Logs, e)

	case AppendConversation:
		if !s.inRoster(a.AgentID) {
			return s
		}
		conv := make(map[string][]ConversationEntry, len(s.Conversations)+1)
		for k, v := range s.Conversations {
			conv[k] = v
		}
		e := a.Entry
		e.ID = len(conv[a.AgentID]) + 1
		conv[a.AgentID] = appendCopy(conv[a.AgentID], e)
		s.Conversations = conv

	case AddCollaboration:
		s.Collaborations = appendCopy(s.Collaborations, a.Edge)

	case SetInsights:
		s.Insights = a.Insights
		if a.Insights != nil {
			s.Project.Features = append([]string(nil), a.Insights.Features...)
			s.Project.Complexity = a.Insights.Complexity
		}

	case SetProjectInsights:
		s.ProjectInsights = append([]ProjectInsight(nil), a.Items...)

	case SetAnalysis:
		s.Analysis = a.Analysis

	case WorkflowComplete:
		if a.Success {
			s.Phase = PhaseCompleted
			s.Statuses = allStatus(s.Roster, StatusCompleted)
		} else {
			s.Phase = PhaseIdle
			s.Statuses = dormant(s.Roster)
		}
		s.RefinePrompt = ""
		s.RefiningArtifactID = ""

	case SelectArtifact:
		if _, ok := s.Artifact(a.ID); ok {
			s.SelectedArtifactID = a.ID
		}

	case SetPrompt:
		switch a.Field {
		case PromptProjectName:
			s.Project.Name = a.Text
		case PromptProjectDescription:
			s.Project.Description = a.Text
		case PromptRefinement:
			s.RefinePrompt = a.Text
		}

	case SetStyle:
		s.ActiveStyle = a.Name

	case SetError:
		if a.RunID != "" && !s.current(a.RunID) {
			return s
		}
		s.Error = a.Message
		s.Phase = PhaseError
		s.RefiningArtifactID = ""

	case ClearError:
		s.Error = ""
		if s.Phase == PhaseError {
			s.Phase = PhaseIdle
		}

	case Restore:
		if s.Phase.Active() || !uniqueIDs(a.Artifacts) {
			return s
		}
		s.Phase = PhaseCompleted
		s.Kind = KindGeneration
		s.RunID = ""
		s.Statuses = dormant(s.Roster)
		p := a.Project
		p.Features = append([]string(nil), a.Project.Features...)
		s.Project = p
		s.ActiveStyle = a.Style
		s.Artifacts = append([]*Artifact(nil), a.Artifacts...)
		s.SelectedArtifactID = ""
		if len(s.Artifacts) > 0 {
			s.SelectedArtifactID = s.Artifacts[0].ID
		}
		s.RefiningArtifactID = ""
		s.RefinePrompt = ""
		s.Insights = a.Insights
		s.ProjectInsights = append([]ProjectInsight(nil), a.ProjectInsights...)
		s.Analysis = a.Analysis
		s.Collaborations = append([]Collaboration(nil), a.Collaborations...)
		s.Logs = append([]LogEntry(nil), a.Logs...)
		s.Conversations = nil
		for id, conv := range a.Conversations {
			if !s.inRoster(id) {
				continue
			}
			if s.Conversations == nil {
				s.Conversations = make(map[string][]ConversationEntry)
			}
			s.Conversations[id] = append([]ConversationEntry(nil), conv...)
		}
		s.Error = ""
	}
	return s
}

// appendCopy appends into a fresh backing array so that states derived from
// the same parent never share writes.
func appendCopy[T any](xs []T, x T) []T {
	out := make([]T, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, x)
}

func uniqueIDs(arts []*Artifact) bool {
	seen := make(map[string]struct{}, len(arts))
	for _, a := range arts {
		if a == nil {
			return false
		}
		if _, dup := seen[a.ID]; dup {
			return false
		}
		seen[a.ID] = struct{}{}
	}
	return true
}
