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

// Action is the closed set of state transitions. Only types in this file
// implement it.
type Action interface {
	isAction()
}

// runScoped actions are produced by a run and are dropped once that run is
// no longer the current, active one.
type runScoped interface {
	Action
	run() string
}

type StartGeneration struct {
	RunID string
}

type StartRefinement struct {
	RunID      string
	ArtifactID string
}

// SetPhase moves between active phases of the current run.
type SetPhase struct {
	RunID string
	Phase Phase
}

// SetProject replaces the project configuration; ignored while a run is
// active.
type SetProject struct {
	Project ProjectConfig
}

type SetArtifacts struct {
	RunID     string
	Artifacts []*Artifact
}

type AppendArtifact struct {
	RunID    string
	Artifact *Artifact
}

// UpdateArtifact replaces the artifact with the same ID.
type UpdateArtifact struct {
	RunID    string
	Artifact *Artifact
}

type SetAgentStatus struct {
	RunID   string
	AgentID string
	Status  AgentStatus
}

type AppendLog struct {
	RunID string
	Entry LogEntry
}

type AppendConversation struct {
	RunID   string
	AgentID string
	Entry   ConversationEntry
}

type AddCollaboration struct {
	RunID string
	Edge  Collaboration
}

type SetInsights struct {
	RunID    string
	Insights *Insights
}

type SetProjectInsights struct {
	RunID string
	Items []ProjectInsight
}

type SetAnalysis struct {
	RunID    string
	Analysis *Analysis
}

// WorkflowComplete finalizes the current run.
type WorkflowComplete struct {
	RunID   string
	Success bool
}

type SelectArtifact struct {
	ID string
}

type PromptField string

const (
	PromptProjectName        PromptField = "name"
	PromptProjectDescription PromptField = "description"
	PromptRefinement         PromptField = "refinement"
)

type SetPrompt struct {
	Field PromptField
	Text  string
}

type SetStyle struct {
	Name string
}

// SetError records the live error. An empty RunID is a user-level error not
// tied to any run.
type SetError struct {
	RunID   string
	Message string
}

type ClearError struct{}

// Restore loads a finished run, e.g. a previous export, so that it can be
// inspected or refined. It is ignored while a run is active.
type Restore struct {
	Project         ProjectConfig
	Style           string
	Artifacts       []*Artifact
	Insights        *Insights
	ProjectInsights []ProjectInsight
	Analysis        *Analysis
	Conversations   map[string][]ConversationEntry
	Collaborations  []Collaboration
	Logs            []LogEntry
}

func (StartGeneration) isAction()    {}
func (StartRefinement) isAction()    {}
func (SetPhase) isAction()           {}
func (SetProject) isAction()         {}
func (SetArtifacts) isAction()       {}
func (AppendArtifact) isAction()     {}
func (UpdateArtifact) isAction()     {}
func (SetAgentStatus) isAction()     {}
func (AppendLog) isAction()          {}
func (AppendConversation) isAction() {}
func (AddCollaboration) isAction()   {}
func (SetInsights) isAction()        {}
func (SetProjectInsights) isAction() {}
func (SetAnalysis) isAction()        {}
func (WorkflowComplete) isAction()   {}
func (SelectArtifact) isAction()     {}
func (SetPrompt) isAction()          {}
func (SetStyle) isAction()           {}
func (SetError) isAction()           {}
func (ClearError) isAction()         {}
func (Restore) isAction()            {}

func (a SetPhase) run() string           { return a.RunID }
func (a SetArtifacts) run() string       { return a.RunID }
func (a AppendArtifact) run() string     { return a.RunID }
func (a UpdateArtifact) run() string     { return a.RunID }
func (a SetAgentStatus) run() string     { return a.RunID }
func (a AppendLog) run() string          { return a.RunID }
func (a AppendConversation) run() string { return a.RunID }
func (a AddCollaboration) run() string   { return a.RunID }
func (a SetInsights) run() string        { return a.RunID }
func (a SetProjectInsights) run() string { return a.RunID }
func (a SetAnalysis) run() string        { return a.RunID }
func (a WorkflowComplete) run() string   { return a.RunID }
