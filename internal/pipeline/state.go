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
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/cloudwego/nexusgen/internal/style"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
)

// PipelineState is the run's single source of truth on the pipeline side.
// Step outputs land here as snapshots and are mirrored into the store
// through Out.
type PipelineState struct {
	RunID   string
	Project workflow.ProjectConfig
	Roster  *persona.Roster
	Gen     llm.Generator
	Out     workflow.Dispatcher

	// Style biases variant generation; nil means none.
	Style *style.Preset

	Insights        *Snapshot // *workflow.Insights
	Architecture    *Snapshot // string
	ProjectInsights *Snapshot // workflow.ProjectInsights
	Blueprint       *Snapshot // []BlueprintItem
	Analysis        *Snapshot // *workflow.Analysis

	Artifacts     []*workflow.Artifact
	Conversations map[string][]workflow.ConversationEntry

	History []StepRecord
}

// BlueprintItem is one planned file.
type BlueprintItem struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
}

// StepRecord is an immutable log entry for one step execution.
type StepRecord struct {
	StepName string
	Attempt  int
	Status   StepStatus
	Error    string
	Time     time.Time
}

// StepStatus is the outcome of a step run.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// SystemAgent attributes log lines that no persona produced.
const SystemAgent = "system"

func (st *PipelineState) dispatch(a workflow.Action) {
	if st.Out != nil {
		st.Out.Dispatch(a)
	}
}

// Phase moves the visible phase of the run.
func (st *PipelineState) Phase(p workflow.Phase) {
	st.dispatch(workflow.SetPhase{RunID: st.RunID, Phase: p})
}

// Status shows agent in the given status.
func (st *PipelineState) Status(agentID string, s workflow.AgentStatus) {
	st.dispatch(workflow.SetAgentStatus{RunID: st.RunID, AgentID: agentID, Status: s})
}

// Log appends a chat line attributed to p. A zero persona is the system.
func (st *PipelineState) Log(p persona.Persona, kind workflow.LogKind, format string, args ...any) {
	id, name := p.ID, p.Name
	if id == "" {
		id, name = SystemAgent, "System"
	}
	st.dispatch(workflow.AppendLog{RunID: st.RunID, Entry: workflow.LogEntry{
		AgentID:   id,
		AgentName: name,
		Message:   fmt.Sprintf(format, args...),
		Kind:      kind,
		Timestamp: time.Now(),
	}})
}

// Think records one thought of agentID, both locally (for collaborator
// context) and in the store.
func (st *PipelineState) Think(agentID string, kind workflow.ConversationKind, msg string) {
	e := workflow.ConversationEntry{Message: msg, Kind: kind, Timestamp: time.Now()}
	if st.Conversations == nil {
		st.Conversations = make(map[string][]workflow.ConversationEntry)
	}
	e.ID = len(st.Conversations[agentID]) + 1
	st.Conversations[agentID] = append(st.Conversations[agentID], e)
	st.dispatch(workflow.AppendConversation{RunID: st.RunID, AgentID: agentID, Entry: e})
}

// Collaborate adds an edge to the collaboration graph.
func (st *PipelineState) Collaborate(from, to, kind string) {
	st.dispatch(workflow.AddCollaboration{RunID: st.RunID, Edge: workflow.Collaboration{
		From:      from,
		To:        to,
		Type:      kind,
		Timestamp: time.Now(),
	}})
}

// CollaboratorContext renders the last n thoughts of each collaborator, one
// block per collaborator.
func (st *PipelineState) CollaboratorContext(ids []string, n int) string {
	blocks := make([]string, 0, len(ids))
	for _, id := range ids {
		conv := st.Conversations[id]
		if len(conv) > n {
			conv = conv[len(conv)-n:]
		}
		lines := make([]string, 0, len(conv))
		for _, e := range conv {
			lines = append(lines, id+": "+e.Message)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// InsightsValue returns the extracted insights, or nil.
func (st *PipelineState) InsightsValue() *workflow.Insights {
	if st.Insights == nil {
		return nil
	}
	v, _ := st.Insights.Payload.(*workflow.Insights)
	return v
}

// ProjectInsightsValue returns the strategy insights, or nil.
func (st *PipelineState) ProjectInsightsValue() workflow.ProjectInsights {
	if st.ProjectInsights == nil {
		return nil
	}
	v, _ := st.ProjectInsights.Payload.(workflow.ProjectInsights)
	return v
}

type projectContext struct {
	workflow.ProjectConfig
	Insights             *workflow.Insights        `json:"nlpInsights,omitempty"`
	ProjectInsights      []workflow.ProjectInsight `json:"projectInsights,omitempty"`
	CollaborationContext string                    `json:"collaborationContext,omitempty"`
}

// ProjectContext serializes the project configuration and what is known
// about it so far, plus the given collaboration context.
func (st *PipelineState) ProjectContext(collaboration string) (string, error) {
	out, err := sonic.ConfigStd.MarshalIndent(projectContext{
		ProjectConfig:        st.Project,
		Insights:             st.InsightsValue(),
		ProjectInsights:      st.ProjectInsightsValue(),
		CollaborationContext: collaboration,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal project context: %w", err)
	}
	return string(out), nil
}

// Artifact finds a produced artifact by id.
func (st *PipelineState) Artifact(id string) (*workflow.Artifact, bool) {
	for _, a := range st.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Persona resolves id in the roster; when id is empty the first persona with
// role is used, then the architect.
func (st *PipelineState) Persona(id string, role persona.Role) (persona.Persona, error) {
	if st.Roster == nil || st.Roster.Len() == 0 {
		return persona.Persona{}, fmt.Errorf("pipeline has no roster")
	}
	if id != "" {
		return st.Roster.Lookup(id)
	}
	if p, ok := st.Roster.ByRole(role); ok {
		return p, nil
	}
	if p, ok := st.Roster.ByRole(persona.RoleArchitect); ok {
		return p, nil
	}
	return st.Roster.Personas[0], nil
}
