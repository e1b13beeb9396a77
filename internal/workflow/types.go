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
	"fmt"
	"strings"
	"time"
)

// Phase is the coarse state of one run. Exactly one phase is current.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseInitializing Phase = "initializing"
	PhaseAnalyzing    Phase = "analyzing"
	PhasePlanning     Phase = "planning"
	PhaseGenerating   Phase = "generating"
	PhaseRefining     Phase = "refining"
	PhaseCompleted    Phase = "completed"
	PhaseError        Phase = "error"
)

// Active reports whether a run is in flight; a new run cannot start while
// the current phase is active.
func (p Phase) Active() bool {
	switch p {
	case PhaseInitializing, PhaseAnalyzing, PhasePlanning, PhaseGenerating, PhaseRefining:
		return true
	}
	return false
}

type AgentStatus string

const (
	StatusDormant      AgentStatus = "dormant"
	StatusInitializing AgentStatus = "initializing"
	StatusAnalyzing    AgentStatus = "analyzing"
	StatusThinking     AgentStatus = "thinking"
	StatusCreating     AgentStatus = "creating"
	StatusWorking      AgentStatus = "working"
	StatusValidating   AgentStatus = "validating"
	StatusOptimizing   AgentStatus = "optimizing"
	StatusCompleted    AgentStatus = "completed"
	StatusError        AgentStatus = "error"
)

// Kind tells a generation run from a refinement run.
type Kind string

const (
	KindGeneration Kind = "generation"
	KindRefinement Kind = "refinement"
)

// ProjectConfig is what the user asked for.
type ProjectConfig struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Type          string   `json:"type,omitempty"`       // fullstack | frontend | api
	Framework     string   `json:"framework,omitempty"`  // react | vue | next | nuxt | svelte
	Database      string   `json:"database,omitempty"`   // postgresql | mongodb | mysql | sqlite | supabase
	Features      []string `json:"features,omitempty"`   // filled in from insights
	Complexity    string   `json:"complexity,omitempty"` // simple | intermediate | advanced | enterprise
	Deployment    string   `json:"deployment,omitempty"` // vercel | netlify | railway | aws | docker
	AIPersonality string   `json:"aiPersonality,omitempty"`
}

// Artifact is a generated file or UI variant. It is created once per
// pipeline step and only ever replaced wholesale (refinement).
type Artifact struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Content       string    `json:"content"`
	AgentID       string    `json:"agentId"`
	AgentName     string    `json:"agent"`
	Timestamp     time.Time `json:"timestamp"`
	Size          int       `json:"size"`
	Planning      string    `json:"planning,omitempty"`
	Reflection    string    `json:"reflection,omitempty"`
	Collaborators []string  `json:"collaborators,omitempty"`
}

// NewArtifact fills in the derived fields.
func NewArtifact(id, name, content, agentID, agentName string) *Artifact {
	return &Artifact{
		ID:        id,
		Name:      name,
		Content:   content,
		AgentID:   agentID,
		AgentName: agentName,
		Timestamp: time.Now(),
		Size:      len(content),
	}
}

// WithContent returns a copy carrying new content, keeping the identity.
func (a *Artifact) WithContent(content string) *Artifact {
	c := *a
	c.Content = content
	c.Size = len(content)
	c.Timestamp = time.Now()
	c.Collaborators = append([]string(nil), a.Collaborators...)
	return &c
}

type LogKind string

const (
	LogInfo     LogKind = "info"
	LogWorking  LogKind = "working"
	LogThinking LogKind = "thinking"
	LogPlanning LogKind = "planning"
	LogSuccess  LogKind = "success"
	LogError    LogKind = "error"
	LogSystem   LogKind = "system"
)

// LogEntry is one line of the run's chat-style log.
type LogEntry struct {
	ID        int       `json:"id"`
	AgentID   string    `json:"agentId"`
	AgentName string    `json:"agent"`
	Message   string    `json:"message"`
	Kind      LogKind   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationKind string

const (
	ConversationThought    ConversationKind = "thought"
	ConversationPlanning   ConversationKind = "planning"
	ConversationReflection ConversationKind = "reflection"
	ConversationError      ConversationKind = "error"
)

// ConversationEntry is one thought of one agent.
type ConversationEntry struct {
	ID        int              `json:"id"`
	Message   string           `json:"message"`
	Kind      ConversationKind `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
}

// Collaboration is an edge of the collaboration graph.
type Collaboration struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Type      string    `json:"type"` // created | reviewed | consulted
	Timestamp time.Time `json:"timestamp"`
}

// Insights is the structured requirements analysis of a description.
type Insights struct {
	Features             []string `json:"features"`
	Complexity           string   `json:"complexity"`
	SuggestedTech        []string `json:"suggestedTech"`
	UserTypes            []string `json:"userTypes"`
	BusinessGoals        []string `json:"businessGoals"`
	Risks                []string `json:"risks"`
	Opportunities        []string `json:"opportunities"`
	Timeline             string   `json:"timeline"`
	ScalabilityNeeds     string   `json:"scalabilityNeeds"`
	SecurityRequirements string   `json:"securityRequirements"`
}

func (i *Insights) Validate() error {
	if len(i.Features) == 0 {
		return fmt.Errorf("insights: features is empty")
	}
	if strings.TrimSpace(i.Complexity) == "" {
		return fmt.Errorf("insights: complexity is empty")
	}
	return nil
}

type ProjectInsight struct {
	Type        string `json:"type"` // opportunity | risk | innovation
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // high | medium | low
	Impact      string `json:"impact"`
}

// ProjectInsights is the strategy reply: a non-empty list of titled insights.
type ProjectInsights []ProjectInsight

func (ps ProjectInsights) Validate() error {
	if len(ps) == 0 {
		return fmt.Errorf("project insights: empty list")
	}
	for i, p := range ps {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("project insights: item %d has no title", i)
		}
	}
	return nil
}

// Analysis is the final codebase review. Raw keeps the full reply since the
// model is free to add fields.
type Analysis struct {
	QualityScore         float64 `json:"qualityScore,omitempty"`
	ArchitectureStrength string  `json:"architectureStrength,omitempty"`
	SecurityScore        string  `json:"securityScore,omitempty"`
	Maintainability      string  `json:"maintainability,omitempty"`
	Raw                  string  `json:"raw,omitempty"`
}
