/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package persona holds the static agent rosters. A persona is a named
// system prompt plus display metadata; rosters are loaded once and never
// change for the lifetime of the process.
package persona

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rosters/*.yaml
var rosterFS embed.FS

var ErrUnknownPersona = errors.New("unknown persona")

// Role is the kind of work a persona does; selection rules target roles,
// rosters resolve them to concrete personas.
type Role string

const (
	RoleArchitect    Role = "architect"
	RoleDatabase     Role = "database"
	RoleBackend      Role = "backend"
	RoleFrontend     Role = "frontend"
	RoleQA           Role = "qa"
	RoleDevOps       Role = "devops"
	RoleAnalyst      Role = "analyst"
	RoleOrchestrator Role = "orchestrator"
	RoleDesigner     Role = "designer"
)

type Persona struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Role         Role     `yaml:"role" json:"role"`
	Personality  string   `yaml:"personality" json:"personality,omitempty"`
	Color        string   `yaml:"color" json:"color,omitempty"`
	Icon         string   `yaml:"icon" json:"icon,omitempty"`
	Model        string   `yaml:"model" json:"model,omitempty"` // alias of a configured model; empty means default
	Specialties  []string `yaml:"specialties" json:"specialties,omitempty"`
	SystemPrompt string   `yaml:"system_prompt" json:"-"`
}

// Roster is an ordered, immutable set of personas.
type Roster struct {
	Name     string    `yaml:"name"`
	Title    string    `yaml:"title"`
	Personas []Persona `yaml:"personas"`

	byID map[string]int
}

// ParseRoster decodes a YAML roster and checks it for duplicate or empty ids.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(r.Personas) == 0 {
		return nil, fmt.Errorf("roster %q has no personas", r.Name)
	}
	r.byID = make(map[string]int, len(r.Personas))
	for i, p := range r.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("roster %q: persona #%d has no id", r.Name, i)
		}
		if strings.TrimSpace(p.SystemPrompt) == "" {
			return nil, fmt.Errorf("roster %q: persona %s has no system prompt", r.Name, p.ID)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("roster %q: duplicate persona id %s", r.Name, p.ID)
		}
		r.Personas[i].SystemPrompt = strings.TrimSpace(p.SystemPrompt)
		r.byID[p.ID] = i
	}
	return &r, nil
}

// LoadRoster loads one of the embedded rosters by name.
func LoadRoster(name string) (*Roster, error) {
	data, err := rosterFS.ReadFile(path.Join("rosters", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("roster %q not found: %w", name, err)
	}
	return ParseRoster(data)
}

// RosterNames lists the embedded rosters.
func RosterNames() []string {
	entries, _ := rosterFS.ReadDir("rosters")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func (r *Roster) Get(id string) (Persona, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Persona{}, false
	}
	return r.Personas[i], true
}

// Lookup is Get with an error for callers that cannot continue without it.
func (r *Roster) Lookup(id string) (Persona, error) {
	p, ok := r.Get(id)
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s in roster %s", ErrUnknownPersona, id, r.Name)
	}
	return p, nil
}

func (r *Roster) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// ByRole returns the first persona with the given role.
func (r *Roster) ByRole(role Role) (Persona, bool) {
	for _, p := range r.Personas {
		if p.Role == role {
			return p, true
		}
	}
	return Persona{}, false
}

// IDs returns persona ids in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.Personas))
	for i, p := range r.Personas {
		ids[i] = p.ID
	}
	return ids
}

func (r *Roster) Len() int {
	return len(r.Personas)
}
