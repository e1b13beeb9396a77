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

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudwego/nexusgen/internal/profile"
	"github.com/cloudwego/nexusgen/internal/studio"
	"github.com/cloudwego/nexusgen/internal/style"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/log"
	"github.com/cloudwego/nexusgen/llm/persona"
)

const (
	ToolListPersonas    = "list_personas"
	ToolSelectPersona   = "select_persona"
	ToolListStyles      = "list_styles"
	ToolGenerateProject = "generate_project"
)

var ErrNoModel = errors.New("no model configured")

type Tool struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// NewTool adapts a typed handler. The result is returned as JSON text; a
// handler error becomes an error result rather than a protocol error.
func NewTool[R any, T any](name string, desc string, handler func(ctx context.Context, req R) (*T, error)) Tool {
	return Tool{
		Tool: mcp.NewToolWithRawSchema(name, desc, schemaOf[R]()),
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var req R
			if err := request.BindArguments(&req); err != nil {
				return nil, err
			}
			var final string
			var isError bool
			if resp, err := handler(ctx, req); err != nil {
				isError = true
				final = err.Error()
			} else if js, err := sonic.ConfigStd.MarshalToString(resp); err != nil {
				isError = true
				final = err.Error()
			} else {
				final = js
			}
			if isError {
				log.Warn("mcp tool %s failed: %s", name, final)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(final),
				},
				IsError: isError,
			}, nil
		},
	}
}

func schemaOf[R any]() json.RawMessage {
	data, err := sonic.ConfigStd.Marshal(llm.SchemaFor[R]())
	if err != nil {
		panic(err)
	}
	return data
}

type ListPersonasReq struct {
	Profile string `json:"profile,omitempty" jsonschema_description:"built-in profile: nexus, saturn or studio (default nexus)"`
}

type PersonaInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties,omitempty"`
}

type ListPersonasResp struct {
	Profile  string        `json:"profile"`
	Title    string        `json:"title"`
	Personas []PersonaInfo `json:"personas"`
}

type SelectPersonaReq struct {
	Profile string `json:"profile,omitempty" jsonschema_description:"built-in profile (default nexus)"`
	File    string `json:"file" jsonschema:"required" jsonschema_description:"relative file path to assign"`
}

type SelectPersonaResp struct {
	File        string `json:"file"`
	Role        string `json:"role"`
	PersonaID   string `json:"personaId"`
	PersonaName string `json:"personaName"`
}

type ListStylesReq struct{}

type ListStylesResp struct {
	Styles []style.Preset `json:"styles"`
}

type GenerateProjectReq struct {
	Profile     string `json:"profile,omitempty" jsonschema_description:"built-in profile (default nexus)"`
	Name        string `json:"name" jsonschema:"required" jsonschema_description:"project name"`
	Description string `json:"description" jsonschema:"required" jsonschema_description:"what to build in plain language"`
	Type        string `json:"type,omitempty" jsonschema_description:"fullstack, frontend or api"`
	Framework   string `json:"framework,omitempty"`
	Database    string `json:"database,omitempty"`
	Style       string `json:"style,omitempty" jsonschema_description:"Style DNA preset id"`
}

type GeneratedFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Agent   string `json:"agent"`
	Size    int    `json:"size"`
	Preview string `json:"preview,omitempty"`
}

type GenerateProjectResp struct {
	Phase      string             `json:"phase"`
	Files      []GeneratedFile    `json:"files"`
	Analysis   *workflow.Analysis `json:"analysis,omitempty"`
	ExportPath string             `json:"exportPath,omitempty"`
}

func (s *Server) tools() []Tool {
	tools := []Tool{
		NewTool(ToolListPersonas, "List the personas of a built-in profile.", listPersonas),
		NewTool(ToolSelectPersona, "Pick the persona that would write a file.", selectPersona),
		NewTool(ToolListStyles, "List the Style DNA presets.", listStyles),
	}
	if s.opts.Generator != nil {
		tools = append(tools, NewTool(ToolGenerateProject, "Run a full generation and return the produced files.", s.generateProject))
	}
	return tools
}

func lookupProfile(name string) (*profile.Profile, error) {
	if strings.TrimSpace(name) == "" {
		name = "nexus"
	}
	return profile.Lookup(name)
}

func listPersonas(_ context.Context, req ListPersonasReq) (*ListPersonasResp, error) {
	p, err := lookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	resp := &ListPersonasResp{Profile: p.Name, Title: p.Title}
	for _, x := range p.Roster.Personas {
		resp.Personas = append(resp.Personas, PersonaInfo{ID: x.ID, Name: x.Name, Role: string(x.Role), Specialties: x.Specialties})
	}
	return resp, nil
}

func selectPersona(_ context.Context, req SelectPersonaReq) (*SelectPersonaResp, error) {
	p, err := lookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	sel := p.Selector
	if sel == nil {
		sel = persona.DefaultSelector()
	}
	x, err := sel.Assign(p.Roster, req.File)
	if err != nil {
		return nil, err
	}
	return &SelectPersonaResp{File: req.File, Role: string(x.Role), PersonaID: x.ID, PersonaName: x.Name}, nil
}

func listStyles(context.Context, ListStylesReq) (*ListStylesResp, error) {
	return &ListStylesResp{Styles: style.Catalog()}, nil
}

func (s *Server) generateProject(ctx context.Context, req GenerateProjectReq) (*GenerateProjectResp, error) {
	if s.opts.Generator == nil {
		return nil, ErrNoModel
	}
	p, err := lookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	var opts []studio.Option
	if s.opts.Interval > 0 {
		opts = append(opts, studio.WithInterval(s.opts.Interval))
	}
	st := studio.New(p, s.opts.Generator, opts...)
	st.SetProject(workflow.ProjectConfig{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Framework:   req.Framework,
		Database:    req.Database,
	})
	if req.Style != "" {
		if _, err := st.SelectStyle(req.Style); err != nil {
			return nil, err
		}
	}
	if err := st.Generate(ctx); err != nil {
		return nil, err
	}

	state := st.State()
	resp := &GenerateProjectResp{Phase: string(state.Phase), Analysis: state.Analysis}
	for _, a := range state.Artifacts {
		resp.Files = append(resp.Files, GeneratedFile{ID: a.ID, Name: a.Name, Agent: a.AgentID, Size: a.Size, Preview: preview(a.Content)})
	}
	if s.opts.OutputDir != "" {
		if resp.ExportPath, err = st.Export(s.opts.OutputDir); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func preview(content string) string {
	const n = 120
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "..."
}
