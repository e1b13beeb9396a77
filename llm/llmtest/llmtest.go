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

// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
)

// Call is one recorded request.
type Call struct {
	PersonaID   string
	Instruction string
	Context     string
}

// Responder produces the reply for a call; returning an error fails it.
type Responder func(ctx context.Context, c Call) (string, error)

// Generator answers with the first rule whose substring appears in the
// instruction, or with Default. Every call is recorded.
type Generator struct {
	mu      sync.Mutex
	rules   []rule
	Default Responder
	calls   []Call
}

type rule struct {
	contains string
	respond  Responder
}

var _ llm.Generator = (*Generator)(nil)

func New() *Generator {
	return &Generator{
		Default: Reply("ok"),
	}
}

// On registers a responder for instructions containing substr.
func (g *Generator) On(substr string, r Responder) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, rule{contains: substr, respond: r})
	return g
}

func (g *Generator) Generate(ctx context.Context, p persona.Persona, instruction, projectContext string, opts ...llm.CallOption) (string, error) {
	c := Call{PersonaID: p.ID, Instruction: instruction, Context: projectContext}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	respond := g.Default
	for _, r := range g.rules {
		if strings.Contains(instruction, r.contains) {
			respond = r.respond
			break
		}
	}
	g.mu.Unlock()
	return respond(ctx, c)
}

// Calls returns a copy of the recorded calls.
func (g *Generator) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

func Reply(s string) Responder {
	return func(context.Context, Call) (string, error) { return s, nil }
}

func Fail(err error) Responder {
	return func(context.Context, Call) (string, error) {
		return "", &llm.GenerationError{Persona: "test", Message: err.Error(), Err: err}
	}
}

// Block waits until ctx is done or release is closed, then replies s.
func Block(release <-chan struct{}, s string) Responder {
	return func(ctx context.Context, _ Call) (string, error) {
		select {
		case <-ctx.Done():
			return "", &llm.GenerationError{Persona: "test", Message: ctx.Err().Error(), Err: ctx.Err()}
		case <-release:
			return s, nil
		}
	}
}
