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

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/nexusgen/llm/log"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/invopop/jsonschema"
)

// ErrGenerationFailed is matched by every error the gateway returns, so
// callers only need to branch on success or failure.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationError is a failed model call: transport, provider or an empty
// reply.
type GenerationError struct {
	Persona string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s: %s", e.Persona, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

const (
	defaultTemperature float32 = 0.7
	defaultTopP        float32 = 0.95
)

// Gateway adapts a persona, an instruction and a context blob into exactly one
// chat model request. It does not retry, back off or impose its own timeout.
type Gateway struct {
	def         model.BaseChatModel
	models      map[string]model.BaseChatModel
	temperature float32
	topP        float32
}

type GatewayOption func(*Gateway)

// WithModel registers a model alias a persona may select via Persona.Model.
func WithModel(alias string, m model.BaseChatModel) GatewayOption {
	return func(g *Gateway) { g.models[alias] = m }
}

func WithSampling(temperature, topP float32) GatewayOption {
	return func(g *Gateway) {
		g.temperature = temperature
		g.topP = topP
	}
}

func NewGateway(def model.BaseChatModel, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		def:         def,
		models:      make(map[string]model.BaseChatModel),
		temperature: defaultTemperature,
		topP:        defaultTopP,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

var _ Generator = (*Gateway)(nil)

type callOptions struct {
	json   bool
	schema *jsonschema.Schema
}

type CallOption func(*callOptions)

// WithJSON asks for a JSON reply. A non-nil schema is embedded in the
// request so the model knows the exact shape expected.
func WithJSON(s *jsonschema.Schema) CallOption {
	return func(o *callOptions) {
		o.json = true
		o.schema = s
	}
}

// BuildPrompt is the user message sent for one call.
func BuildPrompt(instruction, projectContext string) string {
	return instruction + "\n\n## Project Context:\n" + projectContext
}

func jsonDirective(s *jsonschema.Schema) string {
	var sb strings.Builder
	sb.WriteString("\n\n## Output Format:\nRespond with a single valid JSON document and nothing else. Do not wrap it in markdown.")
	if s != nil {
		if js, err := sonic.Marshal(s); err == nil {
			sb.WriteString(" It MUST validate against this JSON schema:\n")
			sb.Write(js)
		}
	}
	return sb.String()
}

func (g *Gateway) modelFor(p persona.Persona) model.BaseChatModel {
	if p.Model != "" {
		if m, ok := g.models[p.Model]; ok {
			return m
		}
		log.Warn("persona %s asks for unknown model %q, using default", p.ID, p.Model)
	}
	return g.def
}

// Generate sends one request and returns the trimmed reply text.
func (g *Gateway) Generate(ctx context.Context, p persona.Persona, instruction, projectContext string, opts ...CallOption) (string, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	name := p.Name
	if name == "" {
		name = p.ID
	}
	cm := g.modelFor(p)
	if cm == nil {
		return "", &GenerationError{Persona: name, Message: "no chat model configured"}
	}

	user := BuildPrompt(instruction, projectContext)
	if o.json {
		user += jsonDirective(o.schema)
	}
	msgs := []*schema.Message{
		schema.SystemMessage(p.SystemPrompt),
		schema.UserMessage(user),
	}
	log.Debug("[%s] request (%d chars, json=%v)", p.ID, len(user), o.json)

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      p.ID,
		Type:      "Gateway",
		Component: components.ComponentOfChatModel,
	}, CallbackHandler{})

	out, err := cm.Generate(ctx, msgs, model.WithTemperature(g.temperature), model.WithTopP(g.topP))
	if err != nil {
		log.Error("Error processing agent task for %s: %v", name, err)
		return "", &GenerationError{Persona: name, Message: err.Error(), Err: err}
	}
	if out == nil {
		return "", &GenerationError{Persona: name, Message: "received an empty response from the API"}
	}
	text := strings.TrimSpace(out.Content)
	if o.json {
		text = stripFences(text)
	}
	if text == "" {
		return "", &GenerationError{Persona: name, Message: "received an empty response from the API"}
	}
	return text, nil
}

// stripFences removes a surrounding ```json ... ``` block, which models add
// even when told not to.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
