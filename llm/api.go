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
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/nexusgen/llm/persona"
)

type ModelConfig struct {
	Name        string    `json:"name" mapstructure:"name"` // alias of the config, not endpoint!
	APIType     ModelType `json:"type" mapstructure:"type"`
	BaseURL     string    `json:"base_url" mapstructure:"base_url"`
	APIKey      string    `json:"-" mapstructure:"api_key"`
	ModelName   string    `json:"model_name" mapstructure:"model_name"` // the endpoint of the model, like `claude-opus-4-20250514`
	Temperature *float32  `json:"temperature" mapstructure:"temperature"`
	TopP        *float32  `json:"top_p" mapstructure:"top_p"`
	MaxTokens   int       `json:"max_tokens" mapstructure:"max_tokens"`
	// HTTP request timeout, default: 600s. The gateway itself never retries.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

type ModelType string

func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "ollama":
		return ModelTypeOllama
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "dashscope", "qwen", "tongyi":
		return ModelTypeDashScope
	case "deepseek":
		return ModelTypeDeepSeek
	}
	return ModelTypeUnknown
}

const (
	ModelTypeUnknown   ModelType = ""
	ModelTypeOllama    ModelType = "ollama"
	ModelTypeARK       ModelType = "ark"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeClaude    ModelType = "claude"
	ModelTypeDashScope ModelType = "dashscope"
	ModelTypeDeepSeek  ModelType = "deepseek"
)

// NeedsAPIKey reports whether the provider requires a credential.
func (t ModelType) NeedsAPIKey() bool {
	return t != ModelTypeOllama
}

// ChatModel is the interface for making LLM backend.
type ChatModel interface {
	model.ToolCallingChatModel
}

// Generator turns one persona + instruction + context into one model reply.
// Gateway is the production implementation; tests script their own.
type Generator interface {
	Generate(ctx context.Context, p persona.Persona, instruction, projectContext string, opts ...CallOption) (string, error)
}
