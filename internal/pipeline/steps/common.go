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

// Package steps holds the concrete pipeline steps. Each step is one or a few
// gateway calls whose parsed reply becomes a snapshot.
package steps

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/llm/prompt"
)

// collaboratorDepth is how many recent thoughts of each collaborator are
// passed along as context.
const collaboratorDepth = 3

// ask renders the named prompt and sends it as p.
func ask(ctx context.Context, st *pipeline.PipelineState, p persona.Persona, name string, data any, projectContext string, opts ...llm.CallOption) (string, error) {
	if st.Gen == nil {
		return "", errors.New("pipeline has no generator")
	}
	instruction, err := prompt.Render(name, data)
	if err != nil {
		return "", err
	}
	out, err := st.Gen.Generate(ctx, p, instruction, projectContext, opts...)
	if err != nil {
		return "", errors.WithMessagef(err, "%s prompt", name)
	}
	return out, nil
}

// failed reports err as a step failure. Model failures may be retried, the
// rest may not.
func failed(err error) (*pipeline.StepResult, error) {
	return pipeline.Failed(err, errors.Is(err, llm.ErrGenerationFailed))
}

func mustJSON(v any) string {
	s, err := sonic.ConfigStd.MarshalToString(v)
	if err != nil {
		return "null"
	}
	return s
}
