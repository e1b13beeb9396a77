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

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cloudwego/nexusgen/internal/pipeline"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/persona"
)

// WriteStep writes every artifact under Dir, using the artifact name as the
// relative path. Failures are not recoverable; the Agent should not
// intervene on write.
type WriteStep struct {
	Dir string
}

func (s *WriteStep) Name() string { return "write-files" }

func (s *WriteStep) Run(ctx context.Context, st *pipeline.PipelineState) (*pipeline.StepResult, error) {
	if s.Dir == "" {
		return pipeline.Failed(fmt.Errorf("output dir is empty"), false)
	}
	for _, a := range st.Artifacts {
		if err := ctx.Err(); err != nil {
			return pipeline.Failed(err, false)
		}
		if err := WriteArtifact(s.Dir, a); err != nil {
			return pipeline.Failed(err, false)
		}
	}
	st.Log(persona.Persona{}, workflow.LogSystem, "Wrote %d files to %s", len(st.Artifacts), s.Dir)
	return pipeline.OK(nil), nil
}

// WriteArtifact writes one artifact below dir. Names that would escape dir
// are rejected.
func WriteArtifact(dir string, a *workflow.Artifact) error {
	rel := filepath.FromSlash(a.Name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("artifact name %q is not a local path", a.Name)
	}
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", a.Name)
	}
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", a.Name)
	}
	return nil
}
