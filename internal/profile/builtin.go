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

package profile

import (
	"github.com/cloudwego/nexusgen/internal/pipeline/steps"
	"github.com/cloudwego/nexusgen/internal/sequencer"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/persona"
)

func step(agent string, status workflow.AgentStatus) sequencer.Step {
	return sequencer.Step{AgentID: agent, Status: status}
}

func nexus() (*Profile, error) {
	r, err := persona.LoadRoster("nexus")
	if err != nil {
		return nil, err
	}
	return &Profile{
		Name:   "nexus",
		Title:  r.Title,
		Roster: r,
		Shape:  ShapeFixed,
		Files: []PlannedFile{
			{"ARCHITECTURE.md", "nexus_architect", "Create comprehensive architecture documentation.", []string{"sage_database"}},
			{"prisma/schema.prisma", "sage_database", "Design optimal database schema based on architectural decisions.", []string{"nexus_architect"}},
			{"server/index.ts", "atlas_backend", "Create main server with all configurations and middleware.", []string{"nexus_architect", "sage_database"}},
			{"src/App.tsx", "luna_frontend", "Create beautiful, responsive main application component.", []string{"atlas_backend"}},
			{"tests/e2e/user-flows.spec.ts", "sentinel_qa", "Build end-to-end user journey tests.", []string{"luna_frontend"}},
			{"docker-compose.yml", "phoenix_devops", "Create production-ready containerization setup.", []string{"nexus_architect"}},
			{"README.md", "oracle_ai", "Create compelling documentation that makes developers excited to use this project.", nil},
		},
		Generation: sequencer.Script{
			step("nexus_architect", workflow.StatusInitializing),
			step("oracle_ai", workflow.StatusAnalyzing),
			step("nexus_architect", workflow.StatusThinking),
			step("sage_database", workflow.StatusWorking),
			step("atlas_backend", workflow.StatusWorking),
			step("luna_frontend", workflow.StatusCreating),
			step("sentinel_qa", workflow.StatusValidating),
			step("phoenix_devops", workflow.StatusOptimizing),
			step("oracle_ai", workflow.StatusAnalyzing),
		},
		Refinement: sequencer.Script{
			step("oracle_ai", workflow.StatusAnalyzing),
			step("luna_frontend", workflow.StatusWorking),
			step("sentinel_qa", workflow.StatusValidating),
		},
	}, nil
}

func saturn() (*Profile, error) {
	r, err := persona.LoadRoster("saturn")
	if err != nil {
		return nil, err
	}
	return &Profile{
		Name:     "saturn",
		Title:    r.Title,
		Roster:   r,
		Shape:    ShapeBlueprint,
		Selector: persona.DefaultSelector(),
		MaxFiles: steps.DefaultMaxFiles,
		Generation: sequencer.Script{
			step("hyperion_analyst", workflow.StatusAnalyzing),
			step("titan_architect", workflow.StatusThinking),
			step("iapetus_data", workflow.StatusWorking),
			step("enceladus_api", workflow.StatusWorking),
			step("rhea_ui", workflow.StatusCreating),
			step("mimas_qa", workflow.StatusValidating),
			step("dione_ops", workflow.StatusOptimizing),
			step("hyperion_analyst", workflow.StatusAnalyzing),
		},
		Refinement: sequencer.Script{
			step("titan_architect", workflow.StatusThinking),
			step("rhea_ui", workflow.StatusWorking),
			step("mimas_qa", workflow.StatusValidating),
		},
	}, nil
}

func studio() (*Profile, error) {
	r, err := persona.LoadRoster("studio")
	if err != nil {
		return nil, err
	}
	return &Profile{
		Name:     "studio",
		Title:    r.Title,
		Roster:   r,
		Shape:    ShapeVariants,
		Variants: steps.DefaultVariants,
		Generation: sequencer.Script{
			step("orchestrator", workflow.StatusInitializing),
			step("analyst", workflow.StatusAnalyzing),
			step("architect", workflow.StatusThinking),
			step("designer", workflow.StatusCreating),
			step("engineer", workflow.StatusWorking),
			step("validator", workflow.StatusValidating),
			step("optimizer", workflow.StatusOptimizing),
		},
		Refinement: sequencer.Script{
			step("orchestrator", workflow.StatusInitializing),
			step("engineer", workflow.StatusWorking),
			step("validator", workflow.StatusValidating),
		},
	}, nil
}
