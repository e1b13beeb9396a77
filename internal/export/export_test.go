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

package export

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cloudwego/nexusgen/internal/workflow"
)

func sampleState() workflow.State {
	s := workflow.NewState([]string{"nexus_architect", "luna_frontend"})
	s.Project = workflow.ProjectConfig{
		Name:        "Task Tracker",
		Description: "Kanban boards for small teams",
		Framework:   "react",
		Features:    []string{"boards", "auth"},
		Complexity:  "intermediate",
	}
	s.ActiveStyle = "minimal"
	s.Artifacts = []*workflow.Artifact{
		workflow.NewArtifact("a1", "README.md", "# Task Tracker\n", "nexus_architect", "Nexus"),
		workflow.NewArtifact("a2", "src/App.tsx", "export default () => <div/>;\n", "luna_frontend", "Luna"),
	}
	s.Conversations = map[string][]workflow.ConversationEntry{
		"luna_frontend": {{ID: 1, Message: "plan", Kind: workflow.ConversationPlanning}},
	}
	s.Collaborations = []workflow.Collaboration{{From: "luna_frontend", To: "src/App.tsx", Type: "created"}}
	s.Insights = &workflow.Insights{Features: []string{"boards"}, Complexity: "intermediate"}
	s.Analysis = &workflow.Analysis{QualityScore: 8.5, Raw: `{"qualityScore":8.5}`}
	return s
}

func TestBuild(t *testing.T) {
	s := sampleState()
	d := Build("nexus", "Nexus CodeGen", s)

	assert.Equal(t, "Task Tracker", d.Metadata.Name)
	assert.Equal(t, "nexus", d.Metadata.Profile)
	assert.Equal(t, "minimal", d.Metadata.Style)
	assert.Len(t, d.Files, 2)
	assert.Equal(t, 8.5, d.CodebaseAnalysis.QualityScore)

	// the document is detached from the state
	d.Files[0].Content = "changed"
	d.Configuration.Features[0] = "changed"
	assert.Equal(t, "# Task Tracker\n", s.Artifacts[0].Content)
	assert.Equal(t, "boards", s.Project.Features[0])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "task-tracker-nexus-ecosystem.json", FileName("Task Tracker", "nexus"))
	assert.Equal(t, "a-b-saturn-ecosystem.json", FileName("  A/../b!! ", "saturn"))
	assert.Equal(t, "project-studio-ecosystem.json", FileName("", "studio"))
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	d := Build("nexus", "Nexus CodeGen", sampleState())
	path, err := Write(dir, d)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "task-tracker-nexus-ecosystem.json"), path)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, d.Configuration, got.Configuration)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "src/App.tsx", got.Files[1].Name)
	assert.Equal(t, d.Files[1].Content, got.Files[1].Content)
	assert.Equal(t, "planning", string(got.AgentConversations["luna_frontend"][0].Kind))
	assert.Equal(t, d.NLPInsights, got.NLPInsights)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.Error(t, err)
	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

var text = rapid.StringMatching(`[a-zA-Z0-9 ./_<>&"{}\n-]{0,40}`)

func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := workflow.NewState([]string{"a"})
		s.Project = workflow.ProjectConfig{
			Name:          text.Draw(t, "name"),
			Description:   text.Draw(t, "description"),
			Type:          rapid.SampledFrom([]string{"", "fullstack", "frontend", "api"}).Draw(t, "type"),
			Framework:     text.Draw(t, "framework"),
			Database:      text.Draw(t, "database"),
			Features:      rapid.SliceOfN(text, 1, 5).Draw(t, "features"),
			Complexity:    text.Draw(t, "complexity"),
			Deployment:    text.Draw(t, "deployment"),
			AIPersonality: text.Draw(t, "personality"),
		}
		n := rapid.IntRange(0, 8).Draw(t, "files")
		for i := 0; i < n; i++ {
			s.Artifacts = append(s.Artifacts, workflow.NewArtifact(
				fmt.Sprintf("id-%d", i),
				text.Draw(t, "file"),
				text.Draw(t, "content"),
				"a", "A"))
		}

		data, err := Marshal(Build("nexus", "g", s))
		if err != nil {
			t.Fatal(err)
		}
		got, err := Unmarshal(data)
		if err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, s.Project, got.Configuration)
		if len(got.Files) != n {
			t.Fatalf("files: got %d want %d", len(got.Files), n)
		}
		for i, a := range s.Artifacts {
			if got.Files[i].Name != a.Name || got.Files[i].Content != a.Content {
				t.Fatalf("file %d: got %q/%q want %q/%q", i, got.Files[i].Name, got.Files[i].Content, a.Name, a.Content)
			}
		}
	})
}
