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

// Package export turns a finished run into one JSON document and back.
package export

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/version"
)

type Metadata struct {
	Name        string    `json:"name"`
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
	Generator   string    `json:"generator"`
	Profile     string    `json:"profile"`
	Style       string    `json:"styleDna,omitempty"`
}

// Document is the downloadable form of a run.
type Document struct {
	Metadata           Metadata                                `json:"metadata"`
	Configuration      workflow.ProjectConfig                  `json:"configuration"`
	NLPInsights        *workflow.Insights                      `json:"nlpInsights"`
	ProjectInsights    []workflow.ProjectInsight               `json:"projectInsights"`
	Files              []*workflow.Artifact                    `json:"files"`
	AgentConversations map[string][]workflow.ConversationEntry `json:"agentConversations"`
	CollaborationGraph []workflow.Collaboration                `json:"collaborationGraph"`
	CodebaseAnalysis   *workflow.Analysis                      `json:"codebaseAnalysis"`
	Logs               []workflow.LogEntry                     `json:"logs,omitempty"`
}

// Build snapshots s. The document shares nothing mutable with s.
func Build(profile, generator string, s workflow.State) *Document {
	d := &Document{
		Metadata: Metadata{
			Name:        s.Project.Name,
			GeneratedAt: time.Now().UTC(),
			Version:     version.Version,
			Generator:   generator,
			Profile:     profile,
			Style:       s.ActiveStyle,
		},
		Configuration:      s.Project,
		ProjectInsights:    append([]workflow.ProjectInsight(nil), s.ProjectInsights...),
		CollaborationGraph: append([]workflow.Collaboration(nil), s.Collaborations...),
		Logs:               append([]workflow.LogEntry(nil), s.Logs...),
		AgentConversations: make(map[string][]workflow.ConversationEntry, len(s.Conversations)),
	}
	d.Configuration.Features = append([]string(nil), s.Project.Features...)
	if s.Insights != nil {
		in := *s.Insights
		d.NLPInsights = &in
	}
	if s.Analysis != nil {
		an := *s.Analysis
		d.CodebaseAnalysis = &an
	}
	d.Files = make([]*workflow.Artifact, len(s.Artifacts))
	for i, a := range s.Artifacts {
		c := *a
		d.Files[i] = &c
	}
	for k, v := range s.Conversations {
		d.AgentConversations[k] = append([]workflow.ConversationEntry(nil), v...)
	}
	return d
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName is "<project>-<profile>-ecosystem.json" with the project name
// reduced to a lowercase slug.
func FileName(project, profile string) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(project), "-"), "-")
	if slug == "" {
		slug = "project"
	}
	return slug + "-" + profile + "-ecosystem.json"
}

func Marshal(d *Document) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal export document")
	}
	return data, nil
}

func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := sonic.ConfigStd.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "parse export document")
	}
	return &d, nil
}

// Write stores d under dir and returns the path written.
func Write(dir string, d *Document) (string, error) {
	data, err := Marshal(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, FileName(d.Metadata.Name, d.Metadata.Profile))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Unmarshal(data)
}
