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

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
)

// Snapshot kinds, one per step output.
const (
	KindInsights        = "insights"
	KindArchitecture    = "architecture"
	KindProjectInsights = "project-insights"
	KindBlueprint       = "blueprint"
	KindArtifact        = "artifact"        // *workflow.Artifact, appended
	KindArtifacts       = "artifacts"       // []*workflow.Artifact, replaces all
	KindArtifactUpdate  = "artifact-update" // *workflow.Artifact, replaces by id
	KindAnalysis        = "analysis"
)

// Snapshot is an immutable snapshot of one model output after parsing.
type Snapshot struct {
	Kind    string
	Hash    string // hex-encoded sha256 of the raw reply
	Payload any
}

// NewSnapshot creates a snapshot from a payload and the raw text it was
// parsed from. raw is used only to compute the hash.
func NewSnapshot(kind string, payload any, raw []byte) *Snapshot {
	h := sha256.Sum256(raw)
	return &Snapshot{
		Kind:    kind,
		Hash:    hex.EncodeToString(h[:]),
		Payload: payload,
	}
}
