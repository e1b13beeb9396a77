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

// Package style holds the style DNA presets used to bias UI variant
// generation.
package style

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

var ErrUnknownStyle = errors.New("unknown style")

// Preset is a named bundle of visual keywords.
type Preset struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Gradient    string   `yaml:"gradient" json:"gradient"`
}

var catalog = mustParse(presetsYAML)

func mustParse(data []byte) []Preset {
	var ps []Preset
	if err := yaml.Unmarshal(data, &ps); err != nil {
		panic(fmt.Sprintf("style presets: %v", err))
	}
	return ps
}

// Catalog returns every preset in display order.
func Catalog() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// Default is the first preset of the catalog.
func Default() Preset {
	return catalog[0]
}

// Lookup finds a preset by id, case-insensitively.
func Lookup(id string) (Preset, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownStyle, id)
}

// IDs lists the preset ids in display order.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	return ids
}
