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

package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// Task prompt names, one per template under templates/.
const (
	Insights     = "insights"
	Architecture = "architecture"
	Strategy     = "strategy"
	FilePlan     = "file_plan"
	FileGenerate = "file_generate"
	FileReflect  = "file_reflect"
	Blueprint    = "blueprint"
	Analysis     = "analysis"
	Variants     = "variants"
	Refine       = "refine"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/*.tmpl"))

// Render executes the named task template with data.
func Render(name string, data any) (string, error) {
	t := templates.Lookup(name + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
