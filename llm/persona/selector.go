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

package persona

import (
	"fmt"
	"path"
	"strings"

	"github.com/Knetic/govaluate"
)

// Rule maps a target file name to a role. Expr is a govaluate expression
// evaluated over the parameters name, base, ext and dir (all lower-cased,
// slash-separated) with the helper functions contains, hasPrefix,
// hasSuffix and oneOf.
type Rule struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
	Role Role   `yaml:"role" json:"role"`
}

const codeExts = `'.ts', '.tsx', '.js', '.jsx', '.mjs', '.cjs'`

// DefaultRules is the first-match-wins rule table used by the blueprint
// pipeline. Order matters: a test file under components/ belongs to the
// frontend persona, not QA.
var DefaultRules = []Rule{
	{
		Name: "ui-components",
		Expr: `oneOf(ext, '.tsx', '.jsx', '.vue', '.svelte') && (contains(name, 'components/') || contains(name, 'pages/') || contains(name, 'views/'))`,
		Role: RoleFrontend,
	},
	{
		Name: "migrations",
		Expr: `contains(name, 'migrations/') || contains(name, 'migration/')`,
		Role: RoleDatabase,
	},
	{
		Name: "markup-style",
		Expr: `oneOf(ext, '.html', '.htm', '.css', '.scss', '.sass', '.less')`,
		Role: RoleFrontend,
	},
	{
		Name: "code-test",
		Expr: `oneOf(ext, ` + codeExts + `) && (contains(name, 'test') || contains(name, 'spec'))`,
		Role: RoleQA,
	},
	{
		Name: "code-server",
		Expr: `oneOf(ext, ` + codeExts + `) && (contains(name, 'server') || contains(name, 'api') || contains(name, 'backend'))`,
		Role: RoleBackend,
	},
	{
		Name: "code",
		Expr: `oneOf(ext, ` + codeExts + `)`,
		Role: RoleFrontend,
	},
	{
		Name: "backend-lang",
		Expr: `oneOf(ext, '.py', '.go', '.java', '.rb', '.rs', '.php', '.cs', '.kt')`,
		Role: RoleBackend,
	},
	{
		Name: "schema",
		Expr: `oneOf(ext, '.sql', '.prisma', '.graphql', '.gql')`,
		Role: RoleDatabase,
	},
	{
		Name: "deployment",
		Expr: `hasPrefix(base, 'dockerfile') || contains(base, 'docker-compose') || contains(name, '.github/workflows/') || contains(name, 'k8s/') || ext == '.tf' || base == 'procfile' || base == 'vercel.json' || base == 'netlify.toml'`,
		Role: RoleDevOps,
	},
}

var ruleFuncs = map[string]govaluate.ExpressionFunction{
	"contains": func(args ...interface{}) (interface{}, error) {
		s, sub, err := twoStrings("contains", args)
		if err != nil {
			return nil, err
		}
		return strings.Contains(s, sub), nil
	},
	"hasPrefix": func(args ...interface{}) (interface{}, error) {
		s, p, err := twoStrings("hasPrefix", args)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(s, p), nil
	},
	"hasSuffix": func(args ...interface{}) (interface{}, error) {
		s, p, err := twoStrings("hasSuffix", args)
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(s, p), nil
	},
	"oneOf": func(args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("oneOf expects at least 2 arguments, got %d", len(args))
		}
		for _, a := range args[1:] {
			if a == args[0] {
				return true, nil
			}
		}
		return false, nil
	},
}

func twoStrings(fn string, args []interface{}) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("%s expects 2 arguments, got %d", fn, len(args))
	}
	a, ok1 := args[0].(string)
	b, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("%s expects string arguments", fn)
	}
	return a, b, nil
}

type compiledRule struct {
	Rule
	expr *govaluate.EvaluableExpression
}

// Selector picks a role for a target file name by evaluating its rules in
// order; the first rule that evaluates to true wins.
type Selector struct {
	rules    []compiledRule
	fallback Role
}

// NewSelector compiles rules. The fallback role is used when nothing matches.
func NewSelector(rules []Rule, fallback Role) (*Selector, error) {
	s := &Selector{fallback: fallback}
	for _, r := range rules {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(r.Expr, ruleFuncs)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		s.rules = append(s.rules, compiledRule{Rule: r, expr: expr})
	}
	return s, nil
}

// DefaultSelector compiles DefaultRules with the architect as fallback.
func DefaultSelector() *Selector {
	s, err := NewSelector(DefaultRules, RoleArchitect)
	if err != nil {
		panic(err)
	}
	return s
}

func ruleParams(target string) map[string]interface{} {
	name := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(target, "\\", "/")))
	base := path.Base(name)
	return map[string]interface{}{
		"name": name,
		"base": base,
		"ext":  path.Ext(base),
		"dir":  path.Dir(name),
	}
}

// Select returns the matched role and the name of the rule that matched
// ("" for the fallback).
func (s *Selector) Select(target string) (Role, string, error) {
	params := ruleParams(target)
	for _, r := range s.rules {
		v, err := r.expr.Evaluate(params)
		if err != nil {
			return "", "", fmt.Errorf("rule %s on %q: %w", r.Name, target, err)
		}
		if ok, _ := v.(bool); ok {
			return r.Role, r.Name, nil
		}
	}
	return s.fallback, "", nil
}

// Assign resolves the persona responsible for target within roster. A role
// the roster lacks falls back to the architect, then to the first persona.
func (s *Selector) Assign(r *Roster, target string) (Persona, error) {
	role, _, err := s.Select(target)
	if err != nil {
		return Persona{}, err
	}
	if p, ok := r.ByRole(role); ok {
		return p, nil
	}
	if p, ok := r.ByRole(RoleArchitect); ok {
		return p, nil
	}
	return r.Personas[0], nil
}
