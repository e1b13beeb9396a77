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
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/invopop/jsonschema"
)

// MalformedResponseError is a reply that was not the structured data asked
// for. It still counts as ErrGenerationFailed.
type MalformedResponseError struct {
	Persona string
	Raw     string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Persona, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrGenerationFailed }

// Validator is implemented by structured replies that have required fields
// beyond what json.Unmarshal can check.
type Validator interface {
	Validate() error
}

// SchemaFor reflects the JSON schema of T, inlined so it can be pasted into a
// prompt as a single document.
func SchemaFor[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	var v T
	return r.Reflect(&v)
}

// DecodeJSON parses raw into T and runs its Validate method if it has one.
func DecodeJSON[T any](personaName, raw string) (T, error) {
	var v T
	if err := sonic.ConfigStd.UnmarshalFromString(raw, &v); err != nil {
		return v, &MalformedResponseError{Persona: personaName, Raw: raw, Err: err}
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, &MalformedResponseError{Persona: personaName, Raw: raw, Err: err}
		}
	}
	return v, nil
}
