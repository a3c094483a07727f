// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mapping

import (
	"fmt"

	"github.com/tombee/fieldbind/pkg/errors"
)

// Validate checks the structural invariants of a config: unique
// (featureType, pageType) pairs and well-formed rules. Expression syntax is
// checked separately by the evaluator before save.
func (c *MappingConfig) Validate() error {
	if c == nil {
		return &errors.ValidationError{Message: "config is nil"}
	}

	seen := make(map[[2]string]bool, len(c.FeatureObjects))
	for i, fo := range c.FeatureObjects {
		key := [2]string{fo.FeatureType, fo.PageType}
		if seen[key] {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("featureObjects[%d]", i),
				Message:    fmt.Sprintf("duplicate feature binding %q on page %q", fo.FeatureType, fo.PageType),
				Suggestion: "each (featureType, pageType) pair may appear at most once per workflow",
			}
		}
		seen[key] = true

		if err := validateRules(fmt.Sprintf("featureObjects[%d]", i), fo.InputMappings, fo.OutputMappings); err != nil {
			return err
		}
	}

	return validateRules("", c.InputMappings, c.OutputMappings)
}

func validateRules(prefix string, inputs []InputMappingRule, outputs []OutputMappingRule) error {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	for i, rule := range inputs {
		if rule.TargetParam == "" {
			return &errors.ValidationError{
				Field:   field(fmt.Sprintf("inputMappings[%d].targetParam", i)),
				Message: "targetParam is required",
			}
		}
		switch rule.SourceType {
		case SourceTypeField:
			if !IsContextField(rule.SourceField) {
				return &errors.ValidationError{
					Field:      field(fmt.Sprintf("inputMappings[%d].sourceField", i)),
					Message:    fmt.Sprintf("unknown context field %q", rule.SourceField),
					Suggestion: "addressable fields are query, sources, files, history, summary, keyPhrases",
				}
			}
		case SourceTypeExpression:
			if rule.Expression == "" {
				return &errors.ValidationError{
					Field:   field(fmt.Sprintf("inputMappings[%d].expression", i)),
					Message: "expression is required when sourceType is \"expression\"",
				}
			}
		default:
			return &errors.ValidationError{
				Field:      field(fmt.Sprintf("inputMappings[%d].sourceType", i)),
				Message:    fmt.Sprintf("unknown sourceType %q", rule.SourceType),
				Suggestion: "sourceType must be \"field\" or \"expression\"",
			}
		}
	}

	for i, rule := range outputs {
		if rule.SourceOutputName == "" {
			return &errors.ValidationError{
				Field:   field(fmt.Sprintf("outputMappings[%d].sourceOutputName", i)),
				Message: "sourceOutputName is required",
			}
		}
		if rule.TargetField == "" {
			return &errors.ValidationError{
				Field:   field(fmt.Sprintf("outputMappings[%d].targetField", i)),
				Message: "targetField is required",
			}
		}
		if rule.ExtractExpression == "" {
			return &errors.ValidationError{
				Field:   field(fmt.Sprintf("outputMappings[%d].extractExpression", i)),
				Message: "extractExpression is required",
			}
		}
		switch rule.Syntax {
		case "", SyntaxExpr, SyntaxJQ:
		default:
			return &errors.ValidationError{
				Field:      field(fmt.Sprintf("outputMappings[%d].syntax", i)),
				Message:    fmt.Sprintf("unknown syntax %q", rule.Syntax),
				Suggestion: "syntax must be \"expr\" or \"jq\"",
			}
		}
	}

	return nil
}
