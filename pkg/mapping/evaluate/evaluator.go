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

// Package evaluate implements the input and output mapping evaluators.
//
// Evaluation is pure computation over in-memory structures: identical
// (context, rules) input produces identical output, and a single failing
// rule lands in the error map without aborting its siblings.
package evaluate

import (
	"context"

	"github.com/tombee/fieldbind/internal/jq"
	"github.com/tombee/fieldbind/pkg/mapping"
	"github.com/tombee/fieldbind/pkg/mapping/expression"
)

// Evaluator resolves mapping rules. It is safe for concurrent use; the
// underlying expression caches are shared across evaluations.
type Evaluator struct {
	exprs *expression.Evaluator
	jq    *jq.Executor
}

// New creates an evaluator with default jq bounds.
func New() *Evaluator {
	return &Evaluator{
		exprs: expression.New(),
		jq:    jq.NewExecutor(0, 0),
	}
}

// Inputs resolves input mapping rules against a conversation context,
// producing the parameter object used to invoke the external workflow plus a
// per-rule error map keyed by targetParam.
//
// Field rules read one of the six addressable context properties directly.
// Expression rules evaluate with those six properties bound as variables and
// the whole context bound as "context". A resolved value that is nil or the
// empty string is replaced by the rule's defaultValue when one is set.
func (e *Evaluator) Inputs(cc *mapping.ConversationContext, rules []mapping.InputMappingRule) (map[string]any, map[string]string) {
	params := make(map[string]any)
	errs := make(map[string]string)

	fields := contextEnv(cc)
	env := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		env[k] = v
	}
	env["context"] = fields

	for _, rule := range rules {
		var value any

		switch rule.SourceType {
		case mapping.SourceTypeField:
			if !mapping.IsContextField(rule.SourceField) {
				errs[rule.TargetParam] = "unknown context field: " + rule.SourceField
				continue
			}
			value = fieldValue(cc, rule.SourceField)

		case mapping.SourceTypeExpression:
			v, err := e.exprs.Evaluate(rule.Expression, env)
			if err != nil {
				errs[rule.TargetParam] = err.Error()
				continue
			}
			value = v

		default:
			errs[rule.TargetParam] = "unknown sourceType: " + string(rule.SourceType)
			continue
		}

		if isEmpty(value) && rule.DefaultValue != nil {
			value = rule.DefaultValue
		}
		params[rule.TargetParam] = value
	}

	return params, errs
}

// Outputs resolves output mapping rules against a raw workflow result,
// producing the object merged back into a conversation message plus a
// per-rule error map keyed by sourceOutputName.
//
// Each extract expression evaluates with "output" bound to the raw result,
// "workflowResult" bound to {data: output}, and "context" bound to the
// originating conversation context.
//
// Target-field handling is intentionally asymmetric to match the message
// renderer: "content" is assigned the extracted value directly, while any
// other target wraps it in a {targetField, value} envelope.
func (e *Evaluator) Outputs(ctx context.Context, result any, cc *mapping.ConversationContext, rules []mapping.OutputMappingRule) (map[string]any, map[string]string) {
	out := make(map[string]any)
	errs := make(map[string]string)

	raw := toPlain(result)
	env := map[string]any{
		"output":         raw,
		"workflowResult": map[string]any{"data": raw},
		"context":        contextEnv(cc),
	}

	for _, rule := range rules {
		var value any
		var err error

		switch rule.Syntax {
		case mapping.SyntaxJQ:
			value, err = e.jq.Execute(ctx, rule.ExtractExpression, env)
		default:
			value, err = e.exprs.Evaluate(rule.ExtractExpression, env)
		}
		if err != nil {
			errs[rule.SourceOutputName] = err.Error()
			continue
		}

		if rule.TargetField == "content" {
			out[rule.SourceOutputName] = value
		} else {
			out[rule.SourceOutputName] = map[string]any{
				"targetField": rule.TargetField,
				"value":       value,
			}
		}
	}

	return out, errs
}

// CheckRules compiles every expression in the given rule lists without
// evaluating them, returning a map of rule target to compile error. An empty
// map means every rule is well-formed. Field rules have nothing to compile
// and are skipped.
func (e *Evaluator) CheckRules(inputs []mapping.InputMappingRule, outputs []mapping.OutputMappingRule) map[string]string {
	problems := make(map[string]string)

	for _, rule := range inputs {
		if rule.SourceType != mapping.SourceTypeExpression {
			continue
		}
		if err := e.exprs.Check(rule.Expression); err != nil {
			problems[rule.TargetParam] = err.Error()
		}
	}

	for _, rule := range outputs {
		var err error
		switch rule.Syntax {
		case mapping.SyntaxJQ:
			err = e.jq.Validate(rule.ExtractExpression)
		default:
			err = e.exprs.Check(rule.ExtractExpression)
		}
		if err != nil {
			problems[rule.SourceOutputName] = err.Error()
		}
	}

	return problems
}

// CheckConfig runs CheckRules over every feature-object entry of a config,
// including the implicit legacy entry. Keys are prefixed with the entry's
// feature type when one is set.
func (e *Evaluator) CheckConfig(cfg *mapping.MappingConfig) map[string]string {
	problems := make(map[string]string)
	for _, fo := range cfg.Normalized() {
		for target, msg := range e.CheckRules(fo.InputMappings, fo.OutputMappings) {
			key := target
			if fo.FeatureType != "" {
				key = fo.FeatureType + "." + target
			}
			problems[key] = msg
		}
	}
	return problems
}
