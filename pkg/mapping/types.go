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

// Package mapping defines the field-mapping data model: the conversation
// context exposed to rules, per-workflow mapping configurations, and the
// scoped merge used when one page's bindings are edited.
//
// JSON field names are camelCase to match the admin wire format.
package mapping

// SourceRef identifies a knowledge source attached to a conversation.
type SourceRef struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// FileRef identifies an uploaded file attached to a conversation.
type FileRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// HistoryTurn is a single prior exchange in the conversation.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationContext is the conversational state exposed to mapping rules.
// It is owned by the caller per invocation and is not mutated during
// evaluation. Only the six named properties are addressable by rules.
type ConversationContext struct {
	Query      string        `json:"query"`
	Sources    []SourceRef   `json:"sources,omitempty"`
	Files      []FileRef     `json:"files,omitempty"`
	History    []HistoryTurn `json:"history,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	KeyPhrases []string      `json:"keyPhrases,omitempty"`
}

// ContextFields lists the context properties addressable by field rules and
// bound as variables for expression rules.
var ContextFields = []string{"query", "sources", "files", "history", "summary", "keyPhrases"}

// IsContextField reports whether name is one of the addressable context
// properties.
func IsContextField(name string) bool {
	for _, f := range ContextFields {
		if f == name {
			return true
		}
	}
	return false
}

// SourceType selects how an input rule derives its value.
type SourceType string

const (
	// SourceTypeField resolves the rule by direct lookup of a context property.
	SourceTypeField SourceType = "field"

	// SourceTypeExpression resolves the rule by evaluating an expression with
	// the context properties bound as variables.
	SourceTypeExpression SourceType = "expression"
)

// ExtractSyntax selects the language an output rule's extract expression is
// written in.
type ExtractSyntax string

const (
	// SyntaxExpr is the default expression language.
	SyntaxExpr ExtractSyntax = "expr"

	// SyntaxJQ evaluates the extract expression as a jq program against the
	// bound variables.
	SyntaxJQ ExtractSyntax = "jq"
)

// InputMappingRule derives one workflow invocation parameter from the
// conversation context.
type InputMappingRule struct {
	// TargetParam is the parameter name expected by the workflow.
	TargetParam string `json:"targetParam"`

	// SourceType selects field lookup or expression evaluation.
	SourceType SourceType `json:"sourceType"`

	// SourceField is the context property to read when SourceType is "field".
	SourceField string `json:"sourceField,omitempty"`

	// Expression is evaluated when SourceType is "expression".
	Expression string `json:"expression,omitempty"`

	// DefaultValue substitutes a resolved value that is nil or the empty
	// string.
	DefaultValue any `json:"defaultValue,omitempty"`
}

// OutputMappingRule extracts one conversation-visible field from a raw
// workflow result.
type OutputMappingRule struct {
	// SourceOutputName keys the extracted value in the result object.
	SourceOutputName string `json:"sourceOutputName"`

	// TargetField names the message field the value feeds. "content" is
	// assigned raw; any other target is wrapped in a {targetField, value}
	// envelope. See evaluate.Outputs.
	TargetField string `json:"targetField"`

	// ExtractExpression is evaluated against the workflow result.
	ExtractExpression string `json:"extractExpression"`

	// Syntax selects the extract expression language. Empty means "expr".
	Syntax ExtractSyntax `json:"syntax,omitempty"`
}

// FeatureObjectConfig binds one feature on one page scope to a workflow,
// carrying the rule lists used at invocation time. Within a MappingConfig no
// two entries share the same (featureType, pageType) pair. An entry with an
// empty PageType is a legacy binding and is preserved verbatim by merges.
type FeatureObjectConfig struct {
	FeatureType    string              `json:"featureType"`
	PageType       string              `json:"pageType,omitempty"`
	WorkflowID     string              `json:"workflowId,omitempty"`
	Label          string              `json:"label,omitempty"`
	AgentID        string              `json:"agentId,omitempty"`
	InputMappings  []InputMappingRule  `json:"inputMappings,omitempty"`
	OutputMappings []OutputMappingRule `json:"outputMappings,omitempty"`
}

// MappingConfig is the persisted configuration for one external workflow.
//
// InputMappings and OutputMappings are the flat shape written by configs
// created before the multi-feature model. They are treated as a single
// implicit feature-object entry (see Normalized) and only survive at the
// persistence boundary.
type MappingConfig struct {
	WorkflowID     string                `json:"workflowId,omitempty"`
	FeatureObjects []FeatureObjectConfig `json:"featureObjects,omitempty"`
	InputMappings  []InputMappingRule    `json:"inputMappings,omitempty"`
	OutputMappings []OutputMappingRule   `json:"outputMappings,omitempty"`
}

// Normalized returns the feature-object view of the config, folding the
// legacy flat rule lists into an implicit entry with no feature or page type.
// The receiver is not modified.
func (c *MappingConfig) Normalized() []FeatureObjectConfig {
	if c == nil {
		return nil
	}
	entries := make([]FeatureObjectConfig, 0, len(c.FeatureObjects)+1)
	entries = append(entries, c.FeatureObjects...)
	if len(c.InputMappings) > 0 || len(c.OutputMappings) > 0 {
		entries = append(entries, FeatureObjectConfig{
			WorkflowID:     c.WorkflowID,
			InputMappings:  c.InputMappings,
			OutputMappings: c.OutputMappings,
		})
	}
	return entries
}

// FeatureObject returns the entry for the given (featureType, pageType) pair,
// or nil if none exists.
func (c *MappingConfig) FeatureObject(featureType, pageType string) *FeatureObjectConfig {
	if c == nil {
		return nil
	}
	for i := range c.FeatureObjects {
		fo := &c.FeatureObjects[i]
		if fo.FeatureType == featureType && fo.PageType == pageType {
			return fo
		}
	}
	return nil
}

// Clone returns a deep copy of the config. Stores clone on read and write so
// callers can never alias persisted state.
func (c *MappingConfig) Clone() *MappingConfig {
	if c == nil {
		return nil
	}
	out := &MappingConfig{
		WorkflowID:     c.WorkflowID,
		InputMappings:  cloneInputRules(c.InputMappings),
		OutputMappings: cloneOutputRules(c.OutputMappings),
	}
	if c.FeatureObjects != nil {
		out.FeatureObjects = make([]FeatureObjectConfig, len(c.FeatureObjects))
		for i, fo := range c.FeatureObjects {
			out.FeatureObjects[i] = fo.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the feature-object entry.
func (f FeatureObjectConfig) Clone() FeatureObjectConfig {
	out := f
	out.InputMappings = cloneInputRules(f.InputMappings)
	out.OutputMappings = cloneOutputRules(f.OutputMappings)
	return out
}

func cloneInputRules(rules []InputMappingRule) []InputMappingRule {
	if rules == nil {
		return nil
	}
	out := make([]InputMappingRule, len(rules))
	for i, r := range rules {
		r.DefaultValue = cloneValue(r.DefaultValue)
		out[i] = r
	}
	return out
}

func cloneOutputRules(rules []OutputMappingRule) []OutputMappingRule {
	if rules == nil {
		return nil
	}
	out := make([]OutputMappingRule, len(rules))
	copy(out, rules)
	return out
}

// cloneValue deep-copies the JSON-shaped values a DefaultValue can hold.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
