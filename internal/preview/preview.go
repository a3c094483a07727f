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

// Package preview runs the mapping evaluators against operator-supplied
// sample data, giving configuration-time feedback without touching the store
// or any external service.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tombee/fieldbind/pkg/mapping"
	"github.com/tombee/fieldbind/pkg/mapping/evaluate"
)

// Request carries the raw sample JSON and the current, possibly unsaved,
// rule lists.
type Request struct {
	// ContextJSON is sample conversation-context JSON.
	ContextJSON string `json:"contextJson"`

	// ResultJSON is sample workflow-result JSON.
	ResultJSON string `json:"resultJson"`

	InputMappings  []mapping.InputMappingRule  `json:"inputMappings,omitempty"`
	OutputMappings []mapping.OutputMappingRule `json:"outputMappings,omitempty"`
}

// Result is what the operator inspects before saving: the derived parameter
// and output objects, the per-rule error maps, and banner messages for
// sample parse failures.
type Result struct {
	Params       map[string]any    `json:"params"`
	ParamErrors  map[string]string `json:"paramErrors,omitempty"`
	Outputs      map[string]any    `json:"outputs"`
	OutputErrors map[string]string `json:"outputErrors,omitempty"`
	Banners      []string          `json:"banners,omitempty"`
}

// Engine recomputes previews on demand. It holds no state besides the shared
// evaluator caches; callers debounce keystroke-driven recomputation, but
// correctness does not depend on it.
type Engine struct {
	eval *evaluate.Evaluator
}

// New creates a preview engine around the given evaluator.
func New(eval *evaluate.Evaluator) *Engine {
	return &Engine{eval: eval}
}

// Run parses the samples and evaluates both rule lists against them.
//
// A sample that fails to parse is replaced by an empty object and reported
// as a banner message; the evaluators still run, producing undefined lookups
// rather than failing outright.
func (e *Engine) Run(ctx context.Context, req Request) Result {
	var res Result

	cc := &mapping.ConversationContext{}
	if msg := parseSample(req.ContextJSON, cc); msg != "" {
		res.Banners = append(res.Banners, "context sample: "+msg)
		cc = &mapping.ConversationContext{}
	}

	var workflowResult any = map[string]any{}
	if strings.TrimSpace(req.ResultJSON) != "" {
		if err := json.Unmarshal([]byte(req.ResultJSON), &workflowResult); err != nil {
			res.Banners = append(res.Banners, fmt.Sprintf("result sample: invalid JSON: %v", err))
			workflowResult = map[string]any{}
		}
	}

	res.Params, res.ParamErrors = e.eval.Inputs(cc, req.InputMappings)
	res.Outputs, res.OutputErrors = e.eval.Outputs(ctx, workflowResult, cc, req.OutputMappings)
	return res
}

// parseSample unmarshals sample JSON into dst, returning a banner message on
// failure. An empty sample is treated as an empty object.
func parseSample(sample string, dst any) string {
	if strings.TrimSpace(sample) == "" {
		return ""
	}
	if err := json.Unmarshal([]byte(sample), dst); err != nil {
		return fmt.Sprintf("invalid JSON: %v", err)
	}
	return ""
}
