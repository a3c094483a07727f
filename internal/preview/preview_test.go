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

package preview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/fieldbind/pkg/mapping"
	"github.com/tombee/fieldbind/pkg/mapping/evaluate"
)

func newEngine() *Engine {
	return New(evaluate.New())
}

func TestRun(t *testing.T) {
	engine := newEngine()

	res := engine.Run(context.Background(), Request{
		ContextJSON: `{"query":"summarize","sources":[{"title":"Doc A"}],"history":[{"role":"user","content":"hi"}]}`,
		ResultJSON:  `{"answer":"done","files":["a.pdf"]}`,
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "topic", SourceType: mapping.SourceTypeExpression, Expression: `join(map(sources, {.title}), ", ")`},
		},
		OutputMappings: []mapping.OutputMappingRule{
			{SourceOutputName: "answer", TargetField: "content", ExtractExpression: "output.answer"},
			{SourceOutputName: "attachments", TargetField: "files", ExtractExpression: "output.files"},
		},
	})

	assert.Empty(t, res.Banners)
	assert.Empty(t, res.ParamErrors)
	assert.Empty(t, res.OutputErrors)
	assert.Equal(t, map[string]any{"topic": "Doc A"}, res.Params)
	assert.Equal(t, "done", res.Outputs["answer"])
	assert.Equal(t, map[string]any{
		"targetField": "files",
		"value":       []any{"a.pdf"},
	}, res.Outputs["attachments"])
}

// TestRunInvalidSamples checks that a sample parse failure degrades to an
// empty object plus a banner instead of aborting evaluation.
func TestRunInvalidSamples(t *testing.T) {
	engine := newEngine()

	res := engine.Run(context.Background(), Request{
		ContextJSON: `{not json`,
		ResultJSON:  `also not json`,
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "question", SourceType: mapping.SourceTypeField, SourceField: "query", DefaultValue: "fallback"},
		},
		OutputMappings: []mapping.OutputMappingRule{
			{SourceOutputName: "answer", TargetField: "content", ExtractExpression: "output.answer"},
		},
	})

	require.Len(t, res.Banners, 2)
	assert.Contains(t, res.Banners[0], "context sample")
	assert.Contains(t, res.Banners[1], "result sample")

	// Evaluators still ran: the empty context triggered the default, and the
	// empty result produced a nil extraction rather than a crash.
	assert.Equal(t, "fallback", res.Params["question"])
	assert.Empty(t, res.ParamErrors)
	assert.Empty(t, res.OutputErrors)
	assert.Nil(t, res.Outputs["answer"])
}

func TestRunEmptySamples(t *testing.T) {
	engine := newEngine()

	res := engine.Run(context.Background(), Request{
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "question", SourceType: mapping.SourceTypeField, SourceField: "query"},
		},
	})

	assert.Empty(t, res.Banners)
	assert.Equal(t, "", res.Params["question"])
}

func TestRunDeterminism(t *testing.T) {
	engine := newEngine()

	req := Request{
		ContextJSON: `{"query":"summarize","sources":[{"title":"Doc A"},{"title":"Doc B"}]}`,
		ResultJSON:  `{"answer":"ok"}`,
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "topic", SourceType: mapping.SourceTypeExpression, Expression: `join(map(sources, {.title}), ", ")`},
			{TargetParam: "bad", SourceType: mapping.SourceTypeExpression, Expression: `int("x")`},
		},
		OutputMappings: []mapping.OutputMappingRule{
			{SourceOutputName: "answer", TargetField: "content", ExtractExpression: "output.answer"},
		},
	}

	first := engine.Run(context.Background(), req)
	second := engine.Run(context.Background(), req)
	assert.Equal(t, first, second)
}
