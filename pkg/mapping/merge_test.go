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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeScopeFirstSave(t *testing.T) {
	merged := MergeScope(nil, "wf-1", "tech-package", []FeatureEdit{
		{
			FeatureType: "analysis",
			InputMappings: []InputMappingRule{
				{TargetParam: "topic", SourceType: SourceTypeField, SourceField: "query"},
			},
		},
	})

	require.Len(t, merged.FeatureObjects, 1)
	fo := merged.FeatureObjects[0]
	assert.Equal(t, "analysis", fo.FeatureType)
	assert.Equal(t, "tech-package", fo.PageType)
	assert.Equal(t, "wf-1", fo.WorkflowID)
	assert.Equal(t, "wf-1", merged.WorkflowID)
	require.Len(t, fo.InputMappings, 1)
}

// TestMergeScopeIsolation covers the safety-critical property: editing one
// page's bindings leaves every other page's entries byte-for-byte identical.
func TestMergeScopeIsolation(t *testing.T) {
	pressEntry := FeatureObjectConfig{
		FeatureType: "Y",
		PageType:    "press-release",
		WorkflowID:  "wf-1",
		AgentID:     "agent-7",
		InputMappings: []InputMappingRule{
			{TargetParam: "body", SourceType: SourceTypeField, SourceField: "summary", DefaultValue: "n/a"},
		},
		OutputMappings: []OutputMappingRule{
			{SourceOutputName: "text", TargetField: "content", ExtractExpression: "output.text"},
		},
	}
	existing := &MappingConfig{
		WorkflowID: "wf-1",
		FeatureObjects: []FeatureObjectConfig{
			{FeatureType: "X", PageType: "tech-package", WorkflowID: "wf-1"},
			pressEntry,
		},
	}

	wantPress, err := json.Marshal(pressEntry)
	require.NoError(t, err)

	// Edit tech-package: drop X, add Z.
	merged := MergeScope(existing, "wf-1", "tech-package", []FeatureEdit{
		{FeatureType: "Z"},
	})

	var gotPress *FeatureObjectConfig
	for i := range merged.FeatureObjects {
		fo := &merged.FeatureObjects[i]
		assert.NotEqual(t, "X", fo.FeatureType, "dropped feature must not survive")
		if fo.PageType == "press-release" {
			gotPress = fo
		}
	}

	require.NotNil(t, gotPress, "press-release entry must survive")
	gotJSON, err := json.Marshal(gotPress)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantPress), string(gotJSON))

	require.NotNil(t, merged.FeatureObject("Z", "tech-package"))
}

func TestMergeScopeCarriesForwardUneditedRules(t *testing.T) {
	existing := &MappingConfig{
		WorkflowID: "wf-1",
		FeatureObjects: []FeatureObjectConfig{
			{
				FeatureType: "translation",
				PageType:    "tech-package",
				AgentID:     "agent-3",
				Label:       "translate",
				InputMappings: []InputMappingRule{
					{TargetParam: "text", SourceType: SourceTypeField, SourceField: "query"},
				},
				OutputMappings: []OutputMappingRule{
					{SourceOutputName: "result", TargetField: "content", ExtractExpression: "output.result"},
				},
			},
		},
	}

	tests := []struct {
		name        string
		edit        FeatureEdit
		wantInputs  int
		wantOutputs int
		wantAgent   string
	}{
		{
			name:        "nil rule lists carry forward",
			edit:        FeatureEdit{FeatureType: "translation"},
			wantInputs:  1,
			wantOutputs: 1,
			wantAgent:   "agent-3",
		},
		{
			name: "explicit edit replaces rules",
			edit: FeatureEdit{
				FeatureType: "translation",
				InputMappings: []InputMappingRule{
					{TargetParam: "text", SourceType: SourceTypeField, SourceField: "summary"},
					{TargetParam: "tone", SourceType: SourceTypeField, SourceField: "query"},
				},
			},
			wantInputs:  2,
			wantOutputs: 1, // outputs untouched, carried forward
			wantAgent:   "agent-3",
		},
		{
			name:        "explicit agent override wins",
			edit:        FeatureEdit{FeatureType: "translation", AgentID: "agent-9"},
			wantAgent:   "agent-9",
			wantInputs:  1,
			wantOutputs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeScope(existing, "wf-1", "tech-package", []FeatureEdit{tt.edit})
			fo := merged.FeatureObject("translation", "tech-package")
			require.NotNil(t, fo)
			assert.Len(t, fo.InputMappings, tt.wantInputs)
			assert.Len(t, fo.OutputMappings, tt.wantOutputs)
			assert.Equal(t, tt.wantAgent, fo.AgentID)
			assert.Equal(t, "translate", fo.Label)
		})
	}
}

func TestMergeScopePreservesLegacyEntries(t *testing.T) {
	legacy := FeatureObjectConfig{
		FeatureType: "analysis",
		// no page type: created before page scoping existed
		InputMappings: []InputMappingRule{
			{TargetParam: "q", SourceType: SourceTypeField, SourceField: "query"},
		},
	}
	existing := &MappingConfig{
		WorkflowID:     "wf-1",
		FeatureObjects: []FeatureObjectConfig{legacy},
		InputMappings: []InputMappingRule{
			{TargetParam: "flat", SourceType: SourceTypeField, SourceField: "summary"},
		},
	}

	merged := MergeScope(existing, "wf-1", "tech-package", []FeatureEdit{{FeatureType: "analysis"}})

	// The legacy entry and the flat rule list pass through verbatim.
	require.Len(t, merged.FeatureObjects, 2)
	assert.Equal(t, legacy, merged.FeatureObjects[0])
	assert.Equal(t, existing.InputMappings, merged.InputMappings)

	// The new entry is page-scoped and did not inherit the legacy rules:
	// carry-forward only applies within the edited page scope.
	fo := merged.FeatureObject("analysis", "tech-package")
	require.NotNil(t, fo)
	assert.Nil(t, fo.InputMappings)
}

func TestMergeScopeDoesNotAliasExisting(t *testing.T) {
	existing := &MappingConfig{
		WorkflowID: "wf-1",
		FeatureObjects: []FeatureObjectConfig{
			{
				FeatureType: "Y",
				PageType:    "press-release",
				InputMappings: []InputMappingRule{
					{TargetParam: "body", SourceType: SourceTypeField, SourceField: "summary"},
				},
			},
		},
	}

	merged := MergeScope(existing, "wf-1", "tech-package", nil)
	merged.FeatureObjects[0].InputMappings[0].TargetParam = "mutated"

	assert.Equal(t, "body", existing.FeatureObjects[0].InputMappings[0].TargetParam)
}
