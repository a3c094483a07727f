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

// FeatureEdit is one feature binding submitted when an operator saves the
// bindings for a page scope. Nil rule lists mean "not edited": the previously
// saved rules for the same feature type on that page are carried forward.
type FeatureEdit struct {
	FeatureType    string              `json:"featureType"`
	Label          string              `json:"label,omitempty"`
	AgentID        string              `json:"agentId,omitempty"`
	InputMappings  []InputMappingRule  `json:"inputMappings,omitempty"`
	OutputMappings []OutputMappingRule `json:"outputMappings,omitempty"`
}

// MergeScope computes the config to persist when the operator saves the
// feature bindings for one (workflow, pageType) scope.
//
// Entries scoped to other page types, legacy entries with no page type, and
// the legacy flat rule lists pass through unchanged. Entries previously
// scoped to pageType are replaced by the submitted edits; a feature type
// absent from the edits is dropped from that scope. Editing one page's
// bindings must never mutate another page's bindings that share a workflow
// id.
//
// existing may be nil (first save for the workflow).
func MergeScope(existing *MappingConfig, workflowID, pageType string, edits []FeatureEdit) *MappingConfig {
	merged := &MappingConfig{WorkflowID: workflowID}

	// Partition existing entries into kept and replaced.
	var replaced []FeatureObjectConfig
	if existing != nil {
		merged.InputMappings = cloneInputRules(existing.InputMappings)
		merged.OutputMappings = cloneOutputRules(existing.OutputMappings)
		if existing.WorkflowID != "" {
			merged.WorkflowID = existing.WorkflowID
		}
		for _, fo := range existing.FeatureObjects {
			if fo.PageType == pageType && fo.PageType != "" {
				replaced = append(replaced, fo)
				continue
			}
			merged.FeatureObjects = append(merged.FeatureObjects, fo.Clone())
		}
	}

	prior := make(map[string]FeatureObjectConfig, len(replaced))
	for _, fo := range replaced {
		prior[fo.FeatureType] = fo
	}

	for _, edit := range edits {
		fo := FeatureObjectConfig{
			FeatureType:    edit.FeatureType,
			PageType:       pageType,
			WorkflowID:     workflowID,
			Label:          edit.Label,
			AgentID:        edit.AgentID,
			InputMappings:  cloneInputRules(edit.InputMappings),
			OutputMappings: cloneOutputRules(edit.OutputMappings),
		}

		// Re-saving a scope without touching a rule list keeps the saved
		// rules instead of discarding them.
		if prev, ok := prior[edit.FeatureType]; ok {
			if fo.InputMappings == nil {
				fo.InputMappings = cloneInputRules(prev.InputMappings)
			}
			if fo.OutputMappings == nil {
				fo.OutputMappings = cloneOutputRules(prev.OutputMappings)
			}
			if fo.AgentID == "" {
				fo.AgentID = prev.AgentID
			}
			if fo.Label == "" {
				fo.Label = prev.Label
			}
		}

		merged.FeatureObjects = append(merged.FeatureObjects, fo)
	}

	return merged
}
