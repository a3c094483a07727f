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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fberrors "github.com/tombee/fieldbind/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *MappingConfig
		wantErr string
	}{
		{
			name: "valid config",
			config: &MappingConfig{
				FeatureObjects: []FeatureObjectConfig{
					{
						FeatureType: "analysis",
						PageType:    "tech-package",
						InputMappings: []InputMappingRule{
							{TargetParam: "topic", SourceType: SourceTypeField, SourceField: "query"},
							{TargetParam: "refs", SourceType: SourceTypeExpression, Expression: "map(sources, {.title})"},
						},
						OutputMappings: []OutputMappingRule{
							{SourceOutputName: "text", TargetField: "content", ExtractExpression: "output.text"},
							{SourceOutputName: "atts", TargetField: "files", ExtractExpression: ".output.files", Syntax: SyntaxJQ},
						},
					},
				},
			},
		},
		{
			name: "duplicate feature binding",
			config: &MappingConfig{
				FeatureObjects: []FeatureObjectConfig{
					{FeatureType: "analysis", PageType: "tech-package"},
					{FeatureType: "analysis", PageType: "tech-package"},
				},
			},
			wantErr: "duplicate feature binding",
		},
		{
			name: "same feature on different pages is fine",
			config: &MappingConfig{
				FeatureObjects: []FeatureObjectConfig{
					{FeatureType: "analysis", PageType: "tech-package"},
					{FeatureType: "analysis", PageType: "press-release"},
				},
			},
		},
		{
			name: "missing target param",
			config: &MappingConfig{
				InputMappings: []InputMappingRule{
					{SourceType: SourceTypeField, SourceField: "query"},
				},
			},
			wantErr: "targetParam is required",
		},
		{
			name: "unknown source type",
			config: &MappingConfig{
				InputMappings: []InputMappingRule{
					{TargetParam: "x", SourceType: "template"},
				},
			},
			wantErr: "unknown sourceType",
		},
		{
			name: "field rule must address a context field",
			config: &MappingConfig{
				InputMappings: []InputMappingRule{
					{TargetParam: "x", SourceType: SourceTypeField, SourceField: "mood"},
				},
			},
			wantErr: "unknown context field",
		},
		{
			name: "expression rule requires expression",
			config: &MappingConfig{
				InputMappings: []InputMappingRule{
					{TargetParam: "x", SourceType: SourceTypeExpression},
				},
			},
			wantErr: "expression is required",
		},
		{
			name: "output rule requires extract expression",
			config: &MappingConfig{
				OutputMappings: []OutputMappingRule{
					{SourceOutputName: "text", TargetField: "content"},
				},
			},
			wantErr: "extractExpression is required",
		},
		{
			name: "unknown output syntax",
			config: &MappingConfig{
				OutputMappings: []OutputMappingRule{
					{SourceOutputName: "text", TargetField: "content", ExtractExpression: ".x", Syntax: "jsonpath"},
				},
			},
			wantErr: "unknown syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, fberrors.IsValidation(err))
		})
	}
}
