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

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/fieldbind/internal/preview"
	"github.com/tombee/fieldbind/pkg/mapping"
)

func TestPreviewEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/preview", preview.Request{
		ContextJSON: `{"query":"summarize","sources":[{"title":"Doc A"}]}`,
		ResultJSON:  `{"answer":"done"}`,
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "question", SourceType: mapping.SourceTypeField, SourceField: "query"},
		},
		OutputMappings: []mapping.OutputMappingRule{
			{SourceOutputName: "answer", TargetField: "content", ExtractExpression: "output.answer"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[preview.Result](t, resp)
	assert.Equal(t, "summarize", res.Params["question"])
	assert.Equal(t, "done", res.Outputs["answer"])
	assert.Empty(t, res.Banners)
}

// TestPreviewSurfacesRuleErrors confirms a failing rule comes back as an
// error-map entry with a 200, not an HTTP failure.
func TestPreviewSurfacesRuleErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/preview", preview.Request{
		ContextJSON: `{"query":"hi"}`,
		InputMappings: []mapping.InputMappingRule{
			{TargetParam: "bad", SourceType: mapping.SourceTypeExpression, Expression: `int("x")`},
			{TargetParam: "ok", SourceType: mapping.SourceTypeField, SourceField: "query"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[preview.Result](t, resp)
	assert.Equal(t, "hi", res.Params["ok"])
	assert.Contains(t, res.ParamErrors, "bad")
}

func TestPreviewRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/preview", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
