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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tombee/fieldbind/internal/httputil"
	"github.com/tombee/fieldbind/internal/preview"
)

// PreviewHandler handles dry-run evaluation requests.
type PreviewHandler struct {
	engine *preview.Engine
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(engine *preview.Engine) *PreviewHandler {
	return &PreviewHandler{engine: engine}
}

// RegisterRoutes registers preview API routes on the router.
func (h *PreviewHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/preview", h.handlePreview)
}

// handlePreview handles POST /v1/preview. Nothing is persisted and no
// external service is called; the response carries the derived objects, the
// per-rule error maps, and any sample parse banners.
func (h *PreviewHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req preview.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res := h.engine.Run(r.Context(), req)
	previewRunsTotal.Inc()
	recordEvaluation("input", len(res.ParamErrors))
	recordEvaluation("output", len(res.OutputErrors))

	httputil.WriteJSON(w, http.StatusOK, res)
}
