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
	"log/slog"
	"net/http"

	"github.com/tombee/fieldbind/internal/httputil"
	"github.com/tombee/fieldbind/internal/log"
	"github.com/tombee/fieldbind/internal/store"
	"github.com/tombee/fieldbind/pkg/errors"
	"github.com/tombee/fieldbind/pkg/mapping"
	"github.com/tombee/fieldbind/pkg/mapping/evaluate"
)

// MappingsHandler handles field-mapping configuration API requests.
type MappingsHandler struct {
	store  store.Store
	eval   *evaluate.Evaluator
	logger *slog.Logger
}

// NewMappingsHandler creates a new mappings handler.
func NewMappingsHandler(s store.Store, eval *evaluate.Evaluator, logger *slog.Logger) *MappingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MappingsHandler{store: s, eval: eval, logger: logger}
}

// RegisterRoutes registers mapping API routes on the router.
func (h *MappingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/field-mappings", h.handleList)
	mux.HandleFunc("GET /v1/field-mappings/{workflowID}", h.handleGet)
	mux.HandleFunc("POST /v1/field-mappings/{workflowID}", h.handleSave)
	mux.HandleFunc("POST /v1/field-mappings/{workflowID}/scopes/{pageType}", h.handleSaveScope)
	mux.HandleFunc("DELETE /v1/field-mappings/{workflowID}", h.handleDelete)
}

// handleList handles GET /v1/field-mappings.
func (h *MappingsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	recordStoreOp("list", err)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list configs: %v", err))
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// handleGet handles GET /v1/field-mappings/{workflowID}.
func (h *MappingsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("workflowID")

	rec, err := h.store.Get(r.Context(), workflowID)
	recordStoreOp("get", err)
	if err != nil {
		if errors.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load config: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// SaveScopeRequest is the request body for saving one page scope's bindings.
type SaveScopeRequest struct {
	Features []mapping.FeatureEdit `json:"features"`
}

// handleSave handles POST /v1/field-mappings/{workflowID}.
// The body fully replaces the stored config; callers editing a single page
// scope use the scoped endpoint instead, which merges server-side.
func (h *MappingsHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("workflowID")

	var cfg mapping.MappingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if !h.validateConfig(w, &cfg) {
		return
	}

	rec, err := h.store.Save(r.Context(), workflowID, &cfg)
	recordStoreOp("save", err)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save config: %v", err))
		return
	}
	h.logger.Info("saved mapping config", log.WorkflowIDKey, workflowID, "version", rec.Version)
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// handleSaveScope handles POST /v1/field-mappings/{workflowID}/scopes/{pageType}.
// The submitted feature edits replace that page scope only; every other
// scope passes through the merge untouched.
func (h *MappingsHandler) handleSaveScope(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("workflowID")
	pageType := r.PathValue("pageType")

	var req SaveScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var existing *mapping.MappingConfig
	rec, err := h.store.Get(r.Context(), workflowID)
	recordStoreOp("get", err)
	if err != nil && !errors.IsNotFound(err) {
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load config: %v", err))
		return
	}
	if rec != nil {
		existing = rec.Config
	}

	merged := mapping.MergeScope(existing, workflowID, pageType, req.Features)
	if !h.validateConfig(w, merged) {
		return
	}

	saved, err := h.store.Save(r.Context(), workflowID, merged)
	recordStoreOp("save", err)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save config: %v", err))
		return
	}
	h.logger.Info("saved page scope",
		log.WorkflowIDKey, workflowID,
		log.PageTypeKey, pageType,
		"features", len(req.Features),
		"version", saved.Version)
	for _, edit := range req.Features {
		h.logger.Debug("bound feature",
			log.WorkflowIDKey, workflowID,
			log.PageTypeKey, pageType,
			log.FeatureTypeKey, edit.FeatureType)
	}
	httputil.WriteJSON(w, http.StatusOK, saved)
}

// handleDelete handles DELETE /v1/field-mappings/{workflowID}.
func (h *MappingsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("workflowID")

	err := h.store.Delete(r.Context(), workflowID)
	recordStoreOp("delete", err)
	if err != nil {
		if errors.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete config: %v", err))
		return
	}
	h.logger.Info("deleted mapping config", log.WorkflowIDKey, workflowID)
	w.WriteHeader(http.StatusNoContent)
}

// validateConfig runs structural validation plus ahead-of-save expression
// compilation, writing a 400 response on failure. Returns true when the
// config is valid.
func (h *MappingsHandler) validateConfig(w http.ResponseWriter, cfg *mapping.MappingConfig) bool {
	if err := cfg.Validate(); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if problems := h.eval.CheckConfig(cfg); len(problems) > 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "one or more rule expressions failed to compile",
			"ruleErrors": problems,
		})
		return false
	}
	return true
}
