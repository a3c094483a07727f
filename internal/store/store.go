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

// Package store defines persistence for mapping configs.
//
// A save fully replaces the workflow's config or fails entirely; there is no
// multi-document transaction across workflows and no optimistic-concurrency
// protection — concurrent saves to the same workflow id are last-write-wins.
// Backends that hold external resources also implement io.Closer; detect it
// with a type assertion.
package store

import (
	"context"
	"time"

	"github.com/tombee/fieldbind/pkg/mapping"
)

// Record wraps a persisted mapping config with store metadata. Version
// increments on every save; it is informational and not enforced on writes.
type Record struct {
	WorkflowID string                 `json:"workflowId"`
	Config     *mapping.MappingConfig `json:"config"`
	Version    int64                  `json:"version"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// Store is the persistence interface for mapping configs.
// Get returns *errors.NotFoundError when no config exists for the workflow
// id; callers treat that as "needs initialization", not a failure.
type Store interface {
	// List returns all records, ordered by workflow id.
	List(ctx context.Context) ([]*Record, error)

	// Get retrieves the record for a workflow id.
	Get(ctx context.Context, workflowID string) (*Record, error)

	// Save creates or fully replaces the config for a workflow id and
	// returns the stored record.
	Save(ctx context.Context, workflowID string, cfg *mapping.MappingConfig) (*Record, error)

	// Delete removes the config for a workflow id, including every
	// feature-object entry it owns.
	Delete(ctx context.Context, workflowID string) error
}
