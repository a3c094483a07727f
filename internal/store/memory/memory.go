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

// Package memory provides an in-memory store implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tombee/fieldbind/internal/store"
	"github.com/tombee/fieldbind/pkg/errors"
	"github.com/tombee/fieldbind/pkg/mapping"
)

// Compile-time interface assertion.
var _ store.Store = (*Store)(nil)

// Store is an in-memory mapping config store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]*store.Record),
	}
}

// List returns all records, ordered by workflow id.
func (s *Store) List(ctx context.Context) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkflowID < out[j].WorkflowID })
	return out, nil
}

// Get retrieves the record for a workflow id.
func (s *Store) Get(ctx context.Context, workflowID string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[workflowID]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "mapping config", ID: workflowID}
	}
	return cloneRecord(rec), nil
}

// Save creates or fully replaces the config for a workflow id.
func (s *Store) Save(ctx context.Context, workflowID string, cfg *mapping.MappingConfig) (*store.Record, error) {
	if cfg == nil {
		return nil, &errors.ValidationError{Field: "config", Message: "config is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec := &store.Record{
		WorkflowID: workflowID,
		Config:     cfg.Clone(),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if prev, exists := s.records[workflowID]; exists {
		rec.Version = prev.Version + 1
		rec.CreatedAt = prev.CreatedAt
	}
	s.records[workflowID] = rec
	return cloneRecord(rec), nil
}

// Delete removes the config for a workflow id.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[workflowID]; !exists {
		return &errors.NotFoundError{Resource: "mapping config", ID: workflowID}
	}
	delete(s.records, workflowID)
	return nil
}

// cloneRecord copies a record so callers cannot alias stored state.
func cloneRecord(rec *store.Record) *store.Record {
	out := *rec
	out.Config = rec.Config.Clone()
	return &out
}
