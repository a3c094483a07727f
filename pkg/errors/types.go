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

// Package errors defines the typed errors used across the field-mapping
// engine. Handlers and callers switch on these types to choose an HTTP
// status or a recovery path.
package errors

import (
	"fmt"
)

// ValidationError represents user input validation failures.
// Use this for invalid rule definitions, malformed configs, or constraint
// violations detected before evaluation or persistence.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist. For mapping configs
// this is a "needs initialization" signal, not a fatal condition.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "mapping config")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ExpressionError represents a single mapping rule's expression failure.
// It is recorded in the per-rule error map and never aborts sibling rules.
type ExpressionError struct {
	// Target is the rule's target parameter or output name
	Target string

	// Expression is the expression text that failed
	Expression string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("expression for %s failed: %s", e.Target, e.Message)
	}
	return fmt.Sprintf("expression failed: %s", e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// StoreError represents a persistence failure.
// Use this when the backing store is unreachable or rejects an operation.
// The operator's in-memory draft survives; there is no automatic retry.
type StoreError struct {
	// Op is the operation that failed (e.g., "save", "delete")
	Op string

	// WorkflowID identifies the config being operated on
	WorkflowID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.WorkflowID != "" {
		return fmt.Sprintf("store %s failed for workflow %s: %v", e.Op, e.WorkflowID, e.Cause)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}
