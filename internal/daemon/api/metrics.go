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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// evaluationsTotal tracks mapping evaluations by kind (input, output)
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldbind_evaluations_total",
			Help: "Total mapping evaluations by kind",
		},
		[]string{"kind"},
	)

	// ruleErrorsTotal tracks individual rule failures by kind
	ruleErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldbind_rule_errors_total",
			Help: "Total mapping rule evaluation errors by kind",
		},
		[]string{"kind"},
	)

	// previewRunsTotal tracks preview engine runs
	previewRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldbind_preview_runs_total",
			Help: "Total preview evaluations",
		},
	)

	// storeOpsTotal tracks store operations by op and status
	storeOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldbind_store_operations_total",
			Help: "Total store operations by operation and status",
		},
		[]string{"op", "status"},
	)
)

// recordEvaluation increments the evaluation counter and adds rule errors.
func recordEvaluation(kind string, errCount int) {
	evaluationsTotal.WithLabelValues(kind).Inc()
	if errCount > 0 {
		ruleErrorsTotal.WithLabelValues(kind).Add(float64(errCount))
	}
}

// recordStoreOp increments the store operation counter.
func recordStoreOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeOpsTotal.WithLabelValues(op, status).Inc()
}
