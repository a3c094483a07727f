package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	fberrors "github.com/tombee/fieldbind/pkg/errors"
)

// Evaluator evaluates mapping-rule expressions against a set of named
// variables. Expressions are compiled once and cached for repeated
// evaluations; the grammar is the expr language (property access, array
// builtins like map/filter/join, ternary, logical operators) with no access
// to the host environment.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new expression evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate evaluates an expression with the given variables bound.
// Returns the expression's value or an error if compilation or evaluation
// fails. Unknown variables resolve to nil rather than failing, since sample
// contexts routinely omit fields.
//
// Example:
//
//	env := map[string]any{
//	    "query":   "summarize",
//	    "sources": []any{map[string]any{"title": "Doc A"}},
//	}
//	v, err := eval.Evaluate(`join(map(sources, {.title}), ", ")`, env)
func (e *Evaluator) Evaluate(expression string, env map[string]any) (any, error) {
	if expression == "" {
		return nil, &fberrors.ExpressionError{
			Expression: expression,
			Message:    "expression is empty",
		}
	}

	program, err := e.compile(expression)
	if err != nil {
		return nil, &fberrors.ExpressionError{
			Expression: expression,
			Message:    fmt.Sprintf("compile failed: %s", err.Error()),
			Cause:      err,
		}
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, &fberrors.ExpressionError{
			Expression: expression,
			Message:    fmt.Sprintf("evaluation failed: %s", err.Error()),
			Cause:      err,
		}
	}

	return result, nil
}

// Check validates an expression by compiling it without running it.
// Used to reject bad rules at save time instead of at evaluation time.
func (e *Evaluator) Check(expression string) error {
	if expression == "" {
		return &fberrors.ExpressionError{Message: "expression is empty"}
	}
	if _, err := e.compile(expression); err != nil {
		return &fberrors.ExpressionError{
			Expression: expression,
			Message:    fmt.Sprintf("compile failed: %s", err.Error()),
			Cause:      err,
		}
	}
	return nil
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	// Compile against an open environment: the variable set is only known at
	// evaluation time and absent variables must resolve to nil.
	prog, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}

	// Cache the compiled program (write lock)
	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// ClearCache clears the expression cache.
// This is mainly useful for testing.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*vm.Program)
	e.mu.Unlock()
}

// CacheSize returns the number of cached expressions.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
