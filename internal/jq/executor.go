// Package jq evaluates jq expressions against vendor JSON and platform
// argument documents.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds a single expression evaluation.
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the largest JSON document accepted (10MB).
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// Executor evaluates jq expressions with timeout and size limits.
// Compiled expressions are cached for the lifetime of the executor.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64

	mu    sync.Mutex
	cache map[string]*gojq.Code
}

// NewExecutor creates a new jq executor. Zero values select the defaults.
func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize == 0 {
		maxInputSize = DefaultMaxInputSize
	}

	return &Executor{
		timeout:      timeout,
		maxInputSize: maxInputSize,
		cache:        make(map[string]*gojq.Code),
	}
}

// Execute runs expression against data. A single result is returned as-is,
// several results are returned as a slice, and no result yields nil.
func (e *Executor) Execute(ctx context.Context, expression string, data interface{}) (interface{}, error) {
	results, err := e.run(ctx, expression, data)
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// First runs expression against data and returns only the first result.
// ok is false when the expression produced nothing or produced null.
func (e *Executor) First(ctx context.Context, expression string, data interface{}) (interface{}, bool, error) {
	results, err := e.run(ctx, expression, data)
	if err != nil {
		return nil, false, err
	}
	if len(results) == 0 || results[0] == nil {
		return nil, false, nil
	}
	return results[0], true, nil
}

// Validate checks that expression parses and compiles.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	if _, err := e.compile(expression); err != nil {
		return err
	}
	return nil
}

func (e *Executor) run(ctx context.Context, expression string, data interface{}) ([]interface{}, error) {
	if expression == "" {
		return []interface{}{data}, nil
	}

	input, err := e.normalize(data)
	if err != nil {
		return nil, err
	}

	code, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		results []interface{}
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		iter := code.RunWithContext(execCtx, input)
		var results []interface{}
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				done <- outcome{err: fmt.Errorf("jq %q: %w", expression, err)}
				return
			}
			if execCtx.Err() != nil {
				break
			}
			results = append(results, v)
		}
		done <- outcome{results: results}
	}()

	select {
	case out := <-done:
		if execCtx.Err() != nil {
			return nil, fmt.Errorf("execution timeout after %v", e.timeout)
		}
		return out.results, out.err
	case <-execCtx.Done():
		return nil, fmt.Errorf("execution timeout after %v", e.timeout)
	}
}

func (e *Executor) compile(expression string) (*gojq.Code, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if code, ok := e.cache[expression]; ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed for %q: %w", expression, err)
	}
	e.cache[expression] = code
	return code, nil
}

// normalize converts data into the plain JSON value types gojq accepts and
// enforces the input size limit on the way.
func (e *Executor) normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	if int64(len(raw)) > e.maxInputSize {
		return nil, fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)",
			len(raw), e.maxInputSize)
	}

	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize data: %w", err)
	}
	return out, nil
}
