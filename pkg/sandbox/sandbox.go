// Package sandbox runs user-authored scripts in a capability-free expression
// environment. Scripts see only the injected input and a small stdlib; they
// cannot reach the network, the filesystem, or the host process.
package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/zapflowhq/zapflow/pkg/protocol"
)

const (
	defaultTimeout = 5 * time.Second

	// contextVar is the env key the vm reads its cancellation context from.
	// Scripts must not use it as an input name.
	contextVar = "__ctx"
)

// ExprSandbox implements protocol.CodeSandbox on top of expr-lang. Compiled
// programs are cached by script text.
type ExprSandbox struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprSandbox creates a sandbox with an empty program cache.
func NewExprSandbox() *ExprSandbox {
	return &ExprSandbox{cache: make(map[string]*vm.Program)}
}

// Run compiles (or reuses) the script and evaluates it against input. The
// evaluation is bounded by limits.Timeout; a timed-out run returns an error
// without side effects.
func (s *ExprSandbox) Run(ctx context.Context, script string, input map[string]any, limits protocol.SandboxLimits) (any, error) {
	program, err := s.compile(script)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	timeout := limits.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := make(map[string]any, len(input)+1)
	for key, value := range input {
		env[key] = value
	}

	// The vm polls this context, so a timed-out run also stops executing
	// instead of finishing in the background. The name is reserved.
	env[contextVar] = runCtx

	type result struct {
		value any
		err   error
	}

	done := make(chan result, 1)

	go func() {
		value, runErr := expr.Run(program, env)
		done <- result{value: value, err: runErr}
	}()

	select {
	case <-runCtx.Done():
		return nil, fmt.Errorf("script execution timed out after %s: %w", timeout, runCtx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("script execution failed: %w", res.err)
		}

		return res.value, nil
	}
}

func (s *ExprSandbox) compile(script string) (*vm.Program, error) {
	s.mu.RLock()
	program, ok := s.cache[script]
	s.mu.RUnlock()

	if ok {
		return program, nil
	}

	program, err := expr.Compile(script, expr.AllowUndefinedVariables(), expr.WithContext(contextVar))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[script] = program
	s.mu.Unlock()

	return program, nil
}
