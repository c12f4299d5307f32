package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"time"
)

// Invoker is a single handler invocation bound to its event.
type Invoker func(ctx context.Context) error

// Result describes the outcome of one handler invocation.
type Result struct {
	// Success is true if the handler completed without error or panic.
	Success bool

	// Err is the error returned by the handler, if any.
	Err error

	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace captured at the point of panic.
	PanicStack []byte

	// Duration is how long the invocation took.
	Duration time.Duration

	// Skipped is true if the handler was not executed (context cancelled).
	Skipped bool
}

// IsSuccess returns true if the invocation completed cleanly.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Err == nil
}

// Executor runs handler invocations with panic recovery and timing.
// The zero value is ready to use.
type Executor struct{}

// Execute runs one invocation and returns its result. Panics are
// recovered and reported through the result, never propagated.
func (e *Executor) Execute(ctx context.Context, invoke Invoker) (result Result) {
	select {
	case <-ctx.Done():
		return Result{Err: ctx.Err(), Skipped: true}
	default:
	}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = debug.Stack()
		}
	}()

	if err := invoke(ctx); err != nil {
		result.Err = err
		return result
	}

	result.Success = true
	return result
}

// ExecuteBatch runs all invocations concurrently, one goroutine each,
// and waits for the whole batch. Goroutines are launched in slice
// order; completion order is unspecified. Results are returned in
// slice order.
func (e *Executor) ExecuteBatch(ctx context.Context, invokers []Invoker) []Result {
	results := make([]Result, len(invokers))

	var wg sync.WaitGroup
	for i, invoke := range invokers {
		wg.Add(1)
		go func(i int, invoke Invoker) {
			defer wg.Done()
			results[i] = e.Execute(ctx, invoke)
		}(i, invoke)
	}
	wg.Wait()

	return results
}
