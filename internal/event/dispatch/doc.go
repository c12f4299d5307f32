// Package dispatch runs event handler invocations for the bus.
//
// The executor isolates every invocation: a handler that returns an
// error or panics never affects its siblings or the caller. Panics are
// recovered with their stack trace and reported through the Result so
// the bus can log them.
//
// ExecuteBatch is the delivery primitive for a single event: all
// matching handlers run concurrently as one batch and the batch is
// awaited as a whole, which lets the drain loop finish one event
// completely before starting the next.
//
// # Usage
//
//	var exec dispatch.Executor
//	results := exec.ExecuteBatch(ctx, invokers)
//	for _, res := range results {
//	    if !res.IsSuccess() {
//	        // log res.Err or res.PanicValue
//	    }
//	}
//
// # Context Support
//
// Invocations respect context cancellation: a cancelled context marks
// remaining work as skipped with the context's error.
package dispatch
