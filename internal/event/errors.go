package event

import "errors"

// Sentinel errors for the event bus.
var (
	// ErrBusClosed is returned when publishing to a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrLoopDetected is returned by Publish in strict mode when a
	// topic crosses the loop threshold within the reset window.
	ErrLoopDetected = errors.New("event loop detected")

	// ErrInvalidTopic is returned when a topic is empty or malformed,
	// or when a wildcard pattern is published.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is subscribed.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidSubscription is returned when a nil subscription is
	// passed to Unsubscribe.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrHandlerPanic is the class error for recovered handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error returned by a handler with its context.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Topic is the topic of the event being delivered.
	Topic string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for subscription " + e.SubscriptionID + " on topic " + e.Topic + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered handler panic as an error.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Topic is the topic of the event being delivered.
	Topic string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panic for subscription " + e.SubscriptionID + " on topic " + e.Topic
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
