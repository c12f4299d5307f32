package event

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Default loop guard settings.
const (
	// DefaultLoopThreshold is the number of publishes of one topic
	// within the window past which a storm is flagged.
	DefaultLoopThreshold = 100

	// DefaultLoopWindow is how often loop counters reset.
	DefaultLoopWindow = 5 * time.Second
)

// BusOption configures a Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// loopThreshold is the per-topic publish count past which a storm
	// warning fires.
	loopThreshold int

	// loopWindow is the loop counter reset interval.
	loopWindow time.Duration

	// strictLoops makes Publish return ErrLoopDetected on a storm
	// instead of only warning. Meant for tests and diagnostics.
	strictLoops bool

	// logger receives handler failures and storm warnings.
	logger logrus.FieldLogger
}

// defaultBusConfig returns the default configuration. The default
// logger discards output; callers wire a real one through WithLogger.
func defaultBusConfig() busConfig {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return busConfig{
		loopThreshold: DefaultLoopThreshold,
		loopWindow:    DefaultLoopWindow,
		logger:        l,
	}
}

// WithLoopThreshold sets the per-topic publish count past which a
// storm is flagged.
func WithLoopThreshold(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.loopThreshold = n
		}
	}
}

// WithLoopWindow sets the loop counter reset interval.
func WithLoopWindow(w time.Duration) BusOption {
	return func(c *busConfig) {
		if w > 0 {
			c.loopWindow = w
		}
	}
}

// WithStrictLoops makes Publish fail with ErrLoopDetected on a storm
// instead of only logging a warning.
func WithStrictLoops(strict bool) BusOption {
	return func(c *busConfig) {
		c.strictLoops = strict
	}
}

// WithLogger sets the logger for handler failures and storm warnings.
func WithLogger(l logrus.FieldLogger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
