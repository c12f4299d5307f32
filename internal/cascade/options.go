package cascade

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults for the relationship cascade.
const (
	// DefaultMutualRatio is the fraction of the forward strength an
	// auto-created reverse relationship starts at.
	DefaultMutualRatio = 0.8

	// DefaultRetryAttempts is how many times a failed save is tried
	// before it is logged and dropped.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the pause between save attempts.
	DefaultRetryDelay = 50 * time.Millisecond
)

// Option configures the relationship cascade.
type Option func(*config)

type config struct {
	mutualSync    bool
	mutualRatio   float64
	retryAttempts uint
	retryDelay    time.Duration
}

func defaultConfig() config {
	return config{
		mutualSync:    true,
		mutualRatio:   DefaultMutualRatio,
		retryAttempts: DefaultRetryAttempts,
		retryDelay:    DefaultRetryDelay,
	}
}

// WithMutualSync enables or disables automatic maintenance of the
// reverse direction of every relationship pair.
func WithMutualSync(enabled bool) Option {
	return func(c *config) {
		c.mutualSync = enabled
	}
}

// WithMutualRatio sets the fraction of the forward strength used when
// auto-creating a reverse relationship.
func WithMutualRatio(ratio float64) Option {
	return func(c *config) {
		if ratio > 0 {
			c.mutualRatio = ratio
		}
	}
}

// WithRetryAttempts sets how many times a failed save is tried.
func WithRetryAttempts(n uint) Option {
	return func(c *config) {
		if n > 0 {
			c.retryAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between save attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// timeNow is stubbed in tests that pin history timestamps.
var timeNow = time.Now

func ensureLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
