package config

import "time"

// Section accessor methods return snapshot structs. Mutating the
// returned struct does not modify the underlying configuration.

// BusConfig provides type-safe access to event bus settings.
type BusConfig struct {
	// LoopThreshold is the per-topic publish count per window past
	// which the loop guard reacts.
	LoopThreshold int

	// LoopWindow is the loop counter reset interval.
	LoopWindow time.Duration

	// StrictLoops makes a publish storm fail the publish instead of
	// only logging a warning.
	StrictLoops bool
}

// Bus returns the event bus settings.
func (c *Config) Bus() BusConfig {
	return BusConfig{
		LoopThreshold: c.getIntOr("bus.loopThreshold", 100),
		LoopWindow:    c.getDurationOr("bus.loopWindow", 5*time.Second),
		StrictLoops:   c.getBoolOr("bus.strictLoops", false),
	}
}

// StorageConfig provides type-safe access to persistence settings.
type StorageConfig struct {
	// Path is the JSON document the story state is kept in. Empty
	// keeps everything in memory.
	Path string
}

// Storage returns the persistence settings.
func (c *Config) Storage() StorageConfig {
	return StorageConfig{
		Path: c.getStringOr("storage.path", ""),
	}
}

// CascadeConfig provides type-safe access to relationship cascade
// settings.
type CascadeConfig struct {
	// MutualSync keeps the reverse direction of every relationship
	// consistent with the forward one.
	MutualSync bool

	// MutualRatio scales a derived reverse relationship's strength
	// relative to the forward one.
	MutualRatio float64

	// RetryAttempts is how many times a failed save is tried.
	RetryAttempts int

	// RetryDelay is the pause between save attempts.
	RetryDelay time.Duration
}

// Cascade returns the relationship cascade settings.
func (c *Config) Cascade() CascadeConfig {
	return CascadeConfig{
		MutualSync:    c.getBoolOr("cascade.mutualSync", true),
		MutualRatio:   c.getFloatOr("cascade.mutualRatio", 0.8),
		RetryAttempts: c.getIntOr("cascade.retryAttempts", 3),
		RetryDelay:    c.getDurationOr("cascade.retryDelay", 50*time.Millisecond),
	}
}

// MemoryConfig provides type-safe access to memory extraction
// settings.
type MemoryConfig struct {
	// PoolSize caps concurrent extraction tasks.
	PoolSize int
}

// Memory returns the memory extraction settings.
func (c *Config) Memory() MemoryConfig {
	return MemoryConfig{
		PoolSize: c.getIntOr("memory.poolSize", 8),
	}
}

// AIConfig provides type-safe access to chapter drafting settings.
type AIConfig struct {
	// Enabled turns LLM drafting on.
	Enabled bool

	// Provider is the AI provider ("anthropic", "openai").
	Provider string

	// Model overrides the provider's default model when set.
	Model string

	// MaxTokens is the completion budget per chapter.
	MaxTokens int

	// AnthropicKey and OpenAIKey are the provider credentials. They
	// normally arrive through NOVELSUB_ANTHROPIC_KEY and
	// NOVELSUB_OPENAI_KEY rather than the config file.
	AnthropicKey string
	OpenAIKey    string
}

// AI returns the chapter drafting settings.
func (c *Config) AI() AIConfig {
	return AIConfig{
		Enabled:      c.getBoolOr("ai.enabled", false),
		Provider:     c.getStringOr("ai.provider", "anthropic"),
		Model:        c.getStringOr("ai.model", ""),
		MaxTokens:    c.getIntOr("ai.maxTokens", 2048),
		AnthropicKey: c.getStringOr("ai.anthropicApiKey", ""),
		OpenAIKey:    c.getStringOr("ai.openaiApiKey", ""),
	}
}

// LoggingConfig provides type-safe access to logging settings.
type LoggingConfig struct {
	// Level is the minimum level to emit ("debug", "info", "warn",
	// "error").
	Level string

	// Format selects "text" or "json" output.
	Format string

	// File is the log file path. Empty logs to stderr.
	File string

	// MaxSize is the size in megabytes a log file may reach before
	// rotation.
	MaxSize int

	// MaxBackups is how many rotated files to keep.
	MaxBackups int
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:      c.getStringOr("logging.level", "info"),
		Format:     c.getStringOr("logging.format", "text"),
		File:       c.getStringOr("logging.file", ""),
		MaxSize:    c.getIntOr("logging.maxSize", 10),
		MaxBackups: c.getIntOr("logging.maxBackups", 5),
	}
}
