// Package app wires the story pipeline together and manages its
// lifecycle: configuration, logging, the event bus, storage, the
// change cascades, memory extraction and optional LLM drafting.
package app

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/cascade"
	"github.com/tenchan000517/novel-sub005/internal/config"
	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/generate"
	"github.com/tenchan000517/novel-sub005/internal/logging"
	"github.com/tenchan000517/novel-sub005/internal/memory"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/storage/jsonfile"
	"github.com/tenchan000517/novel-sub005/internal/story/service"
)

// Application is the central coordinator for the pipeline components.
// It owns their construction order and their shutdown.
type Application struct {
	config *config.Config
	log    *logrus.Logger

	bus   event.Bus
	store storage.Store

	service *service.Service
	memory  *memory.Service
	drafter *generate.Drafter

	dispose event.Disposer
	closed  atomic.Bool

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses the default
	// location.
	ConfigPath string

	// StoragePath overrides storage.path from the configuration.
	StoragePath string

	// LogLevel overrides logging.level from the configuration.
	LogLevel string

	// Client replaces the LLM client built from the ai section.
	// Useful for tests and offline runs; setting it enables drafting
	// regardless of ai.enabled.
	Client generate.Client
}

// New creates an Application with every component wired. Release it
// with Close.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	var cfgOpts []config.Option
	if app.opts.ConfigPath != "" {
		cfgOpts = append(cfgOpts, config.WithFile(app.opts.ConfigPath))
	}
	app.config = config.New(cfgOpts...)
	if err := app.config.Load(context.Background()); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.StoragePath != "" {
		if err := app.config.Set("storage.path", app.opts.StoragePath); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	if app.opts.LogLevel != "" {
		if err := app.config.Set("logging.level", app.opts.LogLevel); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}

	// 2. Logging
	app.log = logging.New(app.config.Logging())

	// 3. Event bus
	busCfg := app.config.Bus()
	app.bus = event.NewBus(
		event.WithLoopThreshold(busCfg.LoopThreshold),
		event.WithLoopWindow(busCfg.LoopWindow),
		event.WithStrictLoops(busCfg.StrictLoops),
		event.WithLogger(app.log),
	)

	// 4. Storage
	if path := app.config.Storage().Path; path != "" {
		st, err := jsonfile.Open(path)
		if err != nil {
			return &InitError{Component: "storage", Err: err}
		}
		app.store = st
	} else {
		app.store = storage.NewMemStore()
	}

	// 5. Cascades and memory extraction
	cascadeCfg := app.config.Cascade()
	projector := cascade.NewProjector(app.bus, app.store, app.log)
	relationships := cascade.NewRelationshipCascade(app.bus, app.store, projector, app.log,
		cascade.WithMutualSync(cascadeCfg.MutualSync),
		cascade.WithMutualRatio(cascadeCfg.MutualRatio),
		cascade.WithRetryAttempts(uint(max(cascadeCfg.RetryAttempts, 0))),
		cascade.WithRetryDelay(cascadeCfg.RetryDelay),
	)
	characters := cascade.NewCharacterCascade(app.bus, app.log)

	mem, err := memory.NewService(app.bus, app.store, app.log,
		memory.WithPoolSize(app.config.Memory().PoolSize))
	if err != nil {
		return &InitError{Component: "memory", Err: err}
	}
	app.memory = mem

	regs := characters.Registrations()
	regs = append(regs, relationships.Registrations()...)
	regs = append(regs, mem.Registrations()...)
	dispose, err := event.RegisterAll(app.bus, regs)
	if err != nil {
		return &InitError{Component: "subscriptions", Err: err}
	}
	app.dispose = dispose

	// 6. Story service
	app.service = service.New(app.bus, app.store, app.log)

	// 7. Drafter, when a client is injected or the ai section enables one
	ai := app.config.AI()
	client := app.opts.Client
	if client == nil && ai.Enabled {
		client, err = newProviderClient(ai)
		if err != nil {
			return &InitError{Component: "ai client", Err: err}
		}
	}
	if client != nil {
		app.drafter = generate.NewDrafter(client, app.bus, app.store, app.log,
			generate.WithMaxTokens(int64(ai.MaxTokens)))
	}

	return nil
}

// newProviderClient builds the configured provider's client with its
// credential from the ai section.
func newProviderClient(ai config.AIConfig) (generate.Client, error) {
	key := ai.AnthropicKey
	if strings.EqualFold(ai.Provider, "openai") {
		key = ai.OpenAIKey
	}
	return generate.New(ai.Provider, key, generate.WithModel(ai.Model))
}

// Close drains the bus and releases every component in reverse
// construction order. It is idempotent.
func (app *Application) Close(ctx context.Context) error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := app.bus.Close(ctx)
	if app.dispose != nil {
		app.dispose()
	}
	if app.memory != nil {
		app.memory.Close()
	}
	return err
}

// Config returns the configuration system.
func (app *Application) Config() *config.Config {
	return app.config
}

// Log returns the process logger.
func (app *Application) Log() *logrus.Logger {
	return app.log
}

// Bus returns the event bus.
func (app *Application) Bus() event.Bus {
	return app.bus
}

// Store returns the story store.
func (app *Application) Store() storage.Store {
	return app.store
}

// Service returns the story service.
func (app *Application) Service() *service.Service {
	return app.service
}

// Memory returns the memory service.
func (app *Application) Memory() *memory.Service {
	return app.memory
}

// Drafter returns the chapter drafter, or nil when drafting is
// disabled.
func (app *Application) Drafter() *generate.Drafter {
	return app.drafter
}

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
