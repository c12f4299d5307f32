// Package main is the entry point for the novelsub story pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/tenchan000517/novel-sub005/internal/app"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/seed"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const closeTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	// The topic catalog is static; no application needed.
	if opts.topics {
		printTopics()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(opts.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := application.Close(closeCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		}
	}()

	for _, path := range opts.seeds {
		n, err := seedFile(ctx, application, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		color.Green("seeded %d characters from %s", n, path)
	}

	if err := application.Bus().Drain(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: drain: %v\n", err)
		return 1
	}

	if opts.draft > 0 {
		if err := draftChapter(ctx, application, opts.draft, opts.title); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.graph {
		if err := printGraph(ctx, application); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	stats := application.Bus().Stats()
	color.Green("done: %d events published, %d delivered", stats.Published, stats.Delivered)
	return 0
}

// seedFile loads one seed file and creates its characters through the
// story service, so every cascade observes them.
func seedFile(ctx context.Context, application *app.Application, path string) (int, error) {
	f, err := seed.Load(path)
	if err != nil {
		return 0, err
	}
	return seed.Apply(ctx, application.Service(), f, application.Log())
}

// draftChapter asks the configured LLM provider for a chapter over the
// full cast, prints it, and waits for memory extraction to finish.
func draftChapter(ctx context.Context, application *app.Application, number int, title string) error {
	drafter := application.Drafter()
	if drafter == nil {
		return fmt.Errorf("drafting chapter %d: no LLM provider configured (set ai.enabled and a key)", number)
	}

	chars, err := application.Store().AllCharacters(ctx)
	if err != nil {
		return fmt.Errorf("drafting chapter %d: %w", number, err)
	}
	ids := make([]string, len(chars))
	for i, c := range chars {
		ids[i] = c.ID
	}
	sort.Strings(ids)

	written, err := drafter.Draft(ctx, number, title, ids)
	if err != nil {
		return fmt.Errorf("drafting chapter %d: %w", number, err)
	}

	color.Cyan("chapter %d: %s", written.Number, written.Title)
	fmt.Println(written.Text)

	if err := application.Bus().Drain(ctx); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	for _, id := range ids {
		if n := len(application.Memory().Memories(id)); n > 0 {
			color.Yellow("  %s: %d memories", id, n)
		}
	}
	return nil
}

// printGraph renders the derived relationship graph.
func printGraph(ctx context.Context, application *app.Application) error {
	g, err := application.Service().Graph(ctx)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	color.Cyan("graph: %d characters, %d relationships", len(g.Nodes), len(g.Edges))
	for _, e := range g.Edges {
		fmt.Printf("  %s -> %s  %s (%.2f)\n", e.Source, e.Target, e.Type, e.Strength)
	}
	return nil
}

// printTopics lists every catalogued event type with its dispatch
// priority.
func printTopics() {
	for _, t := range events.Topics() {
		color.Cyan("%-32s %s", t, events.DeclaredPriority(t))
	}
}

type cliOptions struct {
	app    app.Options
	seeds  []string
	topics bool
	graph  bool
	draft  int
	title  string
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	pflag.StringVarP(&opts.app.ConfigPath, "config", "c", "", "path to configuration file")
	pflag.StringVarP(&opts.app.StoragePath, "storage", "s", "", "story store file (defaults to in-memory)")
	pflag.StringVar(&opts.app.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pflag.BoolVar(&opts.topics, "topics", false, "list the event catalog and exit")
	pflag.BoolVarP(&opts.graph, "graph", "g", false, "print the relationship graph before exiting")
	pflag.IntVar(&opts.draft, "draft", 0, "draft this chapter number after seeding (requires an LLM provider)")
	pflag.StringVar(&opts.title, "title", "", "title for the drafted chapter")
	pflag.BoolVarP(&showVersion, "version", "v", false, "show version information")
	pflag.BoolVarP(&showHelp, "help", "h", false, "show help message")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "novelsub - event-driven story state pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: novelsub [options] [seed files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  novelsub --topics                  List the event catalog\n")
		fmt.Fprintf(os.Stderr, "  novelsub -g cast.yaml              Seed characters, print the graph\n")
		fmt.Fprintf(os.Stderr, "  novelsub -s story.json cast.yaml   Seed into a persistent store\n")
		fmt.Fprintf(os.Stderr, "  novelsub --draft 1 cast.yaml       Seed, then draft chapter one\n")
	}

	pflag.Parse()

	if showHelp {
		pflag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("novelsub %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.app.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.app.LogLevel)
		os.Exit(1)
	}

	// Remaining arguments are seed files to apply
	opts.seeds = pflag.Args()

	return opts
}
