package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"todo-keeper/internal/config"
	"todo-keeper/internal/repository"
	"todo-keeper/internal/state"
)

// CLI is the root command set.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Serve      ServeCmd      `cmd:"" help:"Run the Telegram bot with scheduled reports"`
	Add        AddCmd        `cmd:"" help:"Add a task"`
	List       ListCmd       `cmd:"" aliases:"ls" help:"List tasks"`
	Done       DoneCmd       `cmd:"" help:"Toggle completion of a task"`
	Edit       EditCmd       `cmd:"" help:"Change text, notes or category of a task"`
	Rm         RmCmd         `cmd:"" help:"Delete a task"`
	Clear      ClearCmd      `cmd:"" help:"Delete all tasks"`
	Theme      ThemeCmd      `cmd:"" help:"Show or toggle the colour theme"`
	Categories CategoriesCmd `cmd:"" help:"Manage categories"`
}

// runContext is bound into every command's Run method.
type runContext struct {
	ctx      context.Context
	cfg      config.Config
	log      *log.Logger
	state    *state.Container
	registry *prometheus.Registry
	out      io.Writer
	in       io.Reader
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("todokeeper"),
		kong.Description("A small to-do list with categories, kept in SQLite."),
		kong.UsageOnError(),
	)

	lg := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "todokeeper",
	})

	cfg, err := config.Load()
	if err != nil {
		lg.Fatal("config", "err", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if cli.Verbose {
		level = log.DebugLevel
	}
	lg.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	store, err := repository.NewInstrumented(repository.NewKVRepository(db), registry)
	if err != nil {
		lg.Fatal("metrics", "err", err)
	}

	rc := newRunContext(ctx, cfg, lg, store, registry)
	defer rc.state.Close()

	if err := kctx.Run(rc); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("command failed", "cmd", kctx.Command(), "err", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRunContext restores the container from store. Unreadable keys fall back
// to defaults and are only logged.
func newRunContext(ctx context.Context, cfg config.Config, lg *log.Logger, store state.Store, registry *prometheus.Registry) *runContext {
	c := state.New(store, state.WithLogger(lg.WithPrefix("state")))
	if err := c.Load(ctx); err != nil {
		lg.Warn("state restored with defaults", "err", err)
	}
	return &runContext{
		ctx:      ctx,
		cfg:      cfg,
		log:      lg,
		state:    c,
		registry: registry,
		out:      os.Stdout,
		in:       os.Stdin,
	}
}
