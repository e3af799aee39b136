// Package app wires the renderer to the terminal, the configuration and
// the logging stack, and runs the demo application.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/config/watcher"
	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/scheduler"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// LogFile overrides logging.file when set.
	LogFile string
}

// Application runs one render root on one terminal.
type Application struct {
	mu sync.Mutex

	config *config.Config

	log     *slog.Logger
	level   *slog.LevelVar
	logFile io.Closer

	loop *scheduler.Loop
	term *backend.Terminal

	// root is only touched on the loop goroutine once Run has started.
	root *renderer.Root

	running  atomic.Bool
	cancel   context.CancelCauseFunc
	shutdown sync.Once
}

// New loads the configuration and sets up logging and the scheduler.
func New(opts Options) (*Application, error) {
	cfg := config.New(config.WithPath(opts.ConfigPath))
	if opts.LogLevel != "" {
		if err := cfg.Set(config.PathLogLevel, opts.LogLevel); err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
	}
	if opts.LogFile != "" {
		if err := cfg.Set(config.PathLogFile, opts.LogFile); err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
	}
	if err := cfg.Load(context.Background()); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	level := new(slog.LevelVar)
	logger, closer, err := newLogger(cfg.Logging(), level)
	if err != nil {
		return nil, &InitError{Component: "logging", Err: err}
	}
	renderer.SetLogger(logger)

	s := cfg.Scheduler()
	return &Application{
		config:  cfg,
		log:     logger,
		level:   level,
		logFile: closer,
		loop: scheduler.NewLoop(
			scheduler.WithTickInterval(s.TickInterval),
			scheduler.WithFrameBudget(s.FrameBudget),
		),
	}, nil
}

// Config returns the application configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// SetSurface sets the terminal the application renders to.
func (app *Application) SetSurface(term *backend.Terminal) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.term = term
}

// Run initializes the terminal, mounts the demo and drives the scheduler
// until ctx is cancelled or the user quits. A user quit returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	app.mu.Lock()
	term := app.term
	app.mu.Unlock()
	if term == nil {
		return ErrNoSurface
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := term.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()
	defer func() {
		app.mu.Lock()
		app.cancel = nil
		app.mu.Unlock()
	}()

	app.root = renderer.New(term, app.loop,
		renderer.WithMinRemaining(app.config.Scheduler().MinRemaining))
	app.root.OnCommit(func(ci renderer.CommitInfo) {
		if ci.Mutations > 0 {
			app.log.Debug("surface updated", slog.Int("mutations", ci.Mutations))
		}
	})
	app.root.Render(vnode.Element(App, nil), term.Container())

	if w := app.startWatcher(ctx); w != nil {
		defer w.Close()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.pollEvents(ctx, term)
	}()

	width, height := term.Size()
	app.log.Info("started",
		slog.String("root", app.root.ID()),
		slog.Int("width", width),
		slog.Int("height", height))
	err := app.loop.Run(ctx)

	// Fini makes a blocked PollEvent return nil.
	term.Shutdown()
	wg.Wait()

	st := app.root.Stats()
	app.log.Info("stopped",
		slog.Uint64("builds", st.Builds),
		slog.Uint64("commits", st.Commits),
		slog.Uint64("superseded", st.Superseded))

	if errors.Is(context.Cause(ctx), ErrQuit) {
		return ErrQuit
	}
	return err
}

// Quit asks a running application to stop and wakes the event pump.
// Run then returns ErrQuit.
func (app *Application) Quit() {
	app.mu.Lock()
	cancel, term := app.cancel, app.term
	app.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel(ErrQuit)
	if term != nil {
		term.PostQuit()
	}
}

// Shutdown stops the application and releases the log file. It is safe
// to call more than once.
func (app *Application) Shutdown() {
	app.Quit()
	app.shutdown.Do(func() {
		renderer.SetLogger(nil)
		if app.logFile != nil {
			_ = app.logFile.Close()
		}
	})
}

// pollEvents forwards terminal events to the loop goroutine until the
// terminal is interrupted or the loop stops.
func (app *Application) pollEvents(ctx context.Context, term *backend.Terminal) {
	for {
		ev := term.PollEvent()
		switch ev.(type) {
		case nil, *tcell.EventInterrupt:
			return
		}
		if err := app.loop.Post(ctx, func() { app.handleEvent(term, ev) }); err != nil {
			return
		}
	}
}

// handleEvent runs on the loop goroutine.
func (app *Application) handleEvent(term *backend.Terminal, ev tcell.Event) {
	if k, ok := ev.(*tcell.EventKey); ok {
		if k.Key() == tcell.KeyCtrlC || k.Key() == tcell.KeyEscape ||
			(k.Key() == tcell.KeyRune && k.Rune() == 'q') {
			app.log.Info("quit requested")
			app.Quit()
			return
		}
	}
	term.HandleEvent(ev)
}

// startWatcher reloads the configuration whenever the file changes. It
// returns nil when there is no file or it cannot be watched.
func (app *Application) startWatcher(ctx context.Context) *watcher.Watcher {
	path := app.config.Path()
	if path == "" {
		return nil
	}

	w, err := watcher.New(path, watcher.WithErrorHandler(func(err error) {
		app.log.Warn("config watcher", slog.Any("error", err))
	}))
	if err != nil {
		app.log.Warn("config live reload disabled", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	w.OnChange(func(ev watcher.Event) {
		app.log.Debug("config changed", slog.String("op", ev.Op.String()))
		if ev.Op == watcher.OpRemove {
			return
		}
		_ = app.loop.Post(ctx, app.reload)
	})
	if err := w.Start(); err != nil {
		_ = w.Close()
		return nil
	}
	return w
}

// reload re-reads the configuration and applies what can change at
// runtime: the yield threshold, the frame budget and the log level. The
// tick interval and log file keep their startup values.
func (app *Application) reload() {
	if err := app.config.Load(context.Background()); err != nil {
		app.log.Warn("config reload failed", slog.Any("error", err))
		return
	}
	app.applyConfig()
	app.log.Info("config reloaded", slog.String("path", app.config.Path()))
}

func (app *Application) applyConfig() {
	s := app.config.Scheduler()
	app.loop.SetFrameBudget(s.FrameBudget)
	if app.root != nil {
		app.root.SetMinRemaining(s.MinRemaining)
	}
	app.level.Set(app.config.Logging().Level)
}
