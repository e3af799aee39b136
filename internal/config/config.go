package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dshills/tessera/internal/config/loader"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "TESSERA_"

// Setting paths.
const (
	PathMinRemaining = "scheduler.minRemaining"
	PathFrameBudget  = "scheduler.frameBudget"
	PathTickInterval = "scheduler.tickInterval"
	PathLogLevel     = "logging.level"
	PathLogFile      = "logging.file"
)

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"scheduler": map[string]any{
			"minRemaining": "1ms",
			"frameBudget":  "8ms",
			"tickInterval": "16ms",
		},
		"logging": map[string]any{
			"level": "info",
			"file":  "",
		},
	}
}

// SchedulerSettings holds the work loop timing settings.
type SchedulerSettings struct {
	MinRemaining time.Duration
	FrameBudget  time.Duration
	TickInterval time.Duration
}

// LoggingSettings holds the logging settings.
type LoggingSettings struct {
	Level slog.Level
	File  string
}

// Config provides access to the merged tessera configuration.
// It is safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	path      string
	fs        loader.FileSystem
	envPrefix string

	// overrides are applied after every load.
	overrides map[string]any

	data      map[string]any
	scheduler SchedulerSettings
	logging   LoggingSettings
}

// Option configures a Config instance.
type Option func(*Config)

// WithPath sets the config file path. An empty path skips the file.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem sets the file system the config file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// New creates a Config holding the defaults. Call Load to read the file
// and environment.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		envPrefix: DefaultEnvPrefix,
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}

	data := Defaults()
	sched, logging, err := resolve(data)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	c.data, c.scheduler, c.logging = data, sched, logging
	return c
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// Load reads the config file and environment and replaces the current
// settings. On error the previous settings are kept.
func (c *Config) Load(_ context.Context) error {
	data := Defaults()

	if c.path != "" {
		file, err := loader.NewTOMLLoaderWithFS(c.fs, c.path).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.path, err)
		}
		data = loader.DeepMerge(data, file)
	}

	if c.envPrefix != "" {
		env, err := loader.NewEnvLoader(c.envPrefix).Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		data = loader.DeepMerge(data, env)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for path, v := range c.overrides {
		setByPath(data, path, v)
	}

	sched, logging, err := resolve(data)
	if err != nil {
		return err
	}
	c.data, c.scheduler, c.logging = data, sched, logging
	return nil
}

// Set overrides a setting. The override survives later loads.
func (c *Config) Set(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data := loader.Clone(c.data)
	setByPath(data, path, value)
	sched, logging, err := resolve(data)
	if err != nil {
		return err
	}
	c.overrides[path] = value
	c.data, c.scheduler, c.logging = data, sched, logging
	return nil
}

// Scheduler returns the scheduler settings.
func (c *Config) Scheduler() SchedulerSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scheduler
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logging
}

// resolve validates data and extracts the typed settings.
func resolve(data map[string]any) (SchedulerSettings, LoggingSettings, error) {
	var s SchedulerSettings
	var l LoggingSettings

	durations := []struct {
		path string
		dst  *time.Duration
		min  time.Duration
	}{
		{PathMinRemaining, &s.MinRemaining, 0},
		{PathFrameBudget, &s.FrameBudget, time.Millisecond},
		{PathTickInterval, &s.TickInterval, time.Millisecond},
	}
	for _, d := range durations {
		v, _ := getByPath(data, d.path)
		dur, err := toDuration(d.path, v)
		if err != nil {
			return s, l, err
		}
		if dur < d.min {
			return s, l, &ValidationError{Path: d.path, Message: fmt.Sprintf("must be at least %v", d.min), Value: v}
		}
		*d.dst = dur
	}

	if v, _ := getByPath(data, PathLogLevel); v != nil {
		name, ok := v.(string)
		if !ok {
			return s, l, &TypeError{Path: PathLogLevel, Expected: "string", Actual: fmt.Sprintf("%T", v)}
		}
		if err := l.Level.UnmarshalText([]byte(name)); err != nil {
			return s, l, &ValidationError{Path: PathLogLevel, Message: "unknown level", Value: v}
		}
	}

	if v, _ := getByPath(data, PathLogFile); v != nil {
		file, ok := v.(string)
		if !ok {
			return s, l, &TypeError{Path: PathLogFile, Expected: "string", Actual: fmt.Sprintf("%T", v)}
		}
		l.File = file
	}

	return s, l, nil
}

// toDuration accepts a time.Duration, a duration string, or an integer
// number of milliseconds.
func toDuration(path string, v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		dur, err := time.ParseDuration(d)
		if err != nil {
			return 0, &ValidationError{Path: path, Message: "not a duration", Value: v}
		}
		return dur, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case nil:
		return 0, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%T", v)}
	}
}

func getByPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
