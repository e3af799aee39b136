package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"testing"
	"time"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

func TestNew_Defaults(t *testing.T) {
	c := New(WithEnvPrefix(""))

	s := c.Scheduler()
	want := SchedulerSettings{
		MinRemaining: time.Millisecond,
		FrameBudget:  8 * time.Millisecond,
		TickInterval: 16 * time.Millisecond,
	}
	if s != want {
		t.Errorf("Scheduler() = %+v, want %+v", s, want)
	}
	if l := c.Logging(); l.Level != slog.LevelInfo || l.File != "" {
		t.Errorf("Logging() = %+v", l)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("TESSERA_SCHEDULER_FRAME_BUDGET", "5ms")
	t.Setenv("TESSERA_LOG_LEVEL", "warn")

	c := New(
		WithPath("/tessera.toml"),
		WithFileSystem(memFS{"/tessera.toml": `
[scheduler]
minRemaining = "2ms"
frameBudget = "12ms"
tickInterval = 20

[logging]
level = "debug"
file = "/tmp/tessera.log"
`}),
	)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	s := c.Scheduler()
	if s.MinRemaining != 2*time.Millisecond {
		t.Errorf("MinRemaining = %v, want 2ms", s.MinRemaining)
	}
	if s.FrameBudget != 5*time.Millisecond {
		t.Errorf("FrameBudget = %v, want env override 5ms", s.FrameBudget)
	}
	if s.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, want 20ms", s.TickInterval)
	}
	l := c.Logging()
	if l.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", l.Level)
	}
	if l.File != "/tmp/tessera.log" {
		t.Errorf("File = %q", l.File)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	c := New(WithPath("/absent.toml"), WithFileSystem(memFS{}), WithEnvPrefix(""))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load error = %v, want nil for missing file", err)
	}
	if c.Scheduler().FrameBudget != 8*time.Millisecond {
		t.Error("defaults not kept")
	}
}

func TestLoad_InvalidKeepsPrevious(t *testing.T) {
	files := memFS{"/t.toml": "[scheduler]\nminRemaining = \"3ms\"\n"}
	c := New(WithPath("/t.toml"), WithFileSystem(files), WithEnvPrefix(""))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"bad duration", "[scheduler]\nminRemaining = \"soon\"\n", ErrInvalidValue},
		{"negative", "[scheduler]\nminRemaining = \"-1ms\"\n", ErrInvalidValue},
		{"zero budget", "[scheduler]\nframeBudget = 0\n", ErrInvalidValue},
		{"bad level", "[logging]\nlevel = \"loud\"\n", ErrInvalidValue},
		{"wrong type", "[logging]\nlevel = 3\n", ErrTypeMismatch},
		{"duration type", "[scheduler]\ntickInterval = true\n", ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files["/t.toml"] = tt.content
			err := c.Load(context.Background())
			if !errors.Is(err, tt.target) {
				t.Fatalf("Load error = %v, want %v", err, tt.target)
			}
			if got := c.Scheduler().MinRemaining; got != 3*time.Millisecond {
				t.Errorf("MinRemaining = %v, want previous 3ms", got)
			}
		})
	}
}

func TestSet_Overrides(t *testing.T) {
	files := memFS{"/t.toml": "[logging]\nlevel = \"debug\"\n"}
	c := New(WithPath("/t.toml"), WithFileSystem(files), WithEnvPrefix(""))

	if err := c.Set(PathLogLevel, "error"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if got := c.Logging().Level; got != slog.LevelError {
		t.Errorf("Level = %v, want override ERROR", got)
	}

	if err := c.Set(PathFrameBudget, "nope"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set invalid error = %v, want ErrInvalidValue", err)
	}
	if err := c.Set("", 1); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Set empty path error = %v, want ErrInvalidPath", err)
	}
}
