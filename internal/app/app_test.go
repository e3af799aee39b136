package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/scheduler"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

func mountDemo(t *testing.T) (*renderer.Root, *backend.Recorder, *scheduler.Manual) {
	t.Helper()
	rec := backend.NewRecorder()
	m := scheduler.NewManual()
	root := renderer.New(rec, m)
	root.Render(vnode.Element(App, nil), rec.Container())
	if err := settle(root, m); err != nil {
		t.Fatal(err)
	}
	return root, rec, m
}

func find(t *testing.T, rec *backend.Recorder, id string) backend.NodeID {
	t.Helper()
	n, ok := rec.FindByProp("id", id)
	if !ok {
		t.Fatalf("node %q not mounted", id)
	}
	return n
}

func TestCounter(t *testing.T) {
	root, rec, m := mountDemo(t)
	h1 := find(t, rec, "counter")

	if got := rec.TextContent(h1); got != "Count: 1" {
		t.Fatalf("counter = %q, want %q", got, "Count: 1")
	}
	for i := 0; i < 3; i++ {
		rec.Dispatch(h1, "click", nil)
	}
	if err := settle(root, m); err != nil {
		t.Fatal(err)
	}
	if got := rec.TextContent(h1); got != "Count: 4" {
		t.Errorf("counter = %q, want %q", got, "Count: 4")
	}
}

func TestTodoList(t *testing.T) {
	root, rec, m := mountDemo(t)
	ul := find(t, rec, "todo")

	if got := rec.TextContent(ul); got != "- render- commit" {
		t.Fatalf("list = %q", got)
	}

	rec.Dispatch(find(t, rec, "add"), "click", nil)
	rec.Dispatch(find(t, rec, "add"), "click", nil)
	if err := settle(root, m); err != nil {
		t.Fatal(err)
	}
	if got := len(rec.Children(ul)); got != 4 {
		t.Fatalf("items = %d, want 4", got)
	}
	if got := rec.TextContent(ul); got != "- render- commit- item 1- item 2" {
		t.Errorf("list = %q", got)
	}

	first := rec.Children(ul)[0]
	rec.Dispatch(first, "click", nil)
	if err := settle(root, m); err != nil {
		t.Fatal(err)
	}
	if got := rec.TextContent(ul); got != "- commit- item 1- item 2" {
		t.Errorf("list after delete = %q", got)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if err := Dump(&buf, 2); err != nil {
		t.Fatalf("Dump error = %v", err)
	}

	var tree backend.TreeNode
	if err := yaml.Unmarshal(buf.Bytes(), &tree); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if tree.Kind != "#container" || len(tree.Children) != 1 {
		t.Fatalf("root = %+v", tree)
	}
	if !strings.Contains(buf.String(), "text: \"3\"") && !strings.Contains(buf.String(), "text: '3'") {
		t.Errorf("dump does not show the clicked counter:\n%s", buf.String())
	}
}

func TestNew_InvalidOverride(t *testing.T) {
	_, err := New(Options{LogLevel: "loud"})
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("New error = %v, want initialization and invalid value", err)
	}
}

func TestNew_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tessera.log")
	app, err := New(Options{LogLevel: "debug", LogFile: logPath})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()

	app.log.Debug("hello")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("log file = %q", data)
	}
	if !renderer.Logger().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("renderer logger not installed")
	}
}

func TestRun_NoSurface(t *testing.T) {
	app, err := New(Options{})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(context.Background()); !errors.Is(err, ErrNoSurface) {
		t.Errorf("Run error = %v, want ErrNoSurface", err)
	}
}

func TestRun_QuitKey(t *testing.T) {
	app, err := New(Options{})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()

	screen := tcell.NewSimulationScreen("")
	app.SetSurface(backend.NewTerminalWithScreen(screen))

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(context.Background()) }()

	// Keys injected before Init are lost, so wait for the first paint.
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(screenText(screen), "Count: 1") {
		if time.Now().After(deadline) {
			t.Fatal("demo was not painted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	screen.InjectKey(tcell.KeyTab, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	deadline = time.Now().Add(5 * time.Second)
	for !strings.Contains(screenText(screen), "Count: 2") {
		if time.Now().After(deadline) {
			t.Fatal("click on the focused counter was not rendered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run error = %v, want ErrQuit", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after q")
	}
}

func TestQuit_WakesRun(t *testing.T) {
	app, err := New(Options{})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()

	screen := tcell.NewSimulationScreen("")
	app.SetSurface(backend.NewTerminalWithScreen(screen))

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(screenText(screen), "Count: 1") {
		if time.Now().After(deadline) {
			t.Fatal("demo was not painted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	app.Quit()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run error = %v, want ErrQuit", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}

	// Quit after Run has returned is a no-op.
	app.Quit()
}

func TestRun_ContextCancel(t *testing.T) {
	app, err := New(Options{})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()
	app.SetSurface(backend.NewTerminalWithScreen(tcell.NewSimulationScreen("")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := app.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run error = %v, want context.DeadlineExceeded", err)
	}
}

func TestApplyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tessera.toml")
	if err := os.WriteFile(path, []byte("[scheduler]\nframeBudget = \"4ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := New(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer app.Shutdown()

	if got := app.loop.FrameBudget(); got != 4*time.Millisecond {
		t.Fatalf("FrameBudget = %v, want 4ms", got)
	}

	if err := os.WriteFile(path, []byte("[scheduler]\nframeBudget = \"6ms\"\n[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	app.reload()
	if got := app.loop.FrameBudget(); got != 6*time.Millisecond {
		t.Errorf("FrameBudget after reload = %v, want 6ms", got)
	}
	if got := app.level.Level(); got != slog.LevelWarn {
		t.Errorf("level after reload = %v, want WARN", got)
	}

	// A broken file keeps the running settings.
	if err := os.WriteFile(path, []byte("[scheduler\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	app.reload()
	if got := app.loop.FrameBudget(); got != 6*time.Millisecond {
		t.Errorf("FrameBudget after bad reload = %v, want 6ms", got)
	}
}

// screenText returns the simulation screen contents as one string.
func screenText(s tcell.SimulationScreen) string {
	cells, width, _ := s.GetContents()
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 && i%width == 0 {
			sb.WriteByte('\n')
		}
		if len(c.Runes) == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(string(c.Runes))
	}
	return sb.String()
}
