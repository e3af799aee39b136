package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/tessera.toml", `
[scheduler]
minRemaining = "2ms"
frameBudget = 10

[logging]
level = "debug"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/tessera.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sched, ok := config["scheduler"].(map[string]any)
	if !ok {
		t.Fatalf("scheduler section = %T, want map", config["scheduler"])
	}
	if sched["minRemaining"] != "2ms" {
		t.Errorf("minRemaining = %v, want 2ms", sched["minRemaining"])
	}
	if sched["frameBudget"] != int64(10) {
		t.Errorf("frameBudget = %v (%T), want int64(10)", sched["frameBudget"], sched["frameBudget"])
	}
	logging := config["logging"].(map[string]any)
	if logging["level"] != "debug" {
		t.Errorf("level = %v, want debug", logging["level"])
	}
}

func TestTOMLLoader_Missing(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/nope.toml").Load()
	if err != nil {
		t.Fatalf("Load error = %v, want nil", err)
	}
	if config != nil {
		t.Errorf("config = %v, want nil", config)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[scheduler]\nminRemaining = = 1\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q", perr.Path)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
	if !strings.Contains(perr.Error(), "line 2") {
		t.Errorf("Error() = %q, want line number", perr.Error())
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader(`title = "x"`))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if config["title"] != "x" {
		t.Errorf("title = %v", config["title"])
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"scheduler": map[string]any{"minRemaining": "1ms", "frameBudget": "8ms"},
		"logging":   map[string]any{"level": "info"},
	}
	src := map[string]any{
		"scheduler": map[string]any{"frameBudget": "4ms"},
		"logging":   "flat",
	}

	got := DeepMerge(dst, src)

	sched := got["scheduler"].(map[string]any)
	if sched["minRemaining"] != "1ms" || sched["frameBudget"] != "4ms" {
		t.Errorf("scheduler = %v", sched)
	}
	if got["logging"] != "flat" {
		t.Errorf("logging = %v, want replaced", got["logging"])
	}
	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) should return an empty map")
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": 1}}
	dst := Clone(src)
	dst["a"].(map[string]any)["b"] = 2

	if src["a"].(map[string]any)["b"] != 1 {
		t.Error("Clone shared a nested map")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
