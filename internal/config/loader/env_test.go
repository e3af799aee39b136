package loader

import (
	"testing"
	"time"
)

func newTestEnvLoader(env ...string) *EnvLoader {
	l := NewEnvLoader("TESSERA_")
	l.environ = func() []string { return env }
	return l
}

func TestEnvLoader_Load(t *testing.T) {
	l := newTestEnvLoader(
		"TESSERA_LOG_LEVEL=debug",
		"TESSERA_SCHEDULER_FRAME_BUDGET=4ms",
		"TESSERA_SCHEDULER_MIN_REMAINING=2",
		"HOME=/root",
		"TESSERA_=ignored",
	)

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	logging := config["logging"].(map[string]any)
	if logging["level"] != "debug" {
		t.Errorf("logging.level = %v, want debug", logging["level"])
	}
	sched := config["scheduler"].(map[string]any)
	if sched["frameBudget"] != 4*time.Millisecond {
		t.Errorf("scheduler.frameBudget = %v (%T), want 4ms", sched["frameBudget"], sched["frameBudget"])
	}
	if sched["minRemaining"] != int64(2) {
		t.Errorf("scheduler.minRemaining = %v (%T), want int64(2)", sched["minRemaining"], sched["minRemaining"])
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variable was loaded")
	}
	if len(config) != 2 {
		t.Errorf("sections = %v, want logging and scheduler", config)
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := newTestEnvLoader("TESSERA_BUDGET=3ms")
	l.AddMapping("BUDGET", "scheduler.frameBudget")

	config, _ := l.Load()
	sched, ok := config["scheduler"].(map[string]any)
	if !ok || sched["frameBudget"] != 3*time.Millisecond {
		t.Errorf("config = %v", config)
	}
}

func TestEnvToPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SCHEDULER_FRAME_BUDGET", "scheduler.frameBudget"},
		{"SCHEDULER_TICK_INTERVAL", "scheduler.tickInterval"},
		{"LOGGING_LEVEL", "logging.level"},
		{"DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := envToPath(tt.in); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"OFF", false},
		{"42", int64(42)},
		{"250us", 250 * time.Microsecond},
		{"info", "info"},
		{"/var/log/tessera.log", "/var/log/tessera.log"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}
