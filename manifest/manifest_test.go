package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/server"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[limits]
max_steps = 5000
max_depth = 40
max_heap_bytes = 2048

[memory]
stack_base = 2000
heap_base = 80000

[session]
output_buffer = 64
input_buffer = 8
poll_interval = "25ms"

[log]
verbosity = 2
file = "algo.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got, want := m.VMLimits(), (vm.Limits{MaxSteps: 5000, MaxDepth: 40, MaxHeapBytes: 2048}); got != want {
		t.Errorf("limits = %+v, want %+v", got, want)
	}
	if got, want := m.CompilerOptions(), (compiler.Options{StackBase: 2000, HeapBase: 80000}); got != want {
		t.Errorf("compiler options = %+v, want %+v", got, want)
	}
	opts := m.ServerOptions()
	if opts.OutputBuffer != 64 || opts.InputBuffer != 8 || opts.PollInterval != 25*time.Millisecond {
		t.Errorf("server options = %+v", opts)
	}
	if opts.Limits.MaxSteps != 5000 {
		t.Errorf("server limits = %+v, want max steps 5000", opts.Limits)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if p := m.LogPath(); p == nil || *p != filepath.Join(m.Dir, "algo.log") {
		t.Errorf("log path = %v, want algo.log under %s", p, m.Dir)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[limits]
max_steps = 10
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Limits.MaxSteps != 10 {
		t.Errorf("max steps = %d, want 10", m.Limits.MaxSteps)
	}
	if m.Limits.MaxDepth != vm.DefaultLimits.MaxDepth {
		t.Errorf("max depth = %d, want default %d", m.Limits.MaxDepth, vm.DefaultLimits.MaxDepth)
	}
	if m.CompilerOptions() != compiler.DefaultOptions {
		t.Errorf("compiler options = %+v, want defaults", m.CompilerOptions())
	}
	if got := m.ServerOptions(); got.PollInterval != server.DefaultOptions.PollInterval {
		t.Errorf("poll interval = %v, want %v", got.PollInterval, server.DefaultOptions.PollInterval)
	}
	if m.LogPath() != nil {
		t.Error("log path should default to stderr")
	}
}

func TestDefaultMatchesRuntime(t *testing.T) {
	m := Default()
	if m.VMLimits() != vm.DefaultLimits {
		t.Errorf("limits = %+v, want %+v", m.VMLimits(), vm.DefaultLimits)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("default manifest invalid: %v", err)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[limits\n", "parse error"},
		{"bad duration", "[session]\npoll_interval = \"bientot\"", "parse error"},
		{"zero steps", "[limits]\nmax_steps = 0", "max_steps"},
		{"heap below stack", "[memory]\nstack_base = 9000\nheap_base = 100", "heap_base"},
		{"negative buffer", "[session]\ninput_buffer = -1", "session"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[limits]\nmax_depth = 12\n")

	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Limits.MaxDepth != 12 {
		t.Errorf("max depth = %d, want 12", m.Limits.MaxDepth)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no algo.toml exists")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m := Default()
	m.Limits.MaxSteps = 77
	m.Session.PollInterval = Duration{time.Second}

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `poll_interval = "1s"`) {
		t.Errorf("encoded manifest missing duration:\n%s", buf.String())
	}

	dir := t.TempDir()
	writeManifest(t, dir, buf.String())
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Limits != m.Limits || loaded.Session != m.Session {
		t.Errorf("got %+v / %+v, want %+v / %+v", loaded.Limits, loaded.Session, m.Limits, m.Session)
	}
}
