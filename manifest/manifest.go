// Package manifest handles algo.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/server"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "algo.toml"

// Manifest represents an algo.toml configuration.
type Manifest struct {
	Limits  Limits  `toml:"limits"`
	Memory  Memory  `toml:"memory"`
	Session Session `toml:"session"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the algo.toml file (set at load time).
	Dir string `toml:"-"`
}

// Limits bound a single run.
type Limits struct {
	MaxSteps     int `toml:"max_steps"`
	MaxDepth     int `toml:"max_depth"`
	MaxHeapBytes int `toml:"max_heap_bytes"`
}

// Memory places the simulated address space.
type Memory struct {
	StackBase int `toml:"stack_base"`
	HeapBase  int `toml:"heap_base"`
}

// Session sizes the buffers of execution sessions.
type Session struct {
	OutputBuffer int      `toml:"output_buffer"`
	InputBuffer  int      `toml:"input_buffer"`
	PollInterval Duration `toml:"poll_interval"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Duration is a time.Duration written as "100ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no algo.toml exists.
func Default() *Manifest {
	return &Manifest{
		Limits: Limits{
			MaxSteps:     vm.DefaultLimits.MaxSteps,
			MaxDepth:     vm.DefaultLimits.MaxDepth,
			MaxHeapBytes: vm.DefaultLimits.MaxHeapBytes,
		},
		Memory: Memory{
			StackBase: compiler.DefaultStackBase,
			HeapBase:  vm.DefaultHeapBase,
		},
		Session: Session{
			OutputBuffer: server.DefaultOptions.OutputBuffer,
			InputBuffer:  server.DefaultOptions.InputBuffer,
			PollInterval: Duration{server.DefaultOptions.PollInterval},
		},
	}
}

// Load parses the algo.toml file in dir. Keys absent from the file keep
// their default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// LoadFile parses a configuration file at an explicit path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// FindAndLoad walks up from startDir to find an algo.toml file, then
// loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate rejects settings the runtime cannot honour.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Limits.MaxSteps <= 0 {
		errs = append(errs, errors.New("limits.max_steps must be positive"))
	}
	if m.Limits.MaxDepth <= 0 {
		errs = append(errs, errors.New("limits.max_depth must be positive"))
	}
	if m.Limits.MaxHeapBytes <= 0 {
		errs = append(errs, errors.New("limits.max_heap_bytes must be positive"))
	}
	if m.Memory.StackBase <= 0 {
		errs = append(errs, errors.New("memory.stack_base must be positive"))
	}
	if m.Memory.HeapBase <= m.Memory.StackBase {
		errs = append(errs, fmt.Errorf("memory.heap_base (%d) must lie above memory.stack_base (%d)",
			m.Memory.HeapBase, m.Memory.StackBase))
	}
	if m.Session.OutputBuffer < 0 || m.Session.InputBuffer < 0 || m.Session.PollInterval.Duration < 0 {
		errs = append(errs, errors.New("session values must not be negative"))
	}
	return errors.Join(errs...)
}

// VMLimits returns the run limits.
func (m *Manifest) VMLimits() vm.Limits {
	return vm.Limits{
		MaxSteps:     m.Limits.MaxSteps,
		MaxDepth:     m.Limits.MaxDepth,
		MaxHeapBytes: m.Limits.MaxHeapBytes,
	}
}

// CompilerOptions returns the memory layout for the compiler.
func (m *Manifest) CompilerOptions() compiler.Options {
	return compiler.Options{StackBase: m.Memory.StackBase, HeapBase: m.Memory.HeapBase}
}

// ServerOptions returns the execution session settings.
func (m *Manifest) ServerOptions() server.Options {
	return server.Options{
		Limits:       m.VMLimits(),
		OutputBuffer: m.Session.OutputBuffer,
		InputBuffer:  m.Session.InputBuffer,
		PollInterval: m.Session.PollInterval.Duration,
	}
}

// LogPath returns the log file, resolved against Dir, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}

// Encode writes m as TOML.
func (m *Manifest) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m)
}
