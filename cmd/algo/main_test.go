package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

const lecture = "../../examples/lecture.algo"

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	configPath, verbosity = "", 0
	irOut = ""
	runEvents, runSteps = false, false
	traceInput, traceFormat, traceOut = nil, "json", ""

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompilePrintsProgram(t *testing.T) {
	out, _, err := execute(t, "", "compile", lecture)
	require.NoError(t, err)
	require.Contains(t, out, `(program "Lecture"`)

	ir := filepath.Join(t.TempDir(), "lecture.ir")
	out, _, err = execute(t, "", "compile", lecture, "--ir-out", ir)
	require.NoError(t, err)
	require.Empty(t, out)
	data, err := os.ReadFile(ir)
	require.NoError(t, err)
	_, err = vm.ParseProgram(string(data))
	require.NoError(t, err)
}

func TestCheckExamples(t *testing.T) {
	files, err := filepath.Glob("../../examples/*.algo")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, _, err := execute(t, "", append([]string{"check"}, files...)...)
	require.NoError(t, err)
	require.Equal(t, len(files), strings.Count(out, ": ok"))
}

func TestCheckReportsDiagnostics(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "faux.algo")
	require.NoError(t, os.WriteFile(bad, []byte("Algorithme Faux;\nDebut\n    x := 1;\nFin."), 0644))

	_, errOut, err := execute(t, "", "check", lecture, bad)
	require.Error(t, err)
	require.Contains(t, errOut, "faux.algo: [E3.5]")
	require.NotContains(t, errOut, "lecture.algo")
}

func TestRunReadsStdin(t *testing.T) {
	out, _, err := execute(t, "42\n", "run", lecture)
	require.NoError(t, err)
	require.Equal(t, "Donnez un entier: Le double de 42 est 84\n", out)
}

func TestRunInputMismatch(t *testing.T) {
	_, errOut, err := execute(t, "abc\n", "run", lecture)
	var rerr *vm.RuntimeError
	require.True(t, errors.As(err, &rerr), "got %v", err)
	require.Equal(t, vm.ErrInputMismatch, rerr.Kind)
	require.Contains(t, errOut, "ligne 6")
}

func TestRunEvents(t *testing.T) {
	out, _, err := execute(t, "21\n", "run", "--events", lecture)
	require.NoError(t, err)

	var types []string
	var stdout strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var ev vm.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		types = append(types, ev.Type)
		if ev.Type == vm.EventStdout {
			stdout.WriteString(ev.Data)
		}
	}
	require.Contains(t, types, vm.EventInputRequest)
	require.NotContains(t, types, vm.EventStep)
	require.Equal(t, vm.EventFinished, types[len(types)-1])
	require.Equal(t, "Donnez un entier: Le double de 21 est 42", stdout.String())
}

func TestTraceFormats(t *testing.T) {
	out, _, err := execute(t, "", "trace", lecture, "--input", "5")
	require.NoError(t, err)
	var dump traceDump
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	require.Equal(t, vm.EventFinished, dump.Result.Type)
	require.Equal(t, "Donnez un entier: Le double de 5 est 10", dump.Output)
	require.Len(t, dump.Steps, 3)

	path := filepath.Join(t.TempDir(), "trace.cbor")
	_, _, err = execute(t, "", "trace", lecture, "--format", "cbor", "--out", path)
	// No input: the trace ends at the read.
	var rerr *vm.RuntimeError
	require.True(t, errors.As(err, &rerr), "got %v", err)
	require.Equal(t, vm.ErrEndOfInput, rerr.Kind)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	steps, err := vm.UnmarshalSnapshots(data)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, 6, steps[1].Line)
}

func TestTraceUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "", "trace", lecture, "--format", "xml")
	require.ErrorContains(t, err, "unknown format")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "algo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[limits]\nmax_steps = 2\n"), 0644))

	out, _, err := execute(t, "", "config", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "max_steps = 2")
	require.Contains(t, out, "heap_base = 50000")

	_, _, err = execute(t, "42\n", "run", "--config", path, lecture)
	require.ErrorIs(t, err, &vm.RuntimeError{Kind: vm.ErrInfiniteLoop})
}
