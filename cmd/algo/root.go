package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/manifest"
)

var log = commonlog.GetLogger("algo.cli")

var (
	configPath string
	verbosity  int

	// cfg is loaded before any subcommand runs.
	cfg *manifest.Manifest
)

var rootCmd = &cobra.Command{
	Use:   "algo",
	Short: "Algo compiler and tracing interpreter",
	Long: `algo compiles French pseudocode programs (Algorithme ... Debut ... Fin.)
and runs them on a simulated memory.

Commands:
  compile  Print the intermediate program or the diagnostics
  check    Report diagnostics for one or more files
  run      Run a program on the terminal
  trace    Run with preset input and dump every execution snapshot
  lsp      Start the language server on stdio
  config   Print the effective configuration
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		v := verbosity
		if cfg.Log.Verbosity > v {
			v = cfg.Log.Verbosity
		}
		commonlog.Configure(v, cfg.LogPath())
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default: nearest algo.toml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for more)")

	rootCmd.AddCommand(compileCmd, checkCmd, runCmd, traceCmd, lspCmd, configCmd)
}

func loadConfig() (*manifest.Manifest, error) {
	if configPath != "" {
		return manifest.LoadFile(configPath)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	log.Debugf("using %s", m.Dir)
	return m, nil
}

// compileFile reads and compiles path, printing diagnostics to stderr.
func compileFile(cmd *cobra.Command, path string) (*compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, diags := compiler.NewSession(cfg.CompilerOptions()).Compile(string(src))
	if compiler.HasErrors(diags) {
		printDiagnostics(cmd, path, diags)
		return nil, fmt.Errorf("%s: %d erreur(s) de compilation", path, len(diags))
	}
	return res, nil
}

func printDiagnostics(cmd *cobra.Command, path string, diags []compiler.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, d.Error())
	}
}

// interruptible returns a context cancelled by Ctrl-C.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}
