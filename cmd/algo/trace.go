package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

var (
	traceInput  []string
	traceFormat string
	traceOut    string
)

// traceDump is the JSON form of a traced run.
type traceDump struct {
	Steps  []*vm.Snapshot `json:"steps"`
	Output string         `json:"output"`
	Result vm.Event       `json:"result"`
}

var traceCmd = &cobra.Command{
	Use:   "trace <file.algo>",
	Short: "Run with preset input and dump the execution snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}

		ctx, cancel := interruptible(cmd)
		defer cancel()
		tr := vm.Trace(ctx, res.Program, traceInput, cfg.VMLimits())
		log.Infof("%s: %d snapshots", args[0], len(tr.Steps))

		var data []byte
		switch traceFormat {
		case "json":
			data, err = json.MarshalIndent(traceDump{
				Steps:  tr.Steps,
				Output: tr.Output,
				Result: vm.ErrorEvent(tr.Err),
			}, "", "  ")
		case "cbor":
			data, err = vm.MarshalSnapshots(tr.Steps)
		default:
			return fmt.Errorf("unknown format %q (json, cbor)", traceFormat)
		}
		if err != nil {
			return err
		}

		if traceOut != "" {
			err = os.WriteFile(traceOut, data, 0644)
		} else {
			_, err = cmd.OutOrStdout().Write(data)
		}
		if err != nil {
			return err
		}
		return runOutcome(cmd, tr.Err)
	},
}

func init() {
	traceCmd.Flags().StringArrayVarP(&traceInput, "input", "i", nil, "input line for Lire (repeatable)")
	traceCmd.Flags().StringVarP(&traceFormat, "format", "f", "json", "output format: json or cbor")
	traceCmd.Flags().StringVarP(&traceOut, "out", "o", "", "write the trace to this file")
}
