package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/server"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

var (
	runEvents bool
	runSteps  bool
)

var runCmd = &cobra.Command{
	Use:   "run <file.algo>",
	Short: "Run a program, reading Lire input from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}
		if runEvents {
			return runSession(cmd, res.Program)
		}

		ctx, cancel := interruptible(cmd)
		defer cancel()
		out := cmd.OutOrStdout()
		m := vm.NewMachine(res.Program, vm.Options{
			Limits: cfg.VMLimits(),
			IO:     vm.NewStreamIO(cmd.InOrStdin(), out, nil),
		})
		err = m.Run(ctx)
		fmt.Fprintln(out)
		return runOutcome(cmd, err)
	},
}

func runOutcome(cmd *cobra.Command, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vm.ErrStopped):
		fmt.Fprintln(cmd.ErrOrStderr(), vm.StoppedMessage)
		return err
	}
	var rerr *vm.RuntimeError
	if errors.As(err, &rerr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "ligne %d: %s\n", rerr.Line, rerr.Error())
	}
	return err
}

// runSession drives the program through an execution session and prints
// its events as JSON lines. Stdin lines answer input requests.
func runSession(cmd *cobra.Command, prog *vm.Program) error {
	store := server.NewSessionStore(cfg.ServerOptions())
	s := store.Create()
	defer store.Destroy(s.ID)
	if err := s.StartProgram(prog, nil); err != nil {
		return err
	}

	ctx, cancel := interruptible(cmd)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	lines := bufio.NewScanner(cmd.InOrStdin())
	enc := json.NewEncoder(cmd.OutOrStdout())
	var last vm.Event
	for ev := range s.Events() {
		last = ev
		if ev.Type == vm.EventStep && !runSteps {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if ev.Type == vm.EventInputRequest {
			if !lines.Scan() {
				s.Stop()
				continue
			}
			if err := s.SendInput(lines.Text()); err != nil {
				return err
			}
		}
	}
	if last.Type != vm.EventFinished {
		return fmt.Errorf("%s: %s", last.Type, last.Data)
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&runEvents, "events", false, "print the execution as JSON events")
	runCmd.Flags().BoolVar(&runSteps, "steps", false, "include step events (with --events)")
}

