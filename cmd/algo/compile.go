package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
)

var irOut string

var compileCmd = &cobra.Command{
	Use:   "compile <file.algo>",
	Short: "Compile a program and print its intermediate form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}
		if irOut == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), res.Text)
			return err
		}
		if err := os.WriteFile(irOut, []byte(res.Text), 0644); err != nil {
			return err
		}
		log.Infof("wrote %s", irOut)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file.algo>...",
	Short: "Report diagnostics without running",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := make([]compiler.Source, 0, len(args))
		for _, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			sources = append(sources, compiler.Source{Name: path, Text: string(src)})
		}

		ctx, cancel := interruptible(cmd)
		defer cancel()
		units, err := compiler.CompileAll(ctx, sources, cfg.CompilerOptions())
		if err != nil {
			return err
		}
		return reportUnits(cmd, units)
	},
}

func reportUnits(cmd *cobra.Command, units []compiler.Unit) error {
	failed := 0
	for _, u := range units {
		if len(u.Diagnostics) > 0 {
			failed++
			printDiagnostics(cmd, u.Name, u.Diagnostics)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", u.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d fichier(s) sur %d en erreur", failed, len(units))
	}
	return nil
}

func init() {
	compileCmd.Flags().StringVarP(&irOut, "ir-out", "o", "", "write the intermediate program to this file")
}

