package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var format string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Explore a program and write the remaining exploration tree",
	Long: `Explores the program like explore, then writes the tree of the states that are
still live. Use --max-steps to stop the exploration early.

Formats:
  - dot: Graphviz, with the search annotations of every node
  - newick: Newick tree format`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format, dot or newick")
}

func runDump(cmd *cobra.Command, args []string) error {
	if format != "dot" && format != "newick" {
		return fmt.Errorf("unknown format %q", format)
	}
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	if _, err := e.Run(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "newick" {
		_, err = fmt.Fprintln(out, e.Tree().Newick())
		return err
	}
	return e.Tree().WriteDot(out)
}
