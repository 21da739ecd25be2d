package main

import (
	"context"
	"fmt"
	"io"

	"symsched"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	programPath string
	configPath  string
	seed        int64
	maxSteps    int
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore a program and print a summary",
	Long: `Explores the program with the strategies of the configuration until every
state terminated, the step limit is reached or the command is interrupted.

Example:
  symsched explore --program program.yaml --config config.yaml --seed 42`,
	RunE: runExplore,
}

func init() {
	for _, cmd := range []*cobra.Command{exploreCmd, dumpCmd} {
		cmd.Flags().StringVarP(&programPath, "program", "p", "", "Path to the program (YAML)")
		cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration (YAML)")
		cmd.Flags().Int64Var(&seed, "seed", 0, "Seed of the random source, overrides the configuration")
		cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Stop after the given number of steps, overrides the configuration")
	}
}

// Build the exploration described by the flags
func prepare(cmd *cobra.Command) (*symsched.Exploration, error) {
	program, cfg, err := loadInputs(programPath, configPath)
	if err != nil {
		return nil, err
	}
	opts := []symsched.ExplorationOption{
		symsched.WithProgram(program),
		symsched.WithConfig(cfg),
		symsched.WithLogger(logger),
		symsched.IgnorePanic(),
	}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, symsched.Seed(seed))
	}
	if cmd.Flags().Changed("max-steps") {
		opts = append(opts, symsched.MaxSteps(maxSteps))
	}
	return symsched.PrepareExploration(opts...)
}

func runExplore(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	return withMetrics(cmd.Context(), func(ctx context.Context) error {
		summary, err := e.Run(ctx)
		printSummary(cmd.OutOrStdout(), summary)
		return err
	})
}

func printSummary(w io.Writer, s symsched.Summary) {
	out := termenv.NewOutput(w)
	status := out.String("completed").Foreground(out.Color("2"))
	if !s.Completed {
		status = out.String("stopped").Foreground(out.Color("3"))
	}

	fmt.Fprintf(w, "%s %s\n", out.String("Exploration").Bold(), s.Session)
	fmt.Fprintf(w, "  strategy:     %s\n", s.Strategy)
	fmt.Fprintf(w, "  status:       %s\n", status)
	fmt.Fprintf(w, "  steps:        %d\n", s.Steps)
	fmt.Fprintf(w, "  instructions: %d\n", s.Instructions)
	fmt.Fprintf(w, "  covered:      %d blocks\n", s.Covered)
	fmt.Fprintf(w, "  forks:        %d\n", s.Forks)
	fmt.Fprintf(w, "  terminated:   %d\n", s.Terminated)
	if s.Merged > 0 {
		fmt.Fprintf(w, "  merged:       %d\n", s.Merged)
	}
	if s.Rollouts > 0 {
		fmt.Fprintf(w, "  rollouts:     %d (%d skipped)\n", s.Rollouts, s.Search.Skipped)
	}
	if s.RolloutErrors != nil {
		fmt.Fprintf(w, "  %s\n", out.String(s.RolloutErrors.Error()).Foreground(out.Color("1")))
	}
}
