package main

import (
	"context"
	"fmt"
	"net"

	"symsched/rng"
	"symsched/rollout"
	"symsched/simulator"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

var (
	servePath string
	serveAddr string
	serveSeed int64
)

var serveRolloutCmd = &cobra.Command{
	Use:   "serve-rollout",
	Short: "Serve rollouts of a program over gRPC",
	Long: `Evaluates the rollouts requested by explorations configured with
simulation.remote. Each rollout is a random walk over the program.`,
	RunE: runServeRollout,
}

func init() {
	serveRolloutCmd.Flags().StringVarP(&servePath, "program", "p", "", "Path to the program (YAML)")
	serveRolloutCmd.Flags().StringVar(&serveAddr, "addr", "localhost:7070", "Address to listen on")
	serveRolloutCmd.Flags().Int64Var(&serveSeed, "seed", 0, "Seed of the random walks")
}

func runServeRollout(cmd *cobra.Command, args []string) error {
	if servePath == "" {
		return fmt.Errorf("a program is required, use --program")
	}
	program, err := simulator.LoadProgram(servePath)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", serveAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %v: %w", serveAddr, err)
	}

	srv := grpc.NewServer()
	rollout.Register(srv, simulator.NewEvaluator(program, rng.New(serveSeed)), logger.Named("rollout"))

	return withMetrics(cmd.Context(), func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			srv.GracefulStop()
		}()
		logger.Info("serving rollouts", zap.String("addr", lis.Addr().String()))
		return srv.Serve(lis)
	})
}
