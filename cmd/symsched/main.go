package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"symsched/config"
	"symsched/simulator"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	// Global flags
	verbose     bool
	metricsAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "symsched",
	Short: "Explore synthetic programs with symbolic execution search strategies",
	Long: `symsched explores the forked state space of a synthetic program.

A program is a YAML list of basic blocks. Every branch depends on symbolic input,
so both sides of a branch are explored. The configured strategies decide which
state is advanced next.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(exploreCmd, dumpCmd, serveRolloutCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// Load the program and the configuration named by the flags of a command
func loadInputs(programPath, configPath string) (*simulator.Program, *config.Config, error) {
	if programPath == "" {
		return nil, nil, fmt.Errorf("a program is required, use --program")
	}
	program, err := simulator.LoadProgram(programPath)
	if err != nil {
		return nil, nil, err
	}
	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return nil, nil, err
		}
	}
	return program, cfg, nil
}

// Run fn while serving metrics, if a metrics address is configured.
// The metrics server is shut down once fn returns.
func withMetrics(ctx context.Context, fn func(ctx context.Context) error) error {
	if metricsAddr == "" {
		return fn(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gCtx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-gCtx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer close(done)
		return fn(gCtx)
	})
	return g.Wait()
}
