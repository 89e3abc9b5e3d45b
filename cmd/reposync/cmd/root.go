// Package cmd implements the reposync CLI surface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clayforge/reposync/internal/config"
	"github.com/clayforge/reposync/internal/gitexec"
	"github.com/clayforge/reposync/internal/orchestrator"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitSIGINT  = 130
)

var (
	configPath string
	forceFull  bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "reposync",
	Short: "Mirror Git repositories branch by branch into a destination remote",
	Long: `reposync replicates one or more source Git repositories into destination
repositories according to a YAML configuration document, choosing between a
clean rebuild, a full history replay, or an incremental replay per branch
based on prior sync state.`,
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration document (required)")
	rootCmd.Flags().BoolVar(&forceFull, "force-full", false, "replay full history for every branch, ignoring prior sync state")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging and echo subprocess output")
	_ = rootCmd.MarkFlagRequired("config")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SilenceUsage = true
	err := rootCmd.ExecuteContext(ctx)

	if ctx.Err() != nil {
		return exitSIGINT
	}
	if err != nil {
		return exitFailure
	}
	return exitSuccess
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(verbose)
	defer logger.Sync() //nolint:errcheck

	global, repos, err := config.Load(configPath)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	driver, err := gitexec.NewDriver(verbose)
	if err != nil {
		logger.Error("git is unavailable", zap.Error(err))
		return err
	}

	rep := orchestrator.Run(ctx, driver, logger, global, repos, forceFull)

	rep.WriteTable(os.Stdout)

	if rep.AnyFailed() {
		return fmt.Errorf("one or more repositories failed to synchronize")
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level)

	return zap.New(core)
}
