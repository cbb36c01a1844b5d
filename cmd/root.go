package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bananalabs-oss/flipswrap/flips"
	"github.com/bananalabs-oss/flipswrap/internal/config"
	"github.com/bananalabs-oss/flipswrap/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "flipswrap",
	Short:         "Create and apply ROM patches with FLIPS",
	Long:          "flipswrap drives the FLIPS patcher against a fixed clean ROM and reports what it printed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		l, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to config file (default searches for flipswrap.yaml)")
	flags.String("flips", "", "Path to the FLIPS executable")
	flags.String("clean", "", "Path to the clean ROM")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.Duration("timeout", 0, "Kill FLIPS after this long (0 waits indefinitely)")
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newWrapper validates the loaded config and builds a FLIPS wrapper from it.
// A bare executable name is looked up on PATH.
func newWrapper() (*flips.Wrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return flips.New(resolveFlipsPath(cfg.FlipsPath), cfg.CleanROMPath), nil
}

// resolveFlipsPath returns name unchanged when it contains a separator or is
// not on PATH, so the wrapper reports the configured value as missing.
func resolveFlipsPath(name string) string {
	if filepath.Base(name) != name {
		return name
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return name
	}
	return path
}

// runContext applies the configured timeout to the command's context
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// printOutput echoes FLIPS output, including the output carried by a failure
func printOutput(cmd *cobra.Command, out *flips.Output, err error) {
	if out == nil {
		var opErr *flips.OperationFailedError
		if errors.As(err, &opErr) {
			out = opErr.Output
		}
	}
	if out == nil {
		return
	}
	for _, line := range out.Stdout {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	for _, line := range out.Stderr {
		fmt.Fprintln(cmd.ErrOrStderr(), line)
	}
}

// logFailure logs a FLIPS error with whatever detail the error type carries
func logFailure(log *zap.Logger, msg string, err error) {
	fields := []zap.Field{zap.Error(err)}

	var missing *flips.ToolMissingError
	var opErr *flips.OperationFailedError
	var decodeErr *flips.DecodeError
	switch {
	case errors.As(err, &missing):
		fields = append(fields, zap.String("flips_path", missing.Path))
	case errors.As(err, &opErr) && opErr.ExitCode != nil:
		fields = append(fields, zap.Int("exit_code", *opErr.ExitCode))
	case errors.As(err, &decodeErr):
		fields = append(fields, zap.String("stream", decodeErr.Stream))
		if decodeErr.ExitCode != nil {
			fields = append(fields, zap.Int("exit_code", *decodeErr.ExitCode))
		}
	}
	log.Error(msg, fields...)
}
