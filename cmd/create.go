package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bananalabs-oss/flipswrap/flips"
	"github.com/bananalabs-oss/flipswrap/internal/verify"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a patch from the clean ROM and a modified ROM",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWrapper()
		if err != nil {
			return err
		}

		opts := flips.CreateOptions{
			OutputPath: createOut,
			Exact:      createExact,
		}
		if createType != "" {
			pt, err := flips.ParsePatchType(createType)
			if err != nil {
				return err
			}
			opts.PatchType = &pt
		}
		if createManifest != "" && createOut == "" {
			return fmt.Errorf("--manifest requires --out")
		}

		log := logger.With(
			zap.String("invocation_id", uuid.NewString()),
			zap.String("operation", "create"),
		)
		log.Debug("Invoking flips",
			zap.String("flips_path", w.FlipsPath()),
			zap.Strings("args", flips.CreateArgs(w.CleanROMPath(), modifiedPath, opts)),
		)

		ctx, cancel := runContext(cmd)
		defer cancel()

		// Create patch
		out, err := w.CreatePatch(ctx, modifiedPath, opts)
		printOutput(cmd, out, err)
		if err != nil {
			logFailure(log, "Patch creation failed", err)
			return fmt.Errorf("failed to create patch: %w", err)
		}
		log.Info("Patch created", zap.String("modified", modifiedPath), zap.String("patch", createOut))

		// Record manifest
		if createManifest != "" {
			if err := verify.Record(createManifest, w.CleanROMPath(), modifiedPath, createOut, fromVersion, toVersion); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest: %s\n", createManifest)
		}

		return nil
	},
}

var modifiedPath, createOut, createType, createManifest string
var createExact bool
var fromVersion, toVersion string

func init() {
	createCmd.Flags().StringVar(&modifiedPath, "modified", "", "Path to modified ROM")
	createCmd.Flags().StringVar(&createOut, "out", "", "Output path for patch (default chosen by FLIPS)")
	createCmd.Flags().BoolVar(&createExact, "exact", false, "Pass --exact to FLIPS")
	createCmd.Flags().StringVar(&createType, "type", "", "Patch type: ips, bps, bps-delta, bps-linear, bps-delta-moremem")
	createCmd.Flags().StringVar(&createManifest, "manifest", "", "Write a manifest with ROM hashes to this path")
	createCmd.Flags().StringVar(&fromVersion, "from-version", "0.0.0", "Source version recorded in the manifest")
	createCmd.Flags().StringVar(&toVersion, "to-version", "0.0.1", "Target version recorded in the manifest")
	createCmd.MarkFlagRequired("modified")
	rootCmd.AddCommand(createCmd)
}
