package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bananalabs-oss/flipswrap/flips"
	"github.com/bananalabs-oss/flipswrap/internal/verify"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a patch to the clean ROM",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWrapper()
		if err != nil {
			return err
		}

		log := logger.With(
			zap.String("invocation_id", uuid.NewString()),
			zap.String("operation", "apply"),
		)

		// Verify clean ROM against manifest
		var exp *verify.Expectation
		if applyManifest != "" {
			exp, err = verify.Load(applyManifest)
			if err != nil {
				return err
			}
			if err := exp.CheckSource(w.CleanROMPath()); err != nil {
				return err
			}
			log.Debug("Clean ROM matches manifest", zap.String("from_version", exp.FromVersion))
		}

		// FLIPS writes next to the output until the result is verified
		flipsOut := applyOut
		if exp != nil && applyOut != "" {
			flipsOut = applyOut + ".new"
		}

		opts := flips.ApplyOptions{
			OutputPath:     flipsOut,
			Exact:          applyExact,
			IgnoreChecksum: ignoreChecksum,
		}
		log.Debug("Invoking flips",
			zap.String("flips_path", w.FlipsPath()),
			zap.Strings("args", flips.ApplyArgs(w.CleanROMPath(), patchPath, opts)),
		)

		ctx, cancel := runContext(cmd)
		defer cancel()

		// Apply patch
		out, err := w.ApplyPatch(ctx, patchPath, opts)
		printOutput(cmd, out, err)
		if err != nil {
			if flipsOut != applyOut {
				os.Remove(flipsOut)
			}
			logFailure(log, "Patch application failed", err)
			return fmt.Errorf("failed to apply patch: %w", err)
		}

		// Verify output ROM
		if exp != nil {
			if applyOut == "" {
				log.Warn("Skipping output verification, no --out given")
			} else {
				if err := exp.CheckResult(flipsOut); err != nil {
					os.Remove(flipsOut)
					return err
				}
				log.Debug("Output ROM matches manifest", zap.String("to_version", exp.ToVersion))

				// Replace old with new
				if err := os.Rename(flipsOut, applyOut); err != nil {
					os.Remove(flipsOut)
					return fmt.Errorf("failed to replace output: %w", err)
				}
			}
		}

		log.Info("Patch applied", zap.String("patch", patchPath), zap.String("output", applyOut))
		return nil
	},
}

var patchPath, applyOut, applyManifest string
var applyExact, ignoreChecksum bool

func init() {
	applyCmd.Flags().StringVar(&patchPath, "patch", "", "Path to patch file")
	applyCmd.Flags().StringVar(&applyOut, "out", "", "Output path for patched ROM (default chosen by FLIPS)")
	applyCmd.Flags().BoolVar(&applyExact, "exact", false, "Pass --exact to FLIPS")
	applyCmd.Flags().BoolVar(&ignoreChecksum, "ignore-checksum", false, "Pass --ignore-checksum to FLIPS")
	applyCmd.Flags().StringVar(&applyManifest, "manifest", "", "Verify clean and output ROM hashes against this manifest")
	applyCmd.MarkFlagRequired("patch")
	rootCmd.AddCommand(applyCmd)
}
