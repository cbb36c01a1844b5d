// Package flips runs the FLIPS patching tool against a fixed clean ROM.
//
// A Wrapper only builds the command line, starts FLIPS and reports what it
// printed. Patch formats and the patching itself are entirely FLIPS' concern.
package flips

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps reading output after the context is
// done, so a grandchild holding the pipes cannot outlive the deadline.
const waitDelay = 500 * time.Millisecond

// Wrapper invokes a FLIPS executable against a clean ROM. It holds no mutable
// state, so one Wrapper may be shared between goroutines.
type Wrapper struct {
	flipsPath    string
	cleanROMPath string
}

// New returns a Wrapper for the FLIPS executable at flipsPath patching against
// the ROM at cleanROMPath. Neither path is checked here.
func New(flipsPath, cleanROMPath string) *Wrapper {
	return &Wrapper{
		flipsPath:    flipsPath,
		cleanROMPath: cleanROMPath,
	}
}

// FlipsPath returns the configured FLIPS executable path.
func (w *Wrapper) FlipsPath() string {
	return w.flipsPath
}

// CleanROMPath returns the configured clean ROM path.
func (w *Wrapper) CleanROMPath() string {
	return w.cleanROMPath
}

// CreatePatch asks FLIPS to create a patch turning the clean ROM into
// modifiedROMPath.
func (w *Wrapper) CreatePatch(ctx context.Context, modifiedROMPath string, opts CreateOptions) (*Output, error) {
	if opts.PatchType != nil && !opts.PatchType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPatchType, int(*opts.PatchType))
	}
	return w.run(ctx, CreateArgs(w.cleanROMPath, modifiedROMPath, opts))
}

// ApplyPatch asks FLIPS to apply the patch at patchPath to the clean ROM.
func (w *Wrapper) ApplyPatch(ctx context.Context, patchPath string, opts ApplyOptions) (*Output, error) {
	return w.run(ctx, ApplyArgs(w.cleanROMPath, patchPath, opts))
}

func (w *Wrapper) run(ctx context.Context, args []string) (*Output, error) {
	if _, err := os.Stat(w.flipsPath); err != nil {
		return nil, &ToolMissingError{Path: w.flipsPath}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.flipsPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()

	var exitCode *int
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Never started, or the pipes broke before Wait returned.
			return nil, &OperationFailedError{Err: runErr}
		}
		// -1 means terminated by a signal rather than exiting.
		if code := exitErr.ExitCode(); code >= 0 {
			exitCode = &code
		}
	}

	output, badStream := decodeOutput(stdout.Bytes(), stderr.Bytes())
	if output == nil {
		return nil, &DecodeError{Stream: badStream, ExitCode: exitCode}
	}

	if runErr != nil {
		return nil, &OperationFailedError{
			Output:   output,
			ExitCode: exitCode,
			Err:      runErr,
		}
	}
	return output, nil
}
