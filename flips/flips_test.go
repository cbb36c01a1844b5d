//go:build !windows

package flips

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTool drops an executable shell script into a temp dir and returns its path.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flips")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

const echoArgs = `for a in "$@"; do echo "$a"; done`

func TestCreatePatch_SuccessWithNoOutput(t *testing.T) {
	w := New(writeTool(t, "exit 0"), "clean.sfc")

	out, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{
		OutputPath: "out.bps",
		Exact:      true,
		PatchType:  PatchTypePtr(BPS),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Stdout)
	assert.Empty(t, out.Stderr)
}

func TestCreatePatch_PassesArguments(t *testing.T) {
	w := New(writeTool(t, echoArgs), "/roms/clean.sfc")
	opts := CreateOptions{OutputPath: "/tmp/out.bps", Exact: true, PatchType: PatchTypePtr(BPSDeltaMoreMemory)}

	out, err := w.CreatePatch(context.Background(), "/roms/mod.sfc", opts)
	require.NoError(t, err)
	assert.Equal(t, CreateArgs("/roms/clean.sfc", "/roms/mod.sfc", opts), out.Stdout)
	assert.Equal(t,
		[]string{"--create", "--exact", "--bps-delta-moremem", "/roms/clean.sfc", "/roms/mod.sfc", "/tmp/out.bps"},
		out.Stdout)
}

func TestApplyPatch_PassesArguments(t *testing.T) {
	w := New(writeTool(t, echoArgs), "clean rom.sfc")

	out, err := w.ApplyPatch(context.Background(), "hack.ips", ApplyOptions{IgnoreChecksum: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"--apply", "--ignore-checksum", "hack.ips", "clean rom.sfc"}, out.Stdout)
}

func TestRun_CapturesLinesInOrder(t *testing.T) {
	w := New(writeTool(t, `printf 'first\r\nsecond\n\nfourth\n'; echo oops >&2; echo again >&2`), "clean.sfc")

	out, err := w.ApplyPatch(context.Background(), "hack.bps", ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "", "fourth"}, out.Stdout)
	assert.Equal(t, []string{"oops", "again"}, out.Stderr)
}

func TestRun_NonZeroExit(t *testing.T) {
	w := New(writeTool(t, "echo 'The patch was applied, but the output is not the expected ROM'; echo bad >&2; exit 3"), "clean.sfc")

	out, err := w.ApplyPatch(context.Background(), "hack.bps", ApplyOptions{Exact: true})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationFailed))

	var opErr *OperationFailedError
	require.ErrorAs(t, err, &opErr)
	require.NotNil(t, opErr.ExitCode)
	assert.Equal(t, 3, *opErr.ExitCode)
	require.NotNil(t, opErr.Output)
	assert.Equal(t, []string{"The patch was applied, but the output is not the expected ROM"}, opErr.Output.Stdout)
	assert.Equal(t, []string{"bad"}, opErr.Output.Stderr)
	assert.Equal(t, "flips exited with code 3", opErr.Error())
}

func TestRun_ToolMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "no-such-flips")
	output := filepath.Join(dir, "patched.sfc")
	w := New(missing, "clean.sfc")

	_, err := w.ApplyPatch(context.Background(), "hack.bps", ApplyOptions{OutputPath: output})
	var missingErr *ToolMissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, missing, missingErr.Path)
	assert.True(t, errors.Is(err, ErrToolMissing))
	assert.NoFileExists(t, output)

	_, err = w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{OutputPath: output})
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, missing, missingErr.Path)
	assert.NoFileExists(t, output)
}

func TestRun_SpawnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flips")
	require.NoError(t, os.WriteFile(path, []byte("not a program"), 0o644))
	w := New(path, "clean.sfc")

	_, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{})
	var opErr *OperationFailedError
	require.ErrorAs(t, err, &opErr)
	assert.Nil(t, opErr.Output)
	assert.Nil(t, opErr.ExitCode)
	assert.NotNil(t, opErr.Err)
}

func TestRun_KilledBySignal(t *testing.T) {
	w := New(writeTool(t, "echo started; kill -9 $$"), "clean.sfc")

	_, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{})
	var opErr *OperationFailedError
	require.ErrorAs(t, err, &opErr)
	assert.Nil(t, opErr.ExitCode)
	require.NotNil(t, opErr.Output)
	assert.Equal(t, []string{"started"}, opErr.Output.Stdout)
}

func TestRun_ContextDeadline(t *testing.T) {
	w := New(writeTool(t, "exec sleep 5"), "clean.sfc")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := w.ApplyPatch(ctx, "hack.bps", ApplyOptions{})
	assert.Less(t, time.Since(start), 4*time.Second)

	var opErr *OperationFailedError
	require.ErrorAs(t, err, &opErr)
	assert.Nil(t, opErr.ExitCode)
}

func TestRun_DeadlineWithLingeringChild(t *testing.T) {
	// sh forks sleep, which keeps the output pipes open after sh is killed.
	w := New(writeTool(t, "sleep 3"), "clean.sfc")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := w.CreatePatch(ctx, "mod.sfc", CreateOptions{})
	assert.Less(t, time.Since(start), 2*time.Second)

	var opErr *OperationFailedError
	require.ErrorAs(t, err, &opErr)
	assert.Nil(t, opErr.ExitCode)
}

func TestCreatePatch_InvalidPatchType(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.bps")
	w := New(writeTool(t, `echo ran > "`+output+`"`), "clean.sfc")

	_, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{PatchType: PatchTypePtr(PatchType(7))})
	require.ErrorIs(t, err, ErrInvalidPatchType)
	assert.NoFileExists(t, output)
}

func TestRun_InvalidUTF8(t *testing.T) {
	w := New(writeTool(t, `printf '\377\376'; exit 1`), "clean.sfc")

	_, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "stdout", decodeErr.Stream)
	require.NotNil(t, decodeErr.ExitCode)
	assert.Equal(t, 1, *decodeErr.ExitCode)
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}

func TestWrapper_ConcurrentUse(t *testing.T) {
	w := New(writeTool(t, echoArgs), "clean.sfc")

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := w.CreatePatch(context.Background(), "mod.sfc", CreateOptions{})
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}
