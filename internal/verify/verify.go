// Package verify records and checks ROM hashes around FLIPS runs using
// potassium manifests.
package verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bananalabs-oss/potassium/manifest"
)

// ErrNoPatchEntry is returned when a manifest has no patch entry to verify against.
var ErrNoPatchEntry = errors.New("manifest has no patch entry")

// MismatchError reports a ROM whose hash differs from the manifest.
type MismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("hash mismatch for %s: expected %s, got %s", e.Path, short(e.Want), short(e.Got))
}

// Record writes a manifest for a patch created from cleanROM to modifiedROM.
func Record(manifestPath, cleanROM, modifiedROM, patchPath, fromVersion, toVersion string) error {
	oldHash, err := manifest.HashFile(cleanROM)
	if err != nil {
		return fmt.Errorf("failed to hash clean ROM: %w", err)
	}

	newHash, err := manifest.HashFile(modifiedROM)
	if err != nil {
		return fmt.Errorf("failed to hash modified ROM: %w", err)
	}

	if dir := filepath.Dir(manifestPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	m := manifest.New(fromVersion, toVersion)
	m.AddFile(manifest.FileEntry{
		Path:      filepath.Base(cleanROM),
		Action:    manifest.ActionPatch,
		OldHash:   oldHash,
		NewHash:   newHash,
		PatchFile: filepath.Base(patchPath),
	})

	if err := m.Save(manifestPath); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// Expectation is the patch entry of a manifest.
type Expectation struct {
	FromVersion string
	ToVersion   string
	Path        string
	PatchFile   string
	SourceHash  string
	TargetHash  string
}

// Load reads the first patch entry from the manifest at manifestPath.
func Load(manifestPath string) (*Expectation, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	for _, file := range m.Files {
		if file.Action != manifest.ActionPatch {
			continue
		}
		return &Expectation{
			FromVersion: m.FromVersion,
			ToVersion:   m.ToVersion,
			Path:        file.Path,
			PatchFile:   file.PatchFile,
			SourceHash:  file.OldHash,
			TargetHash:  file.NewHash,
		}, nil
	}
	return nil, fmt.Errorf("%s: %w", manifestPath, ErrNoPatchEntry)
}

// CheckSource verifies the ROM a patch is about to be applied to.
func (e *Expectation) CheckSource(path string) error {
	return check(path, e.SourceHash)
}

// CheckResult verifies the ROM FLIPS produced.
func (e *Expectation) CheckResult(path string) error {
	return check(path, e.TargetHash)
}

func check(path, want string) error {
	got, err := manifest.HashFile(path)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	if got != want {
		return &MismatchError{Path: path, Want: want, Got: got}
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}
