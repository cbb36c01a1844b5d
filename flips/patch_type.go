package flips

import (
	"fmt"
	"strings"
)

// PatchType selects the patch format FLIPS produces when creating a patch.
type PatchType int

const (
	IPS PatchType = iota
	BPS
	BPSDelta
	BPSLinear
	BPSDeltaMoreMemory
)

var patchTypeFlags = map[PatchType]string{
	IPS:                "--ips",
	BPS:                "--bps",
	BPSDelta:           "--bps-delta",
	BPSLinear:          "--bps-linear",
	BPSDeltaMoreMemory: "--bps-delta-moremem",
}

// Flag returns the command-line token FLIPS expects for this patch type.
func (p PatchType) Flag() string {
	if flag, ok := patchTypeFlags[p]; ok {
		return flag
	}
	return ""
}

func (p PatchType) String() string {
	if flag := p.Flag(); flag != "" {
		return flag
	}
	return fmt.Sprintf("PatchType(%d)", int(p))
}

// Valid reports whether p is one of the known patch types.
func (p PatchType) Valid() bool {
	_, ok := patchTypeFlags[p]
	return ok
}

// ParsePatchType accepts a flag token with or without the leading dashes,
// e.g. "bps-delta" or "--bps-delta".
func ParsePatchType(s string) (PatchType, error) {
	name := "--" + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "--")
	for p, flag := range patchTypeFlags {
		if flag == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown patch type %q (want one of ips, bps, bps-delta, bps-linear, bps-delta-moremem)", s)
}

// PatchTypePtr is a helper for filling CreateOptions.PatchType.
func PatchTypePtr(p PatchType) *PatchType {
	return &p
}
