package flips

// CreateOptions holds the optional flags for CreatePatch.
type CreateOptions struct {
	// OutputPath is where FLIPS writes the patch. Empty lets FLIPS pick a name.
	OutputPath string
	Exact      bool
	// PatchType is omitted from the command line when nil.
	PatchType *PatchType
}

// ApplyOptions holds the optional flags for ApplyPatch.
type ApplyOptions struct {
	// OutputPath is where FLIPS writes the patched ROM. Empty lets FLIPS pick a name.
	OutputPath     string
	Exact          bool
	IgnoreChecksum bool
}

// CreateArgs builds the FLIPS argument list for creating a patch:
//
//	--create [--exact] [<type flag>] <clean> <modified> [<output>]
func CreateArgs(cleanROMPath, modifiedROMPath string, opts CreateOptions) []string {
	args := []string{"--create"}
	if opts.Exact {
		args = append(args, "--exact")
	}
	if opts.PatchType != nil {
		args = append(args, opts.PatchType.Flag())
	}
	args = append(args, cleanROMPath, modifiedROMPath)
	if opts.OutputPath != "" {
		args = append(args, opts.OutputPath)
	}
	return args
}

// ApplyArgs builds the FLIPS argument list for applying a patch:
//
//	--apply [--exact] [--ignore-checksum] <patch> <clean> [<output>]
func ApplyArgs(cleanROMPath, patchPath string, opts ApplyOptions) []string {
	args := []string{"--apply"}
	if opts.Exact {
		args = append(args, "--exact")
	}
	if opts.IgnoreChecksum {
		args = append(args, "--ignore-checksum")
	}
	args = append(args, patchPath, cleanROMPath)
	if opts.OutputPath != "" {
		args = append(args, opts.OutputPath)
	}
	return args
}
