package flips

import (
	"strings"
	"unicode/utf8"
)

// Output is the text FLIPS wrote, split into lines with line endings removed.
type Output struct {
	Stdout []string
	Stderr []string
}

// decodeOutput converts raw process output into an Output. Invalid UTF-8 on
// either stream is reported by name instead of being replaced.
func decodeOutput(stdout, stderr []byte) (*Output, string) {
	if !utf8.Valid(stdout) {
		return nil, "stdout"
	}
	if !utf8.Valid(stderr) {
		return nil, "stderr"
	}
	return &Output{
		Stdout: splitLines(string(stdout)),
		Stderr: splitLines(string(stderr)),
	}, ""
}

// splitLines splits on "\n", drops a trailing "\r" from each line and does not
// yield an empty final line for text that ends in a newline.
func splitLines(s string) []string {
	lines := []string{}
	if s == "" {
		return lines
	}
	s = strings.TrimSuffix(s, "\n")
	for _, line := range strings.Split(s, "\n") {
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	return lines
}
