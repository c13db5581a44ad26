// Package wheel parses Python wheel artifact filenames.
package wheel

import (
	"fmt"
	"strings"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Extension is the artifact suffix accepted by the upload pipeline.
const Extension = ".whl"

// IsWheel reports whether the filename carries the wheel extension.
// Case-sensitive, matching the upload convention.
func IsWheel(filename string) bool {
	return strings.HasSuffix(filename, Extension)
}

// ParseFilename extracts the package name and version from a wheel
// filename following the name-version-... convention. The filename must
// contain at least two dash-delimited segments. Name and version are
// returned verbatim: no case folding or normalization is applied.
func ParseFilename(filename string) (name, version string, err error) {
	parts := strings.Split(filename, "-")
	if len(parts) < 2 {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package filename format: %s", filename))
	}
	return parts[0], parts[1], nil
}

// LatestVersion returns the highest version by PEP 440 ordering. Version
// strings that do not parse as PEP 440 are skipped. Returns "" when no
// version parses.
func LatestVersion(versions []string) string {
	var best pep440.Version
	bestRaw := ""
	for _, raw := range versions {
		parsed, err := pep440.Parse(raw)
		if err != nil {
			continue
		}
		if bestRaw == "" || parsed.GreaterThan(best) {
			best = parsed
			bestRaw = raw
		}
	}
	return bestRaw
}
