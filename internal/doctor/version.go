package doctor

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// StagesDeprecatedSince is the first MLflow release that deprecates model
// version stages in favor of aliases.
const StagesDeprecatedSince = "2.9.0"

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// StagesDeprecated reports whether a server at serverVersion deprecates stages.
func StagesDeprecated(serverVersion string) (bool, error) {
	cmp, err := CompareVersions(serverVersion, StagesDeprecatedSince)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	return semver.NewVersion(version)
}
