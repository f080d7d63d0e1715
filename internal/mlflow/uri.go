package mlflow

import (
	"fmt"
	"strings"
)

const runsScheme = "runs:/"

// IsRunsURI reports whether uri uses the runs:/ scheme.
func IsRunsURI(uri string) bool {
	return strings.HasPrefix(uri, runsScheme)
}

// ParseRunsURI splits runs:/<run_id>/<artifact_path> into its parts. The
// artifact path may be empty.
func ParseRunsURI(uri string) (runID, artifactPath string, err error) {
	if !IsRunsURI(uri) {
		return "", "", fmt.Errorf("not a runs:/ URI: %q", uri)
	}
	rest := strings.TrimLeft(strings.TrimPrefix(uri, runsScheme), "/")
	runID, artifactPath, _ = strings.Cut(rest, "/")
	if runID == "" {
		return "", "", fmt.Errorf("runs:/ URI %q has no run id", uri)
	}
	return runID, strings.Trim(artifactPath, "/"), nil
}

// JoinArtifactURI appends an artifact path to a run's artifact root.
func JoinArtifactURI(root, artifactPath string) string {
	if artifactPath == "" {
		return root
	}
	return strings.TrimRight(root, "/") + "/" + artifactPath
}
