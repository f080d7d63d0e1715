package registry

import (
	"context"
	"fmt"
	"strings"
)

// Stage is a lifecycle label on a model version.
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

var allStages = []Stage{StageNone, StageStaging, StageProduction, StageArchived}

// ParseStage maps a stage name to a Stage, ignoring case.
func ParseStage(s string) (Stage, error) {
	for _, stage := range allStages {
		if strings.EqualFold(s, string(stage)) {
			return stage, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q: must be one of None, Staging, Production, Archived", s)
}

// ModelVersion is one version of a registered model.
type ModelVersion struct {
	Name    string
	Version string
	Source  string
	RunID   string
	Stage   Stage
	Status  string
}

// Registry registers artifacts as model versions and moves versions between
// stages. Version numbers and conflict handling belong to the implementation.
type Registry interface {
	// Register creates a new version of the model name pointing at uri. When
	// the version was created but did not become usable, it is returned
	// together with the error.
	Register(ctx context.Context, uri, name string) (*ModelVersion, error)
	// Transition moves a version to stage. With archiveExisting, the other
	// versions currently in stage are archived.
	Transition(ctx context.Context, name, version string, stage Stage, archiveExisting bool) (*ModelVersion, error)
}

// Lister lists the versions of a registered model.
type Lister interface {
	Versions(ctx context.Context, name string) ([]ModelVersion, error)
}
