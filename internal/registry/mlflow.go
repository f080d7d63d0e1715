package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capstone-project/mlreg/internal/ctxlog"
	"github.com/capstone-project/mlreg/internal/mlflow"
	"github.com/sethvargo/go-retry"
)

// DefaultPollInterval is how often a pending model version is re-read.
const DefaultPollInterval = time.Second

// ErrRegistrationFailed is returned when the server reports
// FAILED_REGISTRATION for a new version.
var ErrRegistrationFailed = errors.New("model version registration failed")

// MLflowClient is the subset of the REST client the adapter uses.
type MLflowClient interface {
	CreateRegisteredModel(ctx context.Context, name string) (*mlflow.RegisteredModel, error)
	CreateModelVersion(ctx context.Context, req *mlflow.CreateModelVersionRequest) (*mlflow.ModelVersion, error)
	GetModelVersion(ctx context.Context, name, version string) (*mlflow.ModelVersion, error)
	TransitionModelVersionStage(ctx context.Context, req *mlflow.TransitionStageRequest) (*mlflow.ModelVersion, error)
	SearchModelVersions(ctx context.Context, name string) ([]mlflow.ModelVersion, error)
	GetRun(ctx context.Context, runID string) (*mlflow.Run, error)
}

// MLflow is a Registry backed by an MLflow tracking server.
type MLflow struct {
	client       MLflowClient
	awaitTimeout time.Duration
	pollInterval time.Duration
}

// MLflowOption configures an MLflow registry.
type MLflowOption func(*MLflow)

// WithAwaitTimeout bounds how long Register waits for the new version to
// become READY. Zero returns as soon as the version is created.
func WithAwaitTimeout(d time.Duration) MLflowOption {
	return func(m *MLflow) {
		m.awaitTimeout = d
	}
}

// WithPollInterval sets how often a pending version is re-read.
func WithPollInterval(d time.Duration) MLflowOption {
	return func(m *MLflow) {
		m.pollInterval = d
	}
}

// NewMLflow creates a registry over client.
func NewMLflow(client MLflowClient, opts ...MLflowOption) *MLflow {
	m := &MLflow{
		client:       client,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates the registered model if needed, resolves runs:/ URIs to
// the run's artifact location, creates a new version and waits for it to
// become READY.
func (m *MLflow) Register(ctx context.Context, uri, name string) (*ModelVersion, error) {
	log := ctxlog.FromContext(ctx)

	if _, err := m.client.CreateRegisteredModel(ctx, name); err != nil {
		if !mlflow.IsResourceAlreadyExists(err) {
			return nil, fmt.Errorf("creating registered model %q: %w", name, err)
		}
		log.Debug("registered model already exists", "model", name)
	} else {
		log.Info("created registered model", "model", name)
	}

	req := &mlflow.CreateModelVersionRequest{Name: name, Source: uri}
	if mlflow.IsRunsURI(uri) {
		runID, artifactPath, err := mlflow.ParseRunsURI(uri)
		if err != nil {
			return nil, err
		}
		run, err := m.client.GetRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", uri, err)
		}
		req.Source = mlflow.JoinArtifactURI(run.Info.ArtifactURI, artifactPath)
		req.RunID = runID
	}

	mv, err := m.client.CreateModelVersion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating version of %q from %s: %w", name, uri, err)
	}
	log.Info("created model version", "model", name, "version", mv.Version, "source", req.Source)

	if m.awaitTimeout > 0 && mv.Status != mlflow.StatusReady {
		ready, err := m.awaitReady(ctx, name, mv)
		if err != nil {
			// The version exists on the server even though it never became READY.
			return fromMLflow(mv), err
		}
		mv = ready
	}

	return fromMLflow(mv), nil
}

// awaitReady polls the version until it leaves PENDING_REGISTRATION.
func (m *MLflow) awaitReady(ctx context.Context, name string, mv *mlflow.ModelVersion) (*mlflow.ModelVersion, error) {
	log := ctxlog.FromContext(ctx)
	version := mv.Version
	current := mv

	backoff := retry.WithMaxDuration(m.awaitTimeout, retry.NewConstant(m.pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		switch current.Status {
		case mlflow.StatusReady:
			return nil
		case mlflow.StatusFailedRegistration:
			return fmt.Errorf("%w: %s version %s: %s", ErrRegistrationFailed, name, version, current.StatusMessage)
		}

		log.Debug("waiting for model version", "model", name, "version", version, "status", current.Status)
		next, err := m.client.GetModelVersion(ctx, name, version)
		if err != nil {
			return fmt.Errorf("reading %s version %s: %w", name, version, err)
		}
		current = next
		if current.Status == mlflow.StatusReady {
			return nil
		}
		if current.Status == mlflow.StatusFailedRegistration {
			return fmt.Errorf("%w: %s version %s: %s", ErrRegistrationFailed, name, version, current.StatusMessage)
		}
		return retry.RetryableError(fmt.Errorf("%s version %s is %s", name, version, current.Status))
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %s version %s to become ready: %w", name, version, err)
	}
	return current, nil
}

// Transition moves a version to stage.
func (m *MLflow) Transition(ctx context.Context, name, version string, stage Stage, archiveExisting bool) (*ModelVersion, error) {
	mv, err := m.client.TransitionModelVersionStage(ctx, &mlflow.TransitionStageRequest{
		Name:                    name,
		Version:                 version,
		Stage:                   string(stage),
		ArchiveExistingVersions: archiveExisting,
	})
	if err != nil {
		return nil, fmt.Errorf("transitioning %s version %s to %s: %w", name, version, stage, err)
	}
	return fromMLflow(mv), nil
}

// Versions lists every version of name.
func (m *MLflow) Versions(ctx context.Context, name string) ([]ModelVersion, error) {
	mvs, err := m.client.SearchModelVersions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", name, err)
	}
	out := make([]ModelVersion, 0, len(mvs))
	for i := range mvs {
		out = append(out, *fromMLflow(&mvs[i]))
	}
	sortVersions(out)
	return out, nil
}

func fromMLflow(mv *mlflow.ModelVersion) *ModelVersion {
	stage := Stage(mv.CurrentStage)
	if parsed, err := ParseStage(mv.CurrentStage); err == nil {
		stage = parsed
	}
	if stage == "" {
		stage = StageNone
	}
	return &ModelVersion{
		Name:    mv.Name,
		Version: mv.Version,
		Source:  mv.Source,
		RunID:   mv.RunID,
		Stage:   stage,
		Status:  mv.Status,
	}
}
