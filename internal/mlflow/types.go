package mlflow

import "encoding/json"

// Model version statuses reported by the registry.
const (
	StatusPendingRegistration = "PENDING_REGISTRATION"
	StatusFailedRegistration  = "FAILED_REGISTRATION"
	StatusReady               = "READY"
)

// Tag is a key/value pair attached to registry entities.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RegisteredModel is a named model in the registry.
type RegisteredModel struct {
	Name                 string         `json:"name"`
	CreationTimestamp    json.Number    `json:"creation_timestamp,omitempty"`
	LastUpdatedTimestamp json.Number    `json:"last_updated_timestamp,omitempty"`
	Description          string         `json:"description,omitempty"`
	LatestVersions       []ModelVersion `json:"latest_versions,omitempty"`
	Tags                 []Tag          `json:"tags,omitempty"`
}

// ModelVersion is one version of a registered model.
type ModelVersion struct {
	Name                 string      `json:"name"`
	Version              string      `json:"version"`
	CreationTimestamp    json.Number `json:"creation_timestamp,omitempty"`
	LastUpdatedTimestamp json.Number `json:"last_updated_timestamp,omitempty"`
	UserID               string      `json:"user_id,omitempty"`
	CurrentStage         string      `json:"current_stage,omitempty"`
	Description          string      `json:"description,omitempty"`
	Source               string      `json:"source,omitempty"`
	RunID                string      `json:"run_id,omitempty"`
	RunLink              string      `json:"run_link,omitempty"`
	Status               string      `json:"status,omitempty"`
	StatusMessage        string      `json:"status_message,omitempty"`
	Tags                 []Tag       `json:"tags,omitempty"`
}

// RunInfo is the metadata part of a run.
type RunInfo struct {
	RunID          string `json:"run_id"`
	ExperimentID   string `json:"experiment_id,omitempty"`
	RunName        string `json:"run_name,omitempty"`
	Status         string `json:"status,omitempty"`
	ArtifactURI    string `json:"artifact_uri"`
	LifecycleStage string `json:"lifecycle_stage,omitempty"`
}

// Run is a tracking run. Only the info block is decoded.
type Run struct {
	Info RunInfo `json:"info"`
}

// CreateModelVersionRequest is the body of model-versions/create.
type CreateModelVersionRequest struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	RunID       string `json:"run_id,omitempty"`
	RunLink     string `json:"run_link,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// TransitionStageRequest is the body of model-versions/transition-stage.
type TransitionStageRequest struct {
	Name                    string `json:"name"`
	Version                 string `json:"version"`
	Stage                   string `json:"stage"`
	ArchiveExistingVersions bool   `json:"archive_existing_versions"`
}

type registeredModelResponse struct {
	RegisteredModel RegisteredModel `json:"registered_model"`
}

type modelVersionResponse struct {
	ModelVersion ModelVersion `json:"model_version"`
}

type searchModelVersionsResponse struct {
	ModelVersions []ModelVersion `json:"model_versions"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type runResponse struct {
	Run Run `json:"run"`
}
