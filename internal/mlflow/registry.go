package mlflow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CreateRegisteredModel creates a registered model named name.
// POST registered-models/create
func (c *Client) CreateRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.post(ctx, "/registered-models/create", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return &resp.RegisteredModel, nil
}

// GetRegisteredModel fetches a registered model by name.
// GET registered-models/get
func (c *Client) GetRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.get(ctx, "/registered-models/get", url.Values{"name": {name}}, &resp); err != nil {
		return nil, err
	}
	return &resp.RegisteredModel, nil
}

// CreateModelVersion creates a new version under an existing registered
// model. The server assigns the version number.
// POST model-versions/create
func (c *Client) CreateModelVersion(ctx context.Context, req *CreateModelVersionRequest) (*ModelVersion, error) {
	var resp modelVersionResponse
	if err := c.post(ctx, "/model-versions/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// GetModelVersion fetches one model version.
// GET model-versions/get
func (c *Client) GetModelVersion(ctx context.Context, name, version string) (*ModelVersion, error) {
	var resp modelVersionResponse
	if err := c.get(ctx, "/model-versions/get", url.Values{"name": {name}, "version": {version}}, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// TransitionModelVersionStage moves a model version to stage. When
// archiveExisting is set, other versions currently in stage are archived.
// POST model-versions/transition-stage
func (c *Client) TransitionModelVersionStage(ctx context.Context, req *TransitionStageRequest) (*ModelVersion, error) {
	var resp modelVersionResponse
	if err := c.post(ctx, "/model-versions/transition-stage", req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// SearchModelVersions returns every version of the named model, following
// pagination.
// GET model-versions/search
func (c *Client) SearchModelVersions(ctx context.Context, name string) ([]ModelVersion, error) {
	filter, err := nameFilter(name)
	if err != nil {
		return nil, err
	}

	var all []ModelVersion
	pageToken := ""
	for {
		query := url.Values{
			"filter":      {filter},
			"max_results": {strconv.Itoa(200)},
		}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var resp searchModelVersionsResponse
		if err := c.get(ctx, "/model-versions/search", query, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.ModelVersions...)

		if resp.NextPageToken == "" {
			return all, nil
		}
		pageToken = resp.NextPageToken
	}
}

// GetRun fetches a run by id.
// GET runs/get
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var resp runResponse
	if err := c.get(ctx, "/runs/get", url.Values{"run_id": {runID}}, &resp); err != nil {
		return nil, err
	}
	return &resp.Run, nil
}

// nameFilter builds a search filter matching name exactly. The filter
// grammar has no escape sequence, so a name is quoted with whichever quote
// it does not contain.
func nameFilter(name string) (string, error) {
	switch {
	case !strings.Contains(name, "'"):
		return "name='" + name + "'", nil
	case !strings.Contains(name, `"`):
		return `name="` + name + `"`, nil
	default:
		return "", fmt.Errorf("model name %q contains both quote characters and cannot be searched", name)
	}
}
